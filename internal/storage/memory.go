package storage

import (
	"context"
	"sync"
)

// MemoryStorage хранит значения в памяти процесса.
type MemoryStorage struct {
	mu      sync.RWMutex
	data    map[string]string
	failErr error
}

// NewMemoryStorage создаёт пустое хранилище в памяти.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

// FailWrites заставляет Set и Remove возвращать err. nil отключает сбой.
func (m *MemoryStorage) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Get возвращает значение по ключу.
func (m *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set сохраняет значение по ключу.
func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return m.failErr
	}
	m.data[key] = value
	return nil
}

// Remove удаляет ключ.
func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return m.failErr
	}
	delete(m.data, key)
	return nil
}

// Close ничего не делает.
func (m *MemoryStorage) Close() error {
	return nil
}
