// Package mirror реализует сквозную запись состояния в постоянное хранилище.
//
// Состояние в памяти всегда остаётся источником истины. Владелец состояния
// готовит запись под своей блокировкой (Stage), а выполняет её после снятия
// блокировки (Commit). Запись в хранилище выполняется с несколькими повторами;
// если они не помогли, значение откладывается и досылается фоновым процессом.
// Для одного ключа побеждает последняя версия.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mmeshcher/restaurant-ordering/internal/storage"
)

var (
	// ErrDeferred возвращается, если запись не удалась и поставлена в очередь.
	ErrDeferred = errors.New("persistence deferred")
	// ErrCorrupt возвращается, если сохранённое значение не удалось разобрать.
	ErrCorrupt = errors.New("persisted value is corrupt")
)

// entry описывает последнее подготовленное значение ключа, ещё не записанное в хранилище.
// value == nil означает удаление ключа.
type entry struct {
	value    *string
	version  uint64
	deferred bool
}

// Mirror зеркалирует значения в хранилище.
type Mirror struct {
	store  storage.Storage
	logger *zap.Logger

	retries uint64
	base    time.Duration

	mu      sync.Mutex
	seq     uint64
	entries map[string]*entry
	locks   map[string]*sync.Mutex
}

// New создаёт зеркало поверх хранилища.
func New(store storage.Storage, logger *zap.Logger) *Mirror {
	return &Mirror{
		store:   store,
		logger:  logger,
		retries: 3,
		base:    50 * time.Millisecond,
		entries: make(map[string]*entry),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Load читает значение по ключу и разбирает его в dst.
// Подготовленное, но ещё не записанное значение имеет приоритет над хранилищем.
// Возвращает false без ошибки, если ключ отсутствует.
func (m *Mirror) Load(ctx context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	e, staged := m.entries[key]
	var value *string
	if staged {
		value = e.value
	}
	m.mu.Unlock()

	var raw string
	switch {
	case staged && value == nil:
		return false, nil
	case staged:
		raw = *value
	default:
		v, err := m.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return false, nil
			}
			return false, fmt.Errorf("load %s: %w", key, err)
		}
		raw = v
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// Write подготовленная запись одного ключа.
type Write struct {
	m       *Mirror
	key     string
	value   *string
	version uint64
	err     error
}

// Stage кодирует v и закрепляет за ключом новую версию значения.
// Вызывается под блокировкой владельца состояния, чтобы версии шли в порядке изменений;
// Commit выполняется уже после её снятия.
func (m *Mirror) Stage(key string, v any) *Write {
	data, err := json.Marshal(v)
	if err != nil {
		return &Write{m: m, key: key, err: fmt.Errorf("encode %s: %w", key, err)}
	}
	s := string(data)
	return m.stage(key, &s)
}

// StageDelete закрепляет за ключом удаление.
func (m *Mirror) StageDelete(key string) *Write {
	return m.stage(key, nil)
}

func (m *Mirror) stage(key string, value *string) *Write {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.entries[key] = &entry{value: value, version: m.seq}
	return &Write{m: m, key: key, value: value, version: m.seq}
}

// Commit записывает значение в хранилище с повторами. Если за это время ключ получил
// более новую версию, запись пропускается. После исчерпания повторов значение
// остаётся в очереди и возвращается ErrDeferred.
func (w *Write) Commit(ctx context.Context) error {
	if w.err != nil {
		return w.err
	}
	m := w.m
	lock := m.keyLock(w.key)

	b := retry.WithMaxRetries(m.retries, retry.NewExponential(m.base))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		lock.Lock()
		defer lock.Unlock()

		if !m.latest(w.key, w.version) {
			return nil
		}
		if err := m.apply(ctx, w.key, w.value); err != nil {
			return retry.RetryableError(err)
		}
		m.settle(w.key, w.version)
		return nil
	})
	if err == nil {
		return nil
	}

	m.mu.Lock()
	if e, ok := m.entries[w.key]; ok && e.version == w.version {
		e.deferred = true
	}
	m.mu.Unlock()

	m.logger.Warn("persistence write deferred", zap.String("key", w.key), zap.Error(err))

	return fmt.Errorf("%w: %s: %v", ErrDeferred, w.key, err)
}

// Save кодирует v в JSON и записывает его по ключу.
func (m *Mirror) Save(ctx context.Context, key string, v any) error {
	return m.Stage(key, v).Commit(ctx)
}

// Delete удаляет ключ из хранилища.
func (m *Mirror) Delete(ctx context.Context, key string) error {
	return m.StageDelete(key).Commit(ctx)
}

func (m *Mirror) keyLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

func (m *Mirror) latest(key string, version uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	return ok && e.version == version
}

// settle снимает значение с учёта, если оно всё ещё последнее.
func (m *Mirror) settle(key string, version uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok && e.version == version {
		delete(m.entries, key)
	}
}

func (m *Mirror) apply(ctx context.Context, key string, value *string) error {
	if value == nil {
		return m.store.Remove(ctx, key)
	}
	return m.store.Set(ctx, key, *value)
}

// Pending возвращает количество отложенных записей.
func (m *Mirror) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.entries {
		if e.deferred {
			n++
		}
	}
	return n
}

// Flush делает одну попытку дослать отложенные записи и возвращает число оставшихся.
func (m *Mirror) Flush(ctx context.Context) int {
	m.mu.Lock()
	keys := make([]string, 0, len(m.entries))
	for key, e := range m.entries {
		if e.deferred {
			keys = append(keys, key)
		}
	}
	m.mu.Unlock()

	for _, key := range keys {
		m.flushKey(ctx, key)
	}

	return m.Pending()
}

func (m *Mirror) flushKey(ctx context.Context, key string) {
	lock := m.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok || !e.deferred {
		m.mu.Unlock()
		return
	}
	value, version := e.value, e.version
	m.mu.Unlock()

	if err := m.apply(ctx, key, value); err != nil {
		m.logger.Debug("pending write still failing", zap.String("key", key), zap.Error(err))
		return
	}
	m.settle(key, version)
	m.logger.Info("pending write flushed", zap.String("key", key))
}

// Run периодически досылает отложенные записи до отмены контекста.
// При остановке выполняется последняя попытка.
func (m *Mirror) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if left := m.Flush(flushCtx); left > 0 {
				m.logger.Warn("pending writes lost on shutdown", zap.Int("count", left))
			}
			cancel()
			return
		case <-ticker.C:
			if m.Pending() > 0 {
				m.Flush(ctx)
			}
		}
	}
}
