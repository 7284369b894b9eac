// Package storage содержит абстракцию локального key-value хранилища и его реализации.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Логические ключи хранилища.
const (
	KeyUser         = "user"
	KeyUsers        = "users"
	KeyOrderHistory = "orderHistory"
	KeyReservations = "reservations"
	KeyIssues       = "issues"
)

// Поддерживаемые бэкенды.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

var (
	// ErrNotFound возвращается, если ключ отсутствует в хранилище.
	ErrNotFound = errors.New("key not found")
	// ErrUnknownBackend возвращается для неподдерживаемого типа хранилища.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Storage описывает хранилище строковых значений по строковому ключу.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Options содержит параметры открытия хранилища.
type Options struct {
	Backend     string
	DSN         string
	RedisPrefix string
}

// Open открывает хранилище указанного типа.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStorage(), nil
	case BackendSQLite, "":
		return NewSQLiteStorage(ctx, opts.DSN)
	case BackendPostgres:
		return NewPostgresStorage(ctx, opts.DSN)
	case BackendRedis:
		return NewRedisStorage(ctx, opts.DSN, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Backend)
	}
}
