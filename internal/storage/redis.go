package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage хранит значения в Redis под общим префиксом.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage подключается к Redis. addr может быть адресом host:port или redis:// URL.
func NewRedisStorage(ctx context.Context, addr, prefix string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStorage{client: client, prefix: prefix}, nil
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + k
}

// Get возвращает значение по ключу.
func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

// Set сохраняет значение по ключу без срока жизни.
func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Remove удаляет ключ.
func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Close закрывает клиент Redis.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
