// Package config содержит логику чтения конфигурации приложения.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации приложения.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	StorageBackend string        `env:"STORAGE_BACKEND"`
	StorageDSN     string        `env:"STORAGE_DSN"`
	RedisPrefix    string        `env:"REDIS_PREFIX" envDefault:"restaurant:"`
	MenuURL        string        `env:"MENU_URL"`
	BusinessOwners []string      `env:"BUSINESS_OWNERS" envSeparator:","`
	FlushInterval  time.Duration `env:"FLUSH_INTERVAL" envDefault:"5s"`
	UndoWindow     time.Duration `env:"UNDO_WINDOW" envDefault:"5s"`
	Timezone       string        `env:"TIMEZONE" envDefault:"Local"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envBackend := cfg.StorageBackend
	envDSN := cfg.StorageDSN
	envMenuURL := cfg.MenuURL
	envOwners := cfg.BusinessOwners

	var owners string
	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.StorageBackend, "s", "sqlite", "storage backend: memory, sqlite, postgres, redis")
	flag.StringVar(&cfg.StorageDSN, "d", "restaurant.db", "storage DSN: sqlite file, postgres URI or redis address")
	flag.StringVar(&cfg.MenuURL, "m", "", "remote menu JSON URL")
	flag.StringVar(&owners, "o", "", "comma-separated business owner emails")

	flag.Parse()

	if owners != "" {
		cfg.BusinessOwners = splitList(owners)
	}

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envBackend != "" {
		cfg.StorageBackend = envBackend
	}
	if envDSN != "" {
		cfg.StorageDSN = envDSN
	}
	if envMenuURL != "" {
		cfg.MenuURL = envMenuURL
	}
	if len(envOwners) > 0 {
		cfg.BusinessOwners = envOwners
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}

// Location возвращает часовой пояс для дат заказов и броней.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	return loc, nil
}

func splitList(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}
	return res
}
