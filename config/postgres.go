package config

import (
	"os"
	"sync"
	"time"
)

var (
	pgOnce   sync.Once
	pgConfig *PostgresConfig
)

type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

func GetPostgresConfig() *PostgresConfig {
	pgOnce.Do(func() {
		loadDotEnv()

		pgConfig = &PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			DialTimeout:     10 * time.Second,
		}
	})
	return pgConfig
}
