// Package pg - подключение к Postgres через пул pgx.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Artexxx/employee-service/library/yamlenv"
)

type PostgresConfig struct {
	Conn     *yamlenv.Env[string] `yaml:"conn"`
	MaxConns *yamlenv.Env[int32]  `yaml:"max_conns"`
}

// Enabled сообщает, что строка подключения задана.
func (c PostgresConfig) Enabled() bool {
	return c.Conn.Get() != ""
}

type PG struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPG(ctx context.Context, conn string, log zerolog.Logger, opts ...Option) (*PG, error) {
	cfg, err := pgxpool.ParseConfig(conn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}

	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}

	log.Info().
		Str("host", cfg.ConnConfig.Host).
		Str("database", cfg.ConnConfig.Database).
		Int32("max_conns", cfg.MaxConns).
		Msg("postgres connected")

	return &PG{pool: pool, log: log}, nil
}

type Option func(cfg *pgxpool.Config)

// WithMaxConns ограничивает размер пула, если n > 0.
func WithMaxConns(n int32) Option {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = n
		}
	}
}

func (p *PG) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *PG) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PG) Close() {
	if p == nil || p.pool == nil {
		return
	}

	p.pool.Close()
	p.log.Info().Msg("postgres pool closed")
}
