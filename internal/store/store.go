package store

import (
	"context"
	"fmt"
	"time"

	"pixbridge/internal/config"
	"pixbridge/internal/store/memory"
	"pixbridge/internal/store/postgres"
	redisstore "pixbridge/internal/store/redis"
	"pixbridge/internal/store/repositories"

	"github.com/cenkalti/backoff/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// connectAttempts bounds retries while an external backend is still starting.
const connectAttempts = 5

// Open builds the status store selected by cfg.Store.Backend. The returned
// func releases its connections.
func Open(ctx context.Context, cfg config.Cfg) (repositories.StatusStore, func(), error) {
	switch cfg.Store.Backend {
	case "", "memory":
		log.Info().Str("backend", "memory").Msg("status store ready")
		return memory.NewStatusStore(), func() {}, nil

	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		err := retry(ctx, "redis", func() error { return rdb.Ping(ctx).Err() })
		if err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		log.Info().Str("backend", "redis").Str("addr", cfg.Redis.Addr).Msg("status store ready")
		return redisstore.NewStatusStore(rdb, cfg.Store.StatusTTL), func() { _ = rdb.Close() }, nil

	case "postgres":
		var db *postgres.StatusStore
		var closeFn func()
		err := retry(ctx, "postgres", func() error {
			pool, err := postgres.Open(ctx, cfg.DB.DSN)
			if err != nil {
				return err
			}
			if err := postgres.EnsureSchema(ctx, pool); err != nil {
				pool.Close()
				return backoff.Permanent(fmt.Errorf("ensure schema: %w", err))
			}
			db, closeFn = postgres.NewStatusStore(pool, cfg.Store.StatusTTL), pool.Close
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		log.Info().Str("backend", "postgres").Msg("status store ready")
		return db, closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown status store backend %q", cfg.Store.Backend)
}

func retry(ctx context.Context, name string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	return backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(b, connectAttempts), ctx),
		func(err error, wait time.Duration) {
			log.Warn().Err(err).Str("backend", name).Dur("retry_in", wait).Msg("status store not reachable")
		},
	)
}
