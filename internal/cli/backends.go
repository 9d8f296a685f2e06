package cli

import (
	"context"
	"database/sql"
	"time"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/config"
	"quiz-testing-service/internal/infra/memory"
	"quiz-testing-service/internal/infra/postgres"
	redisinfra "quiz-testing-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type backingStore interface {
	app.TestStore
	app.UserStore
	app.AttemptStore
	app.AttemptReader
}

type testCache interface {
	app.TestRepository
	app.TestCacheInvalidator
}

// backends bundles the storage adapters selected by config: Postgres when a
// URL is set (memory otherwise) and Redis when an address is set.
type backends struct {
	store   backingStore
	tests   testCache
	tracker app.StartTracker
	closers []func()
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}

	var loader memory.TestLoader
	if cfg.Postgres.URL != "" {
		db := openBun(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)

		b.store = postgres.NewStore(db)
		loader = postgres.NewTestLoader(pool)
		log.Info().Msg("using postgres storage")
	} else {
		mem := memory.NewStore()
		b.store = mem
		loader = mem
		log.Warn().Msg("postgres url not configured, using in-memory storage")
	}

	cacheTTL := config.TTLDuration(cfg.Catalog.CacheTTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping failed, continuing")
		}
		b.tests = redisinfra.NewTestCache(client, loader, cacheTTL)
		b.tracker = redisinfra.NewStartTracker(client)
	} else {
		b.tests = memory.NewTestCache(loader, cacheTTL)
		b.tracker = memory.NewStartTracker()
	}
	return b, nil
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}
