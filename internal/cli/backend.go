package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/infra/memory"
	"timed-quiz-service/internal/infra/postgres"
	infraredis "timed-quiz-service/internal/infra/redis"
	"timed-quiz-service/internal/infra/sqlite"
)

// backend bundles the stores selected by configuration.
type backend struct {
	quizzes  *app.Repository
	attempts app.AttemptRepository
	closers  []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend picks the store of record (postgres, then sqlite, else memory)
// and fronts it with redis when configured, or with an in-process cache.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	b := &backend{}

	var durable app.KeyValueStore
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		durable = postgres.NewStore(pool)
		logger.Info("using postgres store")
	case cfg.SQLite.Path != "":
		store, err := sqlite.NewStore(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		durable = store
		logger.Info("using sqlite store", zap.String("path", cfg.SQLite.Path))
	}

	var store app.KeyValueStore
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		store = infraredis.NewStore(client, durable, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		b.attempts = infraredis.NewAttemptStore(client, config.TTLDuration(cfg.Attempt.TTL, 2*time.Hour))
		logger.Info("using redis", zap.String("addr", cfg.Redis.Addr), zap.Bool("cache_only", durable != nil))
	} else {
		if durable != nil {
			store = memory.NewCachingStore(durable, config.TTLDuration(cfg.Storage.CacheTTL, 30*time.Second))
		} else {
			store = memory.NewStore()
			logger.Warn("no persistent store configured, quizzes live in memory only")
		}
		b.attempts = memory.NewAttemptStore()
	}

	b.quizzes = app.NewRepository(store, cfg.Storage.Key, logger)
	return b, nil
}

// newService counts attempt time on the wall clock, one tick per second.
func newService(b *backend, logger *zap.Logger, observer app.AttemptObserver) *app.QuizService {
	return app.NewQuizService(b.quizzes, b.attempts,
		app.WithLogger(logger),
		app.WithObserver(observer),
	)
}
