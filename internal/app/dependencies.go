package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
	"github.com/vladislavdragonenkov/storeorders/internal/health"
	"github.com/vladislavdragonenkov/storeorders/internal/storage/memory"
	"github.com/vladislavdragonenkov/storeorders/internal/storage/postgres"
	"github.com/vladislavdragonenkov/storeorders/internal/storage/redisstore"
)

// Dependencies содержит хранилища, выбранные конфигурацией.
type Dependencies struct {
	Orders   domain.OrderRepository
	Catalog  domain.CatalogResolver
	Index    domain.UserOrderIndex
	Timeline domain.TimelineRepository
	// Idempotency равен nil, если Idempotency-Key отключён.
	Idempotency domain.IdempotencyRepository
	// Janitor равен nil, если хранилище ключей очищается само (Redis TTL).
	Janitor domain.IdempotencyJanitor

	checkers map[string]health.Checker
	closers  []func() error
	logger   *log.Entry
}

// NewDependencies открывает хранилища согласно cfg.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	deps := &Dependencies{
		checkers: make(map[string]health.Checker),
		logger:   logger,
	}

	if err := deps.initStorage(ctx, cfg); err != nil {
		deps.Close()
		return nil, err
	}
	if err := deps.initIdempotency(ctx, cfg); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) initStorage(ctx context.Context, cfg Config) error {
	switch cfg.Storage.Driver {
	case "", StorageDriverMemory:
		dir := memory.NewDirectory()
		if cfg.Storage.Seed {
			memory.SeedDemo(dir)
			d.logger.Info("demo directory loaded")
		}
		d.Orders = memory.NewOrderRepository(dir)
		d.Catalog = dir
		d.Index = dir
		d.Timeline = memory.NewTimelineRepository()
		d.logger.Info("using in-memory storage")
		return nil

	case StorageDriverPostgres:
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres dsn is required for postgres storage")
		}
		store, err := postgres.Open(ctx, cfg.Postgres.DSN, postgres.WithPool(postgres.PoolOptions{
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}))
		if err != nil {
			return fmt.Errorf("open postgres storage: %w", err)
		}
		d.closers = append(d.closers, store.Close)

		if cfg.Postgres.AutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			d.logger.Info("postgres migrations applied")
		}

		dir := postgres.NewDirectory(store)
		d.Orders = postgres.NewOrderRepository(store)
		d.Catalog = dir
		d.Index = dir
		d.Timeline = postgres.NewTimelineRepository(store)
		d.checkers["postgres"] = health.NewSimpleChecker("postgres", store.Ping)

		if cfg.Idempotency.Backend == IdempotencyBackendPostgres {
			repo := postgres.NewIdempotencyRepository(store)
			d.Idempotency = repo
			d.Janitor = repo
		}
		d.logger.Info("using postgres storage")
		return nil

	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func (d *Dependencies) initIdempotency(ctx context.Context, cfg Config) error {
	switch cfg.Idempotency.Backend {
	case IdempotencyBackendOff:
		d.logger.Info("idempotency keys disabled")
		return nil

	case "", IdempotencyBackendMemory:
		repo := memory.NewIdempotencyRepository()
		d.Idempotency = repo
		d.Janitor = repo
		return nil

	case IdempotencyBackendPostgres:
		if d.Idempotency == nil {
			return errors.New("postgres idempotency backend requires postgres storage")
		}
		return nil

	case IdempotencyBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, client.Close)

		repo := redisstore.NewIdempotencyRepository(client)
		if err := repo.Ping(ctx); err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		d.Idempotency = repo
		d.checkers["redis"] = health.NewSimpleChecker("redis", repo.Ping)
		d.logger.WithField("addr", cfg.Redis.Addr).Info("using redis idempotency store")
		return nil

	default:
		return fmt.Errorf("unsupported idempotency backend %q", cfg.Idempotency.Backend)
	}
}

// RegisterHealthChecks добавляет проверки открытых хранилищ.
func (d *Dependencies) RegisterHealthChecks(h *health.Handler) {
	for name, checker := range d.checkers {
		h.RegisterChecker(name, checker)
	}
}

// Close освобождает подключения в обратном порядке открытия.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.WithError(err).Warn("failed to close dependency")
		}
	}
	d.closers = nil
}
