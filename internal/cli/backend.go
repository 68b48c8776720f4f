package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jPabloBC/ingenit-flows/internal/config"
	"github.com/jPabloBC/ingenit-flows/pkg/adapters/file"
	"github.com/jPabloBC/ingenit-flows/pkg/adapters/memory"
	"github.com/jPabloBC/ingenit-flows/pkg/adapters/postgres"
	"github.com/jPabloBC/ingenit-flows/pkg/adapters/redis"
	"github.com/jPabloBC/ingenit-flows/pkg/adapters/sqlite"
	"github.com/jPabloBC/ingenit-flows/pkg/persistence/middleware"
	"github.com/jPabloBC/ingenit-flows/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Backend is the storage wiring selected by the configuration.
type Backend struct {
	// Store is the configured driver wrapped in the persistence middleware.
	Store ports.FlowStore
	// Locker is non-nil only for drivers that can coordinate across processes.
	Locker ports.DistributedLocker

	closers []func() error
}

// Close releases the connections held by the driver.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenBackend builds the flow store described by cfg. Masking runs before
// encryption so that the encrypted payload never holds the unmasked values.
func OpenBackend(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	switch cfg.Driver {
	case "memory":
		b.Store = memory.NewStore()
	case "", "file":
		opts := []file.Option{file.WithLogger(logger)}
		if cfg.Format == "yaml" {
			opts = append(opts, file.WithYAML())
		}
		b.Store = file.New(cfg.Dir, opts...)
	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		b.Store = redis.NewFromClient(client,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithCompression(cfg.Redis.Compress),
		)
		b.Locker = redis.NewLocker(client, cfg.Redis.Prefix)
		b.closers = append(b.closers, client.Close)
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.Store = store
		b.closers = append(b.closers, store.Close)
	case "postgres":
		store, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		if err := store.CreateSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		b.Store = store
		b.closers = append(b.closers, func() error { store.Close(); return nil })
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	mws, err := storeMiddleware(cfg)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Store = middleware.Chain(b.Store, mws...)

	logger.Debug("storage ready", "driver", cfg.Driver, "middleware", len(mws))
	return b, nil
}

func storeMiddleware(cfg config.StorageConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.MaskPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.MaskPatterns)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern: %w", err)
		}
		mws = append(mws, pii)
	}
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:      key,
			AllowPlaintext: true,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}
