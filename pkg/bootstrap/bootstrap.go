// Package bootstrap assembles the screens runtime from a loaded config: the
// endpoint chain, the generation service, storage, the event publisher and
// the persistence worker pool.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/screens/pkg/config"
	"github.com/papercomputeco/screens/pkg/credentials"
	"github.com/papercomputeco/screens/pkg/endpoint"
	"github.com/papercomputeco/screens/pkg/eventstream"
	"github.com/papercomputeco/screens/pkg/eventstream/kafka"
	"github.com/papercomputeco/screens/pkg/eventstream/nop"
	"github.com/papercomputeco/screens/pkg/fallback"
	"github.com/papercomputeco/screens/pkg/generate"
	"github.com/papercomputeco/screens/pkg/logger"
	"github.com/papercomputeco/screens/pkg/storage"
	"github.com/papercomputeco/screens/pkg/storage/inmemory"
	"github.com/papercomputeco/screens/pkg/storage/postgres"
	"github.com/papercomputeco/screens/pkg/storage/sqlite"
	"github.com/papercomputeco/screens/pkg/worker"
)

// Stack is a wired screens runtime. Close releases it in reverse order.
type Stack struct {
	Config    *config.Config
	Service   *generate.Service
	Driver    storage.Driver
	Publisher eventstream.Publisher
	Pool      *worker.Pool
}

// New validates cfg and builds every component it names. configDir is the
// --config-dir override used to locate a default SQLite database.
func New(ctx context.Context, cfg *config.Config, configDir string, log *slog.Logger) (*Stack, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	endpoints, err := ResolveEndpoints(cfg.Endpoints, configDir)
	if err != nil {
		return nil, err
	}

	chain, err := endpoint.FromConfig(ctx, endpoints, log)
	if err != nil {
		return nil, err
	}

	opts, err := FallbackOptions(cfg.Generation, log)
	if err != nil {
		return nil, err
	}

	driver, err := NewDriver(ctx, cfg.Storage, configDir, log)
	if err != nil {
		return nil, err
	}

	publisher, err := NewPublisher(cfg.EventStream, log)
	if err != nil {
		_ = driver.Close()
		return nil, err
	}

	pool, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: publisher,
		Source:    eventstream.EventSource{Storage: cfg.Storage.Provider},
		Logger:    log,
	})
	if err != nil {
		_ = publisher.Close()
		_ = driver.Close()
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}

	service := generate.NewService(chain,
		generate.WithFallback(opts),
		generate.WithPlaceholder(cfg.Generation.Placeholder),
		generate.WithSink(pool),
		generate.WithLogger(log),
	)

	return &Stack{
		Config:    cfg,
		Service:   service,
		Driver:    driver,
		Publisher: publisher,
		Pool:      pool,
	}, nil
}

// Close drains the worker pool, then closes the publisher and the driver.
func (s *Stack) Close() error {
	s.Pool.Close()
	return errors.Join(s.Publisher.Close(), s.Driver.Close())
}

// ResolveEndpoints fills missing API keys from credentials.toml.
func ResolveEndpoints(endpoints []config.EndpointConfig, configDir string) ([]config.EndpointConfig, error) {
	creds, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	return creds.Apply(endpoints)
}

// FallbackOptions converts the [generation] section to invoker options.
func FallbackOptions(g config.GenerationConfig, log *slog.Logger) (fallback.Options, error) {
	initial, maxDelay, err := g.Durations()
	if err != nil {
		return fallback.Options{}, err
	}

	opts := fallback.DefaultOptions()
	if g.Attempts > 0 {
		opts.Attempts = g.Attempts
	}
	if g.InitialDelay != "" {
		opts.InitialDelay = initial
	}
	opts.MaxDelay = maxDelay
	opts.Logger = log
	return opts, nil
}

// NewDriver opens the storage backend selected by cfg.
func NewDriver(ctx context.Context, cfg config.StorageConfig, configDir string, log *slog.Logger) (storage.Driver, error) {
	switch cfg.Provider {
	case "", config.StorageMemory:
		log.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	case config.StorageSQLite:
		path, err := ResolveSQLitePath(cfg.SQLitePath, configDir)
		if err != nil {
			return nil, err
		}
		driver, err := sqlite.NewSQLiteDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		log.Info("using SQLite storage", "path", path)
		return driver, nil

	case config.StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is required for postgres storage")
		}
		driver, err := postgres.NewDriver(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL storer: %w", err)
		}
		log.Info("using PostgreSQL storage")
		return driver, nil

	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// NewPublisher creates the event publisher selected by cfg.
func NewPublisher(cfg config.EventStreamConfig, log *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case "", config.EventStreamNop:
		return nop.NewPublisher(), nil

	case config.EventStreamKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: kafka.ParseBrokers(cfg.Brokers),
			Topic:   cfg.Topic,
		})
		if err != nil {
			return nil, err
		}
		log.Info("publishing screen events to kafka",
			"brokers", cfg.Brokers,
			"topic", cfg.Topic,
		)
		return p, nil

	default:
		return nil, fmt.Errorf("unknown eventstream provider %q", cfg.Provider)
	}
}
