package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/adapter"
	"github.com/ChangJoo-Park/json-api/internal/config"
	"github.com/ChangJoo-Park/json-api/internal/docstore"
	"github.com/ChangJoo-Park/json-api/internal/docstore/engine"
	"github.com/ChangJoo-Park/json-api/internal/docstore/memory"
	"github.com/ChangJoo-Park/json-api/internal/docstore/redisstore"
	"github.com/ChangJoo-Park/json-api/internal/docstore/schemafile"
	"github.com/ChangJoo-Park/json-api/internal/docstore/sqlstore"
)

// sqlDrivers maps configured SQL backends to registered driver names.
var sqlDrivers = map[string]string{
	config.BackendPostgres: "postgres",
	config.BackendPgx:      "pgx",
	config.BackendSQLite:   "sqlite3",
}

// application is a fully wired adapter and the resources behind it.
type application struct {
	adapter *adapter.Adapter
	close   func() error
}

// openBackend connects the configured store backend. The returned closer is
// never nil.
func openBackend(ctx context.Context, cfg config.StoreConfig) (engine.Backend, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), func() error { return nil }, nil
	case config.BackendRedis:
		b, err := redisstore.Open(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	default:
		driver, ok := sqlDrivers[cfg.Backend]
		if !ok {
			return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
		}
		b, err := sqlstore.Open(ctx, driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}
}

// newAdapter defines the models of the schema file on a store over backend
// and returns an adapter serving them.
func newAdapter(backend engine.Backend, cfg config.StoreConfig, logger *zap.Logger) (*adapter.Adapter, error) {
	file, err := schemafile.Load(cfg.SchemaFile)
	if err != nil {
		return nil, err
	}

	store := engine.New(backend, engine.WithLogger(logger))
	if err := file.Apply(store); err != nil {
		return nil, fmt.Errorf("applying %s: %w", cfg.SchemaFile, err)
	}

	var models []docstore.Model
	for _, m := range store.Models() {
		models = append(models, m)
	}
	registry, err := adapter.NewRegistry(models...)
	if err != nil {
		return nil, err
	}

	opts := []adapter.Option{adapter.WithLogger(logger)}
	if cfg.IDStrategy == config.IDStrategyUUID {
		opts = append(opts, adapter.WithIDGenerator(uuid.NewString))
	}
	return adapter.New(registry, opts...), nil
}

func bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*application, error) {
	backend, closeBackend, err := openBackend(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}

	a, err := newAdapter(backend, cfg.Store, logger)
	if err != nil {
		_ = closeBackend()
		return nil, err
	}
	return &application{adapter: a, close: closeBackend}, nil
}
