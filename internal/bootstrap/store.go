package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognigraph/cognigraph-backend/config"
	httpapi "github.com/cognigraph/cognigraph-backend/internal/api/http"
	"github.com/cognigraph/cognigraph-backend/internal/storage/postgres"
	"github.com/cognigraph/cognigraph-backend/internal/topics/repository"
)

// StoreHandle is an opened topic store with its health probe and cleanup.
type StoreHandle struct {
	Name  string
	Store repository.Store
	Ping  httpapi.PingFunc
	Close func()
}

// OpenStore connects the configured backend. When migrate is true the
// backend's schema (tables or constraints) is applied first.
func OpenStore(ctx context.Context, cfg *config.Config, migrate bool, log *zap.Logger) (*StoreHandle, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, closeDB, err := OpenSQL(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				closeDB()
				return nil, err
			}
		}
		log.Info("topic store ready", zap.String("backend", "postgres"), zap.String("driver", cfg.Database.Driver))
		return &StoreHandle{
			Name:  config.BackendPostgres,
			Store: repository.NewPostgresStore(db),
			Ping:  db.PingContext,
			Close: closeDB,
		}, nil

	case config.BackendRedis:
		client, err := OpenRedis(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.Info("topic store ready", zap.String("backend", "redis"), zap.String("addr", cfg.Redis.Addr))
		return &StoreHandle{
			Name:  config.BackendRedis,
			Store: repository.NewRedisStore(client),
			Ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Close: func() { client.Close() },
		}, nil

	case config.BackendNeo4j:
		driver, err := OpenNeo4j(ctx, &cfg.Neo4j)
		if err != nil {
			return nil, err
		}
		store := repository.NewNeo4jStore(driver)
		if migrate {
			if err := store.EnsureSchema(ctx); err != nil {
				driver.Close(ctx)
				return nil, err
			}
		}
		log.Info("topic store ready", zap.String("backend", "neo4j"), zap.String("uri", cfg.Neo4j.URI))
		return &StoreHandle{
			Name:  config.BackendNeo4j,
			Store: store,
			Ping:  driver.VerifyConnectivity,
			Close: func() { driver.Close(context.Background()) },
		}, nil

	case config.BackendMemory:
		log.Warn("topic store is in-memory; data is lost on restart")
		return &StoreHandle{
			Name:  config.BackendMemory,
			Store: repository.NewMemoryStore(),
			Close: func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
