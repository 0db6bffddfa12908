package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/cognigraph/cognigraph-backend/config"
	"github.com/cognigraph/cognigraph-backend/internal/storage/postgres"
)

type DBOptions struct {
	DSN       string
	MaxConns  int
	ConnectTO time.Duration
	PingTO    time.Duration
}

func OpenDB(ctx context.Context, opt DBOptions) (*pgxpool.Pool, error) {
	if opt.DSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	if opt.ConnectTO == 0 {
		opt.ConnectTO = 5 * time.Second
	}
	if opt.PingTO == 0 {
		opt.PingTO = 2 * time.Second
	}

	pcfg, err := pgxpool.ParseConfig(opt.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if opt.MaxConns > 0 {
		pcfg.MaxConns = int32(opt.MaxConns)
	}
	pcfg.MaxConnIdleTime = 5 * time.Minute
	pcfg.HealthCheckPeriod = 30 * time.Second

	cctx, cancel := context.WithTimeout(ctx, opt.ConnectTO)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(cctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pctx, pcancel := context.WithTimeout(ctx, opt.PingTO)
	defer pcancel()

	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return pool, nil
}

// OpenSQL returns a *sql.DB for the topic store using the configured driver,
// plus a func that releases everything it opened.
func OpenSQL(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, func(), error) {
	switch cfg.Driver {
	case config.DriverPQ:
		db, err := postgres.NewConnection(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil

	case config.DriverPgx:
		pool, err := OpenDB(ctx, DBOptions{DSN: postgres.DSN(cfg), MaxConns: cfg.MaxConns})
		if err != nil {
			return nil, nil, err
		}
		db := stdlib.OpenDBFromPool(pool)
		return db, func() {
			db.Close()
			pool.Close()
		}, nil
	}
	return nil, nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
}
