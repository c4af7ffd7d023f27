package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hindsightlog/hindsight/pkg/config"
)

// DB wraps the pgx connection pool shared by all repositories.
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a connection pool against the configured PostgreSQL
// database and verifies it with a ping.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	return NewConnectionURL(ctx, cfg.ConnectionString(), cfg.MaxConnections)
}

// NewConnectionURL opens a pool from a raw connection string. The integration
// test harness uses this directly with the connection string of the container
// it started.
func NewConnectionURL(ctx context.Context, connStr string, maxConns int32) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	poolConfig.MaxConns = maxConns
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 25
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
