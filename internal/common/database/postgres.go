// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"time"

	"advisory-engine/internal/common/config"
	"advisory-engine/internal/common/errors"

	_ "github.com/lib/pq"
)

// Pooled connections are recycled well before typical load-balancer idle
// cutoffs.
const connMaxAge = 5 * time.Minute

// PostgresClient owns the connection pool shared by the profile, catalog
// and history stores.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(connMaxAge)
	db.SetConnMaxIdleTime(connMaxAge)

	return &PostgresClient{DB: db}, nil
}

// Ping verifies the pool can actually reach the database; sql.Open alone
// does not dial.
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// Exec runs a statement that returns no rows. Schema and seed helpers use
// this directly; the stores hold the *sql.DB themselves.
func (c *PostgresClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.DB.ExecContext(ctx, query, args...)
}

// GetDB exposes the pool for the store constructors.
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
