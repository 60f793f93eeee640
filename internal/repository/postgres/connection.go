package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dtroode/qubras-auth/database"
)

// The agent serves one signed in user, so a small pool is plenty.
const (
	maxPoolConns      = 4
	healthCheckPeriod = 30 * time.Second
)

// Connection is the profiles database handle shared by repositories.
type Connection struct {
	*pgxpool.Pool
}

// NewConnection opens a pool, applies pending migrations and checks that the
// database answers.
func NewConnection(ctx context.Context, dsn string) (*Connection, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	conf.MaxConns = maxPoolConns
	conf.HealthCheckPeriod = healthCheckPeriod

	if err := database.Migrate(ctx, dsn); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	conn := &Connection{Pool: pool}
	if err := conn.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Connection) Close() error {
	if c.Pool != nil {
		c.Pool.Close()
	}
	return nil
}

// Ping reports an unreachable database as model.ErrUnavailable.
func (c *Connection) Ping(ctx context.Context) error {
	if c.Pool == nil {
		return fmt.Errorf("connection pool is nil")
	}
	if err := c.Pool.Ping(ctx); err != nil {
		return classify(err, "failed to ping database")
	}
	return nil
}
