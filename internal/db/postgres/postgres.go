// Package postgres manages the PostgreSQL connection pool, schema
// migrations and the translation of driver errors into user-facing ones.
//
// The hosted database is plain PostgreSQL, so pgxpool talks to it
// directly. The pool reconnects on its own and caps open connections,
// which matters on hosted plans with small connection limits.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/config"
)

// NewPool creates a connection pool and verifies the database answers.
//
//	pool, err := postgres.NewPool(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ongeldige database DSN: %w", err)
	}

	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pool aanmaken mislukt: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database niet bereikbaar: %w", err)
	}

	log.WithFields(log.Fields{
		"component": "postgres",
		"max_conns": cfg.DBMaxConns,
	}).Info("Connected to PostgreSQL")
	return pool, nil
}

// Migrate creates the bookkeeping table and applies every pending
// migration in order.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("schema_migrations aanmaken mislukt: %w", err)
	}

	for _, m := range migrations {
		applied, err := ExecMigrationSQL(ctx, pool, m.version, m.sql)
		if err != nil {
			return fmt.Errorf("migratie %d (%s): %w", m.version, m.name, err)
		}
		if applied {
			log.WithField("component", "postgres").Infof("Migration %d applied: %s", m.version, m.name)
		}
	}
	return nil
}
