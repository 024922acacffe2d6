package store

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// InitDB initializes the database connection pool using the DATABASE_URL
// environment variable and ensures the schema exists.
func InitDB(ctx context.Context) error {
	var err error
	once.Do(func() {
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			err = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return
		}
		err = ensureSchema(ctx)
	})
	return err
}

// ensureSchema creates the scenario and snapshot tables when missing.
// Scenario bodies live in a JSONB blob; the columns we query on are lifted out.
func ensureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS simulation_scenarios (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			scenario_json JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS valuation_snapshots (
			id UUID PRIMARY KEY,
			scenario_id UUID NOT NULL REFERENCES simulation_scenarios(id) ON DELETE CASCADE,
			breakdown_json JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
	`
	_, err := pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// GetPool returns the database connection pool.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}
