package cmd

import (
	"context"
	"fmt"

	"github.com/Lumos-Labs-HQ/libseed/internal/config"
	"github.com/Lumos-Labs-HQ/libseed/internal/database"
	"github.com/Lumos-Labs-HQ/libseed/internal/database/postgres"
	"github.com/Lumos-Labs-HQ/libseed/internal/database/sqldb"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openAdapter connects to the configured database. PostgreSQL goes through
// pgx unless the pq driver is requested.
func openAdapter(ctx context.Context, cfg *config.Config) (database.DatabaseAdapter, error) {
	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, err
	}

	var adapter database.DatabaseAdapter
	switch {
	case !cfg.IsPostgres():
		adapter = sqldb.New(sqldb.DriverSQLite)
	case cfg.Database.Driver == "pq":
		adapter = sqldb.New(sqldb.DriverPostgres)
	default:
		adapter = postgres.New()
	}

	if err := adapter.Connect(ctx, dbURL); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return adapter, nil
}
