package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"reposched/internal/config"
	"reposched/internal/store"
	"reposched/internal/store/file"
	"reposched/internal/store/postgres"
	"reposched/internal/store/sqlite"
)

// openStore connects the backend selected by cfg.StoreDriver.
func openStore(ctx context.Context, cfg *config.Config, migrate bool, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		if migrate {
			log.Info("running database migrations")
			version, err := postgres.Migrate(pg.DB())
			if err != nil {
				pg.Close()
				return nil, fmt.Errorf("migration failed: %w", err)
			}
			log.Info("migrations completed", "version", version)
		}
		return pg, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(filepath.Join(cfg.DataDir, "reposched.db"))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return s, nil

	case config.DriverFile:
		s, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
