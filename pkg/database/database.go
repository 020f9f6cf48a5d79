package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chenglin1712/deming-rollcall/pkg/config"
)

// Open connects to the configured driver.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgres(cfg)
	case config.DriverSQLite, "":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Version reports the engine version string of the connected database.
func Version(ctx context.Context, db *sqlx.DB) (string, error) {
	query := "SELECT version()"
	if db.DriverName() == "sqlite" {
		query = "SELECT sqlite_version()"
	}
	var version string
	if err := db.GetContext(ctx, &version, query); err != nil {
		return "", fmt.Errorf("query database version: %w", err)
	}
	return version, nil
}
