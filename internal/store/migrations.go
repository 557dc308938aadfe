package store

import (
	"database/sql"
	"fmt"

	"github.com/hyperengineering/scriptdesk/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies all pending database migrations using goose.
// It uses the embedded SQL files from the migrations package.
func RunMigrations(db *sql.DB) error {
	// Disable goose's default logging to avoid stdout noise
	goose.SetLogger(goose.NopLogger())

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// SchemaVersion returns the currently applied migration version.
func SchemaVersion(db *sql.DB) (int64, error) {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}
