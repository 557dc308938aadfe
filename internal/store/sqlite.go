package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperengineering/scriptdesk/internal/types"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3, requires cgo
)

// timeFormat is fixed-width so that timestamps stored as TEXT sort correctly.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore represents the SQLite-backed scriptdesk database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

type options struct {
	driver       string
	maxOpenConns int
	now          func() time.Time
}

// Option configures NewSQLiteStore.
type Option func(*options)

// WithDriver selects the database/sql driver (DriverModernc or DriverMattn).
func WithDriver(name string) Option {
	return func(o *options) { o.driver = name }
}

// WithMaxOpenConns bounds the connection pool. Values below 1 are ignored.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithClock overrides the timestamp source. Used by tests that need
// deterministic ordering.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewSQLiteStore opens the database, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := options{
		driver:       DriverModernc,
		maxOpenConns: 1,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.driver != DriverModernc && o.driver != DriverMattn {
		return nil, fmt.Errorf("unsupported driver %q", o.driver)
	}

	inMemory := dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
	if !inMemory {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(o.driver, buildDSN(o.driver, dbPath, inMemory))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each in-memory connection is a separate database.
	if inMemory {
		o.maxOpenConns = 1
	}
	db.SetMaxOpenConns(o.maxOpenConns)
	db.SetMaxIdleConns(o.maxOpenConns)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: o.now}, nil
}

// connPragmas apply to every pooled connection.
var connPragmas = [][2]string{
	{"busy_timeout", "5000"},
	{"foreign_keys", "1"},
	{"synchronous", "NORMAL"},
}

// buildDSN appends connection settings to dbPath in the form the driver
// reads. Pragmas run through db.Exec would reach only one pooled connection.
// _txlock=immediate makes BeginTx take the write lock at BEGIN, so
// concurrent writers queue on busy_timeout instead of failing with
// SQLITE_BUSY when a read lock cannot be upgraded.
func buildDSN(driver, dbPath string, inMemory bool) string {
	pragmas := connPragmas
	if !inMemory {
		pragmas = append(pragmas[:len(pragmas):len(pragmas)], [2]string{"journal_mode", "WAL"})
	}

	q := url.Values{}
	q.Set("_txlock", "immediate")
	for _, p := range pragmas {
		if driver == DriverMattn {
			q.Set("_"+p[0], p[1])
		} else {
			q.Add("_pragma", p[0]+"("+p[1]+")")
		}
	}

	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + q.Encode()
}

// DB exposes the underlying pool for CLI maintenance commands.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetStats returns aggregate store statistics
func (s *SQLiteStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM scripts),
			(SELECT COUNT(*) FROM performance_goals)
	`).Scan(&stats.ScriptCount, &stats.GoalCount)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &stats, nil
}

// Backup writes a consistent copy of the database to path using VACUUM INTO.
// The destination must not exist.
func (s *SQLiteStore) Backup(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrBackupExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat backup destination: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create backup directory: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return nil
}

// timestamp returns the current time in storage format.
func (s *SQLiteStore) timestamp() (time.Time, string) {
	t := s.now().UTC()
	return t, t.Format(timeFormat)
}

// parseTime parses a stored timestamp. Malformed values yield the zero time.
func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullableString maps "" to SQL NULL.
func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// boolInt maps a bool to SQLite's integer representation.
func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
