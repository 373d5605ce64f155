// Package sqlite keeps the ledger snapshot in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tinoosan/wallet/internal/errs"
)

// slot is the primary key of the current snapshot row.
const slot = 1

const schema = `create table if not exists ledger_snapshots (
	id integer primary key,
	payload blob not null,
	saved_at integer not null
)`

// Region persists the snapshot blob in one row of ledger_snapshots.
type Region struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the SQLite file at path and creates the table.
func Open(path string) (*Region, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	r := New(sqlDB)
	if err := r.Migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return r, nil
}

// New wraps an open database handle. Call Migrate before first use.
func New(db *sql.DB) *Region {
	return &Region{sqlDB: db, now: time.Now}
}

// Migrate creates the snapshot table if it is missing.
func (r *Region) Migrate(ctx context.Context) error {
	_, err := r.sqlDB.ExecContext(ctx, schema)
	return err
}

// Close closes the SQLite handle.
func (r *Region) Close() error {
	if r == nil || r.sqlDB == nil {
		return nil
	}
	return r.sqlDB.Close()
}

// Ready pings the database.
func (r *Region) Ready(ctx context.Context) error { return r.sqlDB.PingContext(ctx) }

// Load returns the current snapshot blob.
func (r *Region) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := r.sqlDB.QueryRowContext(ctx, `select payload from ledger_snapshots where id = ?`, slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Save upserts the snapshot blob.
func (r *Region) Save(ctx context.Context, blob []byte) error {
	_, err := r.sqlDB.ExecContext(ctx, `
		insert into ledger_snapshots (id, payload, saved_at) values (?, ?, ?)
		on conflict(id) do update set payload = excluded.payload, saved_at = excluded.saved_at
	`, slot, blob, r.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}
