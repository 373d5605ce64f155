// Package postgres keeps the ledger snapshot in a single Postgres row.
//
// The schema lives under db/migrations. The ledger itself stays in memory;
// this package only stores and fetches the encoded blob at lifecycle points.
package postgres

import (
    "context"
    "errors"
    "fmt"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"

    "github.com/tinoosan/wallet/internal/errs"
)

// slot is the primary key of the current snapshot row.
const slot = 1

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
    pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
    cfg, err := pgxpool.ParseConfig(dsn)
    if err != nil { return nil, err }
    pool, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil { return nil, err }
    // Verify connection
    if err := pool.Ping(ctx); err != nil { pool.Close(); return nil, err }
    return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { if s.pool != nil { s.pool.Close() } }

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// Migrate creates the snapshot table if it is missing.
func (s *Store) Migrate(ctx context.Context) error {
    _, err := s.pool.Exec(ctx, schema)
    return err
}

const schema = `
create table if not exists ledger_snapshots (
    id        integer primary key,
    payload   bytea not null,
    saved_at  timestamptz not null default now()
)`

// Load returns the current snapshot blob.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
    var payload []byte
    err := s.pool.QueryRow(ctx, `
        select payload from ledger_snapshots where id = $1
    `, slot).Scan(&payload)
    if errors.Is(err, pgx.ErrNoRows) { return nil, errs.ErrNotFound }
    if err != nil { return nil, err }
    return payload, nil
}

// Save upserts the snapshot blob in a transaction.
func (s *Store) Save(ctx context.Context, blob []byte) error {
    tx, err := s.pool.Begin(ctx)
    if err != nil { return err }
    defer func() { _ = tx.Rollback(ctx) }()
    if _, err := tx.Exec(ctx, `
        insert into ledger_snapshots (id, payload, saved_at)
        values ($1, $2, now())
        on conflict (id) do update set payload = excluded.payload, saved_at = excluded.saved_at
    `, slot, blob); err != nil {
        return fmt.Errorf("upsert snapshot: %w", err)
    }
    return tx.Commit(ctx)
}
