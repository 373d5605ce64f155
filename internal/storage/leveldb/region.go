// Package leveldb keeps the ledger snapshot in a goleveldb database.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/tinoosan/wallet/internal/errs"
)

// key under which the current blob lives
var snapshotKey = []byte("snapshot/current")

// Region stores the snapshot blob under a single key.
type Region struct {
	db *leveldb.DB
}

// Open opens (or creates) the database directory at path.
func Open(path string) (*Region, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("leveldb path is required")
	}
	db, err := leveldb.OpenFile(path, &ldb_opt.Options{ErrorIfMissing: false})
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &Region{db: db}, nil
}

// OpenMemory opens a Region backed by memory storage; used in tests.
func OpenMemory() (*Region, error) {
	db, err := leveldb.Open(ldb_storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Region{db: db}, nil
}

// Close releases the database.
func (r *Region) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Load reads the current blob.
func (r *Region) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := r.db.Get(snapshotKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Save writes the blob with a synced write.
func (r *Region) Save(ctx context.Context, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Put(snapshotKey, blob, &ldb_opt.WriteOptions{Sync: true})
}
