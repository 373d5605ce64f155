// Package redis keeps the ledger snapshot under a single Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tinoosan/wallet/internal/errs"
)

// DefaultKey is used when no key is configured.
const DefaultKey = "wallet:ledger:snapshot"

// Region stores the snapshot blob at key.
type Region struct {
	rdb *goredis.Client
	key string
}

// Open connects to addr and verifies the connection.
func Open(ctx context.Context, addr, key string) (*Region, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, key), nil
}

// New wraps an existing client.
func New(rdb *goredis.Client, key string) *Region {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultKey
	}
	return &Region{rdb: rdb, key: key}
}

// Close releases the client.
func (r *Region) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

// Ready pings the server.
func (r *Region) Ready(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

// Load reads the blob.
func (r *Region) Load(ctx context.Context) ([]byte, error) {
	b, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Save overwrites the blob with no expiry.
func (r *Region) Save(ctx context.Context, blob []byte) error {
	return r.rdb.Set(ctx, r.key, blob, 0).Err()
}
