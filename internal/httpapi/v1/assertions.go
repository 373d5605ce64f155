package v1

import (
    "github.com/tinoosan/wallet/internal/snapshot"
    "github.com/tinoosan/wallet/internal/storage/file"
    "github.com/tinoosan/wallet/internal/storage/leveldb"
    "github.com/tinoosan/wallet/internal/storage/postgres"
    "github.com/tinoosan/wallet/internal/storage/redis"
    "github.com/tinoosan/wallet/internal/storage/sqlite"
)

// Compile-time interface assertions for the lifecycle hook and readiness probes.
var (
    _ SnapshotSaver = (*snapshot.Adapter)(nil)
    _ Authenticator = HeaderAuth{}
    _ Authenticator = JWTAuth{}
    _ ReadyChecker  = (*postgres.Store)(nil)
    _ ReadyChecker  = (*redis.Region)(nil)
    _ ReadyChecker  = (*sqlite.Region)(nil)
)

var (
    _ snapshot.Region = (*file.Region)(nil)
    _ snapshot.Region = (*leveldb.Region)(nil)
    _ snapshot.Region = (*postgres.Store)(nil)
    _ snapshot.Region = (*redis.Region)(nil)
    _ snapshot.Region = (*sqlite.Region)(nil)
)
