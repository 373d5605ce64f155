package v1

import (
    "context"
)

// SnapshotSaver persists the ledger on request. Nil disables the save hook.
type SnapshotSaver interface {
    Save(ctx context.Context) error
}

// ReadyChecker is optionally implemented by storage backends to indicate readiness.
type ReadyChecker interface {
    Ready(ctx context.Context) error
}
