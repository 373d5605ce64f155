package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tinoosan/wallet/internal/errs"
	"github.com/tinoosan/wallet/internal/ledger"
)

// ErrNoSnapshot is returned by Restore when the region has never been written.
var ErrNoSnapshot = errors.New("no snapshot")

// Region is a durable place holding exactly one snapshot blob.
// Load returns errs.ErrNotFound when nothing has been saved yet.
type Region interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
}

// Table is the account state the adapter copies in and out.
type Table interface {
	Accounts() []ledger.Account
	Replace(accounts []ledger.Account) error
}

var (
	snapshotOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallet",
			Name:      "snapshot_operations_total",
			Help:      "Snapshot saves and restores by result",
		},
		[]string{"op", "result"},
	)
	snapshotBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wallet",
			Name:      "snapshot_bytes",
			Help:      "Size of the last saved or restored snapshot",
		},
	)
	snapshotDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wallet",
			Name:      "snapshot_duration_seconds",
			Help:      "Duration of snapshot saves and restores",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// Adapter ties a Table to a Region. It is only invoked between operations.
type Adapter struct {
	table  Table
	region Region
	log    *slog.Logger
	// saveMu orders saves: the table copy and the region write happen as one
	// step, so a later save always lands after an earlier one.
	saveMu sync.Mutex
}

// NewAdapter constructs an Adapter.
func NewAdapter(table Table, region Region, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{table: table, region: region, log: logger}
}

// Save writes the current table to the region. Concurrent saves run one at a time.
func (a *Adapter) Save(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	start := time.Now()
	accounts := a.table.Accounts()
	blob := Encode(accounts)
	if err := a.region.Save(ctx, blob); err != nil {
		snapshotOps.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("save snapshot: %w", err)
	}
	snapshotOps.WithLabelValues("save", "ok").Inc()
	snapshotBytes.Set(float64(len(blob)))
	snapshotDuration.WithLabelValues("save").Observe(time.Since(start).Seconds())
	a.log.Info("snapshot saved", "accounts", len(accounts), "bytes", len(blob), "duration", time.Since(start).String())
	return nil
}

// Restore replaces the table with the region's snapshot.
// It returns ErrNoSnapshot for a never-written region and wraps
// errs.ErrCorruptSnapshot for unreadable data; the table is untouched on error.
func (a *Adapter) Restore(ctx context.Context) (int, error) {
	start := time.Now()
	blob, err := a.region.Load(ctx)
	if errors.Is(err, errs.ErrNotFound) {
		snapshotOps.WithLabelValues("restore", "empty").Inc()
		return 0, ErrNoSnapshot
	}
	if err != nil {
		snapshotOps.WithLabelValues("restore", "error").Inc()
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	accounts, err := Decode(blob)
	if err != nil {
		snapshotOps.WithLabelValues("restore", "corrupt").Inc()
		return 0, err
	}
	if err := a.table.Replace(accounts); err != nil {
		snapshotOps.WithLabelValues("restore", "corrupt").Inc()
		return 0, fmt.Errorf("%w: %v", errs.ErrCorruptSnapshot, err)
	}
	snapshotOps.WithLabelValues("restore", "ok").Inc()
	snapshotBytes.Set(float64(len(blob)))
	snapshotDuration.WithLabelValues("restore").Observe(time.Since(start).Seconds())
	a.log.Info("snapshot restored", "accounts", len(accounts), "bytes", len(blob))
	return len(accounts), nil
}

// Run saves every interval until ctx is done. A failed save is only logged.
func (a *Adapter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := a.Save(ctx); err != nil {
				a.log.Error("periodic snapshot failed", "err", err)
			}
		}
	}
}
