package snapshot_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/wallet/internal/errs"
	"github.com/tinoosan/wallet/internal/snapshot"
	"github.com/tinoosan/wallet/internal/storage/memory"
)

type memRegion struct {
	blob    []byte
	saveErr error
	loadErr error
}

func (m *memRegion) Load(context.Context) ([]byte, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.blob == nil {
		return nil, errs.ErrNotFound
	}
	return m.blob, nil
}

func (m *memRegion) Save(_ context.Context, blob []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.blob = append([]byte(nil), blob...)
	return nil
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestAdapter_RestoreEmptyRegion(t *testing.T) {
	store := memory.New()
	a := snapshot.NewAdapter(store, &memRegion{}, testLogger())
	_, err := a.Restore(context.Background())
	require.ErrorIs(t, err, snapshot.ErrNoSnapshot)
	assert.Equal(t, 0, store.Len())
}

func TestAdapter_SaveRestoreCycle(t *testing.T) {
	ctx := context.Background()
	region := &memRegion{}
	src := memory.New()
	alice, bob := uuid.New(), uuid.New()
	_, err := src.Register(ctx, alice, 100)
	require.NoError(t, err)
	_, err = src.Register(ctx, bob, 50)
	require.NoError(t, err)
	require.NoError(t, src.Transfer(ctx, alice, bob, 30))

	require.NoError(t, snapshot.NewAdapter(src, region, testLogger()).Save(ctx))

	dst := memory.New()
	n, err := snapshot.NewAdapter(dst, region, testLogger()).Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, src.Accounts(), dst.Accounts())

	bal, ok, err := dst.BalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 80, bal)
}

func TestAdapter_CorruptBlobKeepsTable(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	id := uuid.New()
	_, err := store.Register(ctx, id, 9)
	require.NoError(t, err)

	region := &memRegion{blob: []byte("not a snapshot")}
	_, err = snapshot.NewAdapter(store, region, testLogger()).Restore(ctx)
	require.ErrorIs(t, err, errs.ErrCorruptSnapshot)

	bal, ok, _ := store.BalanceOf(ctx, id)
	assert.True(t, ok)
	assert.EqualValues(t, 9, bal)
}

func TestAdapter_RegionErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	a := snapshot.NewAdapter(memory.New(), &memRegion{saveErr: boom, loadErr: boom}, testLogger())
	assert.ErrorIs(t, a.Save(ctx), boom)
	_, err := a.Restore(ctx)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, errs.ErrCorruptSnapshot)
}

func TestAdapter_RunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		snapshot.NewAdapter(memory.New(), &memRegion{}, testLogger()).Run(ctx, 1)
		close(done)
	}()
	<-done
}

// gatedRegion blocks the first Save until release is closed.
type gatedRegion struct {
	memRegion
	entered chan struct{}
	release chan struct{}
	calls   int32
}

func (g *gatedRegion) Save(ctx context.Context, blob []byte) error {
	if atomic.AddInt32(&g.calls, 1) == 1 {
		close(g.entered)
		<-g.release
	}
	return g.memRegion.Save(ctx, blob)
}

func TestAdapter_SavesAreOrdered(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	id := uuid.New()
	_, err := store.Register(ctx, id, 100)
	require.NoError(t, err)

	region := &gatedRegion{entered: make(chan struct{}), release: make(chan struct{})}
	a := snapshot.NewAdapter(store, region, testLogger())

	first := make(chan error, 1)
	go func() { first <- a.Save(ctx) }()
	<-region.entered

	_, err = store.Credit(ctx, id, 50)
	require.NoError(t, err)

	second := make(chan error, 1)
	go func() { second <- a.Save(ctx) }()
	// the second save must not complete while the first is still writing
	select {
	case err := <-second:
		t.Fatalf("second save finished before the first: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(region.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	restored := memory.New()
	_, err = snapshot.NewAdapter(restored, region, testLogger()).Restore(ctx)
	require.NoError(t, err)
	bal, ok, _ := restored.BalanceOf(ctx, id)
	require.True(t, ok)
	assert.EqualValues(t, 150, bal)
}
