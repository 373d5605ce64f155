package leveldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/wallet/internal/errs"
)

func TestRegion_Memory(t *testing.T) {
	ctx := context.Background()
	r, err := OpenMemory()
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Load(ctx)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, r.Save(ctx, []byte{0, 1, 2}))
	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, got)
}

func TestRegion_FileReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "ledger.db")

	r, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, []byte("persisted")))
	require.NoError(t, r.Close())

	r, err = Open(dir)
	require.NoError(t, err)
	defer r.Close()
	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
	var nilRegion *Region
	assert.NoError(t, nilRegion.Close())
}
