package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/wallet/internal/errs"
)

func TestRegion_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.sqlite")
	r, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, r.Ready(ctx))
	_, err = r.Load(ctx)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, r.Save(ctx, []byte("one")))
	require.NoError(t, r.Save(ctx, []byte("two")))
	require.NoError(t, r.Close())

	r, err = Open(path)
	require.NoError(t, err)
	defer r.Close()
	got, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(" ")
	assert.Error(t, err)
}

func TestRegion_SaveUsesClock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := New(db)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return at }

	mock.ExpectExec(regexp.QuoteMeta("insert into ledger_snapshots")).
		WithArgs(slot, []byte("blob"), at.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, r.Save(context.Background(), []byte("blob")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegion_ErrorPaths(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := New(db)
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	mock.ExpectExec(regexp.QuoteMeta("insert into ledger_snapshots")).WillReturnError(boom)
	err = r.Save(ctx, []byte("blob"))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "upsert snapshot")

	mock.ExpectQuery(regexp.QuoteMeta("select payload from ledger_snapshots")).
		WithArgs(slot).
		WillReturnError(boom)
	_, err = r.Load(ctx)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("select payload from ledger_snapshots")).
		WithArgs(slot).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	_, err = r.Load(ctx)
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("create table if not exists ledger_snapshots")).WillReturnError(boom)
	require.ErrorIs(t, r.Migrate(ctx), boom)

	require.NoError(t, mock.ExpectationsWereMet())
}
