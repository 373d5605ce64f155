package memory

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/wallet/internal/errs"
	"github.com/tinoosan/wallet/internal/ledger"
)

func mustRegister(t *testing.T, s *Store, initial uint64) ledger.Identity {
	t.Helper()
	id, err := s.Register(context.Background(), uuid.New(), initial)
	require.NoError(t, err)
	return id
}

func balance(t *testing.T, s *Store, id ledger.Identity) uint64 {
	t.Helper()
	bal, ok, err := s.BalanceOf(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok, "identity %s not registered", id)
	return bal
}

func total(t *testing.T, s *Store) uint64 {
	t.Helper()
	sum, ok := ledger.Sum(s.Accounts())
	require.True(t, ok)
	return sum
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := uuid.New()

	id, err := s.Register(ctx, alice, 100)
	require.NoError(t, err)
	assert.Equal(t, alice, id)
	assert.EqualValues(t, 100, balance(t, s, alice))

	_, err = s.Register(ctx, alice, 5)
	require.ErrorIs(t, err, errs.ErrAlreadyRegistered)
	assert.Equal(t, errs.OutcomeFatal, errs.Classify(err))
	assert.EqualValues(t, 100, balance(t, s, alice))
	assert.Equal(t, 1, s.Len())
}

func TestTransfer_Scenario(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustRegister(t, s, 100)
	bob := mustRegister(t, s, 50)

	require.NoError(t, s.Transfer(ctx, alice, bob, 30))
	assert.EqualValues(t, 70, balance(t, s, alice))
	assert.EqualValues(t, 80, balance(t, s, bob))
	assert.EqualValues(t, 150, total(t, s))
}

func TestTransfer_Failures(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustRegister(t, s, 10)
	bob := mustRegister(t, s, math.MaxUint64-5)
	stranger := uuid.New()

	cases := []struct {
		name             string
		sender, receiver ledger.Identity
		amount           uint64
		kind             error
		detail           string
	}{
		{"unknown sender", stranger, alice, 1, errs.ErrNotFound, "Sender not found."},
		{"unknown receiver", alice, stranger, 1, errs.ErrNotFound, "Receiver not found."},
		{"insufficient", alice, bob, 11, errs.ErrInsufficientBalance, "Insufficient balance."},
		{"receiver overflow", alice, bob, 6, errs.ErrOverflow, "Receiver balance overflow."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := s.Transfer(ctx, c.sender, c.receiver, c.amount)
			require.ErrorIs(t, err, c.kind)
			assert.Equal(t, errs.OutcomeFatal, errs.Classify(err))
			assert.Equal(t, c.detail, errs.Detail(err))
			assert.EqualValues(t, 10, balance(t, s, alice))
			assert.EqualValues(t, uint64(math.MaxUint64-5), balance(t, s, bob))
		})
	}
}

func TestTransfer_Self(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustRegister(t, s, 40)

	require.NoError(t, s.Transfer(ctx, alice, alice, 5))
	assert.EqualValues(t, 40, balance(t, s, alice))

	err := s.Transfer(ctx, alice, alice, 41)
	require.ErrorIs(t, err, errs.ErrInsufficientBalance)
	assert.EqualValues(t, 40, balance(t, s, alice))
}

func TestDebit(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustRegister(t, s, 10)

	_, err := s.Debit(ctx, alice, 20)
	require.ErrorIs(t, err, errs.ErrInsufficientBalance)
	assert.Equal(t, errs.OutcomeFatal, errs.Classify(err))
	assert.EqualValues(t, 10, balance(t, s, alice))

	bal, err := s.Debit(ctx, alice, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, bal)

	_, err = s.Debit(ctx, uuid.New(), 0)
	require.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, "User not found.", errs.Detail(err))
}

func TestCredit(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustRegister(t, s, 10)

	bal, err := s.Credit(ctx, alice, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 15, bal)

	bal, err = s.Credit(ctx, alice, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 15, bal)

	stranger := uuid.New()
	_, err = s.Credit(ctx, stranger, 5)
	require.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, errs.OutcomeRecoverable, errs.Classify(err))
	assert.Equal(t, "User not found. Caller principal: "+stranger.String(), errs.Detail(err))
	_, ok, _ := s.BalanceOf(ctx, stranger)
	assert.False(t, ok)

	_, err = s.Credit(ctx, alice, math.MaxUint64)
	require.ErrorIs(t, err, errs.ErrOverflow)
	assert.Equal(t, errs.OutcomeRecoverable, errs.Classify(err))
	assert.EqualValues(t, 15, balance(t, s, alice))
}

func TestBalanceOf_Absent(t *testing.T) {
	bal, ok, err := New().BalanceOf(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, bal)
}

func TestListAccounts_OrderAndCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	ids := []ledger.Identity{mustRegister(t, s, 1), mustRegister(t, s, 2), mustRegister(t, s, 3)}

	list, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, a := range list {
		assert.Equal(t, ids[i], a.Identity)
	}
	list[0].Balance = 999
	assert.EqualValues(t, 1, balance(t, s, ids[0]))
}

func TestReplace(t *testing.T) {
	s := New()
	old := mustRegister(t, s, 5)
	a, b := uuid.New(), uuid.New()

	require.NoError(t, s.Replace([]ledger.Account{{Identity: a, Balance: 1}, {Identity: b, Balance: 2}}))
	assert.Equal(t, 2, s.Len())
	_, ok, _ := s.BalanceOf(context.Background(), old)
	assert.False(t, ok)
	assert.EqualValues(t, 2, balance(t, s, b))

	err := s.Replace([]ledger.Account{{Identity: a}, {Identity: a}})
	require.ErrorIs(t, err, errs.ErrInvalid)
	assert.Equal(t, 2, s.Len())

	s.Reset()
	assert.Equal(t, 0, s.Len())
}

func TestConservationUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := New()
	ids := make([]ledger.Identity, 8)
	for i := range ids {
		ids[i] = mustRegister(t, s, 1000)
	}
	start := total(t, s)

	var wg sync.WaitGroup
	for w := 0; w < len(ids); w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				from := ids[(w+i)%len(ids)]
				to := ids[(w+i*3+1)%len(ids)]
				_ = s.Transfer(ctx, from, to, uint64(i%17))
				_, _, _ = s.BalanceOf(ctx, from)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, start, total(t, s))
	assert.Equal(t, len(ids), s.Len())
}

func TestTransfer_AnonymousReceiverNeverMatches(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := uuid.New()
	require.NoError(t, s.Replace([]ledger.Account{{Identity: alice, Balance: 10}, {Identity: ledger.Anonymous, Balance: 0}}))

	err := s.Transfer(ctx, alice, ledger.Anonymous, 1)
	require.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, "Receiver not found.", errs.Detail(err))
	assert.EqualValues(t, 10, balance(t, s, alice))
}

func TestTransfer_RoundTripRestores(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustRegister(t, s, 100)
	bob := mustRegister(t, s, 50)

	for _, n := range []uint64{0, 1, 30, 50} {
		require.NoError(t, s.Transfer(ctx, alice, bob, n))
		require.NoError(t, s.Transfer(ctx, bob, alice, n))
		assert.EqualValues(t, 100, balance(t, s, alice), "amount %d", n)
		assert.EqualValues(t, 50, balance(t, s, bob), "amount %d", n)
	}
}

func TestCreditDebit_SumMovesByAmount(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := mustRegister(t, s, 40)
	mustRegister(t, s, 60)

	for _, n := range []uint64{0, 1, 25} {
		before := total(t, s)
		_, err := s.Credit(ctx, alice, n)
		require.NoError(t, err)
		assert.Equal(t, before+n, total(t, s), "credit %d", n)

		before = total(t, s)
		_, err = s.Debit(ctx, alice, n)
		require.NoError(t, err)
		assert.Equal(t, before-n, total(t, s), "debit %d", n)
	}

	// failed calls leave the sum unchanged
	before := total(t, s)
	_, err := s.Debit(ctx, alice, 1000)
	require.Error(t, err)
	_, err = s.Credit(ctx, uuid.New(), 5)
	require.Error(t, err)
	assert.Equal(t, before, total(t, s))
}
