// Package memory holds the authoritative in-process account table.
// Every operation runs under one RWMutex so lookup-then-mutate is a single step.
package memory

import (
    "context"
    "math"
    "sync"

    "github.com/tinoosan/wallet/internal/errs"
    "github.com/tinoosan/wallet/internal/ledger"
)

// Store is the in-memory account ledger.
// accounts keeps insertion order; index maps an identity to its slot.
type Store struct {
    mu       sync.RWMutex
    accounts []ledger.Account
    index    map[ledger.Identity]int
}

// New constructs an empty store.
func New() *Store {
    return &Store{index: make(map[ledger.Identity]int)}
}

// Reset drops every account. Used by tests and dev tooling.
func (s *Store) Reset() {
    s.mu.Lock()
    s.accounts = nil
    s.index = make(map[ledger.Identity]int)
    s.mu.Unlock()
}

// Len returns the number of registered accounts.
func (s *Store) Len() int {
    s.mu.RLock(); defer s.mu.RUnlock()
    return len(s.accounts)
}

// ListAccounts returns a copy of every account in insertion order.
func (s *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
    return s.Accounts(), nil
}

// Accounts is the snapshot export: a consistent copy taken between operations.
func (s *Store) Accounts() []ledger.Account {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]ledger.Account, len(s.accounts))
    copy(out, s.accounts)
    return out
}

// Replace swaps the whole table for accounts, preserving their order.
// Duplicate identities are rejected and leave the store untouched.
func (s *Store) Replace(accounts []ledger.Account) error {
    index := make(map[ledger.Identity]int, len(accounts))
    for i, a := range accounts {
        if _, dup := index[a.Identity]; dup {
            return errs.Abort(errs.ErrInvalid, "duplicate identity %s", a.Identity)
        }
        index[a.Identity] = i
    }
    table := make([]ledger.Account, len(accounts))
    copy(table, accounts)
    s.mu.Lock()
    s.accounts = table
    s.index = index
    s.mu.Unlock()
    return nil
}

// BalanceOf returns the balance for id, or ok=false when id is unregistered.
func (s *Store) BalanceOf(_ context.Context, id ledger.Identity) (uint64, bool, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    i, ok := s.index[id]
    if !ok { return 0, false, nil }
    return s.accounts[i].Balance, true, nil
}

// Register appends a record for caller. A second registration aborts.
func (s *Store) Register(_ context.Context, caller ledger.Identity, initial uint64) (ledger.Identity, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, exists := s.index[caller]; exists {
        return ledger.Anonymous, errs.Abort(errs.ErrAlreadyRegistered, "User already exists.")
    }
    s.index[caller] = len(s.accounts)
    s.accounts = append(s.accounts, ledger.Account{Identity: caller, Balance: initial})
    return caller, nil
}

// Credit adds amount to caller's balance and returns the new balance.
// Failures are recoverable: nothing was changed and the caller may react.
func (s *Store) Credit(_ context.Context, caller ledger.Identity, amount uint64) (uint64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    i, ok := s.index[caller]
    if !ok {
        return 0, errs.Recoverable(errs.ErrNotFound, "User not found. Caller principal: %s", caller)
    }
    acc := &s.accounts[i]
    if acc.Balance > math.MaxUint64-amount {
        return 0, errs.Recoverable(errs.ErrOverflow, "Balance overflow. Caller principal: %s", caller)
    }
    acc.Balance += amount
    return acc.Balance, nil
}

// Debit subtracts amount from caller's balance. Any failure aborts the call.
func (s *Store) Debit(_ context.Context, caller ledger.Identity, amount uint64) (uint64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    i, ok := s.index[caller]
    if !ok {
        return 0, errs.Abort(errs.ErrNotFound, "User not found.")
    }
    acc := &s.accounts[i]
    if acc.Balance < amount {
        return 0, errs.Abort(errs.ErrInsufficientBalance, "Insufficient balance.")
    }
    acc.Balance -= amount
    return acc.Balance, nil
}

// Transfer moves amount from sender to receiver as one indivisible step.
// Every check runs before either balance is touched; any failure aborts.
// A self-transfer is validated like any other and then leaves the balance as is.
func (s *Store) Transfer(_ context.Context, sender, receiver ledger.Identity, amount uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    si, ok := s.index[sender]
    if !ok {
        return errs.Abort(errs.ErrNotFound, "Sender not found.")
    }
    // the anonymous identity never owns an account
    ri, ok := s.index[receiver]
    if !ok || receiver == ledger.Anonymous {
        return errs.Abort(errs.ErrNotFound, "Receiver not found.")
    }
    if s.accounts[si].Balance < amount {
        return errs.Abort(errs.ErrInsufficientBalance, "Insufficient balance.")
    }
    if si == ri {
        return nil
    }
    if s.accounts[ri].Balance > math.MaxUint64-amount {
        return errs.Abort(errs.ErrOverflow, "Receiver balance overflow.")
    }
    s.accounts[si].Balance -= amount
    s.accounts[ri].Balance += amount
    return nil
}
