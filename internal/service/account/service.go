// Package account implements the wallet rules: identity checks, ledger event
// logging, and delegation of atomic balance mutations to the store.
package account

import (
    "context"
    "log/slog"

    "github.com/tinoosan/wallet/internal/errs"
    "github.com/tinoosan/wallet/internal/ledger"
)

type Repo interface {
    ListAccounts(ctx context.Context) ([]ledger.Account, error)
    BalanceOf(ctx context.Context, id ledger.Identity) (uint64, bool, error)
}

// Writer performs the mutations. Each method must check and apply under one lock.
type Writer interface {
    Register(ctx context.Context, caller ledger.Identity, initial uint64) (ledger.Identity, error)
    Credit(ctx context.Context, caller ledger.Identity, amount uint64) (uint64, error)
    Debit(ctx context.Context, caller ledger.Identity, amount uint64) (uint64, error)
    Transfer(ctx context.Context, sender, receiver ledger.Identity, amount uint64) error
}

type Service interface {
    List(ctx context.Context) ([]ledger.Account, error)
    BalanceOf(ctx context.Context, id ledger.Identity) (uint64, bool, error)
    Register(ctx context.Context, caller ledger.Identity, initial uint64) (ledger.Identity, error)
    Credit(ctx context.Context, caller ledger.Identity, amount uint64) (uint64, error)
    Debit(ctx context.Context, caller ledger.Identity, amount uint64) error
    Transfer(ctx context.Context, sender, receiver ledger.Identity, amount uint64) error
}

type service struct {
    repo   Repo
    writer Writer
    log    *slog.Logger
}

func New(repo Repo, writer Writer, logger *slog.Logger) Service {
    if logger == nil { logger = slog.Default() }
    return &service{repo: repo, writer: writer, log: logger}
}

func (s *service) List(ctx context.Context) ([]ledger.Account, error) {
    return s.repo.ListAccounts(ctx)
}

func (s *service) BalanceOf(ctx context.Context, id ledger.Identity) (uint64, bool, error) {
    return s.repo.BalanceOf(ctx, id)
}

// Register creates the caller's account with the given opening balance.
func (s *service) Register(ctx context.Context, caller ledger.Identity, initial uint64) (ledger.Identity, error) {
    if caller == ledger.Anonymous {
        return ledger.Anonymous, errs.Abort(errs.ErrUnauthenticated, "anonymous caller cannot register")
    }
    id, err := s.writer.Register(ctx, caller, initial)
    if err != nil { return ledger.Anonymous, err }
    s.log.Info("account registered", "identity", id.String(), "initial_balance", initial)
    return id, nil
}

// Credit increases the caller's balance. Errors are recoverable values.
func (s *service) Credit(ctx context.Context, caller ledger.Identity, amount uint64) (uint64, error) {
    if caller == ledger.Anonymous {
        return 0, errs.Recoverable(errs.ErrUnauthenticated, "anonymous caller")
    }
    bal, err := s.writer.Credit(ctx, caller, amount)
    if err != nil {
        s.log.Warn("credit rejected", "identity", caller.String(), "amount", amount, "err", err)
        return 0, err
    }
    s.log.Info("balance added", "identity", caller.String(), "amount", amount, "balance", bal)
    return bal, nil
}

// Debit decreases the caller's balance or aborts the call.
func (s *service) Debit(ctx context.Context, caller ledger.Identity, amount uint64) error {
    if caller == ledger.Anonymous {
        return errs.Abort(errs.ErrUnauthenticated, "anonymous caller")
    }
    bal, err := s.writer.Debit(ctx, caller, amount)
    if err != nil {
        s.log.Warn("debit aborted", "identity", caller.String(), "amount", amount, "err", err)
        return err
    }
    s.log.Info("balance withdrawn", "identity", caller.String(), "amount", amount, "balance", bal)
    return nil
}

// Transfer moves amount from sender to receiver or aborts the call.
func (s *service) Transfer(ctx context.Context, sender, receiver ledger.Identity, amount uint64) error {
    if sender == ledger.Anonymous {
        return errs.Abort(errs.ErrUnauthenticated, "anonymous caller")
    }
    if err := s.writer.Transfer(ctx, sender, receiver, amount); err != nil {
        s.log.Warn("transfer aborted", "sender", sender.String(), "receiver", receiver.String(), "amount", amount, "err", err)
        return err
    }
    s.log.Info("transfer completed", "sender", sender.String(), "receiver", receiver.String(), "amount", amount)
    return nil
}
