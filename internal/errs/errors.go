package errs

import (
    "errors"
    "fmt"
)

// Common sentinel errors for cross-layer signaling.
var (
    ErrNotFound     = errors.New("not_found")
    ErrForbidden    = errors.New("forbidden")
    ErrInvalid      = errors.New("invalid")
    // ErrUnauthenticated is returned when a mutate call carries no caller identity.
    ErrUnauthenticated = errors.New("unauthenticated")
    // ErrAlreadyRegistered indicates the caller already owns an account.
    ErrAlreadyRegistered = errors.New("already_registered")
    // ErrInsufficientBalance indicates a debit larger than the current balance.
    ErrInsufficientBalance = errors.New("insufficient_balance")
    // ErrOverflow indicates a credit that would exceed the representable balance.
    ErrOverflow = errors.New("overflow")
    // ErrCorruptSnapshot is returned when persisted ledger bytes cannot be restored.
    ErrCorruptSnapshot = errors.New("corrupt_snapshot")
)

// Outcome classifies the result of a ledger call.
type Outcome int

const (
    OutcomeOK Outcome = iota
    // OutcomeRecoverable is an error value handed back to the caller.
    OutcomeRecoverable
    // OutcomeFatal rejects the whole call; no state change survives.
    OutcomeFatal
)

func (o Outcome) String() string {
    switch o {
    case OutcomeOK:
        return "ok"
    case OutcomeRecoverable:
        return "recoverable"
    case OutcomeFatal:
        return "fatal"
    default:
        return "unknown"
    }
}

// CallError is a ledger failure tagged with its outcome. Kind is one of the
// sentinels above; Fatal marks calls that must be rejected as a whole.
type CallError struct {
    Kind   error
    Detail string
    Fatal  bool
}

func (e *CallError) Error() string {
    if e.Detail == "" {
        return e.Kind.Error()
    }
    return e.Kind.Error() + ": " + e.Detail
}

func (e *CallError) Unwrap() error { return e.Kind }

// Abort builds a fatal error of the given kind.
func Abort(kind error, format string, args ...any) error {
    return &CallError{Kind: kind, Detail: fmt.Sprintf(format, args...), Fatal: true}
}

// Recoverable builds an error value handed back to the caller; the call itself stands.
func Recoverable(kind error, format string, args ...any) error {
    return &CallError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Classify maps err to its Outcome. nil is OK; anything not aborted is recoverable.
func Classify(err error) Outcome {
    if err == nil {
        return OutcomeOK
    }
    var ce *CallError
    if errors.As(err, &ce) && ce.Fatal {
        return OutcomeFatal
    }
    return OutcomeRecoverable
}

// Detail returns the message attached to err without its kind prefix.
func Detail(err error) string {
    if err == nil {
        return ""
    }
    var ce *CallError
    if errors.As(err, &ce) && ce.Detail != "" {
        return ce.Detail
    }
    return err.Error()
}
