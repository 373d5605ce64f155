package ledger

import (
    "math"
    "strings"

    "github.com/google/uuid"
    "github.com/govalues/money"
)

// Identity is the opaque token the host attaches to every call.
// The zero value is the anonymous caller and never owns an account.
type Identity = uuid.UUID

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = uuid.Nil

// ParseIdentity parses the textual form of an identity.
func ParseIdentity(s string) (Identity, error) {
    return uuid.Parse(strings.TrimSpace(s))
}

// Account is a single balance record, keyed by Identity.
type Account struct {
    Identity Identity
    // Balance is held in minor units and never goes below zero.
    Balance uint64
}

// DefaultCurrency is used for display when none is configured.
const DefaultCurrency = "USD"

// Display formats a minor-unit balance for humans, e.g. "USD 12.34".
// It returns "" when the balance does not fit the formatter or the currency is unknown.
func Display(currency string, balance uint64) string {
    if balance > math.MaxInt64 {
        return ""
    }
    if currency == "" {
        currency = DefaultCurrency
    }
    amt, err := money.NewAmountFromMinorUnits(strings.ToUpper(currency), int64(balance))
    if err != nil {
        return ""
    }
    return amt.String()
}

// Sum returns the total of all balances and whether it fit in a uint64.
func Sum(accounts []Account) (uint64, bool) {
    var total uint64
    for _, a := range accounts {
        if total > math.MaxUint64-a.Balance {
            return 0, false
        }
        total += a.Balance
    }
    return total, true
}
