package v1

import (
    "github.com/google/uuid"
    "github.com/tinoosan/wallet/internal/ledger"
)

type registerRequest struct {
    InitialBalance uint64 `json:"initial_balance"`
}

type registerResponse struct {
    Identity uuid.UUID `json:"identity"`
}

// amountRequest is the body of credit and debit.
type amountRequest struct {
    Amount uint64 `json:"amount"`
}

type transferRequest struct {
    Receiver uuid.UUID `json:"receiver"`
    Amount   uint64    `json:"amount"`
}

type creditResponse struct {
    Balance uint64 `json:"balance"`
    Display string `json:"display,omitempty"`
    Message string `json:"message"`
}

type accountResponse struct {
    Identity uuid.UUID `json:"identity"`
    Balance  uint64    `json:"balance"`
    Display  string    `json:"display,omitempty"`
}

// balanceResponse carries a null balance for identities without an account.
type balanceResponse struct {
    Identity uuid.UUID `json:"identity"`
    Balance  *uint64   `json:"balance"`
    Display  string    `json:"display,omitempty"`
}

func (s *Server) toAccountResponse(a ledger.Account) accountResponse {
    return accountResponse{
        Identity: a.Identity,
        Balance:  a.Balance,
        Display:  ledger.Display(s.currency, a.Balance),
    }
}

func (s *Server) toAccountResponses(list []ledger.Account) []accountResponse {
    out := make([]accountResponse, 0, len(list))
    for _, a := range list {
        out = append(out, s.toAccountResponse(a))
    }
    return out
}
