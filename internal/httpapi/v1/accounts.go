package v1

import (
    "net/http"
    "strconv"

    "github.com/tinoosan/wallet/internal/ledger"
)

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
    list, err := s.svc.List(r.Context())
    if err != nil {
        writeCallErr(w, err)
        return
    }
    toJSON(w, http.StatusOK, s.toAccountResponses(list))
}

func (s *Server) balanceOf(w http.ResponseWriter, r *http.Request) {
    id, _ := r.Context().Value(ctxKeyIdentity).(ledger.Identity)
    bal, ok, err := s.svc.BalanceOf(r.Context(), id)
    if err != nil {
        writeCallErr(w, err)
        return
    }
    resp := balanceResponse{Identity: id}
    if ok {
        resp.Balance = &bal
        resp.Display = ledger.Display(s.currency, bal)
    }
    toJSON(w, http.StatusOK, resp)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
    req, _ := r.Context().Value(ctxKeyRegister).(registerRequest)
    id, err := s.svc.Register(r.Context(), CallerFrom(r.Context()), req.InitialBalance)
    observeOp("register", err)
    if err != nil {
        writeCallErr(w, err)
        return
    }
    w.Header().Set("Location", "/v1/accounts/"+id.String()+"/balance")
    toJSON(w, http.StatusCreated, registerResponse{Identity: id})
}

// credit returns recoverable failures as error bodies; the call itself stands.
func (s *Server) credit(w http.ResponseWriter, r *http.Request) {
    req, _ := r.Context().Value(ctxKeyAmount).(amountRequest)
    bal, err := s.svc.Credit(r.Context(), CallerFrom(r.Context()), req.Amount)
    observeOp("credit", err)
    if err != nil {
        writeCallErr(w, err)
        return
    }
    toJSON(w, http.StatusOK, creditResponse{
        Balance: bal,
        Display: ledger.Display(s.currency, bal),
        Message: "Balance added. New balance: " + strconv.FormatUint(bal, 10),
    })
}

func (s *Server) debit(w http.ResponseWriter, r *http.Request) {
    req, _ := r.Context().Value(ctxKeyAmount).(amountRequest)
    err := s.svc.Debit(r.Context(), CallerFrom(r.Context()), req.Amount)
    observeOp("debit", err)
    if err != nil {
        writeCallErr(w, err)
        return
    }
    w.WriteHeader(http.StatusNoContent)
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
    req, _ := r.Context().Value(ctxKeyTransfer).(transferRequest)
    err := s.svc.Transfer(r.Context(), CallerFrom(r.Context()), req.Receiver, req.Amount)
    observeOp("transfer", err)
    if err != nil {
        writeCallErr(w, err)
        return
    }
    w.WriteHeader(http.StatusNoContent)
}

// saveSnapshot is the explicit lifecycle hook. Failures are reported, never retried.
func (s *Server) saveSnapshot(w http.ResponseWriter, r *http.Request) {
    if s.saver == nil {
        writeErr(w, http.StatusNotImplemented, "snapshots are disabled", "snapshot_disabled")
        return
    }
    if err := s.saver.Save(r.Context()); err != nil {
        s.log.Error("snapshot save failed", "err", err)
        writeErr(w, http.StatusInternalServerError, "snapshot save failed", "snapshot_failed")
        return
    }
    w.WriteHeader(http.StatusNoContent)
}
