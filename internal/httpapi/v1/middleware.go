package v1

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"

    chi "github.com/go-chi/chi/v5"

    "github.com/tinoosan/wallet/internal/ledger"
)

const ctxKeyRegister ctxKey = "validatedRegister"
const ctxKeyAmount ctxKey = "validatedAmount"
const ctxKeyTransfer ctxKey = "validatedTransfer"
const ctxKeyIdentity ctxKey = "validatedIdentity"

// maxBodyBytes bounds request bodies; every payload here is a few numbers.
const maxBodyBytes = 4 << 10

// decodeBody reads exactly one JSON object with no unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
    if !requireJSON(w, r) {
        return false
    }
    dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
    dec.DisallowUnknownFields()
    if err := dec.Decode(dst); err != nil {
        badRequest(w, "invalid JSON: "+err.Error())
        return false
    }
    if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
        badRequest(w, "invalid JSON: trailing data")
        return false
    }
    return true
}

// validateRegister parses POST /v1/accounts. An empty body registers with a zero balance.
func (s *Server) validateRegister() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            var req registerRequest
            if r.ContentLength != 0 {
                if !decodeBody(w, r, &req) { return }
            }
            ctx := context.WithValue(r.Context(), ctxKeyRegister, req)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validateAmount parses the {amount} body shared by credit and debit.
func (s *Server) validateAmount() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            var req amountRequest
            if !decodeBody(w, r, &req) { return }
            ctx := context.WithValue(r.Context(), ctxKeyAmount, req)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validateTransfer parses POST /v1/transfers.
func (s *Server) validateTransfer() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            var req transferRequest
            if !decodeBody(w, r, &req) { return }
            ctx := context.WithValue(r.Context(), ctxKeyTransfer, req)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}

// validateIdentityParam parses the {identity} path segment.
func (s *Server) validateIdentityParam() func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            id, err := ledger.ParseIdentity(chi.URLParam(r, "identity"))
            if err != nil {
                badRequest(w, "invalid identity")
                return
            }
            ctx := context.WithValue(r.Context(), ctxKeyIdentity, id)
            next.ServeHTTP(w, r.WithContext(ctx))
        })
    }
}
