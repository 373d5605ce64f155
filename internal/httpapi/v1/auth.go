package v1

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"

    "github.com/tinoosan/wallet/internal/errs"
    "github.com/tinoosan/wallet/internal/ledger"
)

// CallerHeader carries the caller identity when a trusted gateway terminates auth.
const CallerHeader = "X-Caller-Identity"

// Authenticator resolves the caller of a request. It returns ledger.Anonymous
// when the request carries no credentials and an error when they are invalid.
type Authenticator interface {
    Identify(r *http.Request) (ledger.Identity, error)
}

// HeaderAuth trusts CallerHeader as set by an upstream gateway.
type HeaderAuth struct{}

func (HeaderAuth) Identify(r *http.Request) (ledger.Identity, error) {
    raw := strings.TrimSpace(r.Header.Get(CallerHeader))
    if raw == "" {
        return ledger.Anonymous, nil
    }
    id, err := ledger.ParseIdentity(raw)
    if err != nil {
        return ledger.Anonymous, errs.ErrUnauthenticated
    }
    return id, nil
}

// JWTAuth verifies an HS256 bearer token; the identity is the "sub" claim.
// Issuer and Audience are checked when set.
type JWTAuth struct {
    Secret   []byte
    Issuer   string
    Audience string
}

func parseBearerToken(r *http.Request) (string, bool) {
    h := r.Header.Get("Authorization")
    if h == "" {
        return "", false
    }
    if !strings.HasPrefix(h, "Bearer ") && !strings.HasPrefix(h, "bearer ") {
        return "", false
    }
    return strings.TrimSpace(h[len("Bearer "):]), true
}

func (a JWTAuth) Identify(r *http.Request) (ledger.Identity, error) {
    if r.Header.Get("Authorization") == "" {
        return ledger.Anonymous, nil
    }
    tok, ok := parseBearerToken(r)
    if !ok {
        return ledger.Anonymous, errs.ErrUnauthenticated
    }
    opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
    if a.Issuer != "" {
        opts = append(opts, jwt.WithIssuer(a.Issuer))
    }
    if a.Audience != "" {
        opts = append(opts, jwt.WithAudience(a.Audience))
    }
    var claims jwt.RegisteredClaims
    _, err := jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) {
        return a.Secret, nil
    }, opts...)
    if err != nil {
        return ledger.Anonymous, errors.Join(errs.ErrUnauthenticated, err)
    }
    id, err := ledger.ParseIdentity(claims.Subject)
    if err != nil || id == ledger.Anonymous {
        return ledger.Anonymous, errs.ErrUnauthenticated
    }
    return id, nil
}

type ctxKey string

const ctxKeyCaller ctxKey = "caller"

// CallerFrom returns the identity resolved for the request.
func CallerFrom(ctx context.Context) ledger.Identity {
    if id, ok := ctx.Value(ctxKeyCaller).(ledger.Identity); ok {
        return id
    }
    return ledger.Anonymous
}

// identify resolves the caller once per request and stores it in the context.
// Failed attempts draw from a per-address bucket; once it is empty the
// address is refused before its credentials are checked.
func (s *Server) identify(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if s.limiter.exhausted(failKey(r)) {
            s.limiter.reject(w)
            return
        }
        id, err := s.auth.Identify(r)
        if err != nil {
            s.limiter.allow(failKey(r))
            writeErr(w, http.StatusUnauthorized, "invalid credentials", "unauthenticated")
            return
        }
        ctx := context.WithValue(r.Context(), ctxKeyCaller, id)
        next.ServeHTTP(w, r.WithContext(ctx))
    })
}

// requireCaller rejects anonymous callers on mutate routes.
func requireCaller(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if CallerFrom(r.Context()) == ledger.Anonymous {
            writeErr(w, http.StatusUnauthorized, "caller identity required", "unauthenticated")
            return
        }
        next.ServeHTTP(w, r)
    })
}

// requireAdmin restricts lifecycle hooks to configured admin identities.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        if _, ok := s.admins[CallerFrom(r.Context())]; !ok {
            forbidden(w, "admin identity required")
            return
        }
        next.ServeHTTP(w, r)
    })
}
