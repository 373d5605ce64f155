// Package v1 wires the HTTP surface of the wallet ledger.
// It keeps handlers thin, delegating ledger rules to the account service.
package v1

import (
    "log/slog"
    "net/http"

    chi "github.com/go-chi/chi/v5"
    chimw "github.com/go-chi/chi/v5/middleware"

    "github.com/tinoosan/wallet/internal/ledger"
    "github.com/tinoosan/wallet/internal/service/account"
)

// Options configures the optional parts of the server.
type Options struct {
    // Auth resolves the caller identity; nil trusts the gateway header.
    Auth Authenticator
    // Admins may trigger explicit snapshot saves.
    Admins []ledger.Identity
    // Ready is probed by /readyz.
    Ready []ReadyChecker
    // Currency is used only to format balances for display.
    Currency       string
    RateLimitRPS   float64
    RateLimitBurst int
}

// Server wires handlers and middleware using Chi.
type Server struct {
    svc      account.Service
    saver    SnapshotSaver
    auth     Authenticator
    admins   map[ledger.Identity]struct{}
    ready    []ReadyChecker
    limiter  *rateLimiter
    currency string
    log      *slog.Logger
    rt       *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by request logging, panic recovery and the account service.
func New(repo account.Repo, writer account.Writer, saver SnapshotSaver, opts Options, logger *slog.Logger) *Server {
    if logger == nil { logger = slog.Default() }
    auth := opts.Auth
    if auth == nil { auth = HeaderAuth{} }
    admins := make(map[ledger.Identity]struct{}, len(opts.Admins))
    for _, id := range opts.Admins { admins[id] = struct{}{} }

    r := chi.NewRouter()
    r.Use(chimw.RequestID)
    r.Use(requestLogger(logger))
    r.Use(recoverer(logger))
    r.Use(metricsMiddleware)

    s := &Server{
        svc:      account.New(repo, writer, logger),
        saver:    saver,
        auth:     auth,
        admins:   admins,
        ready:    opts.Ready,
        limiter:  newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
        currency: opts.Currency,
        log:      logger,
        rt:       r,
    }
    s.routes()
    return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
    // Health and metrics (unversioned, unauthenticated)
    s.rt.Get("/healthz", s.healthz)
    s.rt.Get("/readyz", s.readyz)
    s.rt.Handle("/metrics", metricsHandler())

    s.rt.Group(func(r chi.Router) {
        r.Use(s.identify)
        r.Use(s.limiter.Handler)
        // Reads (anyone)
        r.Get("/v1/accounts", s.listAccounts)
        r.With(s.validateIdentityParam()).Get("/v1/accounts/{identity}/balance", s.balanceOf)
        // Mutations (caller required)
        r.Group(func(r chi.Router) {
            r.Use(requireCaller)
            r.With(s.validateRegister()).Post("/v1/accounts", s.register)
            r.With(s.validateAmount()).Post("/v1/accounts/credit", s.credit)
            r.With(s.validateAmount()).Post("/v1/accounts/debit", s.debit)
            r.With(s.validateTransfer()).Post("/v1/transfers", s.transfer)
            r.With(s.requireAdmin).Post("/v1/admin/snapshot", s.saveSnapshot)
        })
    })
}
