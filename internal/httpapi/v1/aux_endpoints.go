package v1

import (
    "context"
    "net/http"
    "time"
)

// readyTimeout bounds each backend probe.
const readyTimeout = 800 * time.Millisecond

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
    ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
    defer cancel()
    for _, rc := range s.ready {
        if err := rc.Ready(ctx); err != nil {
            s.log.Warn("not ready", "err", err)
            w.WriteHeader(http.StatusServiceUnavailable)
            return
        }
    }
    w.WriteHeader(http.StatusOK)
}
