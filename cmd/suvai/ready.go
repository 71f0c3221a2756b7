package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

const liveCheckTimeout = 2 * time.Second

type Readyable interface {
	Ready(context.Context) error
}

type readyFunc func(context.Context) error

func (f readyFunc) Ready(ctx context.Context) error { return f(ctx) }

// readiness latches once its startup checks have all passed. Live checks run
// on every call.
type readiness struct {
	started atomic.Bool
	startup []Readyable
	live    []Readyable
}

// AddStartup registers checks that only need to pass once.
func (r *readiness) AddStartup(f ...Readyable) {
	r.startup = append(r.startup, f...)
}

// AddLive registers checks that run on every readiness request.
func (r *readiness) AddLive(f ...Readyable) {
	r.live = append(r.live, f...)
}

func (r *readiness) Ready(ctx context.Context) error {
	if !r.started.Load() {
		for _, check := range r.startup {
			if err := check.Ready(ctx); err != nil {
				return fmt.Errorf("startup: %w", err)
			}
		}
		r.started.Store(true)
		slog.InfoContext(ctx, "startup checks passed", "checks", len(r.startup))
	}
	for _, check := range r.live {
		cctx, cancel := context.WithTimeout(ctx, liveCheckTimeout)
		err := check.Ready(cctx)
		cancel()
		if err != nil {
			return fmt.Errorf("live: %w", err)
		}
	}
	return nil
}

func (r *readiness) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if err := r.Ready(req.Context()); err != nil {
		slog.WarnContext(req.Context(), "not ready", "error", err)
		http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.ErrorContext(req.Context(), "failed to write readiness response", "error", err)
	}
}
