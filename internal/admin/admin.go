// Package admin serves the optional HTTP admin endpoint.
//
// Routes:
//
//	GET /healthz   liveness, always "ok"
//	GET /windows   JSON snapshot of the window registry in stacking order
//	GET /metrics   Prometheus metrics
//
// The endpoint is meant for a loopback address; it has no authentication.
package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cruciblehq/appdrawer/internal/window"
)

const shutdownTimeout = 5 * time.Second

var ErrAdmin = errors.New("admin endpoint error")

// Source of window snapshots.
type Snapshotter interface {
	Snapshot() []window.Info
}

// Builds the admin router.
func NewHandler(windows Snapshotter, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})

	r.Get("/windows", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(windows.Snapshot()); err != nil {
			slog.Debug("failed to write window snapshot", "error", err)
		}
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

// Serves handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(ErrAdmin, "failed to listen on %s: %v", addr, err)
	}
	return serve(ctx, ln, handler)
}

func serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	slog.Info("admin endpoint listening", "address", ln.Addr().String())

	select {
	case err := <-errc:
		return errors.Wrap(ErrAdmin, err.Error())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrapf(ErrAdmin, "shutdown: %v", err)
	}
	return nil
}
