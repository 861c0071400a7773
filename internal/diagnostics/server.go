// Package diagnostics exposes an optional HTTP server surfacing /healthz
// and /metrics while a verbose run is in flight, generalized from the
// teacher's internal/app/app.go metrics-server wiring.
package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kimchi-link/kimchi/internal/metrics"
)

// Server is a minimal chi router exposing liveness and Prometheus metrics.
// It carries no business logic: kimchi's pipeline runs independently of
// whether this server is started.
type Server struct {
	router chi.Router
	logger *zap.Logger
}

// New builds a Server. metrics.Init() must have been called already so the
// collectors this server exposes are registered.
func New(logger *zap.Logger) *Server {
	s := &Server{logger: logger}
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", metrics.Handler())
	s.router = r
	return s
}

// Handler returns the router for embedding in an *http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve starts an HTTP server on addr and blocks until ctx is cancelled or
// the server fails. It shuts down gracefully on cancellation.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.logger != nil {
			s.logger.Info("diagnostics server shutting down")
		}
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
