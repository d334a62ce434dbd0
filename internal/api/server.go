package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server exposes the webhook and status endpoints over HTTP.
type Server struct {
	server *http.Server
}

// NewServer builds the router and wraps it in an http.Server. simulation
// routes are only mounted when the handler carries a simulator.
func NewServer(h *Handler, port int, checks map[string]HealthChecker) *Server {
	r := NewRouter(h, checks)
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// NewRouter builds the chi route tree.
func NewRouter(h *Handler, checks map[string]HealthChecker) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	// The provider expects an answer within a few seconds; anything slower is
	// treated as a failed delivery and retried.
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/health", healthHandler(checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/payment", h.handlePaymentWebhook)
		r.Get("/transactions", h.handleListTransactions)
		r.Get("/transactions/{txHash}", h.handleGetTransaction)
		if h.simulator != nil {
			r.Post("/simulate", h.handleSimulate)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		detail := make(map[string]string, len(checks))
		code := http.StatusOK

		for name, check := range checks {
			if err := check.Health(r.Context()); err != nil {
				status = "degraded"
				detail[name] = err.Error()
				code = http.StatusServiceUnavailable
			} else {
				detail[name] = "ok"
			}
		}

		writeJSON(w, code, map[string]any{"status": status, "checks": detail})
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
