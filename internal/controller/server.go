// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"reposched/internal/controller/handlers"
	"reposched/internal/controller/middleware"
)

// Options configures the controller server.
type Options struct {
	Addr string

	// APIToken, when set, is required as a bearer token on the job API.
	APIToken string

	// MultiUser requires X-Owner-ID on every job API call, so no caller
	// can list across owners.
	MultiUser bool

	// Per-owner rate; 0 disables limiting.
	RateLimit      float64
	RateLimitBurst int

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler

	Logger *slog.Logger
}

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server.
func New(engine handlers.Engine, backend handlers.Backend, opts Options) *Server {
	h := handlers.New(engine, backend, opts.Logger)

	return &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      NewHandler(h, opts),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// NewHandler builds the routed handler chain.
func NewHandler(h *handlers.Handlers, opts Options) http.Handler {
	limiter := middleware.NewRateLimiter(middleware.WithLimit(opts.RateLimit, opts.RateLimitBurst))
	authMW := middleware.AuthMiddleware(opts.APIToken)
	ownerMW := middleware.OwnerMiddleware(opts.MultiUser)
	protect := func(fn http.HandlerFunc) http.Handler {
		return authMW(ownerMW(limiter.Middleware()(fn)))
	}

	mux := http.NewServeMux()

	mux.Handle("GET /jobs", protect(h.ListJobs))
	mux.Handle("POST /jobs", protect(h.CreateJob))
	mux.Handle("GET /jobs/{id}", protect(h.GetJob))
	mux.Handle("PATCH /jobs/{id}", protect(h.UpdateJob))
	mux.Handle("DELETE /jobs/{id}", protect(h.CancelJob))
	mux.Handle("POST /jobs/{id}/trigger", protect(h.TriggerJob))
	mux.Handle("GET /stats", protect(h.Stats))
	mux.Handle("PUT /credentials", protect(h.SetCredential))

	// Probes stay unauthenticated.
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	var handler http.Handler = mux
	if opts.Logger != nil {
		handler = middleware.Logging(opts.Logger)(handler)
	}
	return middleware.RequestID(handler)
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("controller server: %w", err)
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
