package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
	"github.com/sundayezeilo/shortlinks/internal/shortener"
)

const healthTimeout = 2 * time.Second

// PingFunc reports whether the link store is reachable.
type PingFunc func(ctx context.Context) error

// Server represents the HTTP server with all dependencies.
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	handler *shortener.Handler
	ping    PingFunc
	server  *http.Server
}

// New creates a new Server instance. ping may be nil.
func New(cfg *config.Config, logger *slog.Logger, handler *shortener.Handler, ping PingFunc) *Server {
	return &Server{
		config:  cfg,
		logger:  logger,
		handler: handler,
		ping:    ping,
	}
}

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.applyMiddleware(s.setupRoutes())
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("starting http server",
			"addr", s.server.Addr,
			"env", s.config.App.Environment,
		)
		serverErrors <- s.server.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		s.logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		s.logger.Info("server stopped gracefully")
		return nil
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	auth := httpx.Authenticate(httpx.AuthConfig{
		Secret: []byte(s.config.Auth.JWTSecret),
		Issuer: s.config.Auth.JWTIssuer,
		Logger: s.logger,
	})
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux.HandleFunc("GET /x/health", s.healthCheckHandler)

	mux.Handle("POST /api/links", protected(s.handler.CreateLink))
	mux.Handle("GET /api/links", protected(s.handler.ListLinks))
	mux.Handle("GET /api/links/summary", protected(s.handler.Summary))
	mux.Handle("GET /api/links/{token}", protected(s.handler.GetLink))
	mux.Handle("PUT /api/links/{token}", protected(s.handler.EditLink))
	mux.Handle("DELETE /api/links/{token}", protected(s.handler.DeleteLink))
	mux.Handle("GET /api/links/{token}/clicks", protected(s.handler.Clicks))

	mux.HandleFunc("GET /{token}", s.handler.ResolveLink)

	return mux
}

// applyMiddleware wraps the handler with middleware in the correct order.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	return httpx.Chain(
		httpx.Recovery(s.logger),
		httpx.RequestID,
		httpx.Logger(s.logger),
		httpx.CORS(s.config.Server.AllowedOrigins),
	)(handler)
}

// healthCheckHandler reports service identity and store reachability.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status":  "ok",
		"service": s.config.Observability.ServiceName,
		"version": s.config.Observability.ServiceVersion,
		"store":   s.config.Store.Driver,
	}

	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := s.ping(ctx); err != nil {
			s.logger.ErrorContext(ctx, "health check failed",
				"request_id", httpx.GetRequestID(ctx),
				"error", err.Error(),
			)
			body["status"] = "unavailable"
			httpx.WriteJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, body)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, forcing close")
			return s.server.Close()
		}
		return err
	}

	return nil
}
