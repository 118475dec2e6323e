// Package server is the thin HTTP facade over the assistant: JSON in, JSON
// out, no domain logic of its own. Every endpoint delegates to the
// orchestrator.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nyxlab/nyx/internal/config"
	"github.com/nyxlab/nyx/internal/orchestrator"
)

// Server hosts the HTTP facade.
type Server struct {
	cfg        config.ServerConfig
	logger     *zap.Logger
	nyx        *orchestrator.Nyx
	httpServer *http.Server
}

// New builds the server around an initialized assistant.
func New(cfg config.ServerConfig, logger *zap.Logger, nyx *orchestrator.Nyx) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger.Named("server"),
		nyx:    nyx,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Routes assembles the router with its middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLogMiddleware)
	if s.cfg.RateLimit.RPS > 0 {
		r.Use(newClientLimiter(s.cfg.RateLimit, s.logger).middleware)
	}

	h := newHandlers(s.logger, s.nyx)
	h.RegisterRoutes(r)
	return r
}

// Run serves until the context is cancelled, then shuts down gracefully
// within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownTimeout := s.cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// accessLogMiddleware logs one line per request through the process logger.
func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", RequestIDFromContext(r.Context())),
		)
	})
}
