// Package server exposes an adapter over HTTP as a JSON:API endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/adapter"
	"github.com/ChangJoo-Park/json-api/internal/apierror"
)

// Config holds server configuration
type Config struct {
	// BasePath prefixes every route, e.g. "/api". Empty mounts at the root.
	BasePath string

	// MaxPageSize caps page[limit]; 0 disables the cap
	MaxPageSize int

	// MaxBodyBytes limits request bodies
	MaxBodyBytes int64

	// Timeouts
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultConfig returns a production-ready server configuration
func DefaultConfig() Config {
	return Config{
		MaxPageSize:       100,
		MaxBodyBytes:      1 << 20, // 1 MB
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
	}
}

// Server serves the adapter's resource types.
type Server struct {
	adapter *adapter.Adapter
	config  Config
	logger  *zap.Logger
	router  chi.Router
}

// New creates a server for a. A nil logger disables logging.
func New(a *adapter.Adapter, config Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		adapter: a,
		config:  config,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.renderError(w, apierror.New(http.StatusNotFound, "Not found."))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.renderError(w, apierror.New(http.StatusMethodNotAllowed, "Method not allowed."))
	})

	mount := func(r chi.Router) {
		r.Get("/docs/{type}", s.handleDocs)

		r.Group(func(r chi.Router) {
			r.Use(s.negotiate)

			r.Get("/{type}", s.handleList)
			r.Post("/{type}", s.handleCreate)
			r.Patch("/{type}", s.handleUpdateMany)
			r.Delete("/{type}", s.handleDeleteMany)

			r.Get("/{type}/{id}", s.handleGet)
			r.Patch("/{type}/{id}", s.handleUpdate)
			r.Delete("/{type}/{id}", s.handleDelete)

			r.Post("/{type}/{id}/relationships/{rel}", s.handleAddToRelationship)
			r.Delete("/{type}/{id}/relationships/{rel}", s.handleRemoveFromRelationship)
		})
	}

	if s.config.BasePath == "" {
		mount(r)
	} else {
		r.Route(s.config.BasePath, mount)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", listener.Addr().String()))
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
