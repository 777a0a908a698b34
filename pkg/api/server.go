package api

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

	"github.com/jakechorley/rotation-control/pkg/core/services"
	"github.com/jakechorley/rotation-control/pkg/db"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the rotation services as a JSON HTTP API
type Server struct {
	store    db.Database
	settings services.Settings
	logger   *zap.Logger
	now      func() time.Time
}

// NewServer creates a Server backed by store
func NewServer(store db.Database, settings services.Settings, logger *zap.Logger) *Server {
	return &Server{
		store:    store,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Routes builds the chi router for the API
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.listTasks)
		r.Route("/{taskID}", func(r chi.Router) {
			r.Get("/", s.getTask)
			r.Get("/history", s.taskHistory)
			r.Post("/assign", s.assignTask)
			r.Post("/rotate", s.rotateTask)
			r.Post("/postpone", s.postponeTask)
		})
	})
	r.Get("/alerts", s.viewAlerts)
	r.Get("/personnel", s.listPersonnel)

	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves the API on listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	s.logger.Info("API listening", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	<-errChan

	s.logger.Info("API stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
