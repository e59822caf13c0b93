// Package httpserver exposes the REST API.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"MaturityBoard/internal/config"
	"MaturityBoard/internal/utils/logger/sl"
)

type Server struct {
	srv *http.Server
	log *slog.Logger
}

func New(logger *slog.Logger, cfg config.HttpServerConfig, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: cfg.Timeout,
			ReadTimeout:       cfg.Timeout,
			WriteTimeout:      2 * cfg.Timeout,
		},
		log: logger.With(slog.String("component", "httpserver")),
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() {
	op := "httpserver.Start"
	log := s.log.With(slog.String("op", op))

	log.Info("http server listening", slog.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server stopped", sl.Err(err))
		return
	}
	log.Info("http server stopped")
}

func (s *Server) Shutdown(ctx context.Context) error {
	op := "httpserver.Shutdown"
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error exit %s: %w", op, err)
	}
	return nil
}
