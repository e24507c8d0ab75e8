package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/config"
)

// Server wraps http.Server with a blocking Run that shuts down when its
// context is cancelled.
type Server struct {
	http  *http.Server
	grace time.Duration
}

// New creates the server for handler with the HTTP_* settings.
func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       2 * time.Minute,
		},
		grace: cfg.HTTPShutdownGrace,
	}
}

// Run listens until ctx is done, then drains open requests for at most
// the shutdown grace period.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("luisteren op %s mislukt: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"component": "http", "addr": ln.Addr().String()}).Info("HTTP server listening")
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()
	log.WithField("component", "http").Info("HTTP server shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server afsluiten mislukt: %w", err)
	}
	return <-errCh
}
