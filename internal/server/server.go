// Package server is chronicle's public HTTP surface: a read-only JSON
// API over the content store plus an RSS feed. Writes happen through
// the CLI and replication, never through HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/chronicle/internal/store"
)

// Server serves site content from a Storage. The storage may be local
// or a remote client; the server does not care.
type Server struct {
	storage store.Storage
	site    *SiteConfig
	logger  *zap.Logger
	feed    *expiring[string]
	now     func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithTime replaces the server's time source for feed timestamps and
// cache expiry.
func WithTime(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
		s.feed = newExpiring[string](feedTTL, now)
	}
}

// New returns a Server for the given storage and site configuration. A
// nil logger disables logging.
func New(storage store.Storage, site *SiteConfig, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		storage: storage,
		site:    site,
		logger:  logger,
		now:     time.Now,
	}
	s.feed = newExpiring[string](feedTTL, nil)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves HTTP on addr until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("http server listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
