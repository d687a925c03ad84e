package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexand-dev/vid-skool/internal/config"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg        config.Config
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer constructs a Server from the provided dependencies. Closing the
// database and producer is left to the injector's cleanup.
func NewServer(cfg config.Config, handler http.Handler, logger zerolog.Logger) *Server {
	return &Server{
		cfg: cfg,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("address", s.cfg.HTTPAddress).Msg("http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil {
			errCh <- err
		} else {
			close(errCh)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn().Err(err).Msg("http shutdown")
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
