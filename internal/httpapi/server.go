package httpapi

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/topolens/topolens/pkg/config"
)

// Server wraps http.Server with the configured timeouts and graceful
// shutdown.
type Server struct {
	log *log.Logger
	srv *http.Server
	cfg config.ServerConfig
}

// NewServer builds the listener around a handler.
func NewServer(logger *log.Logger, handler http.Handler, cfg config.ServerConfig) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		log: logger,
		cfg: cfg,
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout.Duration(),
			WriteTimeout: cfg.WriteTimeout.Duration(),
		},
	}
}

// ListenAndServe blocks until the context is canceled or the listener
// fails, then drains in-flight requests within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api server listening", "addr", s.cfg.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	s.log.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
