package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

const shutdownTimeout = 10 * time.Second

// Server runs the ops router on its own listener.
type Server struct {
	srv    *stdhttp.Server
	logger logger.Interface
}

func NewServer(addr string, router *Router, logger logger.Interface) *Server {
	return &Server{
		srv: &stdhttp.Server{
			Addr:         addr,
			Handler:      router.GetEngine(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is done, then shuts down gracefully. It returns a
// non-nil error only when the listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("ops server starting", "address", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Errorw("ops server forced to shutdown", "error", err)
		_ = s.srv.Close()
	}
	<-errCh
	s.logger.Infow("ops server stopped")
	return nil
}
