// Package server exposes the dashboard as a small local HTTP service.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/knotwatch/internal/dashboard"
	"github.com/MrSnakeDoc/knotwatch/internal/logger"
	"github.com/MrSnakeDoc/knotwatch/internal/metrics"
	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	dash     *dashboard.Dashboard
	interval time.Duration
	http     *http.Server
}

// New builds the server. The dashboard is refreshed every interval while
// the server runs.
func New(addr string, d *dashboard.Dashboard, h *Handler, rec *metrics.Recorder, interval time.Duration) *Server {
	r := mux.NewRouter()
	RegisterRoutes(r, h, rec)

	return &Server{
		dash:     d,
		interval: interval,
		http: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	loopCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.refreshLoop(loopCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving dashboard on http://%s", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.dash.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.dash.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func (s *Server) refreshLoop(ctx context.Context) {
	s.dash.Run(ctx)

	if s.interval <= 0 {
		return
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			logger.Debug("refreshing dashboard")
			s.dash.Refresh(ctx)
		}
	}
}
