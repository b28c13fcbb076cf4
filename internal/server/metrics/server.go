package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/logging"
	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// Server is the admin listener carrying /metrics and /healthz.
type Server struct {
	svc    *http.Server
	logger logging.Logger
}

func NewServer(addr string, m *Auth, logger logging.Logger) *Server {
	timeout := 45 * time.Second
	return &Server{
		svc: &http.Server{
			Addr:         addr,
			Handler:      router(m),
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
			IdleTimeout:  timeout,
		},
		logger: logger.With("module", "metrics"),
	}
}

func router(m *Auth) http.Handler {
	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/metrics").Handler(m.Handler())
	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) BindAddress() string {
	return s.svc.Addr
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.svc.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "metrics listener started", "addr", lis.Addr().String())
		errCh <- s.svc.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.svc.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info(ctx, "metrics listener stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
