package metrics

import (
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server serves /metrics and /healthz while a run is in progress
type Server struct {
	srv      *http.Server
	listener net.Listener
	log      *zap.Logger
}

// Start listens on addr and serves in the background
func Start(addr string, recorder *Recorder, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		srv: &http.Server{
			Handler:      mux,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		listener: ln,
		log:      logger.Named("metrics"),
	}

	go func() {
		s.log.Info("metrics listening", zap.String("addr", ln.Addr().String()))
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server error", zap.Error(err))
		}
	}()
	return s, nil
}

// Addr returns the bound address
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Close stops the server
func (s *Server) Close() error {
	return s.srv.Close()
}
