package http

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/autopeer-io/ridertrack/pkg/log"
	"github.com/autopeer-io/ridertrack/pkg/options"
)

type Server struct {
	server  *http.Server
	hub     *Hub
	options *options.HttpOptions
	log     log.Logger
}

// NewServer serves the dashboard API, probes, metrics and the live stream.
func NewServer(opts *options.HttpOptions, fleet Fleet, sel Selector, hub *Hub, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Server{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(fleet, sel, hub, logger),
			ReadHeaderTimeout: opts.Timeout,
		},
		hub:     hub,
		options: opts,
		log:     logger,
	}
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.server.Addr)
	if err != nil {
		return err
	}
	s.log.Info("Starting HTTP Server", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		// Hijacked websocket connections are not closed by Shutdown.
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
