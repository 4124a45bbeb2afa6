package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server runs the HTTP listener until its context is cancelled and then
// drains in-flight requests.
type Server struct {
	log             *zap.Logger
	server          *stdhttp.Server
	shutdownTimeout time.Duration
}

func NewServer(addr string, handler stdhttp.Handler, shutdownTimeout time.Duration, log *zap.Logger) *Server {
	return &Server{
		log: log,
		server: &stdhttp.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          zap.NewStdLog(log),
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// Run listens on the configured address.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.log.Info("http server listening", zap.String("addr", listener.Addr().String()))
		err := s.server.Serve(listener)
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.log.Info("http server shutting down")
		return s.server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
