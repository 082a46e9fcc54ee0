// Package grpc exposes the token and account services over gRPC using the
// JSON codec from internal/rpc.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/claims"
	"github.com/dmitrijs2005/gophauth/internal/server/tokens"
	"google.golang.org/grpc"
)

// TokenValidator authenticates the access token of protected calls.
type TokenValidator interface {
	ValidateAccessToken(token string) (*claims.Principal, error)
}

// RequestObserver records handled calls, e.g. into Prometheus.
type RequestObserver interface {
	ObserveRequest(method, code string, took time.Duration)
}

type GRPCServer struct {
	address   string
	tokens    *tokens.Service
	accounts  *accounts.Service
	validator TokenValidator
	observer  RequestObserver
	logger    logging.Logger
}

type Option func(*GRPCServer)

func WithObserver(o RequestObserver) Option {
	return func(s *GRPCServer) { s.observer = o }
}

func NewGRPCServer(address string, l logging.Logger, ts *tokens.Service, as *accounts.Service, v TokenValidator, opts ...Option) *GRPCServer {
	s := &GRPCServer{
		address:   address,
		logger:    l.With("module", "grpc_server"),
		tokens:    ts,
		accounts:  as,
		validator: v,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.observeInterceptor, s.accessTokenInterceptor))
	srv.RegisterService(&identityServiceDesc, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
