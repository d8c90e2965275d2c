// Package grpc is the gRPC transport of the auth server. It serves
// SessionService and the standard health service; every other method
// requires an access token in the access_token metadata.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/tubeauth/internal/logging"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/dmitrijs2005/tubeauth/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// UserService is what the gRPC handlers need from services.UserService.
type UserService interface {
	Authenticator
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID string) error
}

type GRPCServer struct {
	address string
	users   UserService
	logger  logging.Logger
	health  *health.Server
}

func NewGRPCServer(a string, l logging.Logger, us UserService) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		health:  health.NewServer(),
	}
}

// newServer builds a grpc.Server with all services registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	RegisterSessionServiceServer(srv, &sessionHandler{server: s})
	grpc_health_v1.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(SessionServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
