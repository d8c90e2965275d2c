package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const principalKey ctxKey = "principal"

// publicMethods are reachable without an access token.
var publicMethods = map[string]bool{
	MethodLogin:   true,
	MethodRefresh: true,

	grpc_health_v1.Health_Check_FullMethodName: true,
	grpc_health_v1.Health_Watch_FullMethodName: true,
}

// Authenticator resolves an access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// PrincipalFromContext returns the user attached by the interceptor.
func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(principalKey).(*models.User)
	return u, ok && u != nil
}

// accessTokenFromMetadata reads access_token, falling back to a bearer
// authorization value.
func accessTokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 && v[0] != "" {
		return v[0]
	}
	if v := md.Get("authorization"); len(v) > 0 {
		if scheme, tok, ok := strings.Cut(v[0], " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	user, err := s.users.Authenticate(ctx, accessTokenFromMetadata(ctx))
	if err != nil {
		if errors.Is(err, common.ErrMissingCredential) {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}
		if errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Debug(ctx, "access denied", "method", info.FullMethod, "reason", err)
			return nil, status.Error(codes.Unauthenticated, "invalid access token")
		}
		return nil, statusFromError(err)
	}

	return handler(context.WithValue(ctx, principalKey, user), req)
}

// statusFromError maps error classes to gRPC codes, hiding internal details.
func statusFromError(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
