package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/tubeauth/internal/common"
	"github.com/dmitrijs2005/tubeauth/internal/server/models"
	"github.com/dmitrijs2005/tubeauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type sessionHandler struct {
	server *GRPCServer
}

func userFields(u *models.PublicUser) map[string]any {
	return map[string]any{
		"_id":       u.ID,
		"username":  u.UserName,
		"email":     u.Email,
		"fullName":  u.FullName,
		"createdAt": u.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt": u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func (h *sessionHandler) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	res, err := h.server.users.Login(ctx, services.LoginInput{
		UserName: stringField(req, "username"),
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
	})
	if err != nil {
		return nil, statusFromError(err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"user":         userFields(res.User),
		"accessToken":  res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
	})
	if err != nil {
		h.server.logger.Error(ctx, "encode login response", "err", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (h *sessionHandler) Refresh(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	pair, err := h.server.users.Refresh(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
		}
		return nil, statusFromError(err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (h *sessionHandler) Logout(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {

	user, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	if err := h.server.users.Logout(ctx, user.ID); err != nil {
		return nil, statusFromError(err)
	}
	return &emptypb.Empty{}, nil
}

func (h *sessionHandler) CurrentUser(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	user, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	out, err := structpb.NewStruct(userFields(user.Sanitize()))
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}
