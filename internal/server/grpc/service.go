package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SessionServiceName is the fully qualified gRPC service name. Messages are
// protobuf well-known types, so clients need no generated stubs.
const SessionServiceName = "tubeauth.v1.SessionService"

// Full method names.
const (
	MethodLogin       = "/" + SessionServiceName + "/Login"
	MethodRefresh     = "/" + SessionServiceName + "/Refresh"
	MethodLogout      = "/" + SessionServiceName + "/Logout"
	MethodCurrentUser = "/" + SessionServiceName + "/CurrentUser"
)

// SessionServiceServer is the server API for SessionService.
type SessionServiceServer interface {
	// Login takes {username|email, password} and returns
	// {user, accessToken, refreshToken}.
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Logout(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	CurrentUser(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func unaryHandler[Req, Resp any](fullMethod string, call func(SessionServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SessionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SessionServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, SessionServiceServer.Login)},
		{MethodName: "Refresh", Handler: unaryHandler(MethodRefresh, SessionServiceServer.Refresh)},
		{MethodName: "Logout", Handler: unaryHandler(MethodLogout, SessionServiceServer.Logout)},
		{MethodName: "CurrentUser", Handler: unaryHandler(MethodCurrentUser, SessionServiceServer.CurrentUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tubeauth/v1/session.proto",
}

// RegisterSessionServiceServer registers srv on s.
func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&sessionServiceDesc, srv)
}
