package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/result"
	"github.com/dmitrijs2005/gophauth/internal/server/tokens"
	"google.golang.org/grpc"
)

// identityServer lists the handlers registered under rpc.ServiceName.
type identityServer interface {
	Register(context.Context, *accounts.RegisterRequest) (result.Result[string], error)
	GetToken(context.Context, *tokens.TokenRequest) (result.Result[tokens.TokenResponse], error)
	RefreshToken(context.Context, *tokens.RefreshTokenRequest) (result.Result[tokens.TokenResponse], error)
	UpdateProfile(context.Context, *accounts.UpdateProfileRequest) (result.Result[result.None], error)
	ChangePassword(context.Context, *accounts.ChangePasswordRequest) (result.Result[result.None], error)
	GetUsers(context.Context, *rpc.Empty) (result.Result[[]accounts.UserResponse], error)
	GetUser(context.Context, *rpc.UserIDRequest) (result.Result[accounts.UserResponse], error)
	GetRoles(context.Context, *rpc.UserIDRequest) (result.Result[accounts.UserRolesResponse], error)
	ChangeStatus(context.Context, *accounts.ToggleUserStatusRequest) (result.Result[result.None], error)
	UpdateRoles(context.Context, *accounts.UpdateUserRolesRequest) (result.Result[result.None], error)
	AddClaim(context.Context, *accounts.AddUserClaimRequest) (result.Result[result.None], error)
}

// unary builds the method descriptor for one handler: it decodes the request,
// runs the interceptor chain and calls the handler.
func unary[Req, Resp any](name string, call func(identityServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(identityServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: rpc.FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var identityServiceDesc = grpc.ServiceDesc{
	ServiceName: rpc.ServiceName,
	HandlerType: (*identityServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(rpc.MethodRegister, identityServer.Register),
		unary(rpc.MethodGetToken, identityServer.GetToken),
		unary(rpc.MethodRefreshToken, identityServer.RefreshToken),
		unary(rpc.MethodUpdateProfile, identityServer.UpdateProfile),
		unary(rpc.MethodChangePassword, identityServer.ChangePassword),
		unary(rpc.MethodGetUsers, identityServer.GetUsers),
		unary(rpc.MethodGetUser, identityServer.GetUser),
		unary(rpc.MethodGetRoles, identityServer.GetRoles),
		unary(rpc.MethodChangeStatus, identityServer.ChangeStatus),
		unary(rpc.MethodUpdateRoles, identityServer.UpdateRoles),
		unary(rpc.MethodAddClaim, identityServer.AddClaim),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/identity.json",
}
