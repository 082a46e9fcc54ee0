package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/claims"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const principalKey ctxKey = "principal"

// publicMethods are served without an access token.
var publicMethods = map[string]bool{
	rpc.FullMethod(rpc.MethodRegister):     true,
	rpc.FullMethod(rpc.MethodGetToken):     true,
	rpc.FullMethod(rpc.MethodRefreshToken): true,
}

// requiredPermission maps guarded methods to the permission claim the caller
// must carry. Authenticated methods missing here only need a valid token.
var requiredPermission = map[string]string{
	rpc.FullMethod(rpc.MethodGetUsers):     claims.PermUsersView,
	rpc.FullMethod(rpc.MethodGetUser):      claims.PermUsersView,
	rpc.FullMethod(rpc.MethodGetRoles):     claims.PermUsersView,
	rpc.FullMethod(rpc.MethodChangeStatus): claims.PermUsersEdit,
	rpc.FullMethod(rpc.MethodUpdateRoles):  claims.PermRolesEdit,
	rpc.FullMethod(rpc.MethodAddClaim):     claims.PermUsersEdit,
}

func principalFromContext(ctx context.Context) (*claims.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*claims.Principal)
	return p, ok
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	principal, err := s.validator.ValidateAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		s.logger.Warn(ctx, "rejected access token", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	if perm, ok := requiredPermission[info.FullMethod]; ok && !principal.HasPermission(perm) {
		return nil, status.Error(codes.PermissionDenied, "permission denied")
	}

	return handler(context.WithValue(ctx, principalKey, principal), req)
}

func (s *GRPCServer) observeInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if s.observer != nil {
		s.observer.ObserveRequest(info.FullMethod, status.Code(err).String(), time.Since(start))
	}
	return resp, err
}
