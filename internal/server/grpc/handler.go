package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/result"
	"github.com/dmitrijs2005/gophauth/internal/server/tokens"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC statuses. Token integrity failures
// are Unauthenticated; anything else is logged and reported as Internal.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	s.logger.Error(ctx, "request failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}

func reply[T any](s *GRPCServer, ctx context.Context, method string, res result.Result[T], err error) (result.Result[T], error) {
	if err != nil {
		return result.Result[T]{}, s.toStatus(ctx, method, err)
	}
	return res, nil
}

// callerID is the subject of the authenticated principal.
func callerID(ctx context.Context) (string, error) {
	p, ok := principalFromContext(ctx)
	if !ok || p.Subject() == "" {
		return "", status.Error(codes.Unauthenticated, "missing principal")
	}
	return p.Subject(), nil
}

func (s *GRPCServer) Register(ctx context.Context, req *accounts.RegisterRequest) (result.Result[string], error) {
	s.logger.Info(ctx, "Registration request", "username", req.UserName)
	res, err := s.accounts.Register(ctx, *req)
	return reply(s, ctx, rpc.MethodRegister, res, err)
}

func (s *GRPCServer) GetToken(ctx context.Context, req *tokens.TokenRequest) (result.Result[tokens.TokenResponse], error) {
	res, err := s.tokens.GetToken(ctx, *req)
	return reply(s, ctx, rpc.MethodGetToken, res, err)
}

// RefreshToken treats a request with neither token as an absent payload.
func (s *GRPCServer) RefreshToken(ctx context.Context, req *tokens.RefreshTokenRequest) (result.Result[tokens.TokenResponse], error) {
	if req.Token == "" && req.RefreshToken == "" {
		req = nil
	}
	res, err := s.tokens.RefreshToken(ctx, req)
	return reply(s, ctx, rpc.MethodRefreshToken, res, err)
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *accounts.UpdateProfileRequest) (result.Result[result.None], error) {
	id, err := callerID(ctx)
	if err != nil {
		return result.Result[result.None]{}, err
	}
	res, err := s.accounts.UpdateProfile(ctx, id, *req)
	return reply(s, ctx, rpc.MethodUpdateProfile, res, err)
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *accounts.ChangePasswordRequest) (result.Result[result.None], error) {
	id, err := callerID(ctx)
	if err != nil {
		return result.Result[result.None]{}, err
	}
	res, err := s.accounts.ChangePassword(ctx, id, *req)
	return reply(s, ctx, rpc.MethodChangePassword, res, err)
}

func (s *GRPCServer) GetUsers(ctx context.Context, _ *rpc.Empty) (result.Result[[]accounts.UserResponse], error) {
	res, err := s.accounts.GetAll(ctx)
	return reply(s, ctx, rpc.MethodGetUsers, res, err)
}

func (s *GRPCServer) GetUser(ctx context.Context, req *rpc.UserIDRequest) (result.Result[accounts.UserResponse], error) {
	res, err := s.accounts.Get(ctx, req.UserID)
	return reply(s, ctx, rpc.MethodGetUser, res, err)
}

func (s *GRPCServer) GetRoles(ctx context.Context, req *rpc.UserIDRequest) (result.Result[accounts.UserRolesResponse], error) {
	res, err := s.accounts.GetRoles(ctx, req.UserID)
	return reply(s, ctx, rpc.MethodGetRoles, res, err)
}

func (s *GRPCServer) ChangeStatus(ctx context.Context, req *accounts.ToggleUserStatusRequest) (result.Result[result.None], error) {
	res, err := s.accounts.ChangeStatus(ctx, *req)
	return reply(s, ctx, rpc.MethodChangeStatus, res, err)
}

func (s *GRPCServer) UpdateRoles(ctx context.Context, req *accounts.UpdateUserRolesRequest) (result.Result[result.None], error) {
	id, err := callerID(ctx)
	if err != nil {
		return result.Result[result.None]{}, err
	}
	res, err := s.accounts.UpdateRoles(ctx, id, *req)
	return reply(s, ctx, rpc.MethodUpdateRoles, res, err)
}

func (s *GRPCServer) AddClaim(ctx context.Context, req *accounts.AddUserClaimRequest) (result.Result[result.None], error) {
	res, err := s.accounts.AddClaim(ctx, *req)
	return reply(s, ctx, rpc.MethodAddClaim, res, err)
}
