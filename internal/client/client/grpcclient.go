package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/result"
	"github.com/dmitrijs2005/gophauth/internal/server/tokens"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const tokenExpiredMessage = "token expired"

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewGRPCClient creates a client for endpoint. Extra dial options are
// appended to the defaults (insecure transport, JSON codec).
func NewGRPCClient(endpoint string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpoint}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpc.CodecName)),
		grpc.WithChainUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpoint, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *GRPCClient) setTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = access, refresh
}

func (c *GRPCClient) LoggedIn() bool {
	access, _ := c.tokens()
	return access != ""
}

// Logout forgets the token pair. The server keeps no session to end.
func (c *GRPCClient) Logout() {
	c.setTokens("", "")
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := c.tokens()
	if access == "" {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if status.Code(err) != codes.Unauthenticated || status.Convert(err).Message() != tokenExpiredMessage || refresh == "" {
		return err
	}

	var refreshed result.Result[tokens.TokenResponse]
	refreshReq := &tokens.RefreshTokenRequest{Token: access, RefreshToken: refresh}
	if rerr := invoker(ctx, rpc.FullMethod(rpc.MethodRefreshToken), refreshReq, &refreshed, cc, opts...); rerr != nil {
		return rerr
	}
	if !refreshed.Succeeded {
		c.Logout()
		return err
	}

	c.setTokens(refreshed.Data.Token, refreshed.Data.RefreshToken)
	return invoker(withAccessToken(ctx, refreshed.Data.Token), method, req, reply, cc, opts...)
}

func invoke[T any](ctx context.Context, c *GRPCClient, method string, req any) (result.Result[T], error) {
	var out result.Result[T]
	if err := c.conn.Invoke(ctx, rpc.FullMethod(method), req, &out); err != nil {
		return out, mapError(err)
	}
	return out, nil
}

func mapError(err error) error {
	switch status.Code(err) {
	case codes.Unavailable:
		return errors.Join(ErrUnavailable, err)
	case codes.Unauthenticated:
		return errors.Join(ErrUnauthorized, err)
	case codes.PermissionDenied:
		return errors.Join(ErrForbidden, err)
	default:
		return err
	}
}

func (c *GRPCClient) Register(ctx context.Context, req accounts.RegisterRequest) (result.Result[string], error) {
	return invoke[string](ctx, c, rpc.MethodRegister, &req)
}

// Login requests a token pair and keeps it for later calls when the server
// accepts the credentials.
func (c *GRPCClient) Login(ctx context.Context, email, password string) (result.Result[tokens.TokenResponse], error) {
	res, err := invoke[tokens.TokenResponse](ctx, c, rpc.MethodGetToken, &tokens.TokenRequest{Email: email, Password: password})
	if err == nil && res.Succeeded {
		c.setTokens(res.Data.Token, res.Data.RefreshToken)
	}
	return res, err
}

// Refresh rotates the kept token pair.
func (c *GRPCClient) Refresh(ctx context.Context) (result.Result[tokens.TokenResponse], error) {
	access, refresh := c.tokens()
	res, err := invoke[tokens.TokenResponse](ctx, c, rpc.MethodRefreshToken,
		&tokens.RefreshTokenRequest{Token: access, RefreshToken: refresh})
	if err == nil && res.Succeeded {
		c.setTokens(res.Data.Token, res.Data.RefreshToken)
	}
	return res, err
}

func (c *GRPCClient) UpdateProfile(ctx context.Context, req accounts.UpdateProfileRequest) (result.Result[result.None], error) {
	return invoke[result.None](ctx, c, rpc.MethodUpdateProfile, &req)
}

func (c *GRPCClient) ChangePassword(ctx context.Context, req accounts.ChangePasswordRequest) (result.Result[result.None], error) {
	return invoke[result.None](ctx, c, rpc.MethodChangePassword, &req)
}

func (c *GRPCClient) Users(ctx context.Context) (result.Result[[]accounts.UserResponse], error) {
	return invoke[[]accounts.UserResponse](ctx, c, rpc.MethodGetUsers, &rpc.Empty{})
}

func (c *GRPCClient) User(ctx context.Context, id string) (result.Result[accounts.UserResponse], error) {
	return invoke[accounts.UserResponse](ctx, c, rpc.MethodGetUser, &rpc.UserIDRequest{UserID: id})
}

func (c *GRPCClient) Roles(ctx context.Context, id string) (result.Result[accounts.UserRolesResponse], error) {
	return invoke[accounts.UserRolesResponse](ctx, c, rpc.MethodGetRoles, &rpc.UserIDRequest{UserID: id})
}

func (c *GRPCClient) SetStatus(ctx context.Context, id string, active bool) (result.Result[result.None], error) {
	return invoke[result.None](ctx, c, rpc.MethodChangeStatus,
		&accounts.ToggleUserStatusRequest{UserID: id, ActivateUser: active})
}

func (c *GRPCClient) UpdateRoles(ctx context.Context, req accounts.UpdateUserRolesRequest) (result.Result[result.None], error) {
	return invoke[result.None](ctx, c, rpc.MethodUpdateRoles, &req)
}

func (c *GRPCClient) AddClaim(ctx context.Context, req accounts.AddUserClaimRequest) (result.Result[result.None], error) {
	return invoke[result.None](ctx, c, rpc.MethodAddClaim, &req)
}
