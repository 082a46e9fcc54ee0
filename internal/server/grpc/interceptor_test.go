package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/rpc"
	"github.com/dmitrijs2005/gophauth/internal/server/claims"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type fakeValidator struct {
	principal *claims.Principal
	err       error
	seen      string
}

func (v *fakeValidator) ValidateAccessToken(token string) (*claims.Principal, error) {
	v.seen = token
	return v.principal, v.err
}

type recordingObserver struct {
	method, code string
	calls        int
}

func (o *recordingObserver) ObserveRequest(method, code string, _ time.Duration) {
	o.method, o.code = method, code
	o.calls++
}

func principalWith(cs ...models.Claim) *claims.Principal {
	return &claims.Principal{Claims: claims.NewSet(cs...)}
}

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(),
		metadata.New(map[string]string{common.AccessTokenHeaderName: token}))
}

func info(method string) *grpc.UnaryServerInfo {
	return &grpc.UnaryServerInfo{FullMethod: rpc.FullMethod(method)}
}

func TestInterceptor_PublicMethodsSkipAuth(t *testing.T) {
	v := &fakeValidator{err: errors.New("must not be called")}
	s := &GRPCServer{validator: v, logger: logging.Nop{}}

	for _, m := range []string{rpc.MethodRegister, rpc.MethodGetToken, rpc.MethodRefreshToken} {
		resp, err := s.accessTokenInterceptor(context.Background(), nil, info(m),
			func(ctx context.Context, req any) (any, error) { return "ok", nil })
		require.NoError(t, err, m)
		assert.Equal(t, "ok", resp)
	}
	assert.Empty(t, v.seen)
}

func TestInterceptor_MissingToken(t *testing.T) {
	s := &GRPCServer{validator: &fakeValidator{}, logger: logging.Nop{}}

	_, err := s.accessTokenInterceptor(context.Background(), nil, info(rpc.MethodUpdateProfile),
		func(ctx context.Context, req any) (any, error) {
			t.Fatal("handler should not be called when token missing")
			return nil, nil
		})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "missing token", status.Convert(err).Message())
}

func TestInterceptor_BadTokens(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"expired", common.ErrTokenExpired, "token expired"},
		{"invalid", common.ErrInvalidToken, "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &GRPCServer{validator: &fakeValidator{err: tt.err}, logger: logging.Nop{}}
			_, err := s.accessTokenInterceptor(withToken("tok"), nil, info(rpc.MethodGetUsers),
				func(ctx context.Context, req any) (any, error) { return nil, nil })
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
			assert.Equal(t, tt.msg, status.Convert(err).Message())
		})
	}
}

func TestInterceptor_Permissions(t *testing.T) {
	viewer := principalWith(
		models.Claim{Type: claims.TypeSubject, Value: "u-1"},
		models.Claim{Type: claims.TypePermission, Value: claims.PermUsersView},
	)
	s := &GRPCServer{validator: &fakeValidator{principal: viewer}, logger: logging.Nop{}}

	_, err := s.accessTokenInterceptor(withToken("tok"), nil, info(rpc.MethodChangeStatus),
		func(ctx context.Context, req any) (any, error) { return nil, nil })
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	var got *claims.Principal
	_, err = s.accessTokenInterceptor(withToken("tok"), nil, info(rpc.MethodGetUsers),
		func(ctx context.Context, req any) (any, error) {
			got, _ = principalFromContext(ctx)
			return nil, nil
		})
	require.NoError(t, err)
	assert.Same(t, viewer, got)

	_, err = s.accessTokenInterceptor(withToken("tok"), nil, info(rpc.MethodChangePassword),
		func(ctx context.Context, req any) (any, error) { return nil, nil })
	assert.NoError(t, err, "own-account methods need no permission")
}

func TestObserveInterceptor(t *testing.T) {
	o := &recordingObserver{}
	s := &GRPCServer{observer: o, logger: logging.Nop{}}

	_, err := s.observeInterceptor(context.Background(), nil, info(rpc.MethodGetUsers),
		func(ctx context.Context, req any) (any, error) {
			return nil, status.Error(codes.PermissionDenied, "no")
		})
	require.Error(t, err)
	assert.Equal(t, 1, o.calls)
	assert.Equal(t, rpc.FullMethod(rpc.MethodGetUsers), o.method)
	assert.Equal(t, "PermissionDenied", o.code)
}

func TestCallerID(t *testing.T) {
	_, err := callerID(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := context.WithValue(context.Background(), principalKey,
		principalWith(models.Claim{Type: claims.TypeSubject, Value: "u-1"}))
	id, err := callerID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
}
