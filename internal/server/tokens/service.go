// Package tokens implements login and refresh: it checks credentials, mints
// access tokens from assembled claims and rotates the single refresh token
// stored on each user record.
package tokens

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/claims"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/result"
)

const (
	// RefreshTokenValidity is the absolute lifetime of a refresh token,
	// counted from the login that issued it.
	RefreshTokenValidity = 7 * 24 * time.Hour

	refreshTokenBytes = 32
)

// Failure messages returned in envelopes.
const (
	MsgInvalidCredentials = "Invalid Credentials."
	MsgUserNotActive      = "User Not Active. Please contact the administrator."
	MsgEmailNotConfirmed  = "E-Mail not confirmed."
	MsgUserNotFound       = "User Not Found."
	MsgInvalidClientToken = "Invalid Client Token."
)

// Flows and rejection reasons reported to the Recorder.
const (
	FlowLogin   = "login"
	FlowRefresh = "refresh"

	ReasonBadCredentials = "bad_credentials"
	ReasonInactive       = "inactive"
	ReasonUnconfirmed    = "unconfirmed"
	ReasonUnknownUser    = "unknown_user"
	ReasonBadRefresh     = "bad_refresh_token"
	ReasonBadToken       = "bad_access_token"
)

type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	Token                  string    `json:"token"`
	RefreshToken           string    `json:"refresh_token"`
	RefreshTokenExpiryTime time.Time `json:"refresh_token_expiry_time"`
}

// CredentialStore is the part of the credential store the service needs.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	VerifyPassword(ctx context.Context, user *models.User, plain string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	Claims(ctx context.Context, user *models.User) ([]models.Claim, error)
}

type RoleStore interface {
	UserRoles(ctx context.Context, userID string) ([]string, error)
	Claims(ctx context.Context, roleName string) ([]models.Claim, error)
}

type Issuer interface {
	Issue(set claims.Set) (string, error)
	PrincipalFromExpiredToken(token string) (*claims.Principal, error)
}

// Recorder receives token outcomes, typically for metrics.
type Recorder interface {
	TokenIssued(flow string)
	TokenRejected(flow, reason string)
}

type nopRecorder struct{}

func (nopRecorder) TokenIssued(string)           {}
func (nopRecorder) TokenRejected(string, string) {}

type Service struct {
	creds    CredentialStore
	roles    RoleStore
	issuer   Issuer
	now      func() time.Time
	logger   logging.Logger
	recorder Recorder
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l.With("module", "tokens") }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(creds CredentialStore, roles RoleStore, issuer Issuer, opts ...Option) *Service {
	s := &Service{
		creds:    creds,
		roles:    roles,
		issuer:   issuer,
		now:      time.Now,
		logger:   logging.Nop{},
		recorder: nopRecorder{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) reject(ctx context.Context, flow, reason, msg string) (result.Result[TokenResponse], error) {
	s.recorder.TokenRejected(flow, reason)
	s.logger.Info(ctx, "token request rejected", "flow", flow, "reason", reason)
	return result.Fail[TokenResponse](msg), nil
}

// GetToken authenticates email and password. The checks run in a fixed
// order: existence, active flag, confirmed email, then password.
func (s *Service) GetToken(ctx context.Context, req TokenRequest) (result.Result[TokenResponse], error) {
	user, err := s.creds.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.reject(ctx, FlowLogin, ReasonBadCredentials, MsgInvalidCredentials)
		}
		return result.Result[TokenResponse]{}, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return s.reject(ctx, FlowLogin, ReasonInactive, MsgUserNotActive)
	}
	if !user.EmailConfirmed {
		return s.reject(ctx, FlowLogin, ReasonUnconfirmed, MsgEmailNotConfirmed)
	}

	ok, err := s.creds.VerifyPassword(ctx, user, req.Password)
	if err != nil {
		return result.Result[TokenResponse]{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return s.reject(ctx, FlowLogin, ReasonBadCredentials, MsgInvalidCredentials)
	}

	user.RefreshTokenExpiry = s.now().Add(RefreshTokenValidity)
	resp, err := s.issuePair(ctx, user)
	if err != nil {
		return result.Result[TokenResponse]{}, err
	}

	s.recorder.TokenIssued(FlowLogin)
	s.logger.Info(ctx, "token issued", "flow", FlowLogin, "user_id", user.ID)
	return result.Success(resp), nil
}

// RefreshToken exchanges an expired access token and the current refresh
// token for a new pair. The refresh token is rotated; its expiry stays the
// one set at login. A token with a bad signature or algorithm is returned as
// an error wrapping common.ErrInvalidToken, not as a failure envelope.
func (s *Service) RefreshToken(ctx context.Context, req *RefreshTokenRequest) (result.Result[TokenResponse], error) {
	if req == nil {
		return s.reject(ctx, FlowRefresh, ReasonBadRefresh, MsgInvalidClientToken)
	}

	principal, err := s.issuer.PrincipalFromExpiredToken(req.Token)
	if err != nil {
		s.recorder.TokenRejected(FlowRefresh, ReasonBadToken)
		s.logger.Warn(ctx, "refresh with untrusted access token", "error", err)
		return result.Result[TokenResponse]{}, err
	}

	user, err := s.creds.FindByEmail(ctx, principal.Email())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.reject(ctx, FlowRefresh, ReasonUnknownUser, MsgUserNotFound)
		}
		return result.Result[TokenResponse]{}, fmt.Errorf("find user: %w", err)
	}

	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(req.RefreshToken)) != 1 ||
		!user.RefreshTokenExpiry.After(s.now()) {
		return s.reject(ctx, FlowRefresh, ReasonBadRefresh, MsgInvalidClientToken)
	}

	resp, err := s.issuePair(ctx, user)
	if err != nil {
		return result.Result[TokenResponse]{}, err
	}

	s.recorder.TokenIssued(FlowRefresh)
	s.logger.Info(ctx, "token refreshed", "user_id", user.ID)
	return result.Success(resp), nil
}

// issuePair signs an access token from the user's current claims, then
// stores a fresh refresh token on user (keeping the expiry already set on
// it). Nothing is persisted unless signing succeeded.
func (s *Service) issuePair(ctx context.Context, user *models.User) (TokenResponse, error) {
	set, err := s.assemble(ctx, user)
	if err != nil {
		return TokenResponse{}, err
	}
	token, err := s.issuer.Issue(set)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := common.MakeRandBase64String(refreshTokenBytes)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("generate refresh token: %w", err)
	}

	updated := user.Clone()
	updated.RefreshToken = refresh
	if err := s.creds.Update(ctx, updated); err != nil {
		return TokenResponse{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenResponse{
		Token:                  token,
		RefreshToken:           refresh,
		RefreshTokenExpiryTime: updated.RefreshTokenExpiry,
	}, nil
}

func (s *Service) assemble(ctx context.Context, user *models.User) (claims.Set, error) {
	direct, err := s.creds.Claims(ctx, user)
	if err != nil {
		return claims.Set{}, fmt.Errorf("load user claims: %w", err)
	}

	names, err := s.roles.UserRoles(ctx, user.ID)
	if err != nil {
		return claims.Set{}, fmt.Errorf("load user roles: %w", err)
	}

	grants := make([]claims.RoleGrant, 0, len(names))
	for _, name := range names {
		rc, err := s.roles.Claims(ctx, name)
		if err != nil {
			return claims.Set{}, fmt.Errorf("load claims of role %q: %w", name, err)
		}
		grants = append(grants, claims.RoleGrant{Name: name, Claims: rc})
	}

	return claims.Assemble(user, direct, grants), nil
}
