package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/result"
	"github.com/dmitrijs2005/gophauth/internal/server/tokens"
)

// errRejected marks a request the server answered with a failure envelope.
// Its messages have already been printed.
var errRejected = errors.New("request rejected")

// apiClient is the part of client.GRPCClient the commands use.
type apiClient interface {
	Register(ctx context.Context, req accounts.RegisterRequest) (result.Result[string], error)
	Login(ctx context.Context, email, password string) (result.Result[tokens.TokenResponse], error)
	Refresh(ctx context.Context) (result.Result[tokens.TokenResponse], error)
	UpdateProfile(ctx context.Context, req accounts.UpdateProfileRequest) (result.Result[result.None], error)
	ChangePassword(ctx context.Context, req accounts.ChangePasswordRequest) (result.Result[result.None], error)
	Users(ctx context.Context) (result.Result[[]accounts.UserResponse], error)
	User(ctx context.Context, id string) (result.Result[accounts.UserResponse], error)
	Roles(ctx context.Context, id string) (result.Result[accounts.UserRolesResponse], error)
	SetStatus(ctx context.Context, id string, active bool) (result.Result[result.None], error)
	UpdateRoles(ctx context.Context, req accounts.UpdateUserRolesRequest) (result.Result[result.None], error)
	AddClaim(ctx context.Context, req accounts.AddUserClaimRequest) (result.Result[result.None], error)
	LoggedIn() bool
	Logout()
	Close() error
}

type App struct {
	config *config.Config
	api    apiClient
	reader *bufio.Reader
	out    io.Writer
	email  string
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return &App{config: c, api: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.api.Close()

	fmt.Fprintln(a.out, "Welcome to gophauth CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() || a.email == "" {
		return ""
	}
	return fmt.Sprintf("(%s) ", a.email)
}

// requestContext bounds a single server call by the configured timeout.
func (a *App) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// outcome prints the envelope messages and unwraps its payload.
func outcome[T any](a *App, res result.Result[T], err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	for _, m := range res.Messages {
		fmt.Fprintln(a.out, m)
	}
	if !res.Succeeded {
		return zero, errRejected
	}
	return res.Data, nil
}
