package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
)

// getSimpleText, getPassword and getYesNo are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getYesNo      = GetYesNo
)

// askPassword reads a password and returns it as a string, wiping the
// terminal buffer.
func (a *App) askPassword(prompt string) (string, error) {
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// ask reads one text answer per prompt, in order.
func (a *App) ask(prompts ...string) ([]string, error) {
	answers := make([]string, 0, len(prompts))
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p, a.out)
		if err != nil {
			return nil, err
		}
		answers = append(answers, v)
	}
	return answers, nil
}

// Register prompts for the new account's details and creates it.
func (a *App) Register(ctx context.Context) error {
	v, err := a.ask("Enter first name", "Enter last name", "Enter email", "Enter user name", "Enter phone number (optional)")
	if err != nil {
		return err
	}

	pw, err := a.askPassword("Enter password")
	if err != nil {
		return err
	}
	confirm, err := a.askPassword("Confirm password")
	if err != nil {
		return err
	}

	activate, err := getYesNo(a.reader, "Activate the account now?", a.out)
	if err != nil {
		return err
	}
	confirmEmail, err := getYesNo(a.reader, "Mark the email as confirmed?", a.out)
	if err != nil {
		return err
	}

	req := accounts.RegisterRequest{
		FirstName:        v[0],
		LastName:         v[1],
		Email:            v[2],
		UserName:         v[3],
		PhoneNumber:      v[4],
		Password:         pw,
		ConfirmPassword:  confirm,
		ActivateUser:     activate,
		AutoConfirmEmail: confirmEmail,
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	res, err := a.api.Register(rctx, req)
	id, err := outcome(a, res, err)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "User id:", id)
	return nil
}

// Login prompts for credentials and keeps the issued token pair in the client.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	pw, err := a.askPassword("Enter password")
	if err != nil {
		return err
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	res, err := a.api.Login(rctx, email, pw)
	pair, err := outcome(a, res, err)
	if err != nil {
		return err
	}

	a.email = email
	fmt.Fprintf(a.out, "Login successful, session valid until %s\n", pair.RefreshTokenExpiryTime.Local().Format("2006-01-02 15:04"))
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	res, err := a.api.Refresh(rctx)
	if _, err := outcome(a, res, err); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

// Profile changes the logged-in user's name and phone number.
func (a *App) Profile(ctx context.Context) error {
	v, err := a.ask("Enter first name", "Enter last name", "Enter phone number (optional)")
	if err != nil {
		return err
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	res, err := a.api.UpdateProfile(rctx, accounts.UpdateProfileRequest{
		FirstName: v[0], LastName: v[1], PhoneNumber: v[2],
	})
	_, err = outcome(a, res, err)
	return err
}

// Passwd changes the logged-in user's password.
func (a *App) Passwd(ctx context.Context) error {
	var pws [3]string
	for i, p := range []string{"Enter current password", "Enter new password", "Confirm new password"} {
		pw, err := a.askPassword(p)
		if err != nil {
			return err
		}
		pws[i] = pw
	}

	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	res, err := a.api.ChangePassword(rctx, accounts.ChangePasswordRequest{
		Password: pws[0], NewPassword: pws[1], ConfirmNewPassword: pws[2],
	})
	_, err = outcome(a, res, err)
	return err
}

func (a *App) Logout(_ context.Context) error {
	a.api.Logout()
	a.email = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
