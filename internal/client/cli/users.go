package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (a *App) printUsers(list ...accounts.UserResponse) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER NAME\tEMAIL\tNAME\tPHONE\tACTIVE\tCONFIRMED")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\t%s\t%s\n",
			u.ID, u.UserName, u.Email, u.FirstName, u.LastName, u.PhoneNumber, yesNo(u.IsActive), yesNo(u.EmailConfirmed))
	}
	tw.Flush()
}

func (a *App) Users(ctx context.Context) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	res, err := a.api.Users(rctx)
	list, err := outcome(a, res, err)
	if err != nil {
		return err
	}
	a.printUsers(list...)
	return nil
}

func (a *App) User(ctx context.Context, id string) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	res, err := a.api.User(rctx, id)
	u, err := outcome(a, res, err)
	if err != nil {
		return err
	}
	a.printUsers(u)
	return nil
}

func (a *App) Roles(ctx context.Context, id string) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	res, err := a.api.Roles(rctx, id)
	matrix, err := outcome(a, res, err)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROLE\tASSIGNED\tDESCRIPTION")
	for _, r := range matrix.UserRoles {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.RoleName, yesNo(r.Selected), r.RoleDescription)
	}
	tw.Flush()
	return nil
}

func (a *App) SetStatus(ctx context.Context, id string, active bool) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	res, err := a.api.SetStatus(rctx, id, active)
	_, err = outcome(a, res, err)
	return err
}

// SetRoles makes names the complete role set of the user. The current role
// matrix is fetched first so unknown names are reported before any change.
func (a *App) SetRoles(ctx context.Context, id string, names []string) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()

	res, err := a.api.Roles(rctx, id)
	matrix, err := outcome(a, res, err)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			wanted[n] = true
		}
	}

	roles := make([]accounts.UserRoleModel, 0, len(matrix.UserRoles))
	for _, r := range matrix.UserRoles {
		r.Selected = wanted[r.RoleName]
		delete(wanted, r.RoleName)
		roles = append(roles, r)
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for n := range wanted {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return fmt.Errorf("unknown roles: %s", strings.Join(unknown, ", "))
	}

	upd, err := a.api.UpdateRoles(rctx, accounts.UpdateUserRolesRequest{UserID: id, UserRoles: roles})
	_, err = outcome(a, upd, err)
	return err
}

func (a *App) AddClaim(ctx context.Context, id, claimType, value string) error {
	rctx, cancel := a.requestContext(ctx)
	defer cancel()
	res, err := a.api.AddClaim(rctx, accounts.AddUserClaimRequest{UserID: id, ClaimType: claimType, ClaimValue: value})
	_, err = outcome(a, res, err)
	return err
}
