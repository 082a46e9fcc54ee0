package roles

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userID       = "3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	findByNameQ  = `(?s)^SELECT\s+id,\s*name,\s*description\s+FROM\s+roles\s+WHERE\s+name\s*=\s*\$1$`
	deleteRolesQ = `(?s)^DELETE\s+FROM\s+user_roles\s+WHERE\s+user_id\s*=\s*\$1$`
	insertRoleQ  = `(?s)^INSERT\s+INTO\s+user_roles.*ON\s+CONFLICT\s+DO\s+NOTHING$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func expectRole(mock sqlmock.Sqlmock, name string) {
	mock.ExpectQuery(findByNameQ).
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).AddRow("1", name, ""))
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name,\s*description\s+FROM\s+roles\s+ORDER\s+BY\s+name$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description"}).
			AddRow("1", "Administrator", "admins").
			AddRow("2", "Basic", "default"))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Role{
		{ID: "1", Name: "Administrator", Description: "admins"},
		{ID: "2", Name: "Basic", Description: "default"},
	}, got)
}

func TestFindByName(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		expectRole(mock, "Basic")
		got, err := repo.FindByName(context.Background(), "Basic")
		require.NoError(t, err)
		assert.Equal(t, "Basic", got.Name)
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(findByNameQ).WithArgs("Ghost").WillReturnError(sql.ErrNoRows)
		_, err := repo.FindByName(context.Background(), "Ghost")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestClaims(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+rc\.claim_type,\s*rc\.claim_value\s+FROM\s+role_claims`).
		WithArgs("Administrator").
		WillReturnRows(sqlmock.NewRows([]string{"claim_type", "claim_value"}).
			AddRow("permission", "Permissions.Users.View").
			AddRow("permission", "Permissions.Users.Edit"))

	got, err := repo.Claims(context.Background(), "Administrator")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, models.Claim{Type: "permission", Value: "Permissions.Users.View"}, got[0])
}

func TestUserRolesAndMembership(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+r\.name\s+FROM\s+user_roles`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Basic"))
	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS`).
		WithArgs(userID, "Basic").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	names, err := repo.UserRoles(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Basic"}, names)

	in, err := repo.IsUserInRole(context.Background(), userID, "Basic")
	require.NoError(t, err)
	assert.True(t, in)
}

func TestAddUserToRole(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		expectRole(mock, "Basic")
		mock.ExpectExec(insertRoleQ).WithArgs(userID, "Basic").WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.AddUserToRole(context.Background(), userID, "Basic"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown role", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(findByNameQ).WithArgs("Ghost").WillReturnError(sql.ErrNoRows)
		assert.ErrorIs(t, repo.AddUserToRole(context.Background(), userID, "Ghost"), common.ErrorNotFound)
	})
}

func TestSetUserRoles_Commit(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	expectRole(mock, "Basic")
	expectRole(mock, "Administrator")
	mock.ExpectBegin()
	mock.ExpectExec(deleteRolesQ).WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertRoleQ).WithArgs(userID, "Basic").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertRoleQ).WithArgs(userID, "Administrator").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetUserRoles(context.Background(), userID, []string{"Basic", "Administrator"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetUserRoles_RollbackOnError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	expectRole(mock, "Basic")
	mock.ExpectBegin()
	mock.ExpectExec(deleteRolesQ).WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertRoleQ).WithArgs(userID, "Basic").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.SetUserRoles(context.Background(), userID, []string{"Basic"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*boom`, err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}
