package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f"

var userCols = []string{"id", "email", "username", "first_name", "last_name", "phone_number", "password_hash",
	"is_active", "email_confirmed", "refresh_token", "refresh_token_expiry", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,.*RETURNING\s+created_at\s*$`).
		WithArgs(testID, "a@x.com", "a", "Ann", "Lee", sql.NullString{}, "hash", true, true,
			sql.NullString{}, sql.NullTime{}).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	u := &models.User{ID: testID, Email: "a@x.com", UserName: "a", FirstName: "Ann", LastName: "Lee",
		PasswordHash: "hash", IsActive: true, EmailConfirmed: true}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_AssignsID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	got, err := repo.Create(context.Background(), &models.User{Email: "a@x.com", UserName: "a"})
	require.NoError(t, err)
	assert.Len(t, got.ID, 36)
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{ID: testID})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{ID: testID})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestUpdate(t *testing.T) {
	expiry := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	u := &models.User{ID: testID, Email: "a@x.com", UserName: "a", PhoneNumber: "123", PasswordHash: "h",
		IsActive: true, RefreshToken: "rt", RefreshTokenExpiry: expiry}
	q := `(?s)^UPDATE\s+users\s+SET\s+email\s*=\s*\$2.*WHERE\s+id\s*=\s*\$1\s*$`

	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).
			WithArgs(testID, "a@x.com", "a", "", "", sql.NullString{String: "123", Valid: true}, "h", true, false,
				sql.NullString{String: "rt", Valid: true}, sql.NullTime{Time: expiry, Valid: true}).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.Update(context.Background(), u))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Update(context.Background(), u), common.ErrorNotFound)
	})

	t.Run("conflict", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(&pgconn.PgError{Code: "23505"})
		assert.ErrorIs(t, repo.Update(context.Background(), u), common.ErrorAlreadyExists)
	})
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	expiry := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)$`).
		WithArgs("A@X.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(testID, "a@x.com", "a", "Ann", "Lee", nil, "h", true, true, "rt", expiry, time.Now()))

	got, err := repo.FindByEmail(context.Background(), "A@X.com")
	require.NoError(t, err)
	assert.Equal(t, testID, got.ID)
	assert.Equal(t, "", got.PhoneNumber)
	assert.Equal(t, "rt", got.RefreshToken)
	assert.Equal(t, expiry, got.RefreshTokenExpiry)
}

func TestFindByUserName_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+WHERE\s+lower\(username\)`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUserName(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByID(t *testing.T) {
	t.Run("malformed id never reaches the db", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		_, err := repo.FindByID(context.Background(), "nope")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`(?s)^SELECT.*WHERE\s+id\s*=\s*\$1$`).
			WithArgs(testID).
			WillReturnError(errors.New("db err"))
		_, err := repo.FindByID(context.Background(), testID)
		require.Error(t, err)
		assert.Regexp(t, `db error: .*db err`, err.Error())
	})
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+ORDER\s+BY\s+created_at`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(testID, "a@x.com", "a", "", "", nil, "h", true, true, nil, nil, time.Now()).
			AddRow("b", "b@x.com", "b", "", "", "555", "h", false, false, nil, nil, time.Now()))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "555", got[1].PhoneNumber)
	assert.True(t, got[0].RefreshTokenExpiry.IsZero())
}

func TestClaims(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+claim_type,\s*claim_value\s+FROM\s+user_claims`).
		WithArgs(testID).
		WillReturnRows(sqlmock.NewRows([]string{"claim_type", "claim_value"}).
			AddRow("department", "sales"))

	got, err := repo.Claims(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, []models.Claim{{Type: "department", Value: "sales"}}, got)
}

func TestAddClaim(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+user_claims`).
		WithArgs(testID, "department", "sales").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.AddClaim(context.Background(), testID, models.Claim{Type: "department", Value: "sales"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	q := `^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("ok", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.Delete(context.Background(), testID))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(context.Background(), testID), common.ErrorNotFound)
	})

	t.Run("not a uuid", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), common.ErrorNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(errors.New("boom"))
		err := repo.Delete(context.Background(), testID)
		assert.ErrorContains(t, err, "db error")
	})
}
