package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, email, username, first_name, last_name, phone_number, password_hash,
		is_active, email_confirmed, refresh_token, refresh_token_expiry, created_at`

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u       models.User
		phone   sql.NullString
		refresh sql.NullString
		expiry  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.UserName, &u.FirstName, &u.LastName, &phone, &u.PasswordHash,
		&u.IsActive, &u.EmailConfirmed, &refresh, &expiry, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.PhoneNumber = phone.String
	u.RefreshToken = refresh.String
	if expiry.Valid {
		u.RefreshTokenExpiry = expiry.Time
	}
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// Create inserts user, assigning a new id when user.ID is empty.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO users (id, email, username, first_name, last_name, phone_number, password_hash,
		                    is_active, email_confirmed, refresh_token, refresh_token_expiry)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.UserName, user.FirstName, user.LastName, nullString(user.PhoneNumber),
		user.PasswordHash, user.IsActive, user.EmailConfirmed, nullString(user.RefreshToken),
		nullTime(user.RefreshTokenExpiry)).Scan(&user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// Update overwrites every mutable column of the user with the given id.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET email = $2, username = $3, first_name = $4, last_name = $5, phone_number = $6,
		     password_hash = $7, is_active = $8, email_confirmed = $9,
		     refresh_token = $10, refresh_token_expiry = $11
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.UserName, user.FirstName, user.LastName, nullString(user.PhoneNumber),
		user.PasswordHash, user.IsActive, user.EmailConfirmed, nullString(user.RefreshToken),
		nullTime(user.RefreshTokenExpiry))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// Delete relies on ON DELETE CASCADE to drop the user's roles and claims.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, `id = $1`, id)
}

// FindByEmail matches email case-insensitively.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `lower(email) = lower($1)`, email)
}

// FindByUserName matches the username case-insensitively.
func (r *PostgresRepository) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.findOne(ctx, `lower(username) = lower($1)`, userName)
}

// List returns every user ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, email`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Claims(ctx context.Context, userID string) ([]models.Claim, error) {
	query :=
		`SELECT claim_type, claim_value FROM user_claims
		 WHERE user_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Claim
	for rows.Next() {
		var c models.Claim
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) AddClaim(ctx context.Context, userID string, c models.Claim) error {
	query :=
		`INSERT INTO user_claims (user_id, claim_type, claim_value)
		 VALUES ($1, $2, $3)
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, c.Type, c.Value); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
