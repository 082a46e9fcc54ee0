package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX. When bound to a
// *sql.DB, SetUserRoles runs in its own transaction; when bound to a *sql.Tx
// it joins the caller's.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Role, error) {
	query := `SELECT id, name, description FROM roles ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	query := `SELECT id, name, description FROM roles WHERE name = $1`

	role := &models.Role{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&role.ID, &role.Name, &role.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return role, nil
}

func (r *PostgresRepository) Claims(ctx context.Context, roleName string) ([]models.Claim, error) {
	query :=
		`SELECT rc.claim_type, rc.claim_value
		 FROM role_claims rc
		 JOIN roles r ON r.id = rc.role_id
		 WHERE r.name = $1
		 ORDER BY rc.id
		 `

	rows, err := r.db.QueryContext(ctx, query, roleName)
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

func (r *PostgresRepository) UserRoles(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT r.name
		 FROM user_roles ur
		 JOIN roles r ON r.id = ur.role_id
		 WHERE ur.user_id = $1
		 ORDER BY r.name
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) IsUserInRole(ctx context.Context, userID, roleName string) (bool, error) {
	query :=
		`SELECT EXISTS (
		     SELECT 1 FROM user_roles ur
		     JOIN roles r ON r.id = ur.role_id
		     WHERE ur.user_id = $1 AND r.name = $2
		 )`

	var in bool
	if err := r.db.QueryRowContext(ctx, query, userID, roleName).Scan(&in); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return in, nil
}

func addUserToRole(ctx context.Context, db dbx.DBTX, userID, roleName string) error {
	query :=
		`INSERT INTO user_roles (user_id, role_id)
		 SELECT $1, id FROM roles WHERE name = $2
		 ON CONFLICT DO NOTHING
		 `

	if _, err := db.ExecContext(ctx, query, userID, roleName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AddUserToRole(ctx context.Context, userID, roleName string) error {
	if _, err := r.FindByName(ctx, roleName); err != nil {
		return err
	}
	return addUserToRole(ctx, r.db, userID, roleName)
}

func (r *PostgresRepository) SetUserRoles(ctx context.Context, userID string, roleNames []string) error {
	for _, name := range roleNames {
		if _, err := r.FindByName(ctx, name); err != nil {
			return err
		}
	}

	replace := func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		for _, name := range roleNames {
			if err := addUserToRole(ctx, tx, userID, name); err != nil {
				return err
			}
		}
		return nil
	}

	if db, ok := r.db.(*sql.DB); ok {
		return dbx.WithTx(ctx, db, nil, replace)
	}
	return replace(ctx, r.db)
}
