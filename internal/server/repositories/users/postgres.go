package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/dbx"
	"github.com/dmitrijs2005/plantops/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	query :=
		`SELECT uid, email, display_name, role, module_permissions, is_active, created_at FROM users
		 WHERE uid = $1
		 `

	var (
		user  models.User
		role  string
		perms []byte
	)
	err := r.db.QueryRowContext(ctx, query, uid).
		Scan(&user.UID, &user.Email, &user.DisplayName, &role, &perms, &user.IsActive, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if user.Role, err = models.ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %s: %w", uid, err)
	}

	user.ModulePermissions = models.ModulePermissions{}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &user.ModulePermissions); err != nil {
			return nil, fmt.Errorf("user %s: module permissions: %w", uid, err)
		}
	}

	return &user, nil
}

// Upsert provisions a user or refreshes its profile fields. Module
// permissions are only written on insert; use UpdatePermissions afterwards.
func (r *PostgresRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	perms := user.ModulePermissions
	if perms == nil {
		perms = models.ModulePermissions{}
	}
	raw, err := json.Marshal(perms)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO users (uid, email, display_name, role, module_permissions, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (uid) DO UPDATE
		 SET email = EXCLUDED.email, display_name = EXCLUDED.display_name,
		     role = EXCLUDED.role, is_active = EXCLUDED.is_active
		 RETURNING created_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.UID, user.Email, user.DisplayName, string(user.Role), raw, user.IsActive).Scan(&user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) UpdatePermissions(ctx context.Context, uid string, perms models.ModulePermissions) error {
	raw, err := json.Marshal(perms)
	if err != nil {
		return err
	}

	query :=
		`UPDATE users SET module_permissions = $2
		 WHERE uid = $1
		 `

	res, err := r.db.ExecContext(ctx, query, uid, raw)
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
