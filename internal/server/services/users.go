package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/plantops/internal/dbx"
	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/repomanager"
)

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	authz       Authorizer
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, authz Authorizer) *UserService {
	return &UserService{db: db, repomanager: m, authz: authz}
}

// Me returns the user record behind uid.
func (s *UserService) Me(ctx context.Context, uid string) (*models.User, error) {
	return s.authz.Principal(ctx, uid)
}

// Provision creates or refreshes a user record. It is an operator action and
// is not exposed over HTTP.
func (s *UserService) Provision(ctx context.Context, u *models.User) (*models.User, error) {
	if u.UID == "" {
		return nil, invalid("uid", "required")
	}
	if _, err := models.ParseRole(string(u.Role)); err != nil {
		return nil, invalid("role", err.Error())
	}
	return s.repomanager.Users(s.db).Upsert(ctx, u)
}

// UpdatePermissions replaces the module permissions of target. Only users
// with the admin role may do this.
func (s *UserService) UpdatePermissions(ctx context.Context, actorUID, targetUID string, raw map[string][]string) (*models.User, error) {
	if err := s.authz.RequireRole(ctx, actorUID, models.RoleAdmin); err != nil {
		return nil, err
	}

	perms, err := models.ParseModulePermissions(raw)
	if err != nil {
		return nil, invalid("modulePermissions", err.Error())
	}

	var updated *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByUID(ctx, targetUID)
		if err != nil {
			return err
		}
		if err := repo.UpdatePermissions(ctx, targetUID, perms); err != nil {
			return err
		}

		u.ModulePermissions = perms
		updated = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update permissions of %s: %w", targetUID, err)
	}

	return updated, nil
}
