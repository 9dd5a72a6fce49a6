package users

import (
	"context"

	"github.com/dmitrijs2005/plantops/internal/server/models"
)

type Repository interface {
	GetByUID(ctx context.Context, uid string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePermissions(ctx context.Context, uid string, perms models.ModulePermissions) error
}
