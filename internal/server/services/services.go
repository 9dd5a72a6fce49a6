// Package services implements the application use cases on top of the
// repositories. Every call is authorized against the caller's UID first.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/server/models"
)

// Authorizer is the permission resolver as seen by the services.
type Authorizer interface {
	Principal(ctx context.Context, uid string) (*models.User, error)
	Authorize(ctx context.Context, uid string, module models.Module, perm models.Permission) error
	RequireRole(ctx context.Context, uid string, roles ...models.Role) error
}

// PlantLookup resolves plant references on task masters.
type PlantLookup interface {
	GetByID(ctx context.Context, id string) (*models.Plant, error)
}

func invalid(field, reason string) error {
	return &models.ValidationError{Field: field, Reason: reason, Err: common.ErrValidation}
}

func templateNotFound(id string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: %s", common.ErrTemplateNotFound, id)
	}
	return err
}
