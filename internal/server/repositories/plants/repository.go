package plants

import (
	"context"

	"github.com/dmitrijs2005/plantops/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Plant, error)
	GetByID(ctx context.Context, id string) (*models.Plant, error)
	Create(ctx context.Context, plant *models.Plant) (*models.Plant, error)
}
