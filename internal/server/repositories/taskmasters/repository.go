package taskmasters

import (
	"context"
	"time"

	"github.com/dmitrijs2005/plantops/internal/server/models"
)

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	PlantID    string
	AssigneeID string
	ActiveOnly bool
}

type Repository interface {
	Create(ctx context.Context, m *models.TaskMaster) (*models.TaskMaster, error)
	GetByID(ctx context.Context, id string) (*models.TaskMaster, error)
	Update(ctx context.Context, m *models.TaskMaster) error
	List(ctx context.Context, filter ListFilter) ([]*models.TaskMaster, error)
	ListActive(ctx context.Context) ([]*models.TaskMaster, error)
	UpdateLastGenerated(ctx context.Context, id string, at time.Time) error
}
