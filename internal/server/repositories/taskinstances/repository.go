package taskinstances

import (
	"context"
	"time"

	"github.com/dmitrijs2005/plantops/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, inst *models.TaskInstance) (*models.TaskInstance, error)
	GetByID(ctx context.Context, id string) (*models.TaskInstance, error)
	FindByTemplateAndDateRange(ctx context.Context, templateID string, start, end time.Time) (*models.TaskInstance, error)
	ListByMaster(ctx context.Context, templateID string) ([]*models.TaskInstance, error)
	UpdateStatus(ctx context.Context, inst *models.TaskInstance) error
	AddAttachment(ctx context.Context, id, key string) error
}
