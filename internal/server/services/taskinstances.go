package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/plantops/internal/clock"
	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/server/generator"
	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/taskinstances"
	"github.com/dmitrijs2005/plantops/internal/timex"
)

// TemplateReader is the read side of the task master store.
type TemplateReader interface {
	GetByID(ctx context.Context, id string) (*models.TaskMaster, error)
}

// StatusPatch is the body of a status update.
type StatusPatch struct {
	Status         models.Status `json:"status"`
	CompletedAt    *time.Time    `json:"completedAt"`
	ActualDuration *int          `json:"actualDuration"`
	Notes          *string       `json:"notes"`
}

type TaskInstanceService struct {
	authz     Authorizer
	templates TemplateReader
	instances taskinstances.Repository
	clock     clock.Clock
	loc       *time.Location
}

func NewTaskInstanceService(authz Authorizer, templates TemplateReader, instances taskinstances.Repository, c clock.Clock, loc *time.Location) *TaskInstanceService {
	if c == nil {
		c = clock.Real{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &TaskInstanceService{authz: authz, templates: templates, instances: instances, clock: c, loc: loc}
}

// CreateFromMaster creates an instance outside the generator schedule. The
// instance is scheduled on the calendar day of scheduled (today when nil) and
// counts towards the one-per-day limit.
func (s *TaskInstanceService) CreateFromMaster(ctx context.Context, uid, masterID string, scheduled *time.Time) (*models.TaskInstance, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermWrite); err != nil {
		return nil, err
	}

	m, err := s.templates.GetByID(ctx, masterID)
	if err != nil {
		return nil, templateNotFound(masterID, err)
	}

	now := s.clock.Now()
	at := now
	if scheduled != nil {
		at = *scheduled
	}
	day := timex.StartOfDay(at.In(s.loc))

	inst := models.NewInstanceFromMaster(m, day, generator.DueDate(m, day), uid)
	inst.CreatedAt = now
	inst.UpdatedAt = now

	created, err := s.instances.Create(ctx, inst)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TaskInstanceService) Get(ctx context.Context, uid, id string) (*models.TaskInstance, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermRead); err != nil {
		return nil, err
	}
	return s.instances.GetByID(ctx, id)
}

func (s *TaskInstanceService) ListByMaster(ctx context.Context, uid, masterID string) ([]*models.TaskInstance, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermRead); err != nil {
		return nil, err
	}
	if _, err := s.templates.GetByID(ctx, masterID); err != nil {
		return nil, templateNotFound(masterID, err)
	}
	return s.instances.ListByMaster(ctx, masterID)
}

// UpdateStatus moves an instance along the status state machine and records
// the execution details that came with the change.
func (s *TaskInstanceService) UpdateStatus(ctx context.Context, uid, id string, p StatusPatch) (*models.TaskInstance, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermWrite); err != nil {
		return nil, err
	}
	if p.ActualDuration != nil && *p.ActualDuration < 0 {
		return nil, invalid("actualDuration", "must not be negative")
	}

	inst, err := s.instances.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := inst.ApplyStatus(p.Status, p.CompletedAt, now); err != nil {
		if errors.Is(err, common.ErrInvalidTransition) {
			return nil, fmt.Errorf("task instance %s: %w", id, err)
		}
		return nil, err
	}
	if p.ActualDuration != nil {
		d := *p.ActualDuration
		inst.ActualDuration = &d
	}
	if p.Notes != nil {
		inst.Notes = *p.Notes
	}
	inst.UpdatedAt = now

	if err := s.instances.UpdateStatus(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}
