package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/plantops/internal/clock"
	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/taskmasters"
)

// TaskMasterInput is the payload of a create request.
type TaskMasterInput struct {
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	PlantID           string               `json:"plantId"`
	AssigneeID        string               `json:"assigneeId"`
	Priority          models.Priority      `json:"priority"`
	Frequency         models.Frequency     `json:"frequency"`
	FrequencyValue    int                  `json:"frequencyValue"`
	FrequencyUnit     models.FrequencyUnit `json:"frequencyUnit"`
	StartDate         time.Time            `json:"startDate"`
	IsActive          *bool                `json:"isActive"`
	EstimatedDuration int                  `json:"estimatedDuration"`
	Instructions      string               `json:"instructions"`
	Tags              []string             `json:"tags"`
}

// TaskMasterPatch is a partial update; nil fields are left unchanged.
// lastGenerated cannot be patched.
type TaskMasterPatch struct {
	Title             *string               `json:"title"`
	Description       *string               `json:"description"`
	PlantID           *string               `json:"plantId"`
	AssigneeID        *string               `json:"assigneeId"`
	Priority          *models.Priority      `json:"priority"`
	Frequency         *models.Frequency     `json:"frequency"`
	FrequencyValue    *int                  `json:"frequencyValue"`
	FrequencyUnit     *models.FrequencyUnit `json:"frequencyUnit"`
	StartDate         *time.Time            `json:"startDate"`
	IsActive          *bool                 `json:"isActive"`
	EstimatedDuration *int                  `json:"estimatedDuration"`
	Instructions      *string               `json:"instructions"`
	Tags              []string              `json:"tags"`
}

type TaskMasterService struct {
	authz     Authorizer
	templates taskmasters.Repository
	plants    PlantLookup
	clock     clock.Clock
}

func NewTaskMasterService(authz Authorizer, templates taskmasters.Repository, plants PlantLookup, c clock.Clock) *TaskMasterService {
	if c == nil {
		c = clock.Real{}
	}
	return &TaskMasterService{authz: authz, templates: templates, plants: plants, clock: c}
}

func (s *TaskMasterService) checkPlant(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.plants.GetByID(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &models.ValidationError{Field: "plantId", Reason: "unknown plant " + id, Err: common.ErrTemplateValidation}
		}
		return err
	}
	return nil
}

func (s *TaskMasterService) Create(ctx context.Context, uid string, in TaskMasterInput) (*models.TaskMaster, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermWrite); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	m := &models.TaskMaster{
		Title:             in.Title,
		Description:       in.Description,
		PlantID:           in.PlantID,
		AssigneeID:        in.AssigneeID,
		AssignerID:        uid,
		Priority:          in.Priority,
		Frequency:         in.Frequency,
		FrequencyValue:    in.FrequencyValue,
		FrequencyUnit:     in.FrequencyUnit,
		StartDate:         in.StartDate,
		IsActive:          true,
		EstimatedDuration: in.EstimatedDuration,
		Instructions:      in.Instructions,
		Tags:              in.Tags,
		CreatedBy:         uid,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if m.Priority == "" {
		m.Priority = models.PriorityMedium
	}
	m.NormalizeRecurrence()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkPlant(ctx, m.PlantID); err != nil {
		return nil, err
	}

	return s.templates.Create(ctx, m)
}

func (s *TaskMasterService) Get(ctx context.Context, uid, id string) (*models.TaskMaster, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermRead); err != nil {
		return nil, err
	}

	m, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, templateNotFound(id, err)
	}
	return m, nil
}

func (s *TaskMasterService) List(ctx context.Context, uid string, filter taskmasters.ListFilter) ([]*models.TaskMaster, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermRead); err != nil {
		return nil, err
	}
	return s.templates.List(ctx, filter)
}

func (s *TaskMasterService) Update(ctx context.Context, uid, id string, p TaskMasterPatch) (*models.TaskMaster, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermWrite); err != nil {
		return nil, err
	}

	m, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, templateNotFound(id, err)
	}

	plantChanged := p.PlantID != nil && *p.PlantID != m.PlantID
	applyPatch(m, p)
	m.NormalizeRecurrence()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if plantChanged {
		if err := s.checkPlant(ctx, m.PlantID); err != nil {
			return nil, err
		}
	}

	m.UpdatedAt = s.clock.Now()
	if err := s.templates.Update(ctx, m); err != nil {
		return nil, templateNotFound(id, err)
	}
	return m, nil
}

// Deactivate stops further generation. Existing instances are kept.
func (s *TaskMasterService) Deactivate(ctx context.Context, uid, id string) error {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermDelete); err != nil {
		return err
	}

	m, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return templateNotFound(id, err)
	}
	if !m.IsActive {
		return nil
	}

	m.IsActive = false
	m.UpdatedAt = s.clock.Now()
	if err := s.templates.Update(ctx, m); err != nil {
		return templateNotFound(id, err)
	}
	return nil
}

func applyPatch(m *models.TaskMaster, p TaskMasterPatch) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.PlantID != nil {
		m.PlantID = *p.PlantID
	}
	if p.AssigneeID != nil {
		m.AssigneeID = *p.AssigneeID
	}
	if p.Priority != nil {
		m.Priority = *p.Priority
	}
	if p.Frequency != nil {
		m.Frequency = *p.Frequency
	}
	if p.FrequencyValue != nil {
		m.FrequencyValue = *p.FrequencyValue
	}
	if p.FrequencyUnit != nil {
		m.FrequencyUnit = *p.FrequencyUnit
	}
	if p.StartDate != nil {
		m.StartDate = *p.StartDate
	}
	if p.IsActive != nil {
		m.IsActive = *p.IsActive
	}
	if p.EstimatedDuration != nil {
		m.EstimatedDuration = *p.EstimatedDuration
	}
	if p.Instructions != nil {
		m.Instructions = *p.Instructions
	}
	if p.Tags != nil {
		m.Tags = p.Tags
	}
}
