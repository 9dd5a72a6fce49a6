package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/plantops/internal/common"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal states have no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// ValidateTransition reports whether an instance may move from one status to
// another. Staying in the same status is allowed.
func ValidateTransition(from, to Status) error {
	if !to.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown value " + string(to), Err: common.ErrValidation}
	}
	if from == to {
		return nil
	}
	if from.Terminal() {
		return fmt.Errorf("%w: %s is terminal", common.ErrInvalidTransition, from)
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, from, to)
}

// TaskInstance is one concrete occurrence of a task master. Master fields are
// copied at creation time.
type TaskInstance struct {
	ID                string     `json:"id"`
	TaskMasterID      string     `json:"taskMasterId"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	PlantID           string     `json:"plantId"`
	AssigneeID        string     `json:"assigneeId"`
	AssignerID        string     `json:"assignerId"`
	Priority          Priority   `json:"priority"`
	Tags              []string   `json:"tags,omitempty"`
	EstimatedDuration int        `json:"estimatedDuration"`
	Instructions      string     `json:"instructions,omitempty"`
	Status            Status     `json:"status"`
	ScheduledDate     time.Time  `json:"scheduledDate"`
	DueDate           time.Time  `json:"dueDate"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	ActualDuration    *int       `json:"actualDuration,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	Attachments       []string   `json:"attachments,omitempty"`
	CreatedBy         string     `json:"createdBy"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// NewInstanceFromMaster copies the denormalized master fields into a new
// pending instance.
func NewInstanceFromMaster(m *TaskMaster, scheduled, due time.Time, createdBy string) *TaskInstance {
	var tags []string
	if len(m.Tags) > 0 {
		tags = append([]string(nil), m.Tags...)
	}
	return &TaskInstance{
		TaskMasterID:      m.ID,
		Title:             m.Title,
		Description:       m.Description,
		PlantID:           m.PlantID,
		AssigneeID:        m.AssigneeID,
		AssignerID:        m.AssignerID,
		Priority:          m.Priority,
		Tags:              tags,
		EstimatedDuration: m.EstimatedDuration,
		Instructions:      m.Instructions,
		Status:            StatusPending,
		ScheduledDate:     scheduled,
		DueDate:           due,
		CreatedBy:         createdBy,
	}
}

// ApplyStatus moves the instance to a new status. completedAt is stamped
// with now the first time the instance completes unless the caller supplied one.
func (i *TaskInstance) ApplyStatus(to Status, completedAt *time.Time, now time.Time) error {
	if err := ValidateTransition(i.Status, to); err != nil {
		return err
	}
	if to == StatusCompleted && i.CompletedAt == nil {
		if completedAt != nil {
			t := *completedAt
			i.CompletedAt = &t
		} else {
			t := now
			i.CompletedAt = &t
		}
	}
	i.Status = to
	return nil
}
