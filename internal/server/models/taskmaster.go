package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/plantops/internal/common"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyCustom    Frequency = "custom"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly, FrequencyCustom:
		return true
	}
	return false
}

type FrequencyUnit string

const (
	UnitDays   FrequencyUnit = "days"
	UnitWeeks  FrequencyUnit = "weeks"
	UnitMonths FrequencyUnit = "months"
)

func (u FrequencyUnit) Valid() bool {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// TaskMaster is a recurring-task template. LastGenerated is written only by
// the generator.
type TaskMaster struct {
	ID                string        `json:"id"`
	Title             string        `json:"title"`
	Description       string        `json:"description,omitempty"`
	PlantID           string        `json:"plantId"`
	AssigneeID        string        `json:"assigneeId"`
	AssignerID        string        `json:"assignerId"`
	Priority          Priority      `json:"priority"`
	Frequency         Frequency     `json:"frequency"`
	FrequencyValue    int           `json:"frequencyValue,omitempty"`
	FrequencyUnit     FrequencyUnit `json:"frequencyUnit,omitempty"`
	StartDate         time.Time     `json:"startDate"`
	IsActive          bool          `json:"isActive"`
	EstimatedDuration int           `json:"estimatedDuration"`
	Instructions      string        `json:"instructions,omitempty"`
	Tags              []string      `json:"tags,omitempty"`
	LastGenerated     *time.Time    `json:"lastGenerated,omitempty"`
	CreatedBy         string        `json:"createdBy"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// NormalizeRecurrence drops the custom-only fields when frequency is not custom.
func (m *TaskMaster) NormalizeRecurrence() {
	if m.Frequency != FrequencyCustom {
		m.FrequencyValue = 0
		m.FrequencyUnit = ""
	}
}

// Validate checks the fields required at creation and update time. The
// generator assumes masters it reads have passed this.
func (m *TaskMaster) Validate() error {
	invalid := func(field, reason string) error {
		return &ValidationError{Field: field, Reason: reason, Err: common.ErrTemplateValidation}
	}

	if strings.TrimSpace(m.Title) == "" {
		return invalid("title", "required")
	}
	if m.PlantID == "" {
		return invalid("plantId", "required")
	}
	if m.AssigneeID == "" {
		return invalid("assigneeId", "required")
	}
	if m.StartDate.IsZero() {
		return invalid("startDate", "required")
	}
	if m.EstimatedDuration <= 0 {
		return invalid("estimatedDuration", "must be greater than zero")
	}
	if m.Priority != "" && !m.Priority.Valid() {
		return invalid("priority", "unknown value "+string(m.Priority))
	}
	if !m.Frequency.Valid() {
		return invalid("frequency", "unknown value "+string(m.Frequency))
	}

	if m.Frequency == FrequencyCustom {
		if m.FrequencyValue <= 0 {
			return invalid("frequencyValue", "must be a positive integer for custom frequency")
		}
		if !m.FrequencyUnit.Valid() {
			return invalid("frequencyUnit", "must be one of days, weeks, months for custom frequency")
		}
	} else if m.FrequencyValue != 0 || m.FrequencyUnit != "" {
		return invalid("frequencyValue", "only allowed with custom frequency")
	}
	return nil
}
