package taskmasters

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmitrijs2005/plantops/internal/server/models"
)

type document struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Title             string             `bson:"title"`
	Description       string             `bson:"description,omitempty"`
	PlantID           string             `bson:"plantId"`
	AssigneeID        string             `bson:"assigneeId"`
	AssignerID        string             `bson:"assignerId"`
	Priority          string             `bson:"priority,omitempty"`
	Frequency         string             `bson:"frequency"`
	FrequencyValue    int                `bson:"frequencyValue,omitempty"`
	FrequencyUnit     string             `bson:"frequencyUnit,omitempty"`
	StartDate         time.Time          `bson:"startDate"`
	IsActive          bool               `bson:"isActive"`
	EstimatedDuration int                `bson:"estimatedDuration"`
	Instructions      string             `bson:"instructions,omitempty"`
	Tags              []string           `bson:"tags,omitempty"`
	LastGenerated     *time.Time         `bson:"lastGenerated,omitempty"`
	CreatedBy         string             `bson:"createdBy"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`
}

func fromModel(m *models.TaskMaster) (*document, error) {
	d := &document{
		Title:             m.Title,
		Description:       m.Description,
		PlantID:           m.PlantID,
		AssigneeID:        m.AssigneeID,
		AssignerID:        m.AssignerID,
		Priority:          string(m.Priority),
		Frequency:         string(m.Frequency),
		FrequencyValue:    m.FrequencyValue,
		FrequencyUnit:     string(m.FrequencyUnit),
		StartDate:         m.StartDate,
		IsActive:          m.IsActive,
		EstimatedDuration: m.EstimatedDuration,
		Instructions:      m.Instructions,
		Tags:              m.Tags,
		LastGenerated:     m.LastGenerated,
		CreatedBy:         m.CreatedBy,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.ID != "" {
		oid, err := primitive.ObjectIDFromHex(m.ID)
		if err != nil {
			return nil, err
		}
		d.ID = oid
	}
	return d, nil
}

func (d *document) toModel() *models.TaskMaster {
	return &models.TaskMaster{
		ID:                d.ID.Hex(),
		Title:             d.Title,
		Description:       d.Description,
		PlantID:           d.PlantID,
		AssigneeID:        d.AssigneeID,
		AssignerID:        d.AssignerID,
		Priority:          models.Priority(d.Priority),
		Frequency:         models.Frequency(d.Frequency),
		FrequencyValue:    d.FrequencyValue,
		FrequencyUnit:     models.FrequencyUnit(d.FrequencyUnit),
		StartDate:         d.StartDate,
		IsActive:          d.IsActive,
		EstimatedDuration: d.EstimatedDuration,
		Instructions:      d.Instructions,
		Tags:              d.Tags,
		LastGenerated:     d.LastGenerated,
		CreatedBy:         d.CreatedBy,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}
