package taskinstances

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/timex"
)

type document struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	TaskMasterID      string             `bson:"taskMasterId"`
	Title             string             `bson:"title"`
	Description       string             `bson:"description,omitempty"`
	PlantID           string             `bson:"plantId"`
	AssigneeID        string             `bson:"assigneeId"`
	AssignerID        string             `bson:"assignerId"`
	Priority          string             `bson:"priority,omitempty"`
	Tags              []string           `bson:"tags,omitempty"`
	EstimatedDuration int                `bson:"estimatedDuration"`
	Instructions      string             `bson:"instructions,omitempty"`
	Status            string             `bson:"status"`
	ScheduledDate     time.Time          `bson:"scheduledDate"`
	// ScheduledDay is the calendar day of ScheduledDate in the location it was
	// scheduled in. It backs the one-instance-per-day unique index.
	ScheduledDay   string     `bson:"scheduledDay"`
	DueDate        time.Time  `bson:"dueDate"`
	CompletedAt    *time.Time `bson:"completedAt,omitempty"`
	ActualDuration *int       `bson:"actualDuration,omitempty"`
	Notes          string     `bson:"notes,omitempty"`
	Attachments    []string   `bson:"attachments,omitempty"`
	CreatedBy      string     `bson:"createdBy"`
	CreatedAt      time.Time  `bson:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt"`
}

func fromModel(i *models.TaskInstance) (*document, error) {
	d := &document{
		TaskMasterID:      i.TaskMasterID,
		Title:             i.Title,
		Description:       i.Description,
		PlantID:           i.PlantID,
		AssigneeID:        i.AssigneeID,
		AssignerID:        i.AssignerID,
		Priority:          string(i.Priority),
		Tags:              i.Tags,
		EstimatedDuration: i.EstimatedDuration,
		Instructions:      i.Instructions,
		Status:            string(i.Status),
		ScheduledDate:     i.ScheduledDate,
		ScheduledDay:      timex.DayKey(i.ScheduledDate),
		DueDate:           i.DueDate,
		CompletedAt:       i.CompletedAt,
		ActualDuration:    i.ActualDuration,
		Notes:             i.Notes,
		Attachments:       i.Attachments,
		CreatedBy:         i.CreatedBy,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
	if i.ID != "" {
		oid, err := primitive.ObjectIDFromHex(i.ID)
		if err != nil {
			return nil, err
		}
		d.ID = oid
	}
	return d, nil
}

func (d *document) toModel() *models.TaskInstance {
	return &models.TaskInstance{
		ID:                d.ID.Hex(),
		TaskMasterID:      d.TaskMasterID,
		Title:             d.Title,
		Description:       d.Description,
		PlantID:           d.PlantID,
		AssigneeID:        d.AssigneeID,
		AssignerID:        d.AssignerID,
		Priority:          models.Priority(d.Priority),
		Tags:              d.Tags,
		EstimatedDuration: d.EstimatedDuration,
		Instructions:      d.Instructions,
		Status:            models.Status(d.Status),
		ScheduledDate:     d.ScheduledDate,
		DueDate:           d.DueDate,
		CompletedAt:       d.CompletedAt,
		ActualDuration:    d.ActualDuration,
		Notes:             d.Notes,
		Attachments:       d.Attachments,
		CreatedBy:         d.CreatedBy,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}
