package taskmasters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/server/models"
)

const CollectionName = "taskMasters"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the indexes List and ListActive rely on.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
		{Keys: bson.D{{Key: "plantId", Value: 1}, {Key: "assigneeId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, m *models.TaskMaster) (*models.TaskMaster, error) {
	doc, err := fromModel(m)
	if err != nil {
		return nil, fmt.Errorf("task master id: %w", err)
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	m.ID = doc.ID.Hex()
	return m, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.TaskMaster, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	var doc document
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc.toModel(), nil
}

// Update writes every user-editable field. lastGenerated, createdBy and
// createdAt are never touched, and the custom recurrence fields are removed
// when the frequency is not custom.
func (r *MongoRepository) Update(ctx context.Context, m *models.TaskMaster) error {
	oid, err := primitive.ObjectIDFromHex(m.ID)
	if err != nil {
		return common.ErrorNotFound
	}

	set := bson.M{
		"title":             m.Title,
		"description":       m.Description,
		"plantId":           m.PlantID,
		"assigneeId":        m.AssigneeID,
		"assignerId":        m.AssignerID,
		"priority":          string(m.Priority),
		"frequency":         string(m.Frequency),
		"startDate":         m.StartDate,
		"isActive":          m.IsActive,
		"estimatedDuration": m.EstimatedDuration,
		"instructions":      m.Instructions,
		"tags":              m.Tags,
		"updatedAt":         m.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if m.Frequency == models.FrequencyCustom {
		set["frequencyValue"] = m.FrequencyValue
		set["frequencyUnit"] = string(m.FrequencyUnit)
	} else {
		update["$unset"] = bson.M{"frequencyValue": "", "frequencyUnit": ""}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter) ([]*models.TaskMaster, error) {
	q := bson.M{}
	if filter.PlantID != "" {
		q["plantId"] = filter.PlantID
	}
	if filter.AssigneeID != "" {
		q["assigneeId"] = filter.AssigneeID
	}
	if filter.ActiveOnly {
		q["isActive"] = true
	}
	return r.find(ctx, q)
}

func (r *MongoRepository) ListActive(ctx context.Context) ([]*models.TaskMaster, error) {
	return r.find(ctx, bson.M{"isActive": true})
}

func (r *MongoRepository) find(ctx context.Context, q bson.M) ([]*models.TaskMaster, error) {
	cur, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]*models.TaskMaster, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toModel())
	}
	return result, nil
}

func (r *MongoRepository) UpdateLastGenerated(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"lastGenerated": at}})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}
