package taskinstances

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

const CollectionName = "taskInstances"

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique (taskMasterId, scheduledDay) index that
// backs the one-instance-per-day guarantee, plus the lookup indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "taskMasterId", Value: 1}, {Key: "scheduledDay", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("task_master_day_unique"),
		},
		{Keys: bson.D{{Key: "taskMasterId", Value: 1}, {Key: "scheduledDate", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Create inserts a new instance. A second instance for the same master and
// day fails with common.ErrorAlreadyExists.
func (r *MongoRepository) Create(ctx context.Context, inst *models.TaskInstance) (*models.TaskInstance, error) {
	doc, err := fromModel(inst)
	if err != nil {
		return nil, fmt.Errorf("task instance id: %w", err)
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: task master %s on %s", common.ErrorAlreadyExists, doc.TaskMasterID, doc.ScheduledDay)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	inst.ID = doc.ID.Hex()
	return inst, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.TaskInstance, error) {
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

// FindByTemplateAndDateRange returns any instance of the master scheduled
// within [start, end], or nil when there is none.
func (r *MongoRepository) FindByTemplateAndDateRange(ctx context.Context, templateID string, start, end time.Time) (*models.TaskInstance, error) {
	filter := bson.M{
		"taskMasterId":  templateID,
		"scheduledDate": bson.M{"$gte": start, "$lte": end},
	}

	var doc document
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc.toModel(), nil
}

func (r *MongoRepository) ListByMaster(ctx context.Context, templateID string) ([]*models.TaskInstance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"taskMasterId": templateID}, opts)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]*models.TaskInstance, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toModel())
	}
	return result, nil
}

// UpdateStatus persists the mutable execution fields of an instance.
func (r *MongoRepository) UpdateStatus(ctx context.Context, inst *models.TaskInstance) error {
	oid, err := primitive.ObjectIDFromHex(inst.ID)
	if err != nil {
		return common.ErrorNotFound
	}

	set := bson.M{
		"status":    string(inst.Status),
		"notes":     inst.Notes,
		"updatedAt": inst.UpdatedAt,
	}
	if inst.CompletedAt != nil {
		set["completedAt"] = *inst.CompletedAt
	}
	if inst.ActualDuration != nil {
		set["actualDuration"] = *inst.ActualDuration
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) AddAttachment(ctx context.Context, id, key string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$addToSet": bson.M{"attachments": key}})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}
