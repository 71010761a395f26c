package mongo

import (
	"context"
	"errors"
	"time"

	"repflow/workout-app/internal/domain"
	"repflow/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const templateSetCollectionName = "template_sets"

// mongoTemplateSetRepository implements repository.TemplateSetRepository
type mongoTemplateSetRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateSetRepository creates a new TemplateSet repository.
func NewMongoTemplateSetRepository(db *mongo.Database) repository.TemplateSetRepository {
	return &mongoTemplateSetRepository{
		collection: db.Collection(templateSetCollectionName),
	}
}

// Create inserts a new template set.
func (r *mongoTemplateSetRepository) Create(ctx context.Context, ts *domain.TemplateSet) (primitive.ObjectID, error) {
	if ts.RoutineExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("template set requires routineExerciseId")
	}
	if ts.SetType == "" {
		ts.SetType = domain.SetTypeReps
	}
	ts.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	ts.CreatedAt = now
	ts.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, ts)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return ts.ID, nil
}

// GetByID retrieves a single template set.
func (r *mongoTemplateSetRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TemplateSet, error) {
	var ts domain.TemplateSet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ts)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &ts, nil
}

// GetByRoutineExerciseID retrieves a routine exercise's sets sorted by order.
func (r *mongoTemplateSetRepository) GetByRoutineExerciseID(ctx context.Context, routineExerciseID primitive.ObjectID) ([]domain.TemplateSet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"routineExerciseId": routineExerciseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []domain.TemplateSet
	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// CountByRoutineExerciseID counts the sets of a routine exercise. The
// last-set collapse rule in the service layer depends on this.
func (r *mongoTemplateSetRepository) CountByRoutineExerciseID(ctx context.Context, routineExerciseID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"routineExerciseId": routineExerciseID})
}

// MaxOrder returns the highest order value within a routine exercise, 0 when empty.
func (r *mongoTemplateSetRepository) MaxOrder(ctx context.Context, routineExerciseID primitive.ObjectID) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})
	var ts domain.TemplateSet
	err := r.collection.FindOne(ctx, bson.M{"routineExerciseId": routineExerciseID}, opts).Decode(&ts)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return ts.Order, nil
}

// Update rewrites the prescription fields of a template set.
func (r *mongoTemplateSetRepository) Update(ctx context.Context, ts *domain.TemplateSet) error {
	if ts.ID == primitive.NilObjectID {
		return errors.New("template set ID is required for update")
	}
	updateDoc := bson.M{
		"$set": bson.M{
			"setType":          ts.SetType,
			"reps":             ts.Reps,
			"timedDurationSec": ts.TimedDurationSec,
			"weight":           ts.Weight,
			"weightUnit":       ts.WeightUnit,
			"setVariant":       ts.SetVariant,
			"updatedAt":        time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": ts.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a template set.
func (r *mongoTemplateSetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureTemplateSetIndexes creates necessary indexes. Call during startup.
func EnsureTemplateSetIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "routineExerciseId", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
