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

const loggedSetCollectionName = "logged_sets"

// mongoLoggedSetRepository implements repository.LoggedSetRepository
type mongoLoggedSetRepository struct {
	collection *mongo.Collection
}

// NewMongoLoggedSetRepository creates a new LoggedSet repository.
func NewMongoLoggedSetRepository(db *mongo.Database) repository.LoggedSetRepository {
	return &mongoLoggedSetRepository{
		collection: db.Collection(loggedSetCollectionName),
	}
}

// Create inserts a new logged set. The partial unique index on
// (workoutId, templateSetRef) rejects a second row for the same template slot.
func (r *mongoLoggedSetRepository) Create(ctx context.Context, ls *domain.LoggedSet) (primitive.ObjectID, error) {
	if ls.WorkoutID == primitive.NilObjectID || ls.WorkoutExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("logged set requires workoutId and workoutExerciseId")
	}
	if ls.Status == "" {
		ls.Status = domain.SetStatusDefault
	}
	if ls.SetType == "" {
		ls.SetType = domain.SetTypeReps
	}
	ls.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	ls.CreatedAt = now
	ls.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, ls)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return ls.ID, nil
}

// GetByID retrieves a single logged set.
func (r *mongoLoggedSetRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.LoggedSet, error) {
	var ls domain.LoggedSet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ls)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &ls, nil
}

// GetByWorkoutID retrieves all logged sets of a workout in creation order.
func (r *mongoLoggedSetRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.LoggedSet, error) {
	return r.findSorted(ctx, bson.M{"workoutId": workoutID})
}

// GetByWorkoutExerciseID retrieves the logged sets of one workout exercise in
// creation order.
func (r *mongoLoggedSetRepository) GetByWorkoutExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) ([]domain.LoggedSet, error) {
	return r.findSorted(ctx, bson.M{"workoutExerciseId": workoutExerciseID})
}

func (r *mongoLoggedSetRepository) findSorted(ctx context.Context, filter bson.M) ([]domain.LoggedSet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []domain.LoggedSet
	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// FindByTemplateRef returns the most recently created logged set for the
// given (workout, template set) pair.
func (r *mongoLoggedSetRepository) FindByTemplateRef(ctx context.Context, workoutID, templateSetRef primitive.ObjectID) (*domain.LoggedSet, error) {
	filter := bson.M{"workoutId": workoutID, "templateSetRef": templateSetRef}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	var ls domain.LoggedSet
	err := r.collection.FindOne(ctx, filter, opts).Decode(&ls)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &ls, nil
}

// Update rewrites the mutable fields of a logged set (status + performance values).
func (r *mongoLoggedSetRepository) Update(ctx context.Context, ls *domain.LoggedSet) error {
	if ls.ID == primitive.NilObjectID {
		return errors.New("logged set ID is required for update")
	}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":           ls.Status,
			"setType":          ls.SetType,
			"reps":             ls.Reps,
			"timedDurationSec": ls.TimedDurationSec,
			"weight":           ls.Weight,
			"weightUnit":       ls.WeightUnit,
			"setVariant":       ls.SetVariant,
			"updatedAt":        time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": ls.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a logged set outright.
func (r *mongoLoggedSetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureLoggedSetIndexes creates necessary indexes. Call during startup.
func EnsureLoggedSetIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// At most one logged set per template slot per workout.
			Keys: bson.D{{Key: "workoutId", Value: 1}, {Key: "templateSetRef", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"templateSetRef": bson.M{"$exists": true}},
			),
		},
		{
			Keys:    bson.D{{Key: "workoutExerciseId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
