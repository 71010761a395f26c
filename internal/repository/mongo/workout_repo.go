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

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new workout session.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.OwnerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout requires ownerId")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return workout.ID, nil
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetActiveByOwnerID retrieves the account's active workout, if any.
func (r *mongoWorkoutRepository) GetActiveByOwnerID(ctx context.Context, ownerID primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"ownerId": ownerID, "active": true}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.collection.FindOne(ctx, filter, opts).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// DeactivateAllForOwner clears the active flag on every workout of an
// account. Used by start_session to enforce at-most-one-active-session.
func (r *mongoWorkoutRepository) DeactivateAllForOwner(ctx context.Context, ownerID primitive.ObjectID) error {
	filter := bson.M{"ownerId": ownerID, "active": true}
	updateDoc := bson.M{"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateMany(ctx, filter, updateDoc)
	return err
}

// Update rewrites the mutable workout fields.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}
	updateDoc := bson.M{
		"$set": bson.M{
			"active":          workout.Active,
			"activeSec":       workout.ActiveSec,
			"restSec":         workout.RestSec,
			"focusExerciseId": workout.FocusExerciseID,
			"sessionVersion":  workout.SessionVersion,
			"shareImageKey":   workout.ShareImageKey,
			"updatedAt":       time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": workout.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a workout, scoped to its owner.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "active", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "routineId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
