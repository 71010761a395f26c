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

const workoutExerciseCollectionName = "workout_exercises"

// mongoWorkoutExerciseRepository implements repository.WorkoutExerciseRepository
type mongoWorkoutExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutExerciseRepository creates a new WorkoutExercise repository.
func NewMongoWorkoutExerciseRepository(db *mongo.Database) repository.WorkoutExerciseRepository {
	return &mongoWorkoutExerciseRepository{
		collection: db.Collection(workoutExerciseCollectionName),
	}
}

// Create inserts a new workout exercise snapshot.
func (r *mongoWorkoutExerciseRepository) Create(ctx context.Context, we *domain.WorkoutExercise) (primitive.ObjectID, error) {
	if we.WorkoutID == primitive.NilObjectID || we.ExerciseID == primitive.NilObjectID || we.Name == "" {
		return primitive.NilObjectID, errors.New("workout exercise requires workoutId, exerciseId, and name")
	}
	if we.Section == "" {
		we.Section = domain.SectionTraining
	}
	we.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	we.CreatedAt = now
	we.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, we)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return we.ID, nil
}

// GetByID retrieves a single workout exercise snapshot.
func (r *mongoWorkoutExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutExercise, error) {
	var we domain.WorkoutExercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&we)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &we, nil
}

// GetByWorkoutID retrieves all exercise snapshots of a workout sorted by order.
func (r *mongoWorkoutExerciseRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"workoutId": workoutID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var snapshots []domain.WorkoutExercise
	if err = cursor.All(ctx, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// MaxOrder returns the highest order value within a workout, 0 when empty.
func (r *mongoWorkoutExerciseRepository) MaxOrder(ctx context.Context, workoutID primitive.ObjectID) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})
	var we domain.WorkoutExercise
	err := r.collection.FindOne(ctx, bson.M{"workoutId": workoutID}, opts).Decode(&we)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return we.Order, nil
}

// UpdateOrder rewrites a single row's order value.
func (r *mongoWorkoutExerciseRepository) UpdateOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	updateDoc := bson.M{"$set": bson.M{"order": order, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, updateDoc)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateOverrides sets or clears the name/section overrides of a snapshot.
func (r *mongoWorkoutExerciseRepository) UpdateOverrides(ctx context.Context, id primitive.ObjectID, nameOverride *string, sectionOverride *domain.Section) error {
	updateDoc := bson.M{
		"$set": bson.M{
			"nameOverride":    nameOverride,
			"sectionOverride": sectionOverride,
			"updatedAt":       time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a workout exercise snapshot.
func (r *mongoWorkoutExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWorkoutExerciseIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workoutId", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
