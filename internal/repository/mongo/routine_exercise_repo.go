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

const routineExerciseCollectionName = "routine_exercises"

// mongoRoutineExerciseRepository implements repository.RoutineExerciseRepository
type mongoRoutineExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoRoutineExerciseRepository creates a new RoutineExercise repository.
func NewMongoRoutineExerciseRepository(db *mongo.Database) repository.RoutineExerciseRepository {
	return &mongoRoutineExerciseRepository{
		collection: db.Collection(routineExerciseCollectionName),
	}
}

// Create inserts a new routine exercise link. The unique (routineId, order)
// index rejects order collisions; callers surface ErrDuplicateKey.
func (r *mongoRoutineExerciseRepository) Create(ctx context.Context, re *domain.RoutineExercise) (primitive.ObjectID, error) {
	if re.RoutineID == primitive.NilObjectID || re.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("routine exercise requires routineId and exerciseId")
	}
	re.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	re.CreatedAt = now
	re.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, re)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return re.ID, nil
}

// GetByID retrieves a single routine exercise link.
func (r *mongoRoutineExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.RoutineExercise, error) {
	var re domain.RoutineExercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&re)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &re, nil
}

// GetByRoutineID retrieves all exercise links of a routine sorted by order.
// Negative orders (interrupted reorder) sort first; the service repairs
// before serving them.
func (r *mongoRoutineExerciseRepository) GetByRoutineID(ctx context.Context, routineID primitive.ObjectID) ([]domain.RoutineExercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"routineId": routineID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var links []domain.RoutineExercise
	if err = cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// MaxOrder returns the highest order value within a routine, 0 when empty.
func (r *mongoRoutineExerciseRepository) MaxOrder(ctx context.Context, routineID primitive.ObjectID) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})
	var re domain.RoutineExercise
	err := r.collection.FindOne(ctx, bson.M{"routineId": routineID}, opts).Decode(&re)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return re.Order, nil
}

// UpdateOrder rewrites a single row's order value.
func (r *mongoRoutineExerciseRepository) UpdateOrder(ctx context.Context, id primitive.ObjectID, order int) error {
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

// Delete removes a routine exercise link.
func (r *mongoRoutineExerciseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureRoutineExerciseIndexes creates necessary indexes. Call during startup.
func EnsureRoutineExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Order is unique within a routine; the reorder protocol depends on it.
			Keys:    bson.D{{Key: "routineId", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
