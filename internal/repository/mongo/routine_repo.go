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

const routineCollectionName = "routines"

// mongoRoutineRepository implements repository.RoutineRepository
type mongoRoutineRepository struct {
	collection *mongo.Collection
}

// NewMongoRoutineRepository creates a new Routine repository.
func NewMongoRoutineRepository(db *mongo.Database) repository.RoutineRepository {
	return &mongoRoutineRepository{
		collection: db.Collection(routineCollectionName),
	}
}

// Create inserts a new routine.
func (r *mongoRoutineRepository) Create(ctx context.Context, routine *domain.Routine) (primitive.ObjectID, error) {
	if routine.OwnerID == primitive.NilObjectID || routine.Name == "" {
		return primitive.NilObjectID, errors.New("routine requires ownerId and name")
	}
	routine.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	routine.CreatedAt = now
	routine.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, routine)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return routine.ID, nil
}

// GetByID retrieves a single routine by its ID.
func (r *mongoRoutineRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Routine, error) {
	var routine domain.Routine
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&routine)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &routine, nil
}

// GetByOwnerID retrieves routines for an account, newest first. Archived
// routines are excluded unless includeArchived is set.
func (r *mongoRoutineRepository) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID, includeArchived bool) ([]domain.Routine, error) {
	filter := bson.M{"ownerId": ownerID}
	if !includeArchived {
		filter["archived"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var routines []domain.Routine
	if err = cursor.All(ctx, &routines); err != nil {
		return nil, err
	}
	return routines, nil
}

// Update rewrites the mutable routine fields (name, archived flag).
func (r *mongoRoutineRepository) Update(ctx context.Context, routine *domain.Routine) error {
	if routine.ID == primitive.NilObjectID {
		return errors.New("routine ID is required for update")
	}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":      routine.Name,
			"archived":  routine.Archived,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": routine.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a routine, scoped to its owner.
func (r *mongoRoutineRepository) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureRoutineIndexes creates necessary indexes. Call during startup.
func EnsureRoutineIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "archived", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
