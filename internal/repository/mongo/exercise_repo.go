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

const exerciseCollectionName = "exercises"

// caseInsensitive is the collation used for name lookups and the unique
// (ownerId, name) index, so "bench press" and "Bench Press" collide.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new exercise definition.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.OwnerID == primitive.NilObjectID || exercise.Name == "" {
		return primitive.NilObjectID, errors.New("exercise requires ownerId and name")
	}
	if exercise.DefaultSection == "" {
		exercise.DefaultSection = domain.SectionTraining
	}
	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return exercise.ID, nil
}

// GetByID retrieves a single exercise definition.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// FindByName retrieves an exercise by name within the owner, matching
// case-insensitively via collation.
func (r *mongoExerciseRepository) FindByName(ctx context.Context, ownerID primitive.ObjectID, name string) (*domain.Exercise, error) {
	var exercise domain.Exercise
	filter := bson.M{"ownerId": ownerID, "name": name}
	opts := options.FindOne().SetCollation(caseInsensitive)
	err := r.collection.FindOne(ctx, filter, opts).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// GetByOwnerID retrieves all exercise definitions for an account, sorted by name.
func (r *mongoExerciseRepository) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Exercise, error) {
	var exercises []domain.Exercise
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetCollation(caseInsensitive)
	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// EnsureExerciseIndexes creates necessary indexes. Call during startup.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
