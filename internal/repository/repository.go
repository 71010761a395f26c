package repository

import (
	"context"

	"repflow/workout-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound      = RepositoryError("not found")
	ErrDuplicateKey  = RepositoryError("duplicate key")
	ErrUpdateFailed  = RepositoryError("update failed")
	ErrDeleteFailed  = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ExerciseRepository defines the interface for interacting with exercise
// definitions. FindByName matches case-insensitively within the owner.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	FindByName(ctx context.Context, ownerID primitive.ObjectID, name string) (*domain.Exercise, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Exercise, error)
}

// RoutineRepository defines the interface for interacting with routine data.
type RoutineRepository interface {
	Create(ctx context.Context, routine *domain.Routine) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Routine, error)
	GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID, includeArchived bool) ([]domain.Routine, error)
	Update(ctx context.Context, routine *domain.Routine) error
	Delete(ctx context.Context, id, ownerID primitive.ObjectID) error
}

// RoutineExerciseRepository manages exercise links within a routine.
// Order is unique per routine; UpdateOrder is the single-row write the
// two-phase reorder protocol is built from.
type RoutineExerciseRepository interface {
	Create(ctx context.Context, re *domain.RoutineExercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.RoutineExercise, error)
	GetByRoutineID(ctx context.Context, routineID primitive.ObjectID) ([]domain.RoutineExercise, error)
	MaxOrder(ctx context.Context, routineID primitive.ObjectID) (int, error)
	UpdateOrder(ctx context.Context, id primitive.ObjectID, order int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TemplateSetRepository manages routine-level default sets.
type TemplateSetRepository interface {
	Create(ctx context.Context, ts *domain.TemplateSet) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TemplateSet, error)
	GetByRoutineExerciseID(ctx context.Context, routineExerciseID primitive.ObjectID) ([]domain.TemplateSet, error)
	CountByRoutineExerciseID(ctx context.Context, routineExerciseID primitive.ObjectID) (int64, error)
	MaxOrder(ctx context.Context, routineExerciseID primitive.ObjectID) (int, error)
	Update(ctx context.Context, ts *domain.TemplateSet) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	GetActiveByOwnerID(ctx context.Context, ownerID primitive.ObjectID) (*domain.Workout, error)
	DeactivateAllForOwner(ctx context.Context, ownerID primitive.ObjectID) error
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id, ownerID primitive.ObjectID) error
}

// WorkoutExerciseRepository manages exercise snapshots within a workout.
type WorkoutExerciseRepository interface {
	Create(ctx context.Context, we *domain.WorkoutExercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutExercise, error)
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExercise, error)
	MaxOrder(ctx context.Context, workoutID primitive.ObjectID) (int, error)
	UpdateOrder(ctx context.Context, id primitive.ObjectID, order int) error
	UpdateOverrides(ctx context.Context, id primitive.ObjectID, nameOverride *string, sectionOverride *domain.Section) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// LoggedSetRepository manages the set log of a workout.
type LoggedSetRepository interface {
	Create(ctx context.Context, ls *domain.LoggedSet) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.LoggedSet, error)
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.LoggedSet, error)
	GetByWorkoutExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) ([]domain.LoggedSet, error)
	// FindByTemplateRef returns the most recently created set for the given
	// (workout, template set) pair, or ErrNotFound.
	FindByTemplateRef(ctx context.Context, workoutID, templateSetRef primitive.ObjectID) (*domain.LoggedSet, error)
	Update(ctx context.Context, ls *domain.LoggedSet) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
