package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"repflow/workout-app/internal/domain"
	"repflow/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories for service tests. They enforce the same unique
// indexes the Mongo layer declares — (container, order) and
// (workoutId, templateSetRef) — so ordering and idempotence tests fail
// loudly if a write would have violated them against the real store.

var fakeClock = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func nextTime() time.Time {
	fakeClock = fakeClock.Add(time.Millisecond)
	return fakeClock
}

// --- exercises ---

type fakeExerciseRepo struct {
	rows map[primitive.ObjectID]domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{rows: make(map[primitive.ObjectID]domain.Exercise)}
}

func (r *fakeExerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	for _, row := range r.rows {
		if row.OwnerID == exercise.OwnerID && strings.EqualFold(row.Name, exercise.Name) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	exercise.ID = primitive.NewObjectID()
	exercise.CreatedAt = nextTime()
	exercise.UpdatedAt = exercise.CreatedAt
	r.rows[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *fakeExerciseRepo) FindByName(ctx context.Context, ownerID primitive.ObjectID, name string) (*domain.Exercise, error) {
	for _, row := range r.rows {
		if row.OwnerID == ownerID && strings.EqualFold(row.Name, name) {
			row := row
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeExerciseRepo) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, row := range r.rows {
		if row.OwnerID == ownerID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- routines ---

type fakeRoutineRepo struct {
	rows map[primitive.ObjectID]domain.Routine
}

func newFakeRoutineRepo() *fakeRoutineRepo {
	return &fakeRoutineRepo{rows: make(map[primitive.ObjectID]domain.Routine)}
}

func (r *fakeRoutineRepo) Create(ctx context.Context, routine *domain.Routine) (primitive.ObjectID, error) {
	routine.ID = primitive.NewObjectID()
	routine.CreatedAt = nextTime()
	routine.UpdatedAt = routine.CreatedAt
	r.rows[routine.ID] = *routine
	return routine.ID, nil
}

func (r *fakeRoutineRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Routine, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *fakeRoutineRepo) GetByOwnerID(ctx context.Context, ownerID primitive.ObjectID, includeArchived bool) ([]domain.Routine, error) {
	var out []domain.Routine
	for _, row := range r.rows {
		if row.OwnerID != ownerID {
			continue
		}
		if row.Archived && !includeArchived {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRoutineRepo) Update(ctx context.Context, routine *domain.Routine) error {
	if _, ok := r.rows[routine.ID]; !ok {
		return repository.ErrNotFound
	}
	routine.UpdatedAt = nextTime()
	r.rows[routine.ID] = *routine
	return nil
}

func (r *fakeRoutineRepo) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	row, ok := r.rows[id]
	if !ok || row.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- routine exercises ---

type fakeRoutineExerciseRepo struct {
	rows map[primitive.ObjectID]domain.RoutineExercise
}

func newFakeRoutineExerciseRepo() *fakeRoutineExerciseRepo {
	return &fakeRoutineExerciseRepo{rows: make(map[primitive.ObjectID]domain.RoutineExercise)}
}

func (r *fakeRoutineExerciseRepo) orderTaken(routineID primitive.ObjectID, order int, exclude primitive.ObjectID) bool {
	for _, row := range r.rows {
		if row.RoutineID == routineID && row.Order == order && row.ID != exclude {
			return true
		}
	}
	return false
}

func (r *fakeRoutineExerciseRepo) Create(ctx context.Context, re *domain.RoutineExercise) (primitive.ObjectID, error) {
	if r.orderTaken(re.RoutineID, re.Order, primitive.NilObjectID) {
		return primitive.NilObjectID, repository.ErrDuplicateKey
	}
	re.ID = primitive.NewObjectID()
	re.CreatedAt = nextTime()
	re.UpdatedAt = re.CreatedAt
	r.rows[re.ID] = *re
	return re.ID, nil
}

func (r *fakeRoutineExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.RoutineExercise, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *fakeRoutineExerciseRepo) GetByRoutineID(ctx context.Context, routineID primitive.ObjectID) ([]domain.RoutineExercise, error) {
	var out []domain.RoutineExercise
	for _, row := range r.rows {
		if row.RoutineID == routineID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeRoutineExerciseRepo) MaxOrder(ctx context.Context, routineID primitive.ObjectID) (int, error) {
	max := 0
	for _, row := range r.rows {
		if row.RoutineID == routineID && row.Order > max {
			max = row.Order
		}
	}
	return max, nil
}

func (r *fakeRoutineExerciseRepo) UpdateOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.orderTaken(row.RoutineID, order, id) {
		return repository.ErrDuplicateKey
	}
	row.Order = order
	row.UpdatedAt = nextTime()
	r.rows[id] = row
	return nil
}

func (r *fakeRoutineExerciseRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- template sets ---

type fakeTemplateSetRepo struct {
	rows map[primitive.ObjectID]domain.TemplateSet
}

func newFakeTemplateSetRepo() *fakeTemplateSetRepo {
	return &fakeTemplateSetRepo{rows: make(map[primitive.ObjectID]domain.TemplateSet)}
}

func (r *fakeTemplateSetRepo) Create(ctx context.Context, ts *domain.TemplateSet) (primitive.ObjectID, error) {
	for _, row := range r.rows {
		if row.RoutineExerciseID == ts.RoutineExerciseID && row.Order == ts.Order {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	ts.ID = primitive.NewObjectID()
	ts.CreatedAt = nextTime()
	ts.UpdatedAt = ts.CreatedAt
	r.rows[ts.ID] = *ts
	return ts.ID, nil
}

func (r *fakeTemplateSetRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TemplateSet, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *fakeTemplateSetRepo) GetByRoutineExerciseID(ctx context.Context, routineExerciseID primitive.ObjectID) ([]domain.TemplateSet, error) {
	var out []domain.TemplateSet
	for _, row := range r.rows {
		if row.RoutineExerciseID == routineExerciseID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeTemplateSetRepo) CountByRoutineExerciseID(ctx context.Context, routineExerciseID primitive.ObjectID) (int64, error) {
	var n int64
	for _, row := range r.rows {
		if row.RoutineExerciseID == routineExerciseID {
			n++
		}
	}
	return n, nil
}

func (r *fakeTemplateSetRepo) MaxOrder(ctx context.Context, routineExerciseID primitive.ObjectID) (int, error) {
	max := 0
	for _, row := range r.rows {
		if row.RoutineExerciseID == routineExerciseID && row.Order > max {
			max = row.Order
		}
	}
	return max, nil
}

func (r *fakeTemplateSetRepo) Update(ctx context.Context, ts *domain.TemplateSet) error {
	if _, ok := r.rows[ts.ID]; !ok {
		return repository.ErrNotFound
	}
	ts.UpdatedAt = nextTime()
	r.rows[ts.ID] = *ts
	return nil
}

func (r *fakeTemplateSetRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- workouts ---

type fakeWorkoutRepo struct {
	rows map[primitive.ObjectID]domain.Workout
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{rows: make(map[primitive.ObjectID]domain.Workout)}
}

func (r *fakeWorkoutRepo) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	workout.ID = primitive.NewObjectID()
	workout.CreatedAt = nextTime()
	workout.UpdatedAt = workout.CreatedAt
	r.rows[workout.ID] = *workout
	return workout.ID, nil
}

func (r *fakeWorkoutRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *fakeWorkoutRepo) GetActiveByOwnerID(ctx context.Context, ownerID primitive.ObjectID) (*domain.Workout, error) {
	var found *domain.Workout
	for _, row := range r.rows {
		if row.OwnerID != ownerID || !row.Active {
			continue
		}
		row := row
		if found == nil || row.CreatedAt.After(found.CreatedAt) {
			found = &row
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *fakeWorkoutRepo) DeactivateAllForOwner(ctx context.Context, ownerID primitive.ObjectID) error {
	for id, row := range r.rows {
		if row.OwnerID == ownerID && row.Active {
			row.Active = false
			row.UpdatedAt = nextTime()
			r.rows[id] = row
		}
	}
	return nil
}

func (r *fakeWorkoutRepo) Update(ctx context.Context, workout *domain.Workout) error {
	if _, ok := r.rows[workout.ID]; !ok {
		return repository.ErrNotFound
	}
	workout.UpdatedAt = nextTime()
	r.rows[workout.ID] = *workout
	return nil
}

func (r *fakeWorkoutRepo) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	row, ok := r.rows[id]
	if !ok || row.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- workout exercises ---

type fakeWorkoutExerciseRepo struct {
	rows map[primitive.ObjectID]domain.WorkoutExercise
}

func newFakeWorkoutExerciseRepo() *fakeWorkoutExerciseRepo {
	return &fakeWorkoutExerciseRepo{rows: make(map[primitive.ObjectID]domain.WorkoutExercise)}
}

func (r *fakeWorkoutExerciseRepo) orderTaken(workoutID primitive.ObjectID, order int, exclude primitive.ObjectID) bool {
	for _, row := range r.rows {
		if row.WorkoutID == workoutID && row.Order == order && row.ID != exclude {
			return true
		}
	}
	return false
}

func (r *fakeWorkoutExerciseRepo) Create(ctx context.Context, we *domain.WorkoutExercise) (primitive.ObjectID, error) {
	if r.orderTaken(we.WorkoutID, we.Order, primitive.NilObjectID) {
		return primitive.NilObjectID, repository.ErrDuplicateKey
	}
	we.ID = primitive.NewObjectID()
	we.CreatedAt = nextTime()
	we.UpdatedAt = we.CreatedAt
	r.rows[we.ID] = *we
	return we.ID, nil
}

func (r *fakeWorkoutExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutExercise, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *fakeWorkoutExerciseRepo) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	var out []domain.WorkoutExercise
	for _, row := range r.rows {
		if row.WorkoutID == workoutID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeWorkoutExerciseRepo) MaxOrder(ctx context.Context, workoutID primitive.ObjectID) (int, error) {
	max := 0
	for _, row := range r.rows {
		if row.WorkoutID == workoutID && row.Order > max {
			max = row.Order
		}
	}
	return max, nil
}

func (r *fakeWorkoutExerciseRepo) UpdateOrder(ctx context.Context, id primitive.ObjectID, order int) error {
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.orderTaken(row.WorkoutID, order, id) {
		return repository.ErrDuplicateKey
	}
	row.Order = order
	row.UpdatedAt = nextTime()
	r.rows[id] = row
	return nil
}

func (r *fakeWorkoutExerciseRepo) UpdateOverrides(ctx context.Context, id primitive.ObjectID, nameOverride *string, sectionOverride *domain.Section) error {
	row, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.NameOverride = nameOverride
	row.SectionOverride = sectionOverride
	row.UpdatedAt = nextTime()
	r.rows[id] = row
	return nil
}

func (r *fakeWorkoutExerciseRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- logged sets ---

type fakeLoggedSetRepo struct {
	rows map[primitive.ObjectID]domain.LoggedSet
}

func newFakeLoggedSetRepo() *fakeLoggedSetRepo {
	return &fakeLoggedSetRepo{rows: make(map[primitive.ObjectID]domain.LoggedSet)}
}

func (r *fakeLoggedSetRepo) Create(ctx context.Context, ls *domain.LoggedSet) (primitive.ObjectID, error) {
	if ls.TemplateSetRef != nil {
		for _, row := range r.rows {
			if row.WorkoutID == ls.WorkoutID && row.TemplateSetRef != nil && *row.TemplateSetRef == *ls.TemplateSetRef {
				return primitive.NilObjectID, repository.ErrDuplicateKey
			}
		}
	}
	ls.ID = primitive.NewObjectID()
	ls.CreatedAt = nextTime()
	ls.UpdatedAt = ls.CreatedAt
	r.rows[ls.ID] = *ls
	return ls.ID, nil
}

func (r *fakeLoggedSetRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.LoggedSet, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *fakeLoggedSetRepo) sortedByCreation(filter func(domain.LoggedSet) bool) []domain.LoggedSet {
	var out []domain.LoggedSet
	for _, row := range r.rows {
		if filter(row) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (r *fakeLoggedSetRepo) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) ([]domain.LoggedSet, error) {
	return r.sortedByCreation(func(ls domain.LoggedSet) bool { return ls.WorkoutID == workoutID }), nil
}

func (r *fakeLoggedSetRepo) GetByWorkoutExerciseID(ctx context.Context, workoutExerciseID primitive.ObjectID) ([]domain.LoggedSet, error) {
	return r.sortedByCreation(func(ls domain.LoggedSet) bool { return ls.WorkoutExerciseID == workoutExerciseID }), nil
}

func (r *fakeLoggedSetRepo) FindByTemplateRef(ctx context.Context, workoutID, templateSetRef primitive.ObjectID) (*domain.LoggedSet, error) {
	matches := r.sortedByCreation(func(ls domain.LoggedSet) bool {
		return ls.WorkoutID == workoutID && ls.TemplateSetRef != nil && *ls.TemplateSetRef == templateSetRef
	})
	if len(matches) == 0 {
		return nil, repository.ErrNotFound
	}
	return &matches[len(matches)-1], nil
}

func (r *fakeLoggedSetRepo) Update(ctx context.Context, ls *domain.LoggedSet) error {
	if _, ok := r.rows[ls.ID]; !ok {
		return repository.ErrNotFound
	}
	ls.UpdatedAt = nextTime()
	r.rows[ls.ID] = *ls
	return nil
}

func (r *fakeLoggedSetRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// --- fixture ---

// fixture wires both services over one shared set of fakes so routine edits
// and session mutations see the same data.
type fixture struct {
	exercises    *fakeExerciseRepo
	routines     *fakeRoutineRepo
	routineLinks *fakeRoutineExerciseRepo
	templateSets *fakeTemplateSetRepo
	workouts     *fakeWorkoutRepo
	workoutLinks *fakeWorkoutExerciseRepo
	loggedSets   *fakeLoggedSetRepo

	routineSvc RoutineService
	sessionSvc SessionService
}

func newFixture() *fixture {
	fx := &fixture{
		exercises:    newFakeExerciseRepo(),
		routines:     newFakeRoutineRepo(),
		routineLinks: newFakeRoutineExerciseRepo(),
		templateSets: newFakeTemplateSetRepo(),
		workouts:     newFakeWorkoutRepo(),
		workoutLinks: newFakeWorkoutExerciseRepo(),
		loggedSets:   newFakeLoggedSetRepo(),
	}
	fx.routineSvc = NewRoutineService(fx.routines, fx.routineLinks, fx.templateSets, fx.exercises)
	fx.sessionSvc = NewSessionService(fx.workouts, fx.workoutLinks, fx.loggedSets, fx.routines, fx.routineLinks, fx.templateSets, fx.exercises)
	return fx
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
