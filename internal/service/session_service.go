package service

import (
	"context"
	"errors"
	"log"
	"time"

	"repflow/workout-app/internal/domain"
	"repflow/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound         = errors.New("workout not found")
	ErrWorkoutAccessDenied     = errors.New("workout does not belong to this account")
	ErrWorkoutExerciseNotFound = errors.New("workout exercise not found")
	ErrSetNotFound             = errors.New("logged set not found")
	ErrSetIdentityMissing      = errors.New("set payload carries neither an identity nor a template set reference")
	ErrNoActiveWorkout         = errors.New("no active workout")
)

// AddMode selects the scope of an add-exercise operation: ThisWorkoutOnly
// touches only the session, AllFutureWorkouts additionally pushes the
// exercise into the session's source routine.
type AddMode string

const (
	AddModeToday  AddMode = "today"
	AddModeFuture AddMode = "future"
)

// SetInput is the caller-supplied description of one set. ID is the persisted
// identity of an existing logged set; TemplateSetRef links back to a template
// slot. Both may be nil for a brand-new ad hoc set.
type SetInput struct {
	ID               *primitive.ObjectID
	TemplateSetRef   *primitive.ObjectID
	SetType          domain.SetType
	Reps             *int
	TimedDurationSec *int
	Weight           *float64
	WeightUnit       domain.WeightUnit
	SetVariant       string
}

// ExerciseInput describes an exercise to add to a workout (and optionally its
// routine): a name resolved case-insensitively against the account's
// exercise definitions, a section, and default sets.
type ExerciseInput struct {
	Name    string
	Section domain.Section
	Sets    []SetInput
}

// MaterializedExercise is one workout exercise with its merged set view.
type MaterializedExercise struct {
	WorkoutExercise domain.WorkoutExercise `json:"workoutExercise"`
	Name            string                 `json:"name"`
	Section         domain.Section         `json:"section"`
	Sets            []domain.EffectiveSet  `json:"sets"`
}

// MaterializedWorkout is the full session view returned by every mutation.
type MaterializedWorkout struct {
	Workout   domain.Workout         `json:"workout"`
	Exercises []MaterializedExercise `json:"exercises"`
}

// SessionService is the mutation engine for live workout sessions. Each
// operation reads the minimal state it needs, writes the minimal rows, and
// returns the re-materialized session. Operations are idempotent by identity
// so a retried call converges instead of compounding; there is no
// cross-operation locking.
type SessionService interface {
	StartSession(ctx context.Context, ownerID primitive.ObjectID, routineID *primitive.ObjectID) (*MaterializedWorkout, error)
	GetWorkout(ctx context.Context, ownerID, workoutID primitive.ObjectID) (*MaterializedWorkout, error)
	GetActiveWorkout(ctx context.Context, ownerID primitive.ObjectID) (*MaterializedWorkout, error)
	CompleteSet(ctx context.Context, ownerID, workoutID, workoutExerciseID primitive.ObjectID, set SetInput) (*MaterializedWorkout, error)
	UndoSet(ctx context.Context, ownerID, workoutID, workoutExerciseID primitive.ObjectID, set SetInput) (*MaterializedWorkout, error)
	AddExercise(ctx context.Context, ownerID, workoutID primitive.ObjectID, input ExerciseInput, mode AddMode) (*MaterializedWorkout, error)
	UpdateFocus(ctx context.Context, ownerID, workoutID, workoutExerciseID primitive.ObjectID) (int64, error)
	OverrideExercise(ctx context.Context, ownerID, workoutID, workoutExerciseID primitive.ObjectID, nameOverride *string, sectionOverride *domain.Section) (*MaterializedWorkout, error)
	ReorderExercises(ctx context.Context, ownerID, workoutID primitive.ObjectID, orderedIDs []primitive.ObjectID) (*MaterializedWorkout, error)
}

// sessionService implements the SessionService interface.
type sessionService struct {
	workoutRepo         repository.WorkoutRepository
	workoutExerciseRepo repository.WorkoutExerciseRepository
	loggedSetRepo       repository.LoggedSetRepository
	routineRepo         repository.RoutineRepository
	routineExerciseRepo repository.RoutineExerciseRepository
	templateSetRepo     repository.TemplateSetRepository
	exerciseRepo        repository.ExerciseRepository
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(
	workoutRepo repository.WorkoutRepository,
	workoutExerciseRepo repository.WorkoutExerciseRepository,
	loggedSetRepo repository.LoggedSetRepository,
	routineRepo repository.RoutineRepository,
	routineExerciseRepo repository.RoutineExerciseRepository,
	templateSetRepo repository.TemplateSetRepository,
	exerciseRepo repository.ExerciseRepository,
) SessionService {
	return &sessionService{
		workoutRepo:         workoutRepo,
		workoutExerciseRepo: workoutExerciseRepo,
		loggedSetRepo:       loggedSetRepo,
		routineRepo:         routineRepo,
		routineExerciseRepo: routineExerciseRepo,
		templateSetRepo:     templateSetRepo,
		exerciseRepo:        exerciseRepo,
	}
}

// === Session lifecycle ===

// StartSession materializes a new workout from a routine. Any other active
// session of the account is deactivated first (check-then-act; the store has
// no cross-document constraint, so a concurrent start leaves a small race
// window — the most recent winner is served by GetActiveWorkout). Every
// routine exercise becomes a snapshot, every template set a default logged
// set carrying its templateSetRef. A routine with zero exercises yields an
// empty workout, not an error.
func (s *sessionService) StartSession(ctx context.Context, ownerID primitive.ObjectID, routineID *primitive.ObjectID) (*MaterializedWorkout, error) {
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required")
	}

	var links []domain.RoutineExercise
	if routineID != nil {
		routine, err := s.routineRepo.GetByID(ctx, *routineID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrRoutineNotFound
			}
			return nil, err
		}
		if routine.OwnerID != ownerID {
			return nil, ErrRoutineAccessDenied
		}
		links, err = s.routineLinksRepaired(ctx, *routineID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.workoutRepo.DeactivateAllForOwner(ctx, ownerID); err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		OwnerID:        ownerID,
		RoutineID:      routineID,
		Active:         true,
		SessionVersion: time.Now().UnixMilli(),
	}
	if _, err := s.workoutRepo.Create(ctx, workout); err != nil {
		return nil, err
	}

	for i, link := range links {
		exercise, err := s.exerciseRepo.GetByID(ctx, link.ExerciseID)
		if err != nil {
			return nil, err
		}
		linkID := link.ID
		snapshot := &domain.WorkoutExercise{
			WorkoutID:          workout.ID,
			ExerciseID:         link.ExerciseID,
			RoutineExerciseRef: &linkID,
			Name:               exercise.Name,
			Section:            exercise.DefaultSection,
			Order:              i + 1,
		}
		if _, err := s.workoutExerciseRepo.Create(ctx, snapshot); err != nil {
			return nil, err
		}

		templateSets, err := s.templateSetRepo.GetByRoutineExerciseID(ctx, link.ID)
		if err != nil {
			return nil, err
		}
		for _, ts := range templateSets {
			ref := ts.ID
			ls := &domain.LoggedSet{
				WorkoutID:         workout.ID,
				WorkoutExerciseID: snapshot.ID,
				TemplateSetRef:    &ref,
				Status:            domain.SetStatusDefault,
				SetType:           ts.SetType,
				Reps:              ts.Reps,
				TimedDurationSec:  ts.TimedDurationSec,
				Weight:            ts.Weight,
				WeightUnit:        ts.WeightUnit,
				SetVariant:        ts.SetVariant,
			}
			if _, err := s.loggedSetRepo.Create(ctx, ls); err != nil {
				return nil, err
			}
		}
	}

	return s.materializeWorkout(ctx, workout)
}

// GetWorkout returns the materialized view of one workout.
func (s *sessionService) GetWorkout(ctx context.Context, ownerID, workoutID primitive.ObjectID) (*MaterializedWorkout, error) {
	workout, err := s.fetchOwnedWorkout(ctx, ownerID, workoutID)
	if err != nil {
		return nil, err
	}
	return s.materializeWorkout(ctx, workout)
}

// GetActiveWorkout returns the account's active session, if one exists.
func (s *sessionService) GetActiveWorkout(ctx context.Context, ownerID primitive.ObjectID) (*MaterializedWorkout, error) {
	workout, err := s.workoutRepo.GetActiveByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveWorkout
		}
		return nil, err
	}
	return s.materializeWorkout(ctx, workout)
}

// === Set operations ===

// CompleteSet marks one set performed, recording its actual values. A payload
// with a persisted identity updates that row in place (a replay re-applies
// the same fields rather than duplicating); without an identity the row is
// found by templateSetRef first, and only inserted when neither lookup hits.
// Timed sets with no reps value store reps=1, a display convenience.
func (s *sessionService) CompleteSet(ctx context.Context, ownerID, workoutID, workoutExerciseID primitive.ObjectID, set SetInput) (*MaterializedWorkout, error) {
	workout, err := s.fetchOwnedWorkout(ctx, ownerID, workoutID)
	if err != nil {
		return nil, err
	}
	if _, err := s.fetchWorkoutExercise(ctx, workoutID, workoutExerciseID); err != nil {
		return nil, err
	}

	if set.SetType == domain.SetTypeTimed && set.Reps == nil {
		one := 1
		set.Reps = &one
	}

	var target *domain.LoggedSet
	switch {
	case set.ID != nil:
		target, err = s.loggedSetRepo.GetByID(ctx, *set.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrSetNotFound
			}
			return nil, err
		}
		if target.WorkoutID != workoutID {
			return nil, ErrSetNotFound
		}
	case set.TemplateSetRef != nil:
		// Identity lookup before insert guards the insert-only path against
		// retries and the unique (workoutId, templateSetRef) index.
		target, err = s.loggedSetRepo.FindByTemplateRef(ctx, workoutID, *set.TemplateSetRef)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if target != nil {
		applySetInput(target, set)
		target.Status = domain.SetStatusComplete
		if err := s.loggedSetRepo.Update(ctx, target); err != nil {
			return nil, err
		}
	} else {
		ls := &domain.LoggedSet{
			WorkoutID:         workoutID,
			WorkoutExerciseID: workoutExerciseID,
			TemplateSetRef:    set.TemplateSetRef,
			Status:            domain.SetStatusComplete,
		}
		applySetInput(ls, set)
		if _, err := s.loggedSetRepo.Create(ctx, ls); err != nil {
			return nil, err
		}
	}

	if err := s.bumpVersion(ctx, workout); err != nil {
		return nil, err
	}
	return s.materializeWorkout(ctx, workout)
}

// UndoSet reverts a completed set. A template-backed row is reset to default
// status and kept (the slot must always have some representation; edited
// values deliberately survive the undo). An ad hoc row is deleted outright —
// there is no default state to revert to. A payload with only a
// templateSetRef deletes the most recent completed row for that slot, which
// reverts the slot to its pure template default.
func (s *sessionService) UndoSet(ctx context.Context, ownerID, workoutID, workoutExerciseID primitive.ObjectID, set SetInput) (*MaterializedWorkout, error) {
	workout, err := s.fetchOwnedWorkout(ctx, ownerID, workoutID)
	if err != nil {
		return nil, err
	}
	if _, err := s.fetchWorkoutExercise(ctx, workoutID, workoutExerciseID); err != nil {
		return nil, err
	}

	switch {
	case set.ID != nil:
		target, err := s.loggedSetRepo.GetByID(ctx, *set.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Already gone; a retried undo of an ad hoc set lands here.
				break
			}
			return nil, err
		}
		if target.WorkoutID != workoutID {
			return nil, ErrSetNotFound
		}
		if target.TemplateSetRef != nil {
			target.Status = domain.SetStatusDefault
			if err := s.loggedSetRepo.Update(ctx, target); err != nil {
				return nil, err
			}
		} else if err := s.loggedSetRepo.Delete(ctx, target.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	case set.TemplateSetRef != nil:
		target, err := s.loggedSetRepo.FindByTemplateRef(ctx, workoutID, *set.TemplateSetRef)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				break
			}
			return nil, err
		}
		if target.Status == domain.SetStatusComplete {
			if err := s.loggedSetRepo.Delete(ctx, target.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
		}
	default:
		return nil, ErrSetIdentityMissing
	}

	if err := s.bumpVersion(ctx, workout); err != nil {
		return nil, err
	}
	return s.materializeWorkout(ctx, workout)
}

// === Adding exercises mid-session ===

// AddExercise adds an exercise to a running workout. The exercise definition
// is found-or-created by case-insensitive name. In today mode only the
// session gains rows; in future mode the source routine additionally gains a
// routine exercise and template sets, so subsequent sessions inherit it. A
// future-mode add on an unscheduled workout (no source routine) degrades to
// today semantics. Set backfill is best effort: an individual set insert
// failure is logged and skipped rather than aborting the add.
func (s *sessionService) AddExercise(ctx context.Context, ownerID, workoutID primitive.ObjectID, input ExerciseInput, mode AddMode) (*MaterializedWorkout, error) {
	if input.Name == "" {
		return nil, errors.New("exercise name is required")
	}
	workout, err := s.fetchOwnedWorkout(ctx, ownerID, workoutID)
	if err != nil {
		return nil, err
	}

	exercise, err := s.findOrCreateExercise(ctx, ownerID, input.Name, input.Section)
	if err != nil {
		return nil, err
	}
	section := input.Section
	if section == "" {
		section = exercise.DefaultSection
	}

	sets := input.Sets
	if len(sets) == 0 {
		// An exercise with zero sets is never stored; give it one default slot.
		sets = []SetInput{{SetType: domain.SetTypeReps}}
	}

	// Future mode pushes the exercise back into the source routine first so
	// the session rows can reference the new template sets.
	var templateRefs []*primitive.ObjectID
	var routineExerciseRef *primitive.ObjectID
	if mode == AddModeFuture && workout.RoutineID != nil {
		maxOrder, err := s.routineExerciseRepo.MaxOrder(ctx, *workout.RoutineID)
		if err != nil {
			return nil, err
		}
		link := &domain.RoutineExercise{
			RoutineID:  *workout.RoutineID,
			ExerciseID: exercise.ID,
			Order:      maxOrder + 1,
		}
		if _, err := s.routineExerciseRepo.Create(ctx, link); err != nil {
			return nil, err
		}
		linkID := link.ID
		routineExerciseRef = &linkID

		for i, in := range sets {
			ts := &domain.TemplateSet{
				RoutineExerciseID: link.ID,
				Order:             i + 1,
				SetType:           in.SetType,
				Reps:              in.Reps,
				TimedDurationSec:  in.TimedDurationSec,
				Weight:            in.Weight,
				WeightUnit:        in.WeightUnit,
				SetVariant:        in.SetVariant,
			}
			if _, err := s.templateSetRepo.Create(ctx, ts); err != nil {
				log.Printf("WARN: template set backfill for exercise %s failed: %v", exercise.ID.Hex(), err)
				templateRefs = append(templateRefs, nil)
				continue
			}
			tsID := ts.ID
			templateRefs = append(templateRefs, &tsID)
		}
	} else {
		templateRefs = make([]*primitive.ObjectID, len(sets))
	}

	maxOrder, err := s.workoutExerciseRepo.MaxOrder(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	snapshot := &domain.WorkoutExercise{
		WorkoutID:          workoutID,
		ExerciseID:         exercise.ID,
		RoutineExerciseRef: routineExerciseRef,
		Name:               exercise.Name,
		Section:            section,
		Order:              maxOrder + 1,
	}
	if _, err := s.workoutExerciseRepo.Create(ctx, snapshot); err != nil {
		return nil, err
	}

	for i, in := range sets {
		ls := &domain.LoggedSet{
			WorkoutID:         workoutID,
			WorkoutExerciseID: snapshot.ID,
			TemplateSetRef:    templateRefs[i],
			Status:            domain.SetStatusDefault,
		}
		applySetInput(ls, in)
		if _, err := s.loggedSetRepo.Create(ctx, ls); err != nil {
			log.Printf("WARN: default set backfill for workout exercise %s failed: %v", snapshot.ID.Hex(), err)
		}
	}

	if err := s.bumpVersion(ctx, workout); err != nil {
		return nil, err
	}
	return s.materializeWorkout(ctx, workout)
}

// === Focus & ordering ===

// UpdateFocus records the exercise the user last interacted with. The value
// is purely advisory (used to restore attention after navigation), so a
// store failure is logged and swallowed; validation and ownership errors
// still surface.
func (s *sessionService) UpdateFocus(ctx context.Context, ownerID, workoutID, workoutExerciseID primitive.ObjectID) (int64, error) {
	workout, err := s.fetchOwnedWorkout(ctx, ownerID, workoutID)
	if err != nil {
		return 0, err
	}
	if _, err := s.fetchWorkoutExercise(ctx, workoutID, workoutExerciseID); err != nil {
		return 0, err
	}
	workout.FocusExerciseID = &workoutExerciseID
	if err := s.bumpVersion(ctx, workout); err != nil {
		log.Printf("WARN: focus update for workout %s failed: %v", workoutID.Hex(), err)
	}
	return workout.SessionVersion, nil
}

// OverrideExercise renames or re-sections one exercise within this workout
// only. The snapshot values stay untouched; a nil pointer clears the override
// so the snapshot value shows through again. The source routine is never
// affected.
func (s *sessionService) OverrideExercise(ctx context.Context, ownerID, workoutID, workoutExerciseID primitive.ObjectID, nameOverride *string, sectionOverride *domain.Section) (*MaterializedWorkout, error) {
	workout, err := s.fetchOwnedWorkout(ctx, ownerID, workoutID)
	if err != nil {
		return nil, err
	}
	if _, err := s.fetchWorkoutExercise(ctx, workoutID, workoutExerciseID); err != nil {
		return nil, err
	}
	if err := s.workoutExerciseRepo.UpdateOverrides(ctx, workoutExerciseID, nameOverride, sectionOverride); err != nil {
		return nil, err
	}
	if err := s.bumpVersion(ctx, workout); err != nil {
		return nil, err
	}
	return s.materializeWorkout(ctx, workout)
}

// ReorderExercises applies a settled permutation of the workout's exercises
// via the two-phase order rewrite. The caller is expected to have debounced
// intermediate drag positions; whatever final order arrives is applied as is.
func (s *sessionService) ReorderExercises(ctx context.Context, ownerID, workoutID primitive.ObjectID, orderedIDs []primitive.ObjectID) (*MaterializedWorkout, error) {
	workout, err := s.fetchOwnedWorkout(ctx, ownerID, workoutID)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.workoutLinksRepaired(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	rows := make([]orderedRow, len(snapshots))
	for i, we := range snapshots {
		rows[i] = orderedRow{ID: we.ID, Order: we.Order}
	}
	if err := applyReorder(ctx, rows, orderedIDs, s.workoutExerciseRepo.UpdateOrder); err != nil {
		return nil, err
	}
	if err := s.bumpVersion(ctx, workout); err != nil {
		return nil, err
	}
	return s.materializeWorkout(ctx, workout)
}

// === Helpers ===

func (s *sessionService) fetchOwnedWorkout(ctx context.Context, ownerID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	if workoutID == primitive.NilObjectID {
		return nil, errors.New("workout ID is required")
	}
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.OwnerID != ownerID {
		return nil, ErrWorkoutAccessDenied
	}
	return workout, nil
}

func (s *sessionService) fetchWorkoutExercise(ctx context.Context, workoutID, workoutExerciseID primitive.ObjectID) (*domain.WorkoutExercise, error) {
	if workoutExerciseID == primitive.NilObjectID {
		return nil, errors.New("workout exercise ID is required")
	}
	we, err := s.workoutExerciseRepo.GetByID(ctx, workoutExerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutExerciseNotFound
		}
		return nil, err
	}
	if we.WorkoutID != workoutID {
		return nil, ErrWorkoutExerciseNotFound
	}
	return we, nil
}

func (s *sessionService) findOrCreateExercise(ctx context.Context, ownerID primitive.ObjectID, name string, section domain.Section) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.FindByName(ctx, ownerID, name)
	if err == nil {
		return exercise, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	exercise = &domain.Exercise{OwnerID: ownerID, Name: name, DefaultSection: section}
	if _, err := s.exerciseRepo.Create(ctx, exercise); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// Lost a create race; the other writer's row is the canonical one.
			return s.exerciseRepo.FindByName(ctx, ownerID, name)
		}
		return nil, err
	}
	return exercise, nil
}

// bumpVersion advances the workout's session version token and persists the
// workout row. The token is a unix-ms timestamp, nudged forward when two
// mutations land within the same millisecond so it stays strictly monotonic.
func (s *sessionService) bumpVersion(ctx context.Context, workout *domain.Workout) error {
	v := time.Now().UnixMilli()
	if v <= workout.SessionVersion {
		v = workout.SessionVersion + 1
	}
	workout.SessionVersion = v
	return s.workoutRepo.Update(ctx, workout)
}

// routineLinksRepaired loads a routine's exercise links, repairing order keys
// first if an interrupted reorder left any negative.
func (s *sessionService) routineLinksRepaired(ctx context.Context, routineID primitive.ObjectID) ([]domain.RoutineExercise, error) {
	links, err := s.routineExerciseRepo.GetByRoutineID(ctx, routineID)
	if err != nil {
		return nil, err
	}
	return repairRoutineLinks(ctx, links, s.routineExerciseRepo, routineID)
}

// workoutLinksRepaired is the workout-side counterpart of routineLinksRepaired.
func (s *sessionService) workoutLinksRepaired(ctx context.Context, workoutID primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	snapshots, err := s.workoutExerciseRepo.GetByWorkoutID(ctx, workoutID)
	if err != nil {
		return nil, err
	}
	rows := make([]orderedRow, len(snapshots))
	for i, we := range snapshots {
		rows[i] = orderedRow{ID: we.ID, Order: we.Order}
	}
	if !needsOrderRepair(rows) {
		return snapshots, nil
	}
	log.Printf("WARN: workout %s has negative order keys, repairing", workoutID.Hex())
	repaired, err := repairOrders(ctx, rows, s.workoutExerciseRepo.UpdateOrder)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]domain.WorkoutExercise, len(snapshots))
	for _, we := range snapshots {
		byID[we.ID] = we
	}
	out := make([]domain.WorkoutExercise, len(repaired))
	for i, row := range repaired {
		we := byID[row.ID]
		we.Order = row.Order
		out[i] = we
	}
	return out, nil
}

// materializeWorkout assembles the full session view: snapshots in repaired
// order, each with its merged effective sets.
func (s *sessionService) materializeWorkout(ctx context.Context, workout *domain.Workout) (*MaterializedWorkout, error) {
	snapshots, err := s.workoutLinksRepaired(ctx, workout.ID)
	if err != nil {
		return nil, err
	}
	logged, err := s.loggedSetRepo.GetByWorkoutID(ctx, workout.ID)
	if err != nil {
		return nil, err
	}
	byExercise := make(map[primitive.ObjectID][]domain.LoggedSet, len(snapshots))
	for _, ls := range logged {
		byExercise[ls.WorkoutExerciseID] = append(byExercise[ls.WorkoutExerciseID], ls)
	}

	result := &MaterializedWorkout{Workout: *workout, Exercises: make([]MaterializedExercise, 0, len(snapshots))}
	for _, we := range snapshots {
		var templateSets []domain.TemplateSet
		if we.RoutineExerciseRef != nil {
			templateSets, err = s.templateSetRepo.GetByRoutineExerciseID(ctx, *we.RoutineExerciseRef)
			if err != nil {
				return nil, err
			}
		}
		result.Exercises = append(result.Exercises, MaterializedExercise{
			WorkoutExercise: we,
			Name:            we.EffectiveName(),
			Section:         we.EffectiveSection(),
			Sets:            MaterializeSets(templateSets, byExercise[we.ID]),
		})
	}
	return result, nil
}

// applySetInput copies the caller-supplied performance values onto a row.
// Zero-value inputs for type and unit keep the row's existing values.
func applySetInput(ls *domain.LoggedSet, in SetInput) {
	if in.SetType != "" {
		ls.SetType = in.SetType
	}
	ls.Reps = in.Reps
	ls.TimedDurationSec = in.TimedDurationSec
	ls.Weight = in.Weight
	if in.WeightUnit != "" {
		ls.WeightUnit = in.WeightUnit
	}
	if in.SetVariant != "" {
		ls.SetVariant = in.SetVariant
	}
}
