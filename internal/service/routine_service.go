package service

import (
	"context"
	"errors"
	"log"

	"repflow/workout-app/internal/domain"
	"repflow/workout-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrRoutineNotFound         = errors.New("routine not found")
	ErrRoutineAccessDenied     = errors.New("routine does not belong to this account")
	ErrRoutineExerciseNotFound = errors.New("routine exercise not found")
	ErrTemplateSetNotFound     = errors.New("template set not found")
	ErrRoutineValidation       = errors.New("routine validation failed")
)

// RoutineExerciseDetail is one routine exercise with its resolved definition
// name and ordered template sets.
type RoutineExerciseDetail struct {
	RoutineExercise domain.RoutineExercise `json:"routineExercise"`
	Name            string                 `json:"name"`
	Section         domain.Section         `json:"section"`
	Sets            []domain.TemplateSet   `json:"sets"`
}

// RoutineDetail is a routine with its full ordered exercise list.
type RoutineDetail struct {
	Routine   domain.Routine          `json:"routine"`
	Exercises []RoutineExerciseDetail `json:"exercises"`
}

// RoutineService manages the template side: routine CRUD, template editing,
// and exercise ordering. Sessions never mutate templates except through the
// future-mode add in SessionService.
type RoutineService interface {
	CreateRoutine(ctx context.Context, ownerID primitive.ObjectID, name string) (*domain.Routine, error)
	CopyRoutine(ctx context.Context, ownerID, sourceRoutineID primitive.ObjectID) (*domain.Routine, error)
	ListRoutines(ctx context.Context, ownerID primitive.ObjectID, includeArchived bool) ([]domain.Routine, error)
	GetRoutine(ctx context.Context, ownerID, routineID primitive.ObjectID) (*RoutineDetail, error)
	RenameRoutine(ctx context.Context, ownerID, routineID primitive.ObjectID, name string) (*domain.Routine, error)
	SetArchived(ctx context.Context, ownerID, routineID primitive.ObjectID, archived bool) (*domain.Routine, error)
	DeleteRoutine(ctx context.Context, ownerID, routineID primitive.ObjectID) error
	AddExercise(ctx context.Context, ownerID, routineID primitive.ObjectID, input ExerciseInput) (*RoutineDetail, error)
	UpdateTemplateSet(ctx context.Context, ownerID, templateSetID primitive.ObjectID, in SetInput) (*domain.TemplateSet, error)
	DeleteTemplateSet(ctx context.Context, ownerID, templateSetID primitive.ObjectID) error
	ReorderExercises(ctx context.Context, ownerID, routineID primitive.ObjectID, orderedIDs []primitive.ObjectID) (*RoutineDetail, error)
}

// routineService implements the RoutineService interface.
type routineService struct {
	routineRepo         repository.RoutineRepository
	routineExerciseRepo repository.RoutineExerciseRepository
	templateSetRepo     repository.TemplateSetRepository
	exerciseRepo        repository.ExerciseRepository
}

// NewRoutineService creates a new instance of routineService.
func NewRoutineService(
	routineRepo repository.RoutineRepository,
	routineExerciseRepo repository.RoutineExerciseRepository,
	templateSetRepo repository.TemplateSetRepository,
	exerciseRepo repository.ExerciseRepository,
) RoutineService {
	return &routineService{
		routineRepo:         routineRepo,
		routineExerciseRepo: routineExerciseRepo,
		templateSetRepo:     templateSetRepo,
		exerciseRepo:        exerciseRepo,
	}
}

// CreateRoutine creates an empty routine.
func (s *routineService) CreateRoutine(ctx context.Context, ownerID primitive.ObjectID, name string) (*domain.Routine, error) {
	if name == "" {
		return nil, ErrRoutineValidation
	}
	routine := &domain.Routine{OwnerID: ownerID, Name: name}
	if _, err := s.routineRepo.Create(ctx, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// CopyRoutine duplicates another routine into this account, recording the
// source in the sharedFromId provenance field. Exercise definitions are
// resolved (or created) within the destination account by name.
func (s *routineService) CopyRoutine(ctx context.Context, ownerID, sourceRoutineID primitive.ObjectID) (*domain.Routine, error) {
	source, err := s.routineRepo.GetByID(ctx, sourceRoutineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, err
	}

	sourceID := source.ID
	copyRoutine := &domain.Routine{OwnerID: ownerID, Name: source.Name, SharedFromID: &sourceID}
	if _, err := s.routineRepo.Create(ctx, copyRoutine); err != nil {
		return nil, err
	}

	links, err := s.linksRepaired(ctx, sourceRoutineID)
	if err != nil {
		return nil, err
	}
	for i, link := range links {
		sourceExercise, err := s.exerciseRepo.GetByID(ctx, link.ExerciseID)
		if err != nil {
			return nil, err
		}
		exercise, err := s.findOrCreateExercise(ctx, ownerID, sourceExercise.Name, sourceExercise.DefaultSection)
		if err != nil {
			return nil, err
		}
		newLink := &domain.RoutineExercise{
			RoutineID:  copyRoutine.ID,
			ExerciseID: exercise.ID,
			Order:      i + 1,
		}
		if _, err := s.routineExerciseRepo.Create(ctx, newLink); err != nil {
			return nil, err
		}
		sets, err := s.templateSetRepo.GetByRoutineExerciseID(ctx, link.ID)
		if err != nil {
			return nil, err
		}
		for _, ts := range sets {
			clone := ts
			clone.ID = primitive.NilObjectID
			clone.RoutineExerciseID = newLink.ID
			if _, err := s.templateSetRepo.Create(ctx, &clone); err != nil {
				return nil, err
			}
		}
	}
	return copyRoutine, nil
}

// ListRoutines returns the account's routines.
func (s *routineService) ListRoutines(ctx context.Context, ownerID primitive.ObjectID, includeArchived bool) ([]domain.Routine, error) {
	return s.routineRepo.GetByOwnerID(ctx, ownerID, includeArchived)
}

// GetRoutine returns the routine with its ordered exercises and sets.
func (s *routineService) GetRoutine(ctx context.Context, ownerID, routineID primitive.ObjectID) (*RoutineDetail, error) {
	routine, err := s.fetchOwnedRoutine(ctx, ownerID, routineID)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, routine)
}

// RenameRoutine changes the routine's display name. Sessions already started
// from it keep their snapshot names; renames never propagate forward.
func (s *routineService) RenameRoutine(ctx context.Context, ownerID, routineID primitive.ObjectID, name string) (*domain.Routine, error) {
	if name == "" {
		return nil, ErrRoutineValidation
	}
	routine, err := s.fetchOwnedRoutine(ctx, ownerID, routineID)
	if err != nil {
		return nil, err
	}
	routine.Name = name
	if err := s.routineRepo.Update(ctx, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// SetArchived flips the soft-delete flag.
func (s *routineService) SetArchived(ctx context.Context, ownerID, routineID primitive.ObjectID, archived bool) (*domain.Routine, error) {
	routine, err := s.fetchOwnedRoutine(ctx, ownerID, routineID)
	if err != nil {
		return nil, err
	}
	routine.Archived = archived
	if err := s.routineRepo.Update(ctx, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// DeleteRoutine removes the routine and its children. Child cleanup is best
// effort: the routine row goes first, orphaned links merely waste space and
// are invisible once the parent is gone.
func (s *routineService) DeleteRoutine(ctx context.Context, ownerID, routineID primitive.ObjectID) error {
	if _, err := s.fetchOwnedRoutine(ctx, ownerID, routineID); err != nil {
		return err
	}
	links, err := s.routineExerciseRepo.GetByRoutineID(ctx, routineID)
	if err != nil {
		return err
	}
	if err := s.routineRepo.Delete(ctx, routineID, ownerID); err != nil {
		return err
	}
	for _, link := range links {
		sets, err := s.templateSetRepo.GetByRoutineExerciseID(ctx, link.ID)
		if err != nil {
			log.Printf("WARN: listing sets of routine exercise %s during delete: %v", link.ID.Hex(), err)
			continue
		}
		for _, ts := range sets {
			if err := s.templateSetRepo.Delete(ctx, ts.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				log.Printf("WARN: deleting template set %s: %v", ts.ID.Hex(), err)
			}
		}
		if err := s.routineExerciseRepo.Delete(ctx, link.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Printf("WARN: deleting routine exercise %s: %v", link.ID.Hex(), err)
		}
	}
	return nil
}

// AddExercise appends an exercise (found-or-created by name) with its
// template sets to the routine. At least one set is always created; a
// routine exercise with zero sets is never a stored fact.
func (s *routineService) AddExercise(ctx context.Context, ownerID, routineID primitive.ObjectID, input ExerciseInput) (*RoutineDetail, error) {
	if input.Name == "" {
		return nil, ErrRoutineValidation
	}
	routine, err := s.fetchOwnedRoutine(ctx, ownerID, routineID)
	if err != nil {
		return nil, err
	}
	exercise, err := s.findOrCreateExercise(ctx, ownerID, input.Name, input.Section)
	if err != nil {
		return nil, err
	}

	maxOrder, err := s.routineExerciseRepo.MaxOrder(ctx, routineID)
	if err != nil {
		return nil, err
	}
	link := &domain.RoutineExercise{
		RoutineID:  routineID,
		ExerciseID: exercise.ID,
		Order:      maxOrder + 1,
	}
	if _, err := s.routineExerciseRepo.Create(ctx, link); err != nil {
		return nil, err
	}

	sets := input.Sets
	if len(sets) == 0 {
		sets = []SetInput{{SetType: domain.SetTypeReps}}
	}
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
			return nil, err
		}
	}
	return s.buildDetail(ctx, routine)
}

// UpdateTemplateSet rewrites one template set's prescription.
func (s *routineService) UpdateTemplateSet(ctx context.Context, ownerID, templateSetID primitive.ObjectID, in SetInput) (*domain.TemplateSet, error) {
	ts, err := s.fetchOwnedTemplateSet(ctx, ownerID, templateSetID)
	if err != nil {
		return nil, err
	}
	if in.SetType != "" {
		ts.SetType = in.SetType
	}
	ts.Reps = in.Reps
	ts.TimedDurationSec = in.TimedDurationSec
	ts.Weight = in.Weight
	if in.WeightUnit != "" {
		ts.WeightUnit = in.WeightUnit
	}
	if in.SetVariant != "" {
		ts.SetVariant = in.SetVariant
	}
	if err := s.templateSetRepo.Update(ctx, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// DeleteTemplateSet removes one set slot. Deleting the last set of a routine
// exercise deletes the routine exercise itself — a zero-set exercise is a
// transient input that collapses to "exercise removed", never a stored state.
func (s *routineService) DeleteTemplateSet(ctx context.Context, ownerID, templateSetID primitive.ObjectID) error {
	ts, err := s.fetchOwnedTemplateSet(ctx, ownerID, templateSetID)
	if err != nil {
		return err
	}
	if err := s.templateSetRepo.Delete(ctx, ts.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateSetNotFound
		}
		return err
	}
	remaining, err := s.templateSetRepo.CountByRoutineExerciseID(ctx, ts.RoutineExerciseID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := s.routineExerciseRepo.Delete(ctx, ts.RoutineExerciseID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return nil
}

// ReorderExercises applies a settled permutation of the routine's exercises
// via the two-phase order rewrite.
func (s *routineService) ReorderExercises(ctx context.Context, ownerID, routineID primitive.ObjectID, orderedIDs []primitive.ObjectID) (*RoutineDetail, error) {
	routine, err := s.fetchOwnedRoutine(ctx, ownerID, routineID)
	if err != nil {
		return nil, err
	}
	links, err := s.linksRepaired(ctx, routineID)
	if err != nil {
		return nil, err
	}
	rows := make([]orderedRow, len(links))
	for i, link := range links {
		rows[i] = orderedRow{ID: link.ID, Order: link.Order}
	}
	if err := applyReorder(ctx, rows, orderedIDs, s.routineExerciseRepo.UpdateOrder); err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, routine)
}

// === Helpers ===

func (s *routineService) fetchOwnedRoutine(ctx context.Context, ownerID, routineID primitive.ObjectID) (*domain.Routine, error) {
	if routineID == primitive.NilObjectID {
		return nil, errors.New("routine ID is required")
	}
	routine, err := s.routineRepo.GetByID(ctx, routineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, err
	}
	if routine.OwnerID != ownerID {
		return nil, ErrRoutineAccessDenied
	}
	return routine, nil
}

// fetchOwnedTemplateSet walks set -> routine exercise -> routine to verify
// the actor owns the template the set belongs to.
func (s *routineService) fetchOwnedTemplateSet(ctx context.Context, ownerID, templateSetID primitive.ObjectID) (*domain.TemplateSet, error) {
	if templateSetID == primitive.NilObjectID {
		return nil, errors.New("template set ID is required")
	}
	ts, err := s.templateSetRepo.GetByID(ctx, templateSetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateSetNotFound
		}
		return nil, err
	}
	link, err := s.routineExerciseRepo.GetByID(ctx, ts.RoutineExerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoutineExerciseNotFound
		}
		return nil, err
	}
	if _, err := s.fetchOwnedRoutine(ctx, ownerID, link.RoutineID); err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *routineService) findOrCreateExercise(ctx context.Context, ownerID primitive.ObjectID, name string, section domain.Section) (*domain.Exercise, error) {
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
			return s.exerciseRepo.FindByName(ctx, ownerID, name)
		}
		return nil, err
	}
	return exercise, nil
}

func (s *routineService) linksRepaired(ctx context.Context, routineID primitive.ObjectID) ([]domain.RoutineExercise, error) {
	links, err := s.routineExerciseRepo.GetByRoutineID(ctx, routineID)
	if err != nil {
		return nil, err
	}
	return repairRoutineLinks(ctx, links, s.routineExerciseRepo, routineID)
}

func (s *routineService) buildDetail(ctx context.Context, routine *domain.Routine) (*RoutineDetail, error) {
	links, err := s.linksRepaired(ctx, routine.ID)
	if err != nil {
		return nil, err
	}
	detail := &RoutineDetail{Routine: *routine, Exercises: make([]RoutineExerciseDetail, 0, len(links))}
	for _, link := range links {
		exercise, err := s.exerciseRepo.GetByID(ctx, link.ExerciseID)
		if err != nil {
			return nil, err
		}
		sets, err := s.templateSetRepo.GetByRoutineExerciseID(ctx, link.ID)
		if err != nil {
			return nil, err
		}
		detail.Exercises = append(detail.Exercises, RoutineExerciseDetail{
			RoutineExercise: link,
			Name:            exercise.Name,
			Section:         exercise.DefaultSection,
			Sets:            sets,
		})
	}
	return detail, nil
}

// repairRoutineLinks rebuilds a dense ordering for a routine's exercise links
// when an interrupted reorder left negative keys behind. Shared by the
// routine and session services — both read routine links.
func repairRoutineLinks(ctx context.Context, links []domain.RoutineExercise, repo repository.RoutineExerciseRepository, routineID primitive.ObjectID) ([]domain.RoutineExercise, error) {
	rows := make([]orderedRow, len(links))
	for i, link := range links {
		rows[i] = orderedRow{ID: link.ID, Order: link.Order}
	}
	if !needsOrderRepair(rows) {
		return links, nil
	}
	log.Printf("WARN: routine %s has negative order keys, repairing", routineID.Hex())
	repaired, err := repairOrders(ctx, rows, repo.UpdateOrder)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]domain.RoutineExercise, len(links))
	for _, link := range links {
		byID[link.ID] = link
	}
	out := make([]domain.RoutineExercise, len(repaired))
	for i, row := range repaired {
		link := byID[row.ID]
		link.Order = row.Order
		out[i] = link
	}
	return out, nil
}
