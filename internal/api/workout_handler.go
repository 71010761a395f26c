package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"repflow/workout-app/internal/domain"
	"repflow/workout-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action names accepted by the multiplexed session endpoint.
const (
	ActionStartWorkout      = "start_workout"
	ActionCompleteSet       = "complete_set"
	ActionUndoSet           = "undo_set"
	ActionAddExerciseToday  = "add_exercise_today"
	ActionAddExerciseFuture = "add_exercise_future"
	ActionUpdateFocus       = "update_focus"
)

// WorkoutHandler holds the session engine dependencies.
type WorkoutHandler struct {
	sessionService service.SessionService
	shareService   service.ShareService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(sessionService service.SessionService, shareService service.ShareService) *WorkoutHandler {
	return &WorkoutHandler{sessionService: sessionService, shareService: shareService}
}

// --- Request/Response Structs ---

// ActionRequest is the multiplexed engine envelope: one action name plus an
// action-specific payload.
type ActionRequest struct {
	Action  string          `json:"action" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

type startWorkoutPayload struct {
	RoutineID *string `json:"routineId"`
}

type setActionPayload struct {
	WorkoutID         string           `json:"workoutId"`
	WorkoutExerciseID string           `json:"workoutExerciseId"`
	Set               SetConfigRequest `json:"set"`
}

type addExercisePayload struct {
	WorkoutID string                `json:"workoutId"`
	Exercise  ExerciseConfigRequest `json:"exercise"`
}

type updateFocusPayload struct {
	WorkoutID         string `json:"workoutId"`
	WorkoutExerciseID string `json:"workoutExerciseId"`
}

// SetConfigRequest describes one set in a request payload.
type SetConfigRequest struct {
	ID               *string  `json:"id,omitempty"`
	TemplateSetRef   *string  `json:"templateSetRef,omitempty"`
	SetType          string   `json:"setType,omitempty"`
	Reps             *int     `json:"reps,omitempty"`
	TimedDurationSec *int     `json:"timedDurationSec,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
	WeightUnit       string   `json:"weightUnit,omitempty"`
	SetVariant       string   `json:"setVariant,omitempty"`
}

// ExerciseConfigRequest describes an exercise to add mid-session.
type ExerciseConfigRequest struct {
	Name    string             `json:"name"`
	Section string             `json:"section,omitempty"`
	Sets    []SetConfigRequest `json:"sets,omitempty"`
}

// ReorderRequest carries the settled permutation of exercise IDs. The client
// debounces drag positions; only the final order reaches the server.
type ReorderRequest struct {
	OrderedIDs []string `json:"orderedIds" binding:"required"`
}

// ShareImageRequest asks for a presigned upload URL.
type ShareImageRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// ActionResponse is the envelope every engine response uses. Callers compare
// SessionVersion tokens to discard stale concurrent responses.
type ActionResponse struct {
	SessionVersion int64                        `json:"sessionVersion"`
	Workout        *service.MaterializedWorkout `json:"workout,omitempty"`
}

// setOperation abstracts over CompleteSet and UndoSet, which share a payload shape.
type setOperation func(ctx context.Context, ownerID, workoutID, workoutExerciseID primitive.ObjectID, set service.SetInput) (*service.MaterializedWorkout, error)

// --- Handler Methods ---

// HandleAction dispatches the multiplexed { action, payload } engine endpoint.
func (h *WorkoutHandler) HandleAction(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	switch req.Action {
	case ActionStartWorkout:
		h.startWorkout(c, owner, req.Payload)
	case ActionCompleteSet:
		h.setAction(c, owner, req.Payload, h.sessionService.CompleteSet)
	case ActionUndoSet:
		h.setAction(c, owner, req.Payload, h.sessionService.UndoSet)
	case ActionAddExerciseToday:
		h.addExercise(c, owner, req.Payload, service.AddModeToday)
	case ActionAddExerciseFuture:
		h.addExercise(c, owner, req.Payload, service.AddModeFuture)
	case ActionUpdateFocus:
		h.updateFocus(c, owner, req.Payload)
	default:
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Unknown action %q", req.Action))
	}
}

func (h *WorkoutHandler) startWorkout(c *gin.Context, owner primitive.ObjectID, raw json.RawMessage) {
	var payload startWorkoutPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			abortWithError(c, http.StatusBadRequest, "Malformed start_workout payload")
			return
		}
	}
	var routineID *primitive.ObjectID
	if payload.RoutineID != nil {
		id, err := primitive.ObjectIDFromHex(*payload.RoutineID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid routine ID format")
			return
		}
		routineID = &id
	}

	workout, err := h.sessionService.StartSession(c.Request.Context(), owner, routineID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{SessionVersion: workout.Workout.SessionVersion, Workout: workout})
}

func (h *WorkoutHandler) setAction(c *gin.Context, owner primitive.ObjectID, raw json.RawMessage, op setOperation) {
	var payload setActionPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.WorkoutID == "" || payload.WorkoutExerciseID == "" {
		abortWithError(c, http.StatusBadRequest, "Payload requires workoutId and workoutExerciseId")
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(payload.WorkoutID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(payload.WorkoutExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout exercise ID format")
		return
	}
	set, err := mapSetConfig(payload.Set)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	workout, err := op(c.Request.Context(), owner, workoutID, exerciseID, set)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{SessionVersion: workout.Workout.SessionVersion, Workout: workout})
}

func (h *WorkoutHandler) addExercise(c *gin.Context, owner primitive.ObjectID, raw json.RawMessage, mode service.AddMode) {
	var payload addExercisePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.WorkoutID == "" || payload.Exercise.Name == "" {
		abortWithError(c, http.StatusBadRequest, "Payload requires workoutId and exercise.name")
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(payload.WorkoutID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}
	input, err := mapExerciseConfig(payload.Exercise)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	workout, err := h.sessionService.AddExercise(c.Request.Context(), owner, workoutID, input, mode)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{SessionVersion: workout.Workout.SessionVersion, Workout: workout})
}

func (h *WorkoutHandler) updateFocus(c *gin.Context, owner primitive.ObjectID, raw json.RawMessage) {
	var payload updateFocusPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.WorkoutID == "" || payload.WorkoutExerciseID == "" {
		abortWithError(c, http.StatusBadRequest, "Payload requires workoutId and workoutExerciseId")
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(payload.WorkoutID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(payload.WorkoutExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout exercise ID format")
		return
	}

	version, err := h.sessionService.UpdateFocus(c.Request.Context(), owner, workoutID, exerciseID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{SessionVersion: version})
}

// GetWorkout returns the materialized view of one workout.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}

	workout, err := h.sessionService.GetWorkout(c.Request.Context(), owner, workoutID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{SessionVersion: workout.Workout.SessionVersion, Workout: workout})
}

// GetActiveWorkout returns the account's active session, if any.
func (h *WorkoutHandler) GetActiveWorkout(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}

	workout, err := h.sessionService.GetActiveWorkout(c.Request.Context(), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{SessionVersion: workout.Workout.SessionVersion, Workout: workout})
}

// OverrideExerciseRequest carries session-scoped display overrides. A null
// field clears the override so the snapshot value shows through.
type OverrideExerciseRequest struct {
	NameOverride    *string `json:"nameOverride"`
	SectionOverride *string `json:"sectionOverride"`
}

// OverrideExercise renames or re-sections one exercise within this workout only.
func (h *WorkoutHandler) OverrideExercise(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("exerciseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout exercise ID format")
		return
	}
	var req OverrideExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	var sectionOverride *domain.Section
	if req.SectionOverride != nil {
		switch *req.SectionOverride {
		case string(domain.SectionWarmup), string(domain.SectionTraining), string(domain.SectionCooldown):
			s := domain.Section(*req.SectionOverride)
			sectionOverride = &s
		default:
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("invalid section %q", *req.SectionOverride))
			return
		}
	}

	workout, err := h.sessionService.OverrideExercise(c.Request.Context(), owner, workoutID, exerciseID, req.NameOverride, sectionOverride)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{SessionVersion: workout.Workout.SessionVersion, Workout: workout})
}

// ReorderExercises applies the settled exercise permutation to a workout.
func (h *WorkoutHandler) ReorderExercises(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	orderedIDs, err := mapObjectIDs(req.OrderedIDs)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	workout, err := h.sessionService.ReorderExercises(c.Request.Context(), owner, workoutID, orderedIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{SessionVersion: workout.Workout.SessionVersion, Workout: workout})
}

// RequestShareImage issues a presigned upload URL for a workout summary image.
func (h *WorkoutHandler) RequestShareImage(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}
	var req ShareImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	upload, err := h.shareService.RequestShareImageURL(c.Request.Context(), owner, workoutID, req.ContentType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// GetShareImage returns a temporary download URL for the uploaded image.
func (h *WorkoutHandler) GetShareImage(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}
	workoutID, err := primitive.ObjectIDFromHex(c.Param("workoutId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format")
		return
	}

	url, err := h.shareService.GetShareImageURL(c.Request.Context(), owner, workoutID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// --- Mapping & error helpers ---

func mapSetConfig(req SetConfigRequest) (service.SetInput, error) {
	var in service.SetInput
	if req.ID != nil {
		id, err := primitive.ObjectIDFromHex(*req.ID)
		if err != nil {
			return in, errors.New("invalid set ID format")
		}
		in.ID = &id
	}
	if req.TemplateSetRef != nil {
		ref, err := primitive.ObjectIDFromHex(*req.TemplateSetRef)
		if err != nil {
			return in, errors.New("invalid template set reference format")
		}
		in.TemplateSetRef = &ref
	}
	switch req.SetType {
	case "", string(domain.SetTypeReps), string(domain.SetTypeTimed):
		in.SetType = domain.SetType(req.SetType)
	default:
		return in, fmt.Errorf("invalid set type %q", req.SetType)
	}
	switch req.WeightUnit {
	case "", string(domain.WeightUnitLbs), string(domain.WeightUnitKg):
		in.WeightUnit = domain.WeightUnit(req.WeightUnit)
	default:
		return in, fmt.Errorf("invalid weight unit %q", req.WeightUnit)
	}
	in.Reps = req.Reps
	in.TimedDurationSec = req.TimedDurationSec
	in.Weight = req.Weight
	in.SetVariant = req.SetVariant
	return in, nil
}

func mapExerciseConfig(req ExerciseConfigRequest) (service.ExerciseInput, error) {
	input := service.ExerciseInput{Name: req.Name}
	switch req.Section {
	case "", string(domain.SectionWarmup), string(domain.SectionTraining), string(domain.SectionCooldown):
		input.Section = domain.Section(req.Section)
	default:
		return input, fmt.Errorf("invalid section %q", req.Section)
	}
	for _, sc := range req.Sets {
		set, err := mapSetConfig(sc)
		if err != nil {
			return input, err
		}
		input.Sets = append(input.Sets, set)
	}
	return input, nil
}

func mapObjectIDs(hexIDs []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, len(hexIDs))
	for i, s := range hexIDs {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, fmt.Errorf("invalid ID format at position %d", i)
		}
		ids[i] = id
	}
	return ids, nil
}

// respondError maps service errors onto HTTP status codes.
func (h *WorkoutHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrWorkoutExerciseNotFound),
		errors.Is(err, service.ErrSetNotFound),
		errors.Is(err, service.ErrRoutineNotFound),
		errors.Is(err, service.ErrNoActiveWorkout),
		errors.Is(err, service.ErrShareImageMissing):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrWorkoutAccessDenied),
		errors.Is(err, service.ErrRoutineAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSetIdentityMissing),
		errors.Is(err, service.ErrReorderIDMismatch),
		errors.Is(err, service.ErrShareContentType):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Operation failed.")
	}
}
