package api

import (
	"errors"
	"fmt"
	"net/http"

	"repflow/workout-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoutineHandler holds the routine service dependency.
type RoutineHandler struct {
	routineService service.RoutineService
}

// NewRoutineHandler creates a new RoutineHandler.
func NewRoutineHandler(routineService service.RoutineService) *RoutineHandler {
	return &RoutineHandler{routineService: routineService}
}

// --- Request/Response Structs ---

type CreateRoutineRequest struct {
	Name string `json:"name" binding:"required"`
}

type RenameRoutineRequest struct {
	Name string `json:"name" binding:"required"`
}

type ArchiveRoutineRequest struct {
	Archived bool `json:"archived"`
}

type CopyRoutineRequest struct {
	SourceRoutineID string `json:"sourceRoutineId" binding:"required"`
}

// --- Handler Methods ---

// CreateRoutine creates an empty routine for the authenticated account.
func (h *RoutineHandler) CreateRoutine(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}
	var req CreateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	routine, err := h.routineService.CreateRoutine(c.Request.Context(), owner, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, routine)
}

// CopyRoutine duplicates another account's routine into this one.
func (h *RoutineHandler) CopyRoutine(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}
	var req CopyRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	sourceID, err := primitive.ObjectIDFromHex(req.SourceRoutineID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid source routine ID format")
		return
	}

	routine, err := h.routineService.CopyRoutine(c.Request.Context(), owner, sourceID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, routine)
}

// ListRoutines returns the account's routines. Archived routines are included
// only with ?includeArchived=true.
func (h *RoutineHandler) ListRoutines(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}
	includeArchived := c.Query("includeArchived") == "true"

	routines, err := h.routineService.ListRoutines(c.Request.Context(), owner, includeArchived)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, routines)
}

// GetRoutine returns one routine with its ordered exercises and template sets.
func (h *RoutineHandler) GetRoutine(c *gin.Context) {
	owner, routineID, ok := h.ownerAndRoutineID(c)
	if !ok {
		return
	}

	detail, err := h.routineService.GetRoutine(c.Request.Context(), owner, routineID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// RenameRoutine changes the routine's display name.
func (h *RoutineHandler) RenameRoutine(c *gin.Context) {
	owner, routineID, ok := h.ownerAndRoutineID(c)
	if !ok {
		return
	}
	var req RenameRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	routine, err := h.routineService.RenameRoutine(c.Request.Context(), owner, routineID, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, routine)
}

// ArchiveRoutine flips the soft-delete flag.
func (h *RoutineHandler) ArchiveRoutine(c *gin.Context) {
	owner, routineID, ok := h.ownerAndRoutineID(c)
	if !ok {
		return
	}
	var req ArchiveRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	routine, err := h.routineService.SetArchived(c.Request.Context(), owner, routineID, req.Archived)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, routine)
}

// DeleteRoutine removes a routine and its template children.
func (h *RoutineHandler) DeleteRoutine(c *gin.Context) {
	owner, routineID, ok := h.ownerAndRoutineID(c)
	if !ok {
		return
	}

	if err := h.routineService.DeleteRoutine(c.Request.Context(), owner, routineID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddExercise appends an exercise with its template sets to a routine.
func (h *RoutineHandler) AddExercise(c *gin.Context) {
	owner, routineID, ok := h.ownerAndRoutineID(c)
	if !ok {
		return
	}
	var req ExerciseConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	input, err := mapExerciseConfig(req)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.routineService.AddExercise(c.Request.Context(), owner, routineID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// UpdateTemplateSet rewrites one template set's prescription.
func (h *RoutineHandler) UpdateTemplateSet(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}
	setID, err := primitive.ObjectIDFromHex(c.Param("setId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid template set ID format")
		return
	}
	var req SetConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	in, err := mapSetConfig(req)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	ts, err := h.routineService.UpdateTemplateSet(c.Request.Context(), owner, setID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

// DeleteTemplateSet removes a set slot; the last set of an exercise removes
// the exercise as well.
func (h *RoutineHandler) DeleteTemplateSet(c *gin.Context) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return
	}
	setID, err := primitive.ObjectIDFromHex(c.Param("setId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid template set ID format")
		return
	}

	if err := h.routineService.DeleteTemplateSet(c.Request.Context(), owner, setID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReorderExercises applies the settled exercise permutation to a routine.
func (h *RoutineHandler) ReorderExercises(c *gin.Context) {
	owner, routineID, ok := h.ownerAndRoutineID(c)
	if !ok {
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

	detail, err := h.routineService.ReorderExercises(c.Request.Context(), owner, routineID, orderedIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// --- Helpers ---

func (h *RoutineHandler) ownerAndRoutineID(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	owner, err := actorID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify account from token.")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	routineID, err := primitive.ObjectIDFromHex(c.Param("routineId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid routine ID format")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return owner, routineID, true
}

func (h *RoutineHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoutineNotFound),
		errors.Is(err, service.ErrRoutineExerciseNotFound),
		errors.Is(err, service.ErrTemplateSetNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrRoutineAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrRoutineValidation),
		errors.Is(err, service.ErrReorderIDMismatch):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Operation failed.")
	}
}
