package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetStatus is the lifecycle state of a logged set.
// Legal transitions: default -> complete (complete_set),
// complete -> default (undo_set on a persisted row),
// complete -> deleted (undo_set on an ad hoc row).
type SetStatus string

const (
	SetStatusDefault  SetStatus = "default"
	SetStatusComplete SetStatus = "complete"
)

// Workout is one concrete execution instance of (optionally) a Routine.
// RoutineID is nil for unscheduled sessions started from scratch.
type Workout struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID         primitive.ObjectID  `bson:"ownerId" json:"ownerId"`
	RoutineID       *primitive.ObjectID `bson:"routineId,omitempty" json:"routineId,omitempty"`
	Active          bool                `bson:"active" json:"active"`
	ActiveSec       int                 `bson:"activeSec" json:"activeSec"` // Accumulated active time
	RestSec         int                 `bson:"restSec" json:"restSec"`     // Accumulated rest time
	FocusExerciseID *primitive.ObjectID `bson:"focusExerciseId,omitempty" json:"focusExerciseId,omitempty"` // Advisory: last exercise the user touched
	SessionVersion  int64               `bson:"sessionVersion" json:"sessionVersion"`                       // Unix ms, bumped on every mutation
	ShareImageKey   string              `bson:"shareImageKey,omitempty" json:"shareImageKey,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExercise is a snapshot of a RoutineExercise captured at session
// start. Name and Section are copied at that instant so later template edits
// do not retroactively alter a session in progress. The override fields, when
// set, win over the snapshot values (effective value = override ?? snapshot).
type WorkoutExercise struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkoutID          primitive.ObjectID  `bson:"workoutId" json:"workoutId"`
	ExerciseID         primitive.ObjectID  `bson:"exerciseId" json:"exerciseId"`
	RoutineExerciseRef *primitive.ObjectID `bson:"routineExerciseRef,omitempty" json:"routineExerciseRef,omitempty"` // Nil for exercises added ad hoc
	Name               string              `bson:"name" json:"name"`
	Section            Section             `bson:"section" json:"section"`
	NameOverride       *string             `bson:"nameOverride,omitempty" json:"nameOverride,omitempty"`
	SectionOverride    *Section            `bson:"sectionOverride,omitempty" json:"sectionOverride,omitempty"`
	Order              int                 `bson:"order" json:"order"` // Unique within the parent workout
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// EffectiveName resolves the display name (override wins over snapshot).
func (we *WorkoutExercise) EffectiveName() string {
	if we.NameOverride != nil && *we.NameOverride != "" {
		return *we.NameOverride
	}
	return we.Name
}

// EffectiveSection resolves the section (override wins over snapshot).
func (we *WorkoutExercise) EffectiveSection() Section {
	if we.SectionOverride != nil && *we.SectionOverride != "" {
		return *we.SectionOverride
	}
	return we.Section
}

// LoggedSet is the session-level record of one set. TemplateSetRef links it
// back to the TemplateSet it was materialized from; nil means the set was
// added ad hoc during the session. At most one row may exist per
// (workoutId, templateSetRef) pair when the ref is non-nil.
type LoggedSet struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkoutID         primitive.ObjectID  `bson:"workoutId" json:"workoutId"`
	WorkoutExerciseID primitive.ObjectID  `bson:"workoutExerciseId" json:"workoutExerciseId"`
	TemplateSetRef    *primitive.ObjectID `bson:"templateSetRef,omitempty" json:"templateSetRef,omitempty"`
	Status            SetStatus           `bson:"status" json:"status"`
	SetType           SetType             `bson:"setType" json:"setType"`
	Reps              *int                `bson:"reps,omitempty" json:"reps,omitempty"`
	TimedDurationSec  *int                `bson:"timedDurationSec,omitempty" json:"timedDurationSec,omitempty"`
	Weight            *float64            `bson:"weight,omitempty" json:"weight,omitempty"`
	WeightUnit        WeightUnit          `bson:"weightUnit,omitempty" json:"weightUnit,omitempty"`
	SetVariant        string              `bson:"setVariant,omitempty" json:"setVariant,omitempty"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// EffectiveSet is the merged, display-ready view of one set slot. It is
// derived by the merge step and never persisted. Exactly one of LoggedSetID
// or TemplateSetID may be nil, never both.
type EffectiveSet struct {
	LoggedSetID      *primitive.ObjectID `json:"loggedSetId,omitempty"`
	TemplateSetID    *primitive.ObjectID `json:"templateSetId,omitempty"`
	Status           SetStatus           `json:"status"`
	SetType          SetType             `json:"setType"`
	Reps             *int                `json:"reps,omitempty"`
	TimedDurationSec *int                `json:"timedDurationSec,omitempty"`
	Weight           *float64            `json:"weight,omitempty"`
	WeightUnit       WeightUnit          `json:"weightUnit,omitempty"`
	Name             string              `json:"name"` // Never empty after materialization
	Position         int                 `json:"position"`
}
