package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetType distinguishes rep-counted sets from duration-based ones.
type SetType string

const (
	SetTypeReps  SetType = "reps"
	SetTypeTimed SetType = "timed"
)

// WeightUnit is the unit the weight field is expressed in.
type WeightUnit string

const (
	WeightUnitLbs WeightUnit = "lbs"
	WeightUnitKg  WeightUnit = "kg"
)

// Routine is a reusable, ordered exercise template.
type Routine struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID      primitive.ObjectID  `bson:"ownerId" json:"ownerId"`
	Name         string              `bson:"name" json:"name"`
	SharedFromID *primitive.ObjectID `bson:"sharedFromId,omitempty" json:"sharedFromId,omitempty"` // Provenance when copied from another account's routine
	Archived     bool                `bson:"archived" json:"archived"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// RoutineExercise links an Exercise into a Routine at a position.
// Order is unique within the parent routine (enforced by index).
// A RoutineExercise with zero template sets is invalid; deleting the last
// set deletes this link as well.
type RoutineExercise struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoutineID  primitive.ObjectID `bson:"routineId" json:"routineId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Order      int                `bson:"order" json:"order"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TemplateSet is a routine-level default prescription for one set slot.
// Order is unique within the parent RoutineExercise.
type TemplateSet struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoutineExerciseID primitive.ObjectID `bson:"routineExerciseId" json:"routineExerciseId"`
	Order             int                `bson:"order" json:"order"`
	SetType           SetType            `bson:"setType" json:"setType"`
	Reps              *int               `bson:"reps,omitempty" json:"reps,omitempty"`
	TimedDurationSec  *int               `bson:"timedDurationSec,omitempty" json:"timedDurationSec,omitempty"`
	Weight            *float64           `bson:"weight,omitempty" json:"weight,omitempty"`
	WeightUnit        WeightUnit         `bson:"weightUnit,omitempty" json:"weightUnit,omitempty"`
	SetVariant        string             `bson:"setVariant,omitempty" json:"setVariant,omitempty"` // Display name, e.g. "Set 1"
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
