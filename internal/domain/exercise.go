package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Section identifies the phase of a routine or workout an exercise belongs to.
type Section string

const (
	SectionWarmup   Section = "warmup"
	SectionTraining Section = "training"
	SectionCooldown Section = "cooldown"
)

// Exercise is a named movement definition owned by an account. Routines and
// workouts reference it; lookups match the name case-insensitively so
// "bench press" and "Bench Press" resolve to the same definition.
type Exercise struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID        primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Name           string             `bson:"name" json:"name"`
	DefaultSection Section            `bson:"defaultSection" json:"defaultSection"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
