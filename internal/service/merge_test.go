package service

import (
	"testing"
	"time"

	"repflow/workout-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func templateSet(order int, reps int, weight float64) domain.TemplateSet {
	return domain.TemplateSet{
		ID:         primitive.NewObjectID(),
		Order:      order,
		SetType:    domain.SetTypeReps,
		Reps:       intPtr(reps),
		Weight:     floatPtr(weight),
		WeightUnit: domain.WeightUnitLbs,
	}
}

func TestMaterializeSetsTemplateOnly(t *testing.T) {
	templates := []domain.TemplateSet{
		templateSet(1, 10, 25),
		templateSet(2, 10, 25),
		templateSet(3, 10, 25),
	}

	out := MaterializeSets(templates, nil)

	require.Len(t, out, 3)
	for i, es := range out {
		assert.Equal(t, i+1, es.Position)
		assert.Equal(t, domain.SetStatusDefault, es.Status)
		assert.Equal(t, templates[i].ID, *es.TemplateSetID)
		assert.Nil(t, es.LoggedSetID)
		assert.Equal(t, 10, *es.Reps)
		assert.Equal(t, 25.0, *es.Weight)
	}
	assert.Equal(t, "Set 1", out[0].Name)
	assert.Equal(t, "Set 2", out[1].Name)
	assert.Equal(t, "Set 3", out[2].Name)
}

func TestMaterializeSetsLoggedOverlay(t *testing.T) {
	templates := []domain.TemplateSet{
		templateSet(1, 10, 25),
		templateSet(2, 10, 25),
		templateSet(3, 10, 25),
	}
	ref := templates[1].ID
	logged := []domain.LoggedSet{{
		ID:             primitive.NewObjectID(),
		TemplateSetRef: &ref,
		Status:         domain.SetStatusComplete,
		SetType:        domain.SetTypeReps,
		Reps:           intPtr(8),
		Weight:         floatPtr(45),
		WeightUnit:     domain.WeightUnitLbs,
	}}

	out := MaterializeSets(templates, logged)

	require.Len(t, out, 3)
	// The logged values replace the slot's defaults but the slot keeps its place.
	assert.Equal(t, 2, out[1].Position)
	assert.Equal(t, domain.SetStatusComplete, out[1].Status)
	assert.Equal(t, 8, *out[1].Reps)
	assert.Equal(t, 45.0, *out[1].Weight)
	assert.Equal(t, logged[0].ID, *out[1].LoggedSetID)

	assert.Equal(t, domain.SetStatusDefault, out[0].Status)
	assert.Equal(t, domain.SetStatusDefault, out[2].Status)
	assert.Equal(t, 10, *out[0].Reps)
}

func TestMaterializeSetsOrphansAppendInCreationOrder(t *testing.T) {
	templates := []domain.TemplateSet{
		templateSet(1, 10, 25),
		templateSet(2, 10, 25),
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := domain.LoggedSet{
		ID:        primitive.NewObjectID(),
		Status:    domain.SetStatusComplete,
		SetType:   domain.SetTypeReps,
		Reps:      intPtr(12),
		CreatedAt: base,
	}
	second := domain.LoggedSet{
		ID:        primitive.NewObjectID(),
		Status:    domain.SetStatusComplete,
		SetType:   domain.SetTypeReps,
		Reps:      intPtr(6),
		CreatedAt: base.Add(time.Second),
	}

	out := MaterializeSets(templates, []domain.LoggedSet{first, second})

	require.Len(t, out, 4)
	assert.Equal(t, first.ID, *out[2].LoggedSetID)
	assert.Equal(t, second.ID, *out[3].LoggedSetID)
	assert.Equal(t, 3, out[2].Position)
	assert.Equal(t, 4, out[3].Position)
	assert.Nil(t, out[2].TemplateSetID)
}

func TestMaterializeSetsRefToDeletedTemplateIsOrphan(t *testing.T) {
	templates := []domain.TemplateSet{templateSet(1, 10, 25)}
	goneRef := primitive.NewObjectID()
	logged := []domain.LoggedSet{{
		ID:             primitive.NewObjectID(),
		TemplateSetRef: &goneRef,
		Status:         domain.SetStatusComplete,
		SetType:        domain.SetTypeReps,
		Reps:           intPtr(5),
	}}

	out := MaterializeSets(templates, logged)

	require.Len(t, out, 2)
	assert.Equal(t, logged[0].ID, *out[1].LoggedSetID)
	assert.Equal(t, 2, out[1].Position)
}

func TestMaterializeSetsNamePreservation(t *testing.T) {
	named := templateSet(1, 10, 25)
	named.SetVariant = "Drop Set"
	templates := []domain.TemplateSet{named, templateSet(2, 10, 25)}

	ref := templates[1].ID
	logged := []domain.LoggedSet{{
		ID:             primitive.NewObjectID(),
		TemplateSetRef: &ref,
		Status:         domain.SetStatusComplete,
		SetType:        domain.SetTypeReps,
		SetVariant:     "Burnout",
	}}

	out := MaterializeSets(templates, logged)

	require.Len(t, out, 2)
	// Typed names survive; only empty names receive the positional fallback.
	assert.Equal(t, "Drop Set", out[0].Name)
	assert.Equal(t, "Burnout", out[1].Name)
}

func TestMaterializeSetsDeterministic(t *testing.T) {
	templates := []domain.TemplateSet{
		templateSet(3, 10, 25),
		templateSet(1, 8, 35),
		templateSet(2, 6, 45),
	}
	ref := templates[0].ID
	logged := []domain.LoggedSet{
		{ID: primitive.NewObjectID(), TemplateSetRef: &ref, Status: domain.SetStatusComplete, SetType: domain.SetTypeReps},
		{ID: primitive.NewObjectID(), Status: domain.SetStatusComplete, SetType: domain.SetTypeReps, CreatedAt: time.Now()},
	}

	first := MaterializeSets(templates, logged)
	second := MaterializeSets(templates, logged)

	assert.Equal(t, first, second)
	// Input order of templates is irrelevant; positions come from Order.
	assert.Equal(t, 1, first[0].Position)
	assert.Equal(t, 8, *first[0].Reps)
}

func TestMaterializeSetsEmptyInputs(t *testing.T) {
	assert.Empty(t, MaterializeSets(nil, nil))
}
