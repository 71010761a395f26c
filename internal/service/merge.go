package service

import (
	"fmt"
	"sort"

	"repflow/workout-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaterializeSets merges the template-defined sets of one exercise with the
// session's logged sets into a single ordered, display-ready list.
//
// Template sets are walked in stored order; a logged set whose templateSetRef
// matches a slot supplies that slot's status and performance values while the
// slot keeps the template position. Logged sets with no matching template
// (added ad hoc during the session) are appended after all template-derived
// entries, in creation order. Entries still lacking a display name get
// "Set N" from their 1-based position; a name the user typed is never
// replaced. The result is a pure function of its inputs: calling it twice on
// unchanged inputs yields an identical list.
func MaterializeSets(templateSets []domain.TemplateSet, loggedSets []domain.LoggedSet) []domain.EffectiveSet {
	templates := make([]domain.TemplateSet, len(templateSets))
	copy(templates, templateSets)
	sort.SliceStable(templates, func(i, j int) bool { return templates[i].Order < templates[j].Order })

	// At most one logged set per template slot (enforced by index); keep the
	// most recent if the store ever holds more.
	byRef := make(map[primitive.ObjectID]domain.LoggedSet, len(loggedSets))
	for _, ls := range loggedSets {
		if ls.TemplateSetRef == nil {
			continue
		}
		prev, ok := byRef[*ls.TemplateSetRef]
		if !ok || ls.CreatedAt.After(prev.CreatedAt) {
			byRef[*ls.TemplateSetRef] = ls
		}
	}

	matched := make(map[primitive.ObjectID]bool, len(templates))
	out := make([]domain.EffectiveSet, 0, len(templates)+len(loggedSets))
	maxOrder := 0

	for _, ts := range templates {
		if ts.Order > maxOrder {
			maxOrder = ts.Order
		}
		tsID := ts.ID
		es := domain.EffectiveSet{
			TemplateSetID:    &tsID,
			Status:           domain.SetStatusDefault,
			SetType:          ts.SetType,
			Reps:             ts.Reps,
			TimedDurationSec: ts.TimedDurationSec,
			Weight:           ts.Weight,
			WeightUnit:       ts.WeightUnit,
			Name:             ts.SetVariant,
			Position:         ts.Order,
		}
		if ls, ok := byRef[tsID]; ok {
			matched[tsID] = true
			lsID := ls.ID
			es.LoggedSetID = &lsID
			es.Status = ls.Status
			es.SetType = ls.SetType
			es.Reps = ls.Reps
			es.TimedDurationSec = ls.TimedDurationSec
			es.Weight = ls.Weight
			es.WeightUnit = ls.WeightUnit
			if ls.SetVariant != "" {
				es.Name = ls.SetVariant
			}
		}
		out = append(out, es)
	}

	// Orphans: logged sets whose template slot no longer exists, or that
	// never had one. Appended after every template-derived entry, in
	// creation order.
	next := maxOrder
	for _, ls := range loggedSets {
		if ls.TemplateSetRef != nil {
			if matched[*ls.TemplateSetRef] {
				continue
			}
			if kept, ok := byRef[*ls.TemplateSetRef]; ok && kept.ID != ls.ID {
				continue
			}
		}
		next++
		lsID := ls.ID
		out = append(out, domain.EffectiveSet{
			LoggedSetID:      &lsID,
			Status:           ls.Status,
			SetType:          ls.SetType,
			Reps:             ls.Reps,
			TimedDurationSec: ls.TimedDurationSec,
			Weight:           ls.Weight,
			WeightUnit:       ls.WeightUnit,
			Name:             ls.SetVariant,
			Position:         next,
		})
	}

	// Sort by position, not by name or lookup order, so repeated
	// materialization is deterministic and renaming never moves a set.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })

	for i := range out {
		if out[i].Name == "" {
			out[i].Name = fmt.Sprintf("Set %d", i+1)
		}
	}
	return out
}
