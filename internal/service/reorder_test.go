package service

import (
	"context"
	"testing"

	"repflow/workout-app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// orderStore mimics the store's unique (container, order) index: any write
// that would duplicate a live order value fails, exactly like Mongo would.
type orderStore struct {
	orders map[primitive.ObjectID]int
	writes int
}

func newOrderStore(rows []orderedRow) *orderStore {
	s := &orderStore{orders: make(map[primitive.ObjectID]int, len(rows))}
	for _, row := range rows {
		s.orders[row.ID] = row.Order
	}
	return s
}

func (s *orderStore) write(ctx context.Context, id primitive.ObjectID, order int) error {
	for otherID, o := range s.orders {
		if o == order && otherID != id {
			return repository.ErrDuplicateKey
		}
	}
	s.orders[id] = order
	s.writes++
	return nil
}

func makeRows(n int) []orderedRow {
	rows := make([]orderedRow, n)
	for i := range rows {
		rows[i] = orderedRow{ID: primitive.NewObjectID(), Order: i + 1}
	}
	return rows
}

func TestApplyReorderReversal(t *testing.T) {
	rows := makeRows(5)
	store := newOrderStore(rows)

	orderedIDs := make([]primitive.ObjectID, len(rows))
	for i, row := range rows {
		orderedIDs[len(rows)-1-i] = row.ID
	}

	err := applyReorder(context.Background(), rows, orderedIDs, store.write)
	require.NoError(t, err)

	for i, id := range orderedIDs {
		assert.Equal(t, i+1, store.orders[id])
	}
}

func TestApplyReorderSkipsUnmovedRows(t *testing.T) {
	rows := makeRows(3)
	store := newOrderStore(rows)

	// First row keeps its slot; only the other two swap.
	orderedIDs := []primitive.ObjectID{rows[0].ID, rows[2].ID, rows[1].ID}

	err := applyReorder(context.Background(), rows, orderedIDs, store.write)
	require.NoError(t, err)

	// Two moved rows, two passes each.
	assert.Equal(t, 4, store.writes)
	assert.Equal(t, 1, store.orders[rows[0].ID])
	assert.Equal(t, 2, store.orders[rows[2].ID])
	assert.Equal(t, 3, store.orders[rows[1].ID])
}

func TestApplyReorderNoopWritesNothing(t *testing.T) {
	rows := makeRows(3)
	store := newOrderStore(rows)

	orderedIDs := []primitive.ObjectID{rows[0].ID, rows[1].ID, rows[2].ID}

	require.NoError(t, applyReorder(context.Background(), rows, orderedIDs, store.write))
	assert.Zero(t, store.writes)
}

func TestApplyReorderRejectsBadPermutations(t *testing.T) {
	rows := makeRows(3)

	t.Run("wrong length", func(t *testing.T) {
		err := applyReorder(context.Background(), rows, []primitive.ObjectID{rows[0].ID}, newOrderStore(rows).write)
		assert.ErrorIs(t, err, ErrReorderIDMismatch)
	})

	t.Run("duplicate id", func(t *testing.T) {
		ids := []primitive.ObjectID{rows[0].ID, rows[0].ID, rows[1].ID}
		err := applyReorder(context.Background(), rows, ids, newOrderStore(rows).write)
		assert.ErrorIs(t, err, ErrReorderIDMismatch)
	})

	t.Run("unknown id", func(t *testing.T) {
		ids := []primitive.ObjectID{rows[0].ID, rows[1].ID, primitive.NewObjectID()}
		err := applyReorder(context.Background(), rows, ids, newOrderStore(rows).write)
		assert.ErrorIs(t, err, ErrReorderIDMismatch)
	})
}

func TestNeedsOrderRepair(t *testing.T) {
	assert.False(t, needsOrderRepair(makeRows(3)))
	assert.False(t, needsOrderRepair(nil))

	rows := makeRows(3)
	rows[1].Order = -2
	assert.True(t, needsOrderRepair(rows))
}

func TestRepairOrdersAfterInterruptedReorder(t *testing.T) {
	// A reorder of [a b c] to [c a b] that died midway through pass 2:
	// c landed on its final slot, a and b were left holding negated finals.
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	rows := []orderedRow{
		{ID: a, Order: -2},
		{ID: b, Order: -3},
		{ID: c, Order: 1},
	}
	store := newOrderStore(rows)

	repaired, err := repairOrders(context.Background(), rows, store.write)
	require.NoError(t, err)

	// |order| encodes the intended slot, so the repaired sequence is c a b.
	require.Len(t, repaired, 3)
	assert.Equal(t, []orderedRow{{ID: c, Order: 1}, {ID: a, Order: 2}, {ID: b, Order: 3}}, repaired)
	assert.Equal(t, 1, store.orders[c])
	assert.Equal(t, 2, store.orders[a])
	assert.Equal(t, 3, store.orders[b])
}

func TestRepairOrdersProducesDenseSequence(t *testing.T) {
	// Sparse and negative values alike collapse to 1..N.
	ids := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}
	rows := []orderedRow{
		{ID: ids[0], Order: 7},
		{ID: ids[1], Order: -4},
		{ID: ids[2], Order: 2},
		{ID: ids[3], Order: -9},
	}
	store := newOrderStore(rows)

	repaired, err := repairOrders(context.Background(), rows, store.write)
	require.NoError(t, err)

	require.Len(t, repaired, 4)
	for i, row := range repaired {
		assert.Equal(t, i+1, row.Order)
		assert.Equal(t, row.Order, store.orders[row.ID])
	}
	// Relative order follows |order|: 2, 4, 7, 9.
	assert.Equal(t, []primitive.ObjectID{ids[2], ids[1], ids[0], ids[3]}, []primitive.ObjectID{repaired[0].ID, repaired[1].ID, repaired[2].ID, repaired[3].ID})
}
