package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrReorderIDMismatch = errors.New("reorder list must contain exactly the container's row IDs")
)

// orderedRow is the minimal view of a positioned row the reorder protocol
// operates on. Both routine and workout exercise rows reduce to it.
type orderedRow struct {
	ID    primitive.ObjectID
	Order int
}

// orderWriter rewrites a single row's order value. It maps onto the
// UpdateOrder method of the row's repository.
type orderWriter func(ctx context.Context, id primitive.ObjectID, order int) error

// applyReorder rewrites the order keys of rows so they match the permutation
// given by orderedIDs (first ID gets order 1, and so on).
//
// The store enforces uniqueness on (container, order) per statement, with no
// multi-statement transaction, so writing final values directly risks a
// transient duplicate. Instead the rewrite runs in two passes: pass 1 writes
// the negation of each moved row's final value (negative orders never collide
// with the existing positive ones, nor with each other), pass 2 writes the
// true positive value. Pass 1 must fully complete before pass 2 starts.
// Only rows whose order actually changes are written.
//
// If pass 2 is interrupted, some rows are left negative; repairOrders
// recovers on the next read.
func applyReorder(ctx context.Context, rows []orderedRow, orderedIDs []primitive.ObjectID, write orderWriter) error {
	if len(rows) != len(orderedIDs) {
		return ErrReorderIDMismatch
	}
	finals := make(map[primitive.ObjectID]int, len(orderedIDs))
	for i, id := range orderedIDs {
		if _, dup := finals[id]; dup {
			return ErrReorderIDMismatch
		}
		finals[id] = i + 1
	}

	var moved []orderedRow
	for _, row := range rows {
		final, ok := finals[row.ID]
		if !ok {
			return ErrReorderIDMismatch
		}
		if row.Order != final {
			moved = append(moved, row)
		}
	}

	for _, row := range moved {
		if err := write(ctx, row.ID, -finals[row.ID]); err != nil {
			return fmt.Errorf("reorder pass 1 (row %s): %w", row.ID.Hex(), err)
		}
	}
	for _, row := range moved {
		if err := write(ctx, row.ID, finals[row.ID]); err != nil {
			return fmt.Errorf("reorder pass 2 (row %s): %w", row.ID.Hex(), err)
		}
	}
	return nil
}

// needsOrderRepair reports whether any row was left holding a negative order
// by an interrupted reorder. A negative order is never valid at rest.
func needsOrderRepair(rows []orderedRow) bool {
	for _, row := range rows {
		if row.Order < 0 {
			return true
		}
	}
	return false
}

// repairOrders rebuilds a dense 1..N ordering from the rows' current
// relative positions. A negative order encodes the slot the interrupted
// reorder meant to assign, so |order| is the position key; ties between a
// pending negative and a settled positive keep input order.
//
// The rewrite cannot reuse the negation trick: the surviving negative values
// may collide with freshly negated ones. Instead every row is first shifted
// into a high range strictly above |any current value| + N, then written to
// its final slot.
func repairOrders(ctx context.Context, rows []orderedRow, write orderWriter) ([]orderedRow, error) {
	repaired := make([]orderedRow, len(rows))
	copy(repaired, rows)
	sort.SliceStable(repaired, func(i, j int) bool {
		return absInt(repaired[i].Order) < absInt(repaired[j].Order)
	})

	maxAbs := 0
	for _, row := range repaired {
		if a := absInt(row.Order); a > maxAbs {
			maxAbs = a
		}
	}
	offset := maxAbs + len(repaired)

	for i, row := range repaired {
		if err := write(ctx, row.ID, offset+i+1); err != nil {
			return nil, fmt.Errorf("order repair pass 1 (row %s): %w", row.ID.Hex(), err)
		}
	}
	for i := range repaired {
		final := i + 1
		if err := write(ctx, repaired[i].ID, final); err != nil {
			return nil, fmt.Errorf("order repair pass 2 (row %s): %w", repaired[i].ID.Hex(), err)
		}
		repaired[i].Order = final
	}
	return repaired, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
