// Package ledger tracks which (wallet, chunk) purchases have already been
// paid for, so repeat retrievals of the same chunk are never re-charged.
package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Ledger records and diffs chunk purchases per wallet.
type Ledger interface {
	// PaidSubset returns the subset of chunkIDs that wallet has already
	// purchased.
	PaidSubset(ctx context.Context, wallet string, chunkIDs []uuid.UUID) (map[uuid.UUID]bool, error)

	// Record marks chunkIDs as purchased by wallet. Recording an
	// already-purchased (wallet, chunk) pair is a no-op.
	Record(ctx context.Context, wallet string, chunkIDs []uuid.UUID) error

	// Split partitions chunkIDs, preserving input order, into the subset
	// wallet has not yet paid for and the subset it has.
	Split(ctx context.Context, wallet string, chunkIDs []uuid.UUID) (unpaid []uuid.UUID, paid []uuid.UUID, err error)
}

// split is shared by every Ledger implementation so the ordering
// guarantee lives in one place.
func split(chunkIDs []uuid.UUID, paidSet map[uuid.UUID]bool) (unpaid, paid []uuid.UUID) {
	for _, id := range chunkIDs {
		if paidSet[id] {
			paid = append(paid, id)
		} else {
			unpaid = append(unpaid, id)
		}
	}
	return unpaid, paid
}
