package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryLedger is an in-process Ledger, used for tests.
type MemoryLedger struct {
	mu       sync.Mutex
	purchases map[string]map[uuid.UUID]bool // wallet -> chunk id -> purchased
}

// NewMemoryLedger constructs an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{purchases: make(map[string]map[uuid.UUID]bool)}
}

func (m *MemoryLedger) PaidSubset(_ context.Context, wallet string, chunkIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[uuid.UUID]bool)
	owned := m.purchases[wallet]
	for _, id := range chunkIDs {
		if owned[id] {
			result[id] = true
		}
	}
	return result, nil
}

func (m *MemoryLedger) Record(_ context.Context, wallet string, chunkIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.purchases[wallet] == nil {
		m.purchases[wallet] = make(map[uuid.UUID]bool)
	}
	for _, id := range chunkIDs {
		m.purchases[wallet][id] = true
	}
	return nil
}

func (m *MemoryLedger) Split(ctx context.Context, wallet string, chunkIDs []uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	paidSet, err := m.PaidSubset(ctx, wallet, chunkIDs)
	if err != nil {
		return nil, nil, err
	}
	unpaid, paid := split(chunkIDs, paidSet)
	return unpaid, paid, nil
}
