// Package portfolio resolves the capital currently allocated to a goal.
package portfolio

import (
	"context"
	"fmt"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

// Provider returns the current allocated capital for a goal.
type Provider interface {
	CurrentAllocation(ctx context.Context, goalID string) (float64, error)
}

// StoreProvider sums goal-to-investment mappings from an AllocationStore.
// A goal with no mappings has zero allocation.
type StoreProvider struct {
	store storage.AllocationStore
}

// NewStoreProvider creates a StoreProvider.
func NewStoreProvider(store storage.AllocationStore) *StoreProvider {
	return &StoreProvider{store: store}
}

// CurrentAllocation returns sum(current_value * allocation_pct / 100).
func (p *StoreProvider) CurrentAllocation(ctx context.Context, goalID string) (float64, error) {
	allocs, err := p.store.GetByGoalID(ctx, goalID)
	if err != nil {
		return 0, fmt.Errorf("load allocations: %w", err)
	}

	total := 0.0
	for _, a := range allocs {
		total += a.AllocatedValue()
	}
	return domain.RoundMoney(total), nil
}

var _ Provider = (*StoreProvider)(nil)
