package memory

import (
	"context"
	"sort"
	"sync"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

type allocationKey struct {
	goalID       string
	investmentID string
}

// AllocationStore is an in-memory implementation of storage.AllocationStore.
type AllocationStore struct {
	mu   sync.RWMutex
	data map[allocationKey]*domain.GoalAllocation
}

// NewAllocationStore creates a new in-memory allocation store.
func NewAllocationStore() *AllocationStore {
	return &AllocationStore{
		data: make(map[allocationKey]*domain.GoalAllocation),
	}
}

// Upsert inserts or replaces the mapping keyed by (goal_id, investment_id).
func (s *AllocationStore) Upsert(_ context.Context, a *domain.GoalAllocation) error {
	if a == nil || a.GoalID == "" || a.InvestmentID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *a
	s.data[allocationKey{a.GoalID, a.InvestmentID}] = &copy
	return nil
}

// GetByGoalID retrieves all mappings for a goal, ordered by investment_id ASC.
func (s *AllocationStore) GetByGoalID(_ context.Context, goalID string) ([]*domain.GoalAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.GoalAllocation
	for k, a := range s.data {
		if k.goalID == goalID {
			copy := *a
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].InvestmentID < result[j].InvestmentID
	})

	return result, nil
}

// DeleteByGoalID removes all mappings for a goal.
func (s *AllocationStore) DeleteByGoalID(_ context.Context, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.data {
		if k.goalID == goalID {
			delete(s.data, k)
		}
	}
	return nil
}

// Replace swaps all mappings of a goal for allocs under one lock.
func (s *AllocationStore) Replace(_ context.Context, goalID string, allocs []*domain.GoalAllocation) error {
	for _, a := range allocs {
		if a == nil || a.InvestmentID == "" || a.GoalID != goalID {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.data {
		if k.goalID == goalID {
			delete(s.data, k)
		}
	}
	for _, a := range allocs {
		copy := *a
		s.data[allocationKey{goalID, a.InvestmentID}] = &copy
	}
	return nil
}

var _ storage.AllocationStore = (*AllocationStore)(nil)
