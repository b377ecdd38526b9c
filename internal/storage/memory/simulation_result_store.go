package memory

import (
	"context"
	"sort"
	"sync"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

// SimulationResultStore is an in-memory implementation of storage.SimulationResultStore.
type SimulationResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulationResult // keyed by simulation_id
}

// NewSimulationResultStore creates a new in-memory simulation result store.
func NewSimulationResultStore() *SimulationResultStore {
	return &SimulationResultStore{
		data: make(map[string]*domain.SimulationResult),
	}
}

// Insert adds a new result. Returns ErrDuplicateKey if simulation_id exists.
func (s *SimulationResultStore) Insert(_ context.Context, r *domain.SimulationResult) error {
	if r == nil || r.SimulationID == "" || r.GoalID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.SimulationID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.SimulationID] = &copy
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *SimulationResultStore) GetByID(_ context.Context, simulationID string) (*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[simulationID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetLatest retrieves up to limit results for a goal, newest first.
func (s *SimulationResultStore) GetLatest(ctx context.Context, goalID string, limit int) ([]*domain.SimulationResult, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	result, err := s.GetByGoalID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	// Reverse ASC order into DESC.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetByGoalID retrieves all results for a goal, ordered by run_at ASC, simulation_id ASC.
func (s *SimulationResultStore) GetByGoalID(_ context.Context, goalID string) ([]*domain.SimulationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SimulationResult
	for _, r := range s.data {
		if r.GoalID == goalID {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].RunAt.Equal(result[j].RunAt) {
			return result[i].RunAt.Before(result[j].RunAt)
		}
		return result[i].SimulationID < result[j].SimulationID
	})

	return result, nil
}

// DeleteByGoalID removes all results for a goal.
func (s *SimulationResultStore) DeleteByGoalID(_ context.Context, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.data {
		if r.GoalID == goalID {
			delete(s.data, id)
		}
	}
	return nil
}

var _ storage.SimulationResultStore = (*SimulationResultStore)(nil)
