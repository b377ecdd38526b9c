package memory

import (
	"context"
	"sort"
	"sync"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

// GoalStore is an in-memory implementation of storage.GoalStore.
type GoalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Goal // keyed by goal_id
}

// NewGoalStore creates a new in-memory goal store.
func NewGoalStore() *GoalStore {
	return &GoalStore{
		data: make(map[string]*domain.Goal),
	}
}

// Insert adds a new goal. Returns ErrDuplicateKey if goal_id exists.
func (s *GoalStore) Insert(_ context.Context, g *domain.Goal) error {
	if g == nil || g.GoalID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[g.GoalID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *g
	s.data[g.GoalID] = &copy
	return nil
}

// Update replaces a goal's mutable fields. CreatedAt is preserved.
func (s *GoalStore) Update(_ context.Context, g *domain.Goal) error {
	if g == nil || g.GoalID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[g.GoalID]
	if !exists {
		return storage.ErrNotFound
	}

	copy := *g
	copy.CreatedAt = existing.CreatedAt
	s.data[g.GoalID] = &copy
	return nil
}

// GetByID retrieves a goal by its ID. Returns ErrNotFound if not exists.
func (s *GoalStore) GetByID(_ context.Context, goalID string) (*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.data[goalID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *g
	return &copy, nil
}

// List retrieves all goals, ordered by created_at ASC, goal_id ASC.
func (s *GoalStore) List(_ context.Context) ([]*domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Goal, 0, len(s.data))
	for _, g := range s.data {
		copy := *g
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].GoalID < result[j].GoalID
	})

	return result, nil
}

// Delete removes a goal. Returns ErrNotFound if not exists.
func (s *GoalStore) Delete(_ context.Context, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[goalID]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, goalID)
	return nil
}

var _ storage.GoalStore = (*GoalStore)(nil)
