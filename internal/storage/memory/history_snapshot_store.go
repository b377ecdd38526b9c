package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

type snapshotKey struct {
	goalID string
	day    int64 // unix seconds of the UTC day
}

// HistorySnapshotStore is an in-memory implementation of storage.HistorySnapshotStore.
type HistorySnapshotStore struct {
	mu   sync.RWMutex
	data map[snapshotKey]*domain.GoalHistorySnapshot
}

// NewHistorySnapshotStore creates a new in-memory history snapshot store.
func NewHistorySnapshotStore() *HistorySnapshotStore {
	return &HistorySnapshotStore{
		data: make(map[snapshotKey]*domain.GoalHistorySnapshot),
	}
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if (goal_id, snapshot_date) exists.
// SnapshotDate is normalized to its UTC day.
func (s *HistorySnapshotStore) Insert(_ context.Context, snap *domain.GoalHistorySnapshot) error {
	if snap == nil || snap.GoalID == "" || snap.SnapshotDate.IsZero() {
		return storage.ErrInvalidInput
	}

	day := domain.SnapshotDay(snap.SnapshotDate)
	key := snapshotKey{snap.GoalID, day.Unix()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	c := cloneSnapshot(snap)
	c.SnapshotDate = day
	s.data[key] = c
	return nil
}

// GetByGoalID retrieves all snapshots for a goal, ordered by snapshot_date ASC.
func (s *HistorySnapshotStore) GetByGoalID(_ context.Context, goalID string) ([]*domain.GoalHistorySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.GoalHistorySnapshot
	for k, snap := range s.data {
		if k.goalID == goalID {
			result = append(result, cloneSnapshot(snap))
		}
	}

	sortSnapshots(result)
	return result, nil
}

// GetByDateRange retrieves snapshots for a goal within [start, end] (inclusive).
func (s *HistorySnapshotStore) GetByDateRange(_ context.Context, goalID string, start, end time.Time) ([]*domain.GoalHistorySnapshot, error) {
	from := domain.SnapshotDay(start).Unix()
	to := domain.SnapshotDay(end).Unix()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.GoalHistorySnapshot
	for k, snap := range s.data {
		if k.goalID == goalID && k.day >= from && k.day <= to {
			result = append(result, cloneSnapshot(snap))
		}
	}

	sortSnapshots(result)
	return result, nil
}

// DeleteByGoalID removes all snapshots for a goal.
func (s *HistorySnapshotStore) DeleteByGoalID(_ context.Context, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.data {
		if k.goalID == goalID {
			delete(s.data, k)
		}
	}
	return nil
}

func sortSnapshots(s []*domain.GoalHistorySnapshot) {
	sort.Slice(s, func(i, j int) bool {
		return s[i].SnapshotDate.Before(s[j].SnapshotDate)
	})
}

func cloneSnapshot(s *domain.GoalHistorySnapshot) *domain.GoalHistorySnapshot {
	c := *s
	if s.SuccessProbability != nil {
		p := *s.SuccessProbability
		c.SuccessProbability = &p
	}
	return &c
}

var _ storage.HistorySnapshotStore = (*HistorySnapshotStore)(nil)
