package storage

import (
	"context"
	"time"

	"wealth-planner/internal/domain"
)

// GoalStore provides access to goals storage.
type GoalStore interface {
	// Insert adds a new goal. Returns ErrDuplicateKey if goal_id exists.
	Insert(ctx context.Context, g *domain.Goal) error

	// Update replaces a goal's mutable fields. Returns ErrNotFound if not exists.
	Update(ctx context.Context, g *domain.Goal) error

	// GetByID retrieves a goal by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, goalID string) (*domain.Goal, error)

	// List retrieves all goals, ordered by created_at ASC, goal_id ASC.
	List(ctx context.Context) ([]*domain.Goal, error)

	// Delete removes a goal. Returns ErrNotFound if not exists.
	// Owned records in other stores are removed by the caller.
	Delete(ctx context.Context, goalID string) error
}

// AllocationStore provides access to goal_allocations storage.
type AllocationStore interface {
	// Upsert inserts or replaces the mapping keyed by (goal_id, investment_id).
	Upsert(ctx context.Context, a *domain.GoalAllocation) error

	// GetByGoalID retrieves all mappings for a goal, ordered by investment_id ASC.
	GetByGoalID(ctx context.Context, goalID string) ([]*domain.GoalAllocation, error)

	// DeleteByGoalID removes all mappings for a goal.
	DeleteByGoalID(ctx context.Context, goalID string) error

	// Replace atomically swaps all mappings of a goal for allocs. On error the
	// previous mappings are left untouched.
	Replace(ctx context.Context, goalID string, allocs []*domain.GoalAllocation) error
}

// SimulationResultStore provides access to simulation_results storage.
// Append-only apart from cascade deletion.
type SimulationResultStore interface {
	// Insert adds a new result. Returns ErrDuplicateKey if simulation_id exists.
	Insert(ctx context.Context, r *domain.SimulationResult) error

	// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, simulationID string) (*domain.SimulationResult, error)

	// GetLatest retrieves up to limit results for a goal, newest first
	// (run_at DESC, simulation_id DESC).
	GetLatest(ctx context.Context, goalID string, limit int) ([]*domain.SimulationResult, error)

	// GetByGoalID retrieves all results for a goal, ordered by run_at ASC.
	GetByGoalID(ctx context.Context, goalID string) ([]*domain.SimulationResult, error)

	// DeleteByGoalID removes all results for a goal.
	DeleteByGoalID(ctx context.Context, goalID string) error
}

// HistorySnapshotStore provides access to goal_history storage.
// Append-only apart from cascade deletion.
type HistorySnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if (goal_id, snapshot_date) exists.
	Insert(ctx context.Context, s *domain.GoalHistorySnapshot) error

	// GetByGoalID retrieves all snapshots for a goal, ordered by snapshot_date ASC.
	GetByGoalID(ctx context.Context, goalID string) ([]*domain.GoalHistorySnapshot, error)

	// GetByDateRange retrieves snapshots for a goal within [start, end] (inclusive),
	// ordered by snapshot_date ASC.
	GetByDateRange(ctx context.Context, goalID string, start, end time.Time) ([]*domain.GoalHistorySnapshot, error)

	// DeleteByGoalID removes all snapshots for a goal.
	DeleteByGoalID(ctx context.Context, goalID string) error
}
