package postgres

import (
	"context"
	"fmt"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

// AllocationStore implements storage.AllocationStore using PostgreSQL.
type AllocationStore struct {
	pool *Pool
}

// NewAllocationStore creates a new AllocationStore.
func NewAllocationStore(pool *Pool) *AllocationStore {
	return &AllocationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AllocationStore = (*AllocationStore)(nil)

// Upsert inserts or replaces the mapping keyed by (goal_id, investment_id).
// Returns ErrNotFound if the goal does not exist.
func (s *AllocationStore) Upsert(ctx context.Context, a *domain.GoalAllocation) error {
	query := `
		INSERT INTO goal_allocations (goal_id, investment_id, current_value, allocation_pct)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (goal_id, investment_id) DO UPDATE SET
			current_value = EXCLUDED.current_value,
			allocation_pct = EXCLUDED.allocation_pct
	`

	_, err := s.pool.Exec(ctx, query, a.GoalID, a.InvestmentID, a.CurrentValue, a.AllocationPct)
	if err != nil {
		return translate(err, "upsert allocation")
	}
	return nil
}

// GetByGoalID retrieves all mappings for a goal, ordered by investment_id ASC.
func (s *AllocationStore) GetByGoalID(ctx context.Context, goalID string) ([]*domain.GoalAllocation, error) {
	query := `
		SELECT goal_id, investment_id, current_value, allocation_pct
		FROM goal_allocations
		WHERE goal_id = $1
		ORDER BY investment_id ASC
	`

	rows, err := s.pool.Query(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("get allocations by goal: %w", err)
	}
	defer rows.Close()

	var allocs []*domain.GoalAllocation
	for rows.Next() {
		var a domain.GoalAllocation
		if err := rows.Scan(&a.GoalID, &a.InvestmentID, &a.CurrentValue, &a.AllocationPct); err != nil {
			return nil, fmt.Errorf("scan allocation row: %w", err)
		}
		allocs = append(allocs, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocation rows: %w", err)
	}

	return allocs, nil
}

// DeleteByGoalID removes all mappings for a goal.
func (s *AllocationStore) DeleteByGoalID(ctx context.Context, goalID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM goal_allocations WHERE goal_id = $1`, goalID); err != nil {
		return fmt.Errorf("delete allocations: %w", err)
	}
	return nil
}

// Replace swaps all mappings of a goal for allocs in one transaction.
// Returns ErrNotFound if the goal does not exist and allocs is non-empty.
func (s *AllocationStore) Replace(ctx context.Context, goalID string, allocs []*domain.GoalAllocation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM goal_allocations WHERE goal_id = $1`, goalID); err != nil {
		return translate(err, "clear allocations")
	}

	query := `
		INSERT INTO goal_allocations (goal_id, investment_id, current_value, allocation_pct)
		VALUES ($1, $2, $3, $4)
	`
	for _, a := range allocs {
		if _, err := tx.Exec(ctx, query, goalID, a.InvestmentID, a.CurrentValue, a.AllocationPct); err != nil {
			return translate(err, "insert allocation "+a.InvestmentID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return translate(err, "commit allocations")
	}
	return nil
}
