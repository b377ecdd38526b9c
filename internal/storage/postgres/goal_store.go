package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

// GoalStore implements storage.GoalStore using PostgreSQL.
type GoalStore struct {
	pool *Pool
}

// NewGoalStore creates a new GoalStore.
func NewGoalStore(pool *Pool) *GoalStore {
	return &GoalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.GoalStore = (*GoalStore)(nil)

const goalColumns = `goal_id, name, beneficiary_id, target_amount, years_until_due,
	expected_return, volatility, monthly_contribution, created_at, updated_at`

// Insert adds a new goal. Returns ErrDuplicateKey if goal_id exists.
func (s *GoalStore) Insert(ctx context.Context, g *domain.Goal) error {
	query := `
		INSERT INTO goals (` + goalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		g.GoalID,
		g.Name,
		g.BeneficiaryID,
		g.TargetAmount,
		g.YearsUntilDue,
		g.ExpectedReturn,
		g.Volatility,
		g.MonthlyContribution,
		g.CreatedAt,
		g.UpdatedAt,
	)
	if err != nil {
		return translate(err, "insert goal")
	}
	return nil
}

// Update replaces a goal's mutable fields. Returns ErrNotFound if not exists.
func (s *GoalStore) Update(ctx context.Context, g *domain.Goal) error {
	query := `
		UPDATE goals SET
			name = $2,
			beneficiary_id = $3,
			target_amount = $4,
			years_until_due = $5,
			expected_return = $6,
			volatility = $7,
			monthly_contribution = $8,
			updated_at = $9
		WHERE goal_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		g.GoalID,
		g.Name,
		g.BeneficiaryID,
		g.TargetAmount,
		g.YearsUntilDue,
		g.ExpectedReturn,
		g.Volatility,
		g.MonthlyContribution,
		g.UpdatedAt,
	)
	if err != nil {
		return translate(err, "update goal")
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a goal by its ID. Returns ErrNotFound if not exists.
func (s *GoalStore) GetByID(ctx context.Context, goalID string) (*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE goal_id = $1`

	g, err := scanGoal(s.pool.QueryRow(ctx, query, goalID))
	if err != nil {
		return nil, translate(err, "get goal by id")
	}
	return g, nil
}

// List retrieves all goals, ordered by created_at ASC, goal_id ASC.
func (s *GoalStore) List(ctx context.Context) ([]*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals ORDER BY created_at ASC, goal_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []*domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal row: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal rows: %w", err)
	}

	return goals, nil
}

// Delete removes a goal. Allocations and simulation results go with it
// through ON DELETE CASCADE. Returns ErrNotFound if not exists.
func (s *GoalStore) Delete(ctx context.Context, goalID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM goals WHERE goal_id = $1`, goalID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanGoal scans a single row into a Goal.
func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var g domain.Goal
	err := row.Scan(
		&g.GoalID,
		&g.Name,
		&g.BeneficiaryID,
		&g.TargetAmount,
		&g.YearsUntilDue,
		&g.ExpectedReturn,
		&g.Volatility,
		&g.MonthlyContribution,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}
