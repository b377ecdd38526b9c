package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

// SimulationResultStore implements storage.SimulationResultStore using PostgreSQL.
type SimulationResultStore struct {
	pool *Pool
}

// NewSimulationResultStore creates a new SimulationResultStore.
func NewSimulationResultStore(pool *Pool) *SimulationResultStore {
	return &SimulationResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SimulationResultStore = (*SimulationResultStore)(nil)

const simulationColumns = `simulation_id, goal_id, run_at,
	num_paths, requested_paths, seed, months,
	years, expected_return, volatility, monthly_contribution, current_allocation, target_amount,
	worst_percentile, best_percentile, params_hash,
	median_outcome, worst_case, best_case, mean_outcome, success_probability, ruin_count, degraded`

// Insert adds a new result. Returns ErrDuplicateKey if simulation_id exists,
// ErrNotFound if the goal does not exist.
func (s *SimulationResultStore) Insert(ctx context.Context, r *domain.SimulationResult) error {
	query := `
		INSERT INTO simulation_results (` + simulationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23)
	`

	c := r.Config
	_, err := s.pool.Exec(ctx, query,
		r.SimulationID,
		r.GoalID,
		r.RunAt,
		c.NumPaths,
		c.RequestedPaths,
		int64(c.Seed), // BIGINT holds the seed's bit pattern
		c.Months,
		c.Years,
		c.ExpectedReturn,
		c.Volatility,
		c.MonthlyContribution,
		c.CurrentAllocation,
		c.TargetAmount,
		c.WorstPercentile,
		c.BestPercentile,
		c.ParamsHash,
		r.MedianOutcome,
		r.WorstCase,
		r.BestCase,
		r.MeanOutcome,
		r.SuccessProbability,
		r.RuinCount,
		r.Degraded,
	)
	if err != nil {
		return translate(err, "insert simulation result")
	}
	return nil
}

// GetByID retrieves a result by its ID. Returns ErrNotFound if not exists.
func (s *SimulationResultStore) GetByID(ctx context.Context, simulationID string) (*domain.SimulationResult, error) {
	query := `SELECT ` + simulationColumns + ` FROM simulation_results WHERE simulation_id = $1`

	r, err := scanSimulationResult(s.pool.QueryRow(ctx, query, simulationID))
	if err != nil {
		return nil, translate(err, "get simulation result by id")
	}
	return r, nil
}

// GetLatest retrieves up to limit results for a goal, newest first.
func (s *SimulationResultStore) GetLatest(ctx context.Context, goalID string, limit int) ([]*domain.SimulationResult, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT ` + simulationColumns + `
		FROM simulation_results
		WHERE goal_id = $1
		ORDER BY run_at DESC, simulation_id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, goalID, limit)
	if err != nil {
		return nil, fmt.Errorf("get latest simulation results: %w", err)
	}
	defer rows.Close()

	return scanSimulationResults(rows)
}

// GetByGoalID retrieves all results for a goal, ordered by run_at ASC.
func (s *SimulationResultStore) GetByGoalID(ctx context.Context, goalID string) ([]*domain.SimulationResult, error) {
	query := `
		SELECT ` + simulationColumns + `
		FROM simulation_results
		WHERE goal_id = $1
		ORDER BY run_at ASC, simulation_id ASC
	`

	rows, err := s.pool.Query(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("get simulation results by goal: %w", err)
	}
	defer rows.Close()

	return scanSimulationResults(rows)
}

// DeleteByGoalID removes all results for a goal.
func (s *SimulationResultStore) DeleteByGoalID(ctx context.Context, goalID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM simulation_results WHERE goal_id = $1`, goalID); err != nil {
		return fmt.Errorf("delete simulation results: %w", err)
	}
	return nil
}

// scanSimulationResult scans a single row into a SimulationResult.
func scanSimulationResult(row pgx.Row) (*domain.SimulationResult, error) {
	var r domain.SimulationResult
	var seed int64

	err := row.Scan(
		&r.SimulationID,
		&r.GoalID,
		&r.RunAt,
		&r.Config.NumPaths,
		&r.Config.RequestedPaths,
		&seed,
		&r.Config.Months,
		&r.Config.Years,
		&r.Config.ExpectedReturn,
		&r.Config.Volatility,
		&r.Config.MonthlyContribution,
		&r.Config.CurrentAllocation,
		&r.Config.TargetAmount,
		&r.Config.WorstPercentile,
		&r.Config.BestPercentile,
		&r.Config.ParamsHash,
		&r.MedianOutcome,
		&r.WorstCase,
		&r.BestCase,
		&r.MeanOutcome,
		&r.SuccessProbability,
		&r.RuinCount,
		&r.Degraded,
	)
	if err != nil {
		return nil, err
	}

	r.Config.Seed = uint64(seed)
	return &r, nil
}

// scanSimulationResults scans multiple rows into a slice of SimulationResult.
func scanSimulationResults(rows pgx.Rows) ([]*domain.SimulationResult, error) {
	var results []*domain.SimulationResult

	for rows.Next() {
		r, err := scanSimulationResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan simulation result row: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation result rows: %w", err)
	}

	return results, nil
}
