package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage"
)

// GoalInput holds the editable fields of a goal.
// Nil ExpectedReturn or Volatility selects the domain defaults.
type GoalInput struct {
	Name                string
	BeneficiaryID       string
	TargetAmount        float64
	YearsUntilDue       float64
	ExpectedReturn      *float64
	Volatility          *float64
	MonthlyContribution float64
}

func (in GoalInput) apply(g *domain.Goal) {
	g.Name = in.Name
	g.BeneficiaryID = in.BeneficiaryID
	g.TargetAmount = in.TargetAmount
	g.YearsUntilDue = in.YearsUntilDue
	g.ExpectedReturn = domain.DefaultExpectedReturn
	if in.ExpectedReturn != nil {
		g.ExpectedReturn = *in.ExpectedReturn
	}
	g.Volatility = domain.DefaultVolatility
	if in.Volatility != nil {
		g.Volatility = *in.Volatility
	}
	g.MonthlyContribution = in.MonthlyContribution
}

// CreateGoal validates and stores a new goal with a fresh id.
func (s *Service) CreateGoal(ctx context.Context, in GoalInput) (*domain.Goal, error) {
	now := s.now().UTC()
	g := &domain.Goal{GoalID: s.newID(), CreatedAt: now, UpdatedAt: now}
	in.apply(g)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.goals.Insert(ctx, g); err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}

	s.logger.Info("goal created", zap.String("goal_id", g.GoalID), zap.String("name", g.Name))
	return g, nil
}

// UpdateGoal replaces a goal's editable fields. Earlier simulations stay in
// place; they stop counting toward status once the parameters differ.
func (s *Service) UpdateGoal(ctx context.Context, goalID string, in GoalInput) (*domain.Goal, error) {
	g, err := s.loadGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	in.apply(g)
	g.UpdatedAt = s.now().UTC()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.goals.Update(ctx, g); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &domain.NotFoundError{Kind: "goal", ID: goalID}
		}
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}

// GetGoal returns a goal.
func (s *Service) GetGoal(ctx context.Context, goalID string) (*domain.Goal, error) {
	return s.loadGoal(ctx, goalID)
}

// DeleteGoal removes a goal and everything it owns: simulation results,
// history snapshots and allocation mappings.
func (s *Service) DeleteGoal(ctx context.Context, goalID string) error {
	if _, err := s.loadGoal(ctx, goalID); err != nil {
		return err
	}

	if err := s.simulations.DeleteByGoalID(ctx, goalID); err != nil {
		return fmt.Errorf("delete simulations: %w", err)
	}
	if err := s.snapshots.DeleteByGoalID(ctx, goalID); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	if err := s.allocStore.DeleteByGoalID(ctx, goalID); err != nil {
		return fmt.Errorf("delete allocations: %w", err)
	}
	if err := s.goals.Delete(ctx, goalID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &domain.NotFoundError{Kind: "goal", ID: goalID}
		}
		return fmt.Errorf("delete goal: %w", err)
	}

	s.logger.Info("goal deleted", zap.String("goal_id", goalID))
	return nil
}

// SetAllocations replaces the goal's investment mappings.
func (s *Service) SetAllocations(ctx context.Context, goalID string, allocs []domain.GoalAllocation) ([]*domain.GoalAllocation, error) {
	if _, err := s.loadGoal(ctx, goalID); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(allocs))
	for i := range allocs {
		allocs[i].GoalID = goalID
		if err := allocs[i].Validate(); err != nil {
			return nil, err
		}
		if seen[allocs[i].InvestmentID] {
			return nil, domain.NewValidationError("investment_id", "duplicate "+allocs[i].InvestmentID)
		}
		seen[allocs[i].InvestmentID] = true
	}

	replacement := make([]*domain.GoalAllocation, len(allocs))
	for i := range allocs {
		replacement[i] = &allocs[i]
	}
	if err := s.allocStore.Replace(ctx, goalID, replacement); err != nil {
		return nil, fmt.Errorf("replace allocations: %w", err)
	}

	return s.allocStore.GetByGoalID(ctx, goalID)
}

// Allocations returns the goal's investment mappings.
func (s *Service) Allocations(ctx context.Context, goalID string) ([]*domain.GoalAllocation, error) {
	if _, err := s.loadGoal(ctx, goalID); err != nil {
		return nil, err
	}
	return s.allocStore.GetByGoalID(ctx, goalID)
}

// GoalHistory returns the goal's snapshots in date order. Zero start and end
// return the full history; otherwise both bound the range inclusively.
func (s *Service) GoalHistory(ctx context.Context, goalID string, start, end time.Time) ([]*domain.GoalHistorySnapshot, error) {
	if _, err := s.loadGoal(ctx, goalID); err != nil {
		return nil, err
	}

	if start.IsZero() && end.IsZero() {
		return s.snapshots.GetByGoalID(ctx, goalID)
	}
	if end.IsZero() {
		end = s.now()
	}
	if end.Before(start) {
		return nil, domain.NewValidationError("to", "must not be before from")
	}
	return s.snapshots.GetByDateRange(ctx, goalID, domain.SnapshotDay(start), domain.SnapshotDay(end))
}

// ListSimulations returns up to limit results for the goal, newest first.
func (s *Service) ListSimulations(ctx context.Context, goalID string, limit int) ([]*domain.SimulationResult, error) {
	if _, err := s.loadGoal(ctx, goalID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, domain.NewValidationError("limit", "must be greater than zero")
	}
	return s.simulations.GetLatest(ctx, goalID, limit)
}

// GetSimulation returns a stored simulation result.
func (s *Service) GetSimulation(ctx context.Context, simulationID string) (*domain.SimulationResult, error) {
	r, err := s.simulations.GetByID(ctx, simulationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &domain.NotFoundError{Kind: "simulation", ID: simulationID}
		}
		return nil, fmt.Errorf("load simulation: %w", err)
	}
	return r, nil
}
