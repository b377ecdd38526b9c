package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/idhash"
	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/pv"
	"wealth-planner/internal/rescue"
	"wealth-planner/internal/status"
)

// GoalDetails computes the goal's current standing. It is recomputed from the
// current allocation on every call.
//
// The latest simulation counts toward status only if it was run with the
// goal's current parameters; otherwise status falls back to allocation
// against present value.
func (s *Service) GoalDetails(ctx context.Context, goalID string) (*domain.GoalDetails, error) {
	goal, err := s.loadGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, goal)
}

func (s *Service) details(ctx context.Context, goal *domain.Goal) (*domain.GoalDetails, error) {
	allocation, err := s.currentAllocation(ctx, goal.GoalID)
	if err != nil {
		return nil, err
	}
	presentValue, err := pv.RequiredPresentValue(goal.TargetAmount, goal.YearsUntilDue, goal.ExpectedReturn)
	if err != nil {
		return nil, err
	}

	d := &domain.GoalDetails{
		Goal:              goal,
		Horizon:           goal.Horizon(),
		PresentValue:      presentValue,
		CurrentAllocation: allocation,
		Shortfall:         domain.RoundMoney(math.Max(0, presentValue-allocation)),
		Feasible:          true,
	}

	sip, err := pv.RequiredMonthlyContribution(goal.TargetAmount, goal.YearsUntilDue, goal.ExpectedReturn, allocation)
	switch {
	case err == nil:
		d.RequiredMonthlySIP = &sip
	case errors.Is(err, domain.ErrInfeasible):
		d.Feasible = false
	default:
		return nil, err
	}

	latest, err := s.simulations.GetLatest(ctx, goal.GoalID, 2)
	if err != nil {
		return nil, fmt.Errorf("latest simulations: %w", err)
	}
	if len(latest) > 0 {
		d.LatestSimulation = latest[0]
		if latest[0].Config.ParamsHash == idhash.GoalParamsHash(goal) {
			p := latest[0].SuccessProbability
			d.SuccessProbability = &p
		}
	}
	if len(latest) > 1 {
		p := latest[1].SuccessProbability
		d.PreviousSuccessProbability = &p
	}

	d.Status = s.classifier.Classify(statusInput(d))
	return d, nil
}

func statusInput(d *domain.GoalDetails) status.Input {
	return status.Input{
		CurrentAllocation:  d.CurrentAllocation,
		PresentValue:       d.PresentValue,
		SuccessProbability: d.SuccessProbability,
	}
}

// ExplainStatus returns the checks behind the goal's current status.
func (s *Service) ExplainStatus(ctx context.Context, goalID string) ([]status.CriterionResult, error) {
	d, err := s.GoalDetails(ctx, goalID)
	if err != nil {
		return nil, err
	}
	return s.classifier.Explain(statusInput(d)), nil
}

// ListGoals returns details for every goal, in creation order.
func (s *Service) ListGoals(ctx context.Context) ([]*domain.GoalDetails, error) {
	goals, err := s.goals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	out := make([]*domain.GoalDetails, 0, len(goals))
	for _, g := range goals {
		d, err := s.details(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("goal %s: %w", g.GoalID, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Summary counts goals by status.
func (s *Service) Summary(ctx context.Context) (domain.StatusSummary, error) {
	all, err := s.ListGoals(ctx)
	if err != nil {
		return domain.StatusSummary{}, err
	}

	sum := domain.StatusSummary{Total: len(all)}
	for _, d := range all {
		switch d.Status {
		case domain.StatusOnTrack:
			sum.OnTrack++
		case domain.StatusMonitor:
			sum.Monitor++
		case domain.StatusAtRisk:
			sum.AtRisk++
		}
	}

	s.metrics.SetGoalStatusCounts(sum)
	return sum, nil
}

// RescueResult is the rescue strategy set for a goal.
type RescueResult struct {
	GoalID     string
	Status     domain.Status
	Strategies []domain.RescueStrategy // empty when ON_TRACK
}

// RescueStrategies generates rescue strategies for the goal's current status.
// Nothing is persisted.
func (s *Service) RescueStrategies(ctx context.Context, goalID string, seed *uint64) (*RescueResult, error) {
	d, err := s.GoalDetails(ctx, goalID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	strategies, err := s.rescuer.Generate(ctx, rescue.Request{
		Goal:              d.Goal,
		CurrentAllocation: d.CurrentAllocation,
		Status:            d.Status,
		Seed:              seed,
	})
	if err != nil {
		return nil, err
	}
	if d.Status != domain.StatusOnTrack {
		s.metrics.RecordRescue(time.Since(started).Seconds())
		s.logger.Debug("rescue strategies generated",
			zap.String("goal_id", goalID),
			zap.String("status", string(d.Status)),
			zap.Int("count", len(strategies)),
		)
	}

	return &RescueResult{GoalID: goalID, Status: d.Status, Strategies: strategies}, nil
}

// Project returns yearly balance bands for the goal at its current allocation.
func (s *Service) Project(ctx context.Context, goalID string, numPaths int, seed *uint64) (*montecarlo.Projection, error) {
	goal, err := s.loadGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	allocation, err := s.currentAllocation(ctx, goal.GoalID)
	if err != nil {
		return nil, err
	}
	if numPaths == 0 {
		numPaths = s.defaultPaths
	}

	actx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.simulator.Project(actx, simulationParams(goal, allocation, numPaths), montecarlo.Options{Seed: seed})
}
