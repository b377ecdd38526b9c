package verification

import (
	"context"
	"errors"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/idhash"
	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/storage"
)

// ErrSimulationNotFound is returned when simulation ID doesn't exist.
var ErrSimulationNotFound = errors.New("simulation not found")

// Simulator re-runs a simulation. Satisfied by *montecarlo.Engine.
type Simulator interface {
	Simulate(ctx context.Context, p montecarlo.Params, opts montecarlo.Options) (*montecarlo.Outcome, error)
}

// ReplayVerifier implements Verifier by replaying through a Simulator.
type ReplayVerifier struct {
	store     storage.SimulationResultStore
	simulator Simulator
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(store storage.SimulationResultStore, simulator Simulator) *ReplayVerifier {
	return &ReplayVerifier{store: store, simulator: simulator}
}

// VerifySimulation verifies a single stored result by replaying it.
func (v *ReplayVerifier) VerifySimulation(ctx context.Context, simulationID string) (*VerificationResult, error) {
	// 1. Load stored result
	stored, err := v.store.GetByID(ctx, simulationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSimulationNotFound
		}
		return nil, err
	}

	return v.verify(ctx, stored)
}

func (v *ReplayVerifier) verify(ctx context.Context, stored *domain.SimulationResult) (*VerificationResult, error) {
	// 2. Replay simulation
	replayed, err := v.replay(ctx, stored)
	if err != nil {
		return nil, err
	}

	// 3. Compare results
	divergences := CompareSimulationResults(stored, replayed)

	// The id commits to goal, params hash, seed, paths and run time.
	if id := recomputeID(stored); id != stored.SimulationID {
		divergences = append(divergences, FieldDivergence{
			Field:    "SimulationID",
			Expected: stored.SimulationID,
			Actual:   id,
		})
	}

	return &VerificationResult{
		SimulationID:        stored.SimulationID,
		Match:               len(divergences) == 0,
		Divergences:         divergences,
		StoredProbability:   stored.SuccessProbability,
		ReplayedProbability: replayed.SuccessProbability,
	}, nil
}

// VerifyGoal verifies every stored result of a goal.
func (v *ReplayVerifier) VerifyGoal(ctx context.Context, goalID string) (*VerificationReport, error) {
	results, err := v.store.GetByGoalID(ctx, goalID)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalSimulations: len(results),
		Results:          make([]VerificationResult, 0, len(results)),
	}

	for _, stored := range results {
		result, err := v.verify(ctx, stored)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Record error as divergence
			report.Results = append(report.Results, VerificationResult{
				SimulationID:      stored.SimulationID,
				Match:             false,
				StoredProbability: stored.SuccessProbability,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentSimulations++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedSimulations++
		} else {
			report.DivergentSimulations++
		}
	}

	return report, nil
}

// replay re-runs the stored configuration with the stored seed.
func (v *ReplayVerifier) replay(ctx context.Context, stored *domain.SimulationResult) (*domain.SimulationResult, error) {
	cfg := stored.Config
	seed := cfg.Seed

	out, err := v.simulator.Simulate(ctx, montecarlo.Params{
		CurrentAllocation:   cfg.CurrentAllocation,
		MonthlyContribution: cfg.MonthlyContribution,
		Years:               cfg.Years,
		ExpectedReturn:      cfg.ExpectedReturn,
		Volatility:          cfg.Volatility,
		TargetAmount:        cfg.TargetAmount,
		NumPaths:            cfg.NumPaths,
		Band:                montecarlo.Band{Worst: cfg.WorstPercentile, Best: cfg.BestPercentile},
	}, montecarlo.Options{Seed: &seed})
	if err != nil {
		return nil, err
	}

	replayed := *stored
	replayed.Config.NumPaths = out.NumPaths
	replayed.Config.Months = out.Months
	replayed.Config.ParamsHash = idhash.ComputeParamsHash(
		cfg.TargetAmount, cfg.Years, cfg.ExpectedReturn, cfg.Volatility, cfg.MonthlyContribution,
	)
	replayed.MedianOutcome = out.Median
	replayed.WorstCase = out.Worst
	replayed.BestCase = out.Best
	replayed.MeanOutcome = out.Mean
	replayed.SuccessProbability = out.SuccessProbability
	replayed.RuinCount = out.RuinCount
	return &replayed, nil
}

func recomputeID(r *domain.SimulationResult) string {
	return idhash.ComputeSimulationID(r.GoalID, r.Config.ParamsHash, r.Config.Seed, r.Config.NumPaths, r.RunAt.UnixMilli())
}

var _ Verifier = (*ReplayVerifier)(nil)
