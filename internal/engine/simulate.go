package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/history"
	"wealth-planner/internal/idhash"
	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/observability"
	"wealth-planner/internal/pv"
	"wealth-planner/internal/status"
)

// SimulateRequest describes one simulation run for a goal.
type SimulateRequest struct {
	GoalID         string
	NumPaths       int     // 0 selects the service default
	Seed           *uint64 // nil draws a seed; the one used is recorded
	RecordSnapshot bool    // also append today's history snapshot
	// Progress, if set, receives path completion counts from worker goroutines.
	Progress func(done, total int)
}

// Simulate runs a Monte Carlo simulation for the goal at its current
// allocation, classifies the outcome and persists it.
//
// Each attempt is bounded by the service timeout. A timed-out attempt is
// retried once with NumPaths scaled by the degrade factor (not below the
// minimum); the result is then flagged Degraded and keeps RequestedPaths.
// A second timeout, or a cancelled ctx, returns the error.
//
// Persistence happens after the computation. A failed write does not fail the
// call: the run comes back with Saved=false and SaveError set.
func (s *Service) Simulate(ctx context.Context, req SimulateRequest) (*domain.SimulationRun, error) {
	goal, err := s.loadGoal(ctx, req.GoalID)
	if err != nil {
		return nil, err
	}
	allocation, err := s.currentAllocation(ctx, goal.GoalID)
	if err != nil {
		return nil, err
	}
	presentValue, err := pv.RequiredPresentValue(goal.TargetAmount, goal.YearsUntilDue, goal.ExpectedReturn)
	if err != nil {
		return nil, err
	}

	requested := req.NumPaths
	if requested == 0 {
		requested = s.defaultPaths
	}
	seed := s.seeder()
	if req.Seed != nil {
		seed = *req.Seed
	}

	started := time.Now()
	outcome, degraded, err := s.runWithDegrade(ctx, simulationParams(goal, allocation, requested), seed, req.Progress)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		if domain.IsRetryable(err) {
			s.metrics.RecordSimulation(observability.OutcomeTimeout, 0, elapsed)
		} else {
			s.metrics.RecordSimulation(observability.OutcomeError, 0, elapsed)
		}
		return nil, err
	}
	if degraded {
		s.metrics.RecordSimulation(observability.OutcomeDegraded, outcome.NumPaths, elapsed)
	} else {
		s.metrics.RecordSimulation(observability.OutcomeOK, outcome.NumPaths, elapsed)
	}

	result := s.newResult(goal, allocation, requested, outcome, degraded)
	prob := result.SuccessProbability
	run := &domain.SimulationRun{
		Result: result,
		Status: s.classifier.Classify(status.Input{
			CurrentAllocation:  allocation,
			PresentValue:       presentValue,
			SuccessProbability: &prob,
		}),
		PresentValue: presentValue,
		Saved:        true,
	}

	s.logger.Info("simulation completed",
		zap.String("goal_id", goal.GoalID),
		zap.String("simulation_id", result.SimulationID),
		zap.Int("num_paths", outcome.NumPaths),
		zap.Bool("degraded", degraded),
		zap.Float64("success_probability", prob),
		zap.String("status", string(run.Status)),
	)

	s.persist(ctx, run, req.RecordSnapshot)
	return run, nil
}

// runWithDegrade runs the simulation, retrying once with fewer paths on timeout.
func (s *Service) runWithDegrade(ctx context.Context, p montecarlo.Params, seed uint64, progress func(int, int)) (*montecarlo.Outcome, bool, error) {
	outcome, err := s.attempt(ctx, p, seed, progress)
	if err == nil || !domain.IsRetryable(err) || ctx.Err() != nil {
		return outcome, false, err
	}

	requested := p.NumPaths
	reduced := max(s.minPaths, int(float64(requested)*s.degradeFactor))
	if reduced >= requested {
		return nil, false, err
	}

	s.logger.Warn("simulation timed out, retrying degraded",
		zap.Int("requested_paths", requested),
		zap.Int("num_paths", reduced),
		zap.Duration("timeout", s.timeout),
	)

	p.NumPaths = reduced
	outcome, err = s.attempt(ctx, p, seed, progress)
	if err != nil {
		var te *domain.SimulationTimeoutError
		if errors.As(err, &te) {
			// Report against what the caller asked for.
			return nil, false, &domain.SimulationTimeoutError{RequestedPaths: requested, Budget: te.Budget}
		}
		return nil, false, err
	}
	return outcome, true, nil
}

func (s *Service) attempt(ctx context.Context, p montecarlo.Params, seed uint64, progress func(int, int)) (*montecarlo.Outcome, error) {
	actx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.simulator.Simulate(actx, p, montecarlo.Options{Seed: &seed, Progress: progress})
}

func (s *Service) newResult(goal *domain.Goal, allocation float64, requested int, out *montecarlo.Outcome, degraded bool) *domain.SimulationResult {
	runAt := s.now().UTC().Truncate(time.Millisecond)
	hash := idhash.GoalParamsHash(goal)

	return &domain.SimulationResult{
		SimulationID: idhash.ComputeSimulationID(goal.GoalID, hash, out.Seed, out.NumPaths, runAt.UnixMilli()),
		GoalID:       goal.GoalID,
		RunAt:        runAt,
		Config: domain.SimulationConfig{
			NumPaths:            out.NumPaths,
			RequestedPaths:      requested,
			Seed:                out.Seed,
			Months:              out.Months,
			Years:               goal.YearsUntilDue,
			ExpectedReturn:      goal.ExpectedReturn,
			Volatility:          goal.Volatility,
			MonthlyContribution: goal.MonthlyContribution,
			CurrentAllocation:   allocation,
			TargetAmount:        goal.TargetAmount,
			WorstPercentile:     out.Band.Worst,
			BestPercentile:      out.Band.Best,
			ParamsHash:          hash,
		},
		MedianOutcome:      out.Median,
		WorstCase:          out.Worst,
		BestCase:           out.Best,
		MeanOutcome:        out.Mean,
		SuccessProbability: out.SuccessProbability,
		RuinCount:          out.RuinCount,
		Degraded:           degraded,
	}
}

// persist writes the result and, if asked, the day's snapshot. The snapshot
// is built from the in-memory run, so it does not depend on the result write.
// Failures are reported on run, never returned.
func (s *Service) persist(ctx context.Context, run *domain.SimulationRun, recordSnapshot bool) {
	var failures []string

	if err := s.simulations.Insert(ctx, run.Result); err != nil {
		failures = append(failures, "save simulation: "+err.Error())
		s.metrics.RecordPersistFailure("simulation")
		s.logger.Error("failed to save simulation",
			zap.String("goal_id", run.Result.GoalID),
			zap.String("simulation_id", run.Result.SimulationID),
			zap.Error(err),
		)
	}

	if recordSnapshot {
		_, err := s.recorder.RecordRun(ctx, run)
		switch {
		case err == nil:
			run.SnapshotRecorded = true
		case errors.Is(err, history.ErrAlreadyRecorded):
		default:
			failures = append(failures, "record snapshot: "+err.Error())
			s.logger.Error("failed to record snapshot",
				zap.String("goal_id", run.Result.GoalID),
				zap.Error(err),
			)
		}
	}

	if len(failures) > 0 {
		run.Saved = false
		run.SaveError = strings.Join(failures, "; ")
	}
}
