// Package history records daily goal snapshots for trend display.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/idhash"
	"wealth-planner/internal/logger"
	"wealth-planner/internal/observability"
	"wealth-planner/internal/portfolio"
	"wealth-planner/internal/pv"
	"wealth-planner/internal/storage"
)

// ErrAlreadyRecorded is returned when a goal already has a snapshot for the day.
var ErrAlreadyRecorded = errors.New("snapshot already recorded for day")

// Recorder appends GoalHistorySnapshots.
type Recorder struct {
	goals       storage.GoalStore
	simulations storage.SimulationResultStore
	snapshots   storage.HistorySnapshotStore
	allocations portfolio.Provider
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// RecorderOptions configures a Recorder.
type RecorderOptions struct {
	Goals       storage.GoalStore
	Simulations storage.SimulationResultStore
	Snapshots   storage.HistorySnapshotStore
	Allocations portfolio.Provider
	Metrics     *observability.Metrics // optional
	Logger      *zap.Logger            // optional
	Now         func() time.Time       // optional, default time.Now
}

// NewRecorder creates a Recorder.
func NewRecorder(opts RecorderOptions) *Recorder {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		goals:       opts.Goals,
		simulations: opts.Simulations,
		snapshots:   opts.Snapshots,
		allocations: opts.Allocations,
		metrics:     opts.Metrics,
		logger:      logger.OrNop(opts.Logger),
		now:         now,
	}
}

// Record appends the snapshot of goalID for day (truncated to its UTC day).
// SuccessProbability comes from the latest simulation run with the goal's
// current parameters and is nil when there is none.
// A second call for the same day returns ErrAlreadyRecorded and changes nothing.
func (r *Recorder) Record(ctx context.Context, goalID string, day time.Time) (*domain.GoalHistorySnapshot, error) {
	goal, err := r.goals.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &domain.NotFoundError{Kind: "goal", ID: goalID}
		}
		return nil, fmt.Errorf("load goal: %w", err)
	}

	snap, err := r.build(ctx, goal, day)
	if err != nil {
		return nil, err
	}
	if err := r.insert(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// RecordRun appends the snapshot for the day of run.Result.RunAt from the
// run's own allocation, present value and success probability. Unlike Record
// it reads nothing back from the provider or the simulation store.
func (r *Recorder) RecordRun(ctx context.Context, run *domain.SimulationRun) (*domain.GoalHistorySnapshot, error) {
	if run == nil || run.Result == nil {
		return nil, errors.New("record run: missing simulation result")
	}
	prob := run.Result.SuccessProbability
	snap := &domain.GoalHistorySnapshot{
		GoalID:             run.Result.GoalID,
		SnapshotDate:       domain.SnapshotDay(run.Result.RunAt),
		CurrentAllocation:  run.Result.Config.CurrentAllocation,
		RequiredPV:         run.PresentValue,
		SuccessProbability: &prob,
		RecordedAt:         r.now().UTC(),
	}
	if err := r.insert(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *Recorder) insert(ctx context.Context, snap *domain.GoalHistorySnapshot) error {
	if err := r.snapshots.Insert(ctx, snap); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			r.metrics.RecordSnapshot("duplicate")
			return ErrAlreadyRecorded
		}
		r.metrics.RecordSnapshot("error")
		r.metrics.RecordPersistFailure("snapshot")
		return fmt.Errorf("insert snapshot: %w", err)
	}

	r.metrics.RecordSnapshot("recorded")
	return nil
}

func (r *Recorder) build(ctx context.Context, goal *domain.Goal, day time.Time) (*domain.GoalHistorySnapshot, error) {
	allocation, err := r.allocations.CurrentAllocation(ctx, goal.GoalID)
	if err != nil {
		return nil, fmt.Errorf("current allocation: %w", err)
	}

	requiredPV, err := pv.RequiredPresentValue(goal.TargetAmount, goal.YearsUntilDue, goal.ExpectedReturn)
	if err != nil {
		return nil, err
	}

	latest, err := r.simulations.GetLatest(ctx, goal.GoalID, 1)
	if err != nil {
		return nil, fmt.Errorf("latest simulation: %w", err)
	}

	var prob *float64
	if len(latest) > 0 && latest[0].Config.ParamsHash == idhash.GoalParamsHash(goal) {
		p := latest[0].SuccessProbability
		prob = &p
	}

	return &domain.GoalHistorySnapshot{
		GoalID:             goal.GoalID,
		SnapshotDate:       domain.SnapshotDay(day),
		CurrentAllocation:  allocation,
		RequiredPV:         requiredPV,
		SuccessProbability: prob,
		RecordedAt:         r.now().UTC(),
	}, nil
}

// Summary is the outcome of RecordAll.
type Summary struct {
	Recorded int
	Skipped  int              // already recorded for the day
	Failed   map[string]error // by goal_id
}

// RecordAll records day's snapshot for every goal. A failing goal does not
// stop the others; its error is collected in Summary.Failed.
// Only a failure to list goals or a done ctx is returned as an error.
func (r *Recorder) RecordAll(ctx context.Context, day time.Time) (Summary, error) {
	sum := Summary{Failed: make(map[string]error)}

	goals, err := r.goals.List(ctx)
	if err != nil {
		return sum, fmt.Errorf("list goals: %w", err)
	}

	for _, g := range goals {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		err := r.recordOne(ctx, g.GoalID, day)
		switch {
		case err == nil:
			sum.Recorded++
		case errors.Is(err, ErrAlreadyRecorded):
			sum.Skipped++
		default:
			sum.Failed[g.GoalID] = err
			r.logger.Warn("history snapshot failed",
				zap.String("goal_id", g.GoalID),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("history snapshots recorded",
		zap.Time("day", domain.SnapshotDay(day)),
		zap.Int("recorded", sum.Recorded),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", len(sum.Failed)),
	)
	return sum, nil
}

// recordOne is Record with a panic in any dependency turned into an error,
// so one goal cannot take down the batch.
func (r *Recorder) recordOne(ctx context.Context, goalID string, day time.Time) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("record goal %s: panic: %v", goalID, p)
		}
	}()
	_, err = r.Record(ctx, goalID, day)
	return err
}
