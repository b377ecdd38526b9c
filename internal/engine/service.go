// Package engine orchestrates goal evaluation: it loads a goal and its
// allocation, computes the required present value, simulates, classifies,
// proposes rescue strategies and persists the results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/history"
	"wealth-planner/internal/logger"
	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/observability"
	"wealth-planner/internal/portfolio"
	"wealth-planner/internal/rescue"
	"wealth-planner/internal/status"
	"wealth-planner/internal/storage"
)

// Simulator is the Monte Carlo engine. Satisfied by *montecarlo.Engine.
type Simulator interface {
	Simulate(ctx context.Context, p montecarlo.Params, opts montecarlo.Options) (*montecarlo.Outcome, error)
	Project(ctx context.Context, p montecarlo.Params, opts montecarlo.Options) (*montecarlo.Projection, error)
	Band() montecarlo.Band
}

// Service is the goal viability engine.
type Service struct {
	// Stores
	goals       storage.GoalStore
	allocStore  storage.AllocationStore
	simulations storage.SimulationResultStore
	snapshots   storage.HistorySnapshotStore

	// Collaborators
	allocations portfolio.Provider
	simulator   Simulator
	classifier  *status.Classifier
	rescuer     *rescue.Generator
	recorder    *history.Recorder
	metrics     *observability.Metrics
	logger      *zap.Logger

	// Policy
	defaultPaths  int
	minPaths      int
	timeout       time.Duration
	degradeFactor float64

	// Injected sources
	now    func() time.Time
	seeder func() uint64
	newID  func() string
}

// Options for creating a Service.
type Options struct {
	// Required stores
	Goals       storage.GoalStore
	Allocations storage.AllocationStore
	Simulations storage.SimulationResultStore
	Snapshots   storage.HistorySnapshotStore

	// Required collaborators
	Portfolio  portfolio.Provider // default: StoreProvider over Allocations
	Simulator  Simulator
	Classifier *status.Classifier
	Rescue     *rescue.Generator
	Recorder   *history.Recorder // default: built from the stores

	// Optional
	Metrics *observability.Metrics
	Logger  *zap.Logger

	// Simulation request policy
	DefaultPaths  int           // default 5000
	MinPaths      int           // floor for degraded retries, default 500
	Timeout       time.Duration // per attempt, default 30s
	DegradeFactor float64       // default 0.25

	// Injected sources, mainly for tests
	Now    func() time.Time
	Seeder func() uint64
	NewID  func() string
}

// Service defaults.
const (
	DefaultPaths         = 5000
	DefaultMinPaths      = 500
	DefaultTimeout       = 30 * time.Second
	DefaultDegradeFactor = 0.25
)

// New creates a Service.
func New(opts Options) *Service {
	s := &Service{
		goals:         opts.Goals,
		allocStore:    opts.Allocations,
		simulations:   opts.Simulations,
		snapshots:     opts.Snapshots,
		allocations:   opts.Portfolio,
		simulator:     opts.Simulator,
		classifier:    opts.Classifier,
		rescuer:       opts.Rescue,
		recorder:      opts.Recorder,
		metrics:       opts.Metrics,
		logger:        logger.OrNop(opts.Logger),
		defaultPaths:  opts.DefaultPaths,
		minPaths:      opts.MinPaths,
		timeout:       opts.Timeout,
		degradeFactor: opts.DegradeFactor,
		now:           opts.Now,
		seeder:        opts.Seeder,
		newID:         opts.NewID,
	}

	if s.defaultPaths <= 0 {
		s.defaultPaths = DefaultPaths
	}
	if s.minPaths <= 0 {
		s.minPaths = DefaultMinPaths
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.degradeFactor <= 0 || s.degradeFactor >= 1 {
		s.degradeFactor = DefaultDegradeFactor
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.seeder == nil {
		s.seeder = rand.Uint64
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.classifier == nil {
		s.classifier = status.NewClassifier(status.DefaultPolicy)
	}
	if s.allocations == nil {
		s.allocations = portfolio.NewStoreProvider(s.allocStore)
	}
	if s.rescuer == nil {
		s.rescuer = rescue.NewGenerator(s.simulator, rescue.DefaultPolicy())
	}
	if s.recorder == nil {
		s.recorder = history.NewRecorder(history.RecorderOptions{
			Goals:       s.goals,
			Simulations: s.simulations,
			Snapshots:   s.snapshots,
			Allocations: s.allocations,
			Metrics:     s.metrics,
			Logger:      s.logger,
			Now:         s.now,
		})
	}

	return s
}

// Recorder returns the history recorder used for snapshots.
func (s *Service) Recorder() *history.Recorder {
	return s.recorder
}

// loadGoal maps storage.ErrNotFound to *domain.NotFoundError.
func (s *Service) loadGoal(ctx context.Context, goalID string) (*domain.Goal, error) {
	g, err := s.goals.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &domain.NotFoundError{Kind: "goal", ID: goalID}
		}
		return nil, fmt.Errorf("load goal: %w", err)
	}
	return g, nil
}

func (s *Service) currentAllocation(ctx context.Context, goalID string) (float64, error) {
	alloc, err := s.allocations.CurrentAllocation(ctx, goalID)
	if err != nil {
		return 0, fmt.Errorf("current allocation: %w", err)
	}
	return alloc, nil
}

func simulationParams(g *domain.Goal, allocation float64, numPaths int) montecarlo.Params {
	return montecarlo.Params{
		CurrentAllocation:   allocation,
		MonthlyContribution: g.MonthlyContribution,
		Years:               g.YearsUntilDue,
		ExpectedReturn:      g.ExpectedReturn,
		Volatility:          g.Volatility,
		TargetAmount:        g.TargetAmount,
		NumPaths:            numPaths,
	}
}
