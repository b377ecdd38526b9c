// Package reporting renders goal viability reports as Markdown and CSV.
package reporting

import (
	"context"
	"time"

	"github.com/Rhymond/go-money"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/engine"
	"wealth-planner/internal/montecarlo"
)

// Source is the subset of the engine service a report reads from.
type Source interface {
	GoalDetails(ctx context.Context, goalID string) (*domain.GoalDetails, error)
	ListSimulations(ctx context.Context, goalID string, limit int) ([]*domain.SimulationResult, error)
	Project(ctx context.Context, goalID string, numPaths int, seed *uint64) (*montecarlo.Projection, error)
	RescueStrategies(ctx context.Context, goalID string, seed *uint64) (*engine.RescueResult, error)
	GoalHistory(ctx context.Context, goalID string, start, end time.Time) ([]*domain.GoalHistorySnapshot, error)
}

// Options tune what a report contains.
type Options struct {
	SimulationLimit int     // recent simulations listed, default 5
	ProjectionPaths int     // paths for the projection, default 2000
	Seed            *uint64 // fixes projection and rescue draws
}

const (
	defaultSimulationLimit = 5
	defaultProjectionPaths = 2000
)

// Generator produces goal reports from the engine.
type Generator struct {
	source   Source
	currency string
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. An unknown currency falls
// back to INR.
func NewGenerator(source Source, currency string) *Generator {
	if money.GetCurrency(currency) == nil {
		currency = money.INR
	}
	return &Generator{
		source:   source,
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one goal.
func (g *Generator) Generate(ctx context.Context, goalID string, opts Options) (*GoalReport, error) {
	if opts.SimulationLimit <= 0 {
		opts.SimulationLimit = defaultSimulationLimit
	}
	if opts.ProjectionPaths <= 0 {
		opts.ProjectionPaths = defaultProjectionPaths
	}

	details, err := g.source.GoalDetails(ctx, goalID)
	if err != nil {
		return nil, err
	}

	sims, err := g.source.ListSimulations(ctx, goalID, opts.SimulationLimit)
	if err != nil {
		return nil, err
	}

	// Projection: reuse the latest seed so the bands line up with the stored run
	seed := opts.Seed
	if seed == nil && details.LatestSimulation != nil {
		s := details.LatestSimulation.Config.Seed
		seed = &s
	}
	projection, err := g.source.Project(ctx, goalID, opts.ProjectionPaths, seed)
	if err != nil {
		return nil, err
	}

	rescue, err := g.source.RescueStrategies(ctx, goalID, opts.Seed)
	if err != nil {
		return nil, err
	}

	history, err := g.source.GoalHistory(ctx, goalID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	return &GoalReport{
		GeneratedAt: g.now(),
		Currency:    g.currency,
		Details:     details,
		Simulations: sims,
		Projection:  projectionRows(projection),
		Rescue:      rescue.Strategies,
		History:     history,
	}, nil
}
