package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/storage/memory"
)

// stepClock advances by one second on every read.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	goals       *memory.GoalStore
	allocations *memory.AllocationStore
	simulations *memory.SimulationResultStore
	snapshots   *memory.HistorySnapshotStore
	clock       *stepClock
	svc         *Service
}

type fixtureOption func(*Options)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		goals:       memory.NewGoalStore(),
		allocations: memory.NewAllocationStore(),
		simulations: memory.NewSimulationResultStore(),
		snapshots:   memory.NewHistorySnapshotStore(),
		clock:       &stepClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)},
	}

	var seq int
	var mu sync.Mutex
	o := Options{
		Goals:       f.goals,
		Allocations: f.allocations,
		Simulations: f.simulations,
		Snapshots:   f.snapshots,
		Simulator:   montecarlo.NewEngine(montecarlo.Config{Workers: 4}),
		Now:         f.clock.Now,
		Seeder:      func() uint64 { return 7 },
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("goal-%d", seq)
		},
	}
	for _, fn := range opts {
		fn(&o)
	}
	f.svc = New(o)
	return f
}

func ptr[T any](v T) *T { return &v }

// retirementInput is 10M in 10 years at 10% / 15% with a 30k SIP.
func retirementInput() GoalInput {
	return GoalInput{
		Name:                "Retirement",
		TargetAmount:        10_000_000,
		YearsUntilDue:       10,
		ExpectedReturn:      ptr(0.10),
		Volatility:          ptr(0.15),
		MonthlyContribution: 30_000,
	}
}

// createGoal creates a goal funded by a single investment worth allocation.
func (f *fixture) createGoal(t *testing.T, in GoalInput, allocation float64) *domain.Goal {
	t.Helper()
	ctx := context.Background()
	g, err := f.svc.CreateGoal(ctx, in)
	require.NoError(t, err)
	if allocation > 0 {
		_, err = f.svc.SetAllocations(ctx, g.GoalID, []domain.GoalAllocation{
			{InvestmentID: "index-fund", CurrentValue: allocation, AllocationPct: 100},
		})
		require.NoError(t, err)
	}
	return g
}
