package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/storage/memory"
)

func TestCreateGoal_Defaults(t *testing.T) {
	f := newFixture(t)

	g, err := f.svc.CreateGoal(context.Background(), GoalInput{
		Name:          "House",
		TargetAmount:  5_000_000,
		YearsUntilDue: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "goal-1", g.GoalID)
	assert.Equal(t, domain.DefaultExpectedReturn, g.ExpectedReturn)
	assert.Equal(t, domain.DefaultVolatility, g.Volatility)
	assert.False(t, g.CreatedAt.IsZero())

	stored, err := f.svc.GetGoal(context.Background(), g.GoalID)
	require.NoError(t, err)
	assert.Equal(t, g.Name, stored.Name)
}

func TestCreateGoal_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   GoalInput
	}{
		{"empty name", GoalInput{TargetAmount: 1, YearsUntilDue: 1}},
		{"zero target", GoalInput{Name: "x", YearsUntilDue: 1}},
		{"negative years", GoalInput{Name: "x", TargetAmount: 1, YearsUntilDue: -1}},
		{"horizon beyond limit", GoalInput{Name: "x", TargetAmount: 1_000_000, YearsUntilDue: 1100, ExpectedReturn: ptr(-0.5)}},
		{"return at -100%", GoalInput{Name: "x", TargetAmount: 1, ExpectedReturn: ptr(-1.0)}},
		{"negative volatility", GoalInput{Name: "x", TargetAmount: 1, Volatility: ptr(-0.1)}},
		{"negative contribution", GoalInput{Name: "x", TargetAmount: 1, MonthlyContribution: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateGoal(context.Background(), tt.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestUpdateGoal(t *testing.T) {
	f := newFixture(t)
	g := f.createGoal(t, retirementInput(), 0)

	in := retirementInput()
	in.MonthlyContribution = 40_000
	updated, err := f.svc.UpdateGoal(context.Background(), g.GoalID, in)
	require.NoError(t, err)
	assert.Equal(t, 40_000.0, updated.MonthlyContribution)
	assert.True(t, updated.UpdatedAt.After(g.UpdatedAt))

	_, err = f.svc.UpdateGoal(context.Background(), "missing", in)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteGoal_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGoal(t, retirementInput(), 2_000_000)

	_, err := f.svc.Simulate(ctx, SimulateRequest{GoalID: g.GoalID, NumPaths: 500, RecordSnapshot: true})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteGoal(ctx, g.GoalID))

	_, err = f.svc.GetGoal(ctx, g.GoalID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sims, err := f.simulations.GetByGoalID(ctx, g.GoalID)
	require.NoError(t, err)
	assert.Empty(t, sims)

	snaps, err := f.snapshots.GetByGoalID(ctx, g.GoalID)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	allocs, err := f.allocations.GetByGoalID(ctx, g.GoalID)
	require.NoError(t, err)
	assert.Empty(t, allocs)

	assert.ErrorIs(t, f.svc.DeleteGoal(ctx, g.GoalID), domain.ErrNotFound)
}

func TestSetAllocations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGoal(t, retirementInput(), 0)

	got, err := f.svc.SetAllocations(ctx, g.GoalID, []domain.GoalAllocation{
		{InvestmentID: "equity", CurrentValue: 3_000_000, AllocationPct: 50},
		{InvestmentID: "debt", CurrentValue: 500_000, AllocationPct: 100},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "debt", got[0].InvestmentID)

	d, err := f.svc.GoalDetails(ctx, g.GoalID)
	require.NoError(t, err)
	assert.Equal(t, 2_000_000.0, d.CurrentAllocation)

	// Replaces rather than merges.
	got, err = f.svc.SetAllocations(ctx, g.GoalID, []domain.GoalAllocation{
		{InvestmentID: "gold", CurrentValue: 100_000, AllocationPct: 100},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "gold", got[0].InvestmentID)

	_, err = f.svc.SetAllocations(ctx, g.GoalID, []domain.GoalAllocation{
		{InvestmentID: "gold", CurrentValue: 1, AllocationPct: 10},
		{InvestmentID: "gold", CurrentValue: 1, AllocationPct: 20},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SetAllocations(ctx, g.GoalID, []domain.GoalAllocation{
		{InvestmentID: "gold", CurrentValue: 1, AllocationPct: 120},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SetAllocations(ctx, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// failingReplaceStore rejects every Replace.
type failingReplaceStore struct {
	*memory.AllocationStore
}

func (failingReplaceStore) Replace(context.Context, string, []*domain.GoalAllocation) error {
	return errors.New("connection reset")
}

func TestSetAllocations_FailureKeepsPrevious(t *testing.T) {
	store := failingReplaceStore{memory.NewAllocationStore()}
	f := newFixture(t, func(o *Options) {
		o.Allocations = store
	})
	ctx := context.Background()
	g := f.createGoal(t, retirementInput(), 0)
	require.NoError(t, store.Upsert(ctx, &domain.GoalAllocation{
		GoalID: g.GoalID, InvestmentID: "equity", CurrentValue: 2_000_000, AllocationPct: 100,
	}))

	_, err := f.svc.SetAllocations(ctx, g.GoalID, []domain.GoalAllocation{
		{InvestmentID: "gold", CurrentValue: 100_000, AllocationPct: 100},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	got, err := f.svc.Allocations(ctx, g.GoalID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "equity", got[0].InvestmentID)

	d, err := f.svc.GoalDetails(ctx, g.GoalID)
	require.NoError(t, err)
	assert.Equal(t, 2_000_000.0, d.CurrentAllocation)
}

func TestGoalHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGoal(t, retirementInput(), 2_000_000)

	for _, day := range []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	} {
		_, err := f.svc.Recorder().Record(ctx, g.GoalID, day)
		require.NoError(t, err)
	}

	all, err := f.svc.GoalHistory(ctx, g.GoalID, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ranged, err := f.svc.GoalHistory(ctx, g.GoalID,
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, 2, ranged[0].SnapshotDate.Day())

	_, err = f.svc.GoalHistory(ctx, g.GoalID,
		time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.GoalHistory(ctx, "missing", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListSimulations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGoal(t, retirementInput(), 2_000_000)

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := f.svc.Simulate(ctx, SimulateRequest{GoalID: g.GoalID, NumPaths: 500})
		require.NoError(t, err)
		ids = append(ids, run.Result.SimulationID)
	}

	got, err := f.svc.ListSimulations(ctx, g.GoalID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[2], got[0].SimulationID)
	assert.Equal(t, ids[1], got[1].SimulationID)

	one, err := f.svc.GetSimulation(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, g.GoalID, one.GoalID)

	_, err = f.svc.GetSimulation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.ListSimulations(ctx, g.GoalID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
