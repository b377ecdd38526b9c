package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealth-planner/internal/domain"
)

func TestGoalDetails_WithoutSimulation(t *testing.T) {
	f := newFixture(t)
	g := f.createGoal(t, retirementInput(), 2_000_000)

	d, err := f.svc.GoalDetails(context.Background(), g.GoalID)
	require.NoError(t, err)

	assert.Equal(t, domain.HorizonLong, d.Horizon)
	assert.InDelta(t, 3_855_432.89, d.PresentValue, 0.005)
	assert.Equal(t, 2_000_000.0, d.CurrentAllocation)
	assert.InDelta(t, 1_855_432.89, d.Shortfall, 0.005)
	require.NotNil(t, d.RequiredMonthlySIP)
	assert.InDelta(t, 22_387.26, *d.RequiredMonthlySIP, 0.01)
	assert.True(t, d.Feasible)
	assert.Nil(t, d.SuccessProbability)
	assert.Nil(t, d.PreviousSuccessProbability)
	assert.Nil(t, d.LatestSimulation)
	assert.Equal(t, domain.StatusAtRisk, d.Status)
}

func TestGoalDetails_FundedWithoutSimulation(t *testing.T) {
	f := newFixture(t)
	g := f.createGoal(t, retirementInput(), 4_000_000)

	d, err := f.svc.GoalDetails(context.Background(), g.GoalID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.Shortfall)
	assert.Equal(t, domain.StatusOnTrack, d.Status)
}

func TestGoalDetails_LatestAndPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGoal(t, retirementInput(), 2_000_000)

	first, err := f.svc.Simulate(ctx, SimulateRequest{GoalID: g.GoalID, NumPaths: 1000, Seed: ptr(uint64(1))})
	require.NoError(t, err)

	d, err := f.svc.GoalDetails(ctx, g.GoalID)
	require.NoError(t, err)
	require.NotNil(t, d.SuccessProbability)
	assert.Equal(t, first.Result.SuccessProbability, *d.SuccessProbability)
	assert.Nil(t, d.PreviousSuccessProbability)
	assert.Equal(t, first.Status, d.Status)

	second, err := f.svc.Simulate(ctx, SimulateRequest{GoalID: g.GoalID, NumPaths: 1000, Seed: ptr(uint64(2))})
	require.NoError(t, err)

	d, err = f.svc.GoalDetails(ctx, g.GoalID)
	require.NoError(t, err)
	assert.Equal(t, second.Result.SuccessProbability, *d.SuccessProbability)
	require.NotNil(t, d.PreviousSuccessProbability)
	assert.Equal(t, first.Result.SuccessProbability, *d.PreviousSuccessProbability)
	assert.Equal(t, second.Result.SimulationID, d.LatestSimulation.SimulationID)
}

func TestGoalDetails_StaleSimulationIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.createGoal(t, retirementInput(), 2_000_000)

	_, err := f.svc.Simulate(ctx, SimulateRequest{GoalID: g.GoalID, NumPaths: 500})
	require.NoError(t, err)

	in := retirementInput()
	in.MonthlyContribution = 5_000
	_, err = f.svc.UpdateGoal(ctx, g.GoalID, in)
	require.NoError(t, err)

	d, err := f.svc.GoalDetails(ctx, g.GoalID)
	require.NoError(t, err)
	assert.NotNil(t, d.LatestSimulation)
	assert.Nil(t, d.SuccessProbability)
	assert.Equal(t, domain.StatusAtRisk, d.Status)
}

func TestGoalDetails_ZeroHorizonInfeasible(t *testing.T) {
	f := newFixture(t)
	in := retirementInput()
	in.YearsUntilDue = 0
	g := f.createGoal(t, in, 2_000_000)

	d, err := f.svc.GoalDetails(context.Background(), g.GoalID)
	require.NoError(t, err)
	assert.Equal(t, 10_000_000.0, d.PresentValue)
	assert.False(t, d.Feasible)
	assert.Nil(t, d.RequiredMonthlySIP)
	assert.Equal(t, domain.HorizonShort, d.Horizon)
}

func TestGoalDetails_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GoalDetails(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExplainStatus(t *testing.T) {
	f := newFixture(t)
	g := f.createGoal(t, retirementInput(), 2_000_000)

	checks, err := f.svc.ExplainStatus(context.Background(), g.GoalID)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.False(t, checks[0].Pass)
}

func TestRescueStrategies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	atRisk := f.createGoal(t, retirementInput(), 2_000_000)
	res, err := f.svc.RescueStrategies(ctx, atRisk.GoalID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAtRisk, res.Status)
	assert.Len(t, res.Strategies, 5)

	again, err := f.svc.RescueStrategies(ctx, atRisk.GoalID, nil)
	require.NoError(t, err)
	assert.Equal(t, res.Strategies, again.Strategies)

	funded := f.createGoal(t, retirementInput(), 9_000_000)
	res, err = f.svc.RescueStrategies(ctx, funded.GoalID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOnTrack, res.Status)
	assert.NotNil(t, res.Strategies)
	assert.Empty(t, res.Strategies)

	_, err = f.svc.RescueStrategies(ctx, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListGoalsAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createGoal(t, retirementInput(), 2_000_000)
	f.createGoal(t, retirementInput(), 9_000_000)
	f.createGoal(t, retirementInput(), 0)

	all, err := f.svc.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "goal-1", all[0].Goal.GoalID)

	sum, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSummary{Total: 3, OnTrack: 1, AtRisk: 2}, sum)
}

func TestProject(t *testing.T) {
	f := newFixture(t)
	g := f.createGoal(t, retirementInput(), 2_000_000)

	proj, err := f.svc.Project(context.Background(), g.GoalID, 1000, ptr(uint64(3)))
	require.NoError(t, err)
	require.Len(t, proj.Points, 11)
	assert.Equal(t, 0, proj.Points[0].Month)
	assert.Equal(t, 2_000_000.0, proj.Points[0].Median)
	assert.Equal(t, 120, proj.Points[10].Month)
	assert.Equal(t, 10_000_000.0, proj.Points[10].Required)
}
