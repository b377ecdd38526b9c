// Package verification audits stored simulation results by re-running them
// from their recorded seed and configuration.
package verification

import (
	"context"
	"math"

	"wealth-planner/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
// Stored figures are rounded to the cent, so a faithful replay matches exactly.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// VerificationResult contains the result of verifying a single simulation.
type VerificationResult struct {
	SimulationID        string            // verified simulation ID
	Match               bool              // true if all fields match
	Divergences         []FieldDivergence // list of divergent fields
	StoredProbability   float64           // success probability from stored result
	ReplayedProbability float64           // success probability from replay
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalSimulations     int                  // total simulations verified
	MatchedSimulations   int                  // simulations that matched exactly
	DivergentSimulations int                  // simulations with divergences
	Results              []VerificationResult // individual results
}

// Verifier verifies stored simulation results.
type Verifier interface {
	// VerifySimulation loads the stored result, re-runs it with the same
	// seed and configuration, and compares all outputs.
	VerifySimulation(ctx context.Context, simulationID string) (*VerificationResult, error)

	// VerifyGoal verifies every stored result of a goal.
	VerifyGoal(ctx context.Context, goalID string) (*VerificationReport, error)
}

// CompareSimulationResults compares two results and returns divergences.
// Identity fields (SimulationID, GoalID, RunAt) are compared by the caller.
func CompareSimulationResults(stored, replayed *domain.SimulationResult) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.Config.NumPaths != replayed.Config.NumPaths {
		divergences = append(divergences, FieldDivergence{
			Field:    "NumPaths",
			Expected: stored.Config.NumPaths,
			Actual:   replayed.Config.NumPaths,
		})
	}

	if stored.Config.Months != replayed.Config.Months {
		divergences = append(divergences, FieldDivergence{
			Field:    "Months",
			Expected: stored.Config.Months,
			Actual:   replayed.Config.Months,
		})
	}

	if stored.Config.ParamsHash != replayed.Config.ParamsHash {
		divergences = append(divergences, FieldDivergence{
			Field:    "ParamsHash",
			Expected: stored.Config.ParamsHash,
			Actual:   replayed.Config.ParamsHash,
		})
	}

	if !floatEquals(stored.MedianOutcome, replayed.MedianOutcome) {
		divergences = append(divergences, FieldDivergence{
			Field:    "MedianOutcome",
			Expected: stored.MedianOutcome,
			Actual:   replayed.MedianOutcome,
		})
	}

	if !floatEquals(stored.WorstCase, replayed.WorstCase) {
		divergences = append(divergences, FieldDivergence{
			Field:    "WorstCase",
			Expected: stored.WorstCase,
			Actual:   replayed.WorstCase,
		})
	}

	if !floatEquals(stored.BestCase, replayed.BestCase) {
		divergences = append(divergences, FieldDivergence{
			Field:    "BestCase",
			Expected: stored.BestCase,
			Actual:   replayed.BestCase,
		})
	}

	if !floatEquals(stored.MeanOutcome, replayed.MeanOutcome) {
		divergences = append(divergences, FieldDivergence{
			Field:    "MeanOutcome",
			Expected: stored.MeanOutcome,
			Actual:   replayed.MeanOutcome,
		})
	}

	if !floatEquals(stored.SuccessProbability, replayed.SuccessProbability) {
		divergences = append(divergences, FieldDivergence{
			Field:    "SuccessProbability",
			Expected: stored.SuccessProbability,
			Actual:   replayed.SuccessProbability,
		})
	}

	if stored.RuinCount != replayed.RuinCount {
		divergences = append(divergences, FieldDivergence{
			Field:    "RuinCount",
			Expected: stored.RuinCount,
			Actual:   replayed.RuinCount,
		})
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
