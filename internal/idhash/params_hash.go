package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"wealth-planner/internal/domain"
)

// ComputeParamsHash fingerprints the goal parameters that determine a simulation.
// Formula: SHA256(target|years|return|volatility|contribution)
// Floats are formatted with the shortest exact representation.
// Returns hex-encoded hash (64 characters).
func ComputeParamsHash(
	targetAmount float64,
	yearsUntilDue float64,
	expectedReturn float64,
	volatility float64,
	monthlyContribution float64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		formatFloat(targetAmount),
		formatFloat(yearsUntilDue),
		formatFloat(expectedReturn),
		formatFloat(volatility),
		formatFloat(monthlyContribution),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// GoalParamsHash is ComputeParamsHash over the goal's own parameters.
// Both the status check and history snapshots use it to decide whether a
// stored simulation still describes the goal.
func GoalParamsHash(g *domain.Goal) string {
	return ComputeParamsHash(g.TargetAmount, g.YearsUntilDue, g.ExpectedReturn, g.Volatility, g.MonthlyContribution)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
