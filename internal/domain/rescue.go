package domain

// RiskLevel classifies a rescue strategy by its volatility.
type RiskLevel string

// Risk level constants
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RescueStrategy is a computed recommendation for a goal that is not on track.
// Never persisted; recomputed on demand.
type RescueStrategy struct {
	Name               string
	RiskLevel          RiskLevel
	NewExpectedReturn  float64
	NewVolatility      float64
	YearsUntilDue      float64
	RequiredMonthlySIP float64 // 0 when infeasible
	Feasible           bool
	SuccessProbability float64 // from a fresh simulation with RequiredMonthlySIP
	Description        string
}
