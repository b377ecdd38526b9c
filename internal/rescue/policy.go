package rescue

import (
	"fmt"

	"wealth-planner/internal/domain"
)

// Mix is a model allocation with fixed return and volatility assumptions.
type Mix struct {
	Name           string
	ExpectedReturn float64
	Volatility     float64
}

// DefaultMixes are the Safe, Balanced and Aggressive allocations.
var DefaultMixes = []Mix{
	{Name: "Safe", ExpectedReturn: 0.08, Volatility: 0.06},
	{Name: "Balanced", ExpectedReturn: 0.10, Volatility: 0.10},
	{Name: "Aggressive", ExpectedReturn: 0.14, Volatility: 0.18},
}

// Policy holds the rescue generator's constants.
type Policy struct {
	NumPaths    int     // paths per archetype simulation
	AllowExtend bool    // offer the Extend Horizon archetype
	ExtendYears float64 // years added by Extend Horizon

	LowRiskMaxVolatility    float64 // volatility below this is Low
	MediumRiskMaxVolatility float64 // volatility below this is Medium, otherwise High

	Mixes []Mix
}

// DefaultPolicy returns 1000 paths, +3 years and 8% / 15% risk thresholds.
func DefaultPolicy() Policy {
	return Policy{
		NumPaths:                1000,
		AllowExtend:             true,
		ExtendYears:             3,
		LowRiskMaxVolatility:    0.08,
		MediumRiskMaxVolatility: 0.15,
		Mixes:                   DefaultMixes,
	}
}

// Validate checks the policy is usable.
func (p Policy) Validate() error {
	if p.NumPaths <= 0 {
		return fmt.Errorf("rescue policy: num_paths must be positive, got %d", p.NumPaths)
	}
	if p.AllowExtend && (p.ExtendYears <= 0 || p.ExtendYears > domain.MaxYearsUntilDue) {
		return fmt.Errorf("rescue policy: extend_years must be in (0, %d], got %v", domain.MaxYearsUntilDue, p.ExtendYears)
	}
	if p.LowRiskMaxVolatility <= 0 || p.MediumRiskMaxVolatility < p.LowRiskMaxVolatility {
		return fmt.Errorf("rescue policy: invalid risk thresholds %v / %v",
			p.LowRiskMaxVolatility, p.MediumRiskMaxVolatility)
	}
	for _, m := range p.Mixes {
		if err := domain.ValidateReturn("expected_return", m.ExpectedReturn); err != nil {
			return fmt.Errorf("rescue policy: mix %s: %w", m.Name, err)
		}
		if err := domain.ValidateNonNegative("volatility", m.Volatility); err != nil {
			return fmt.Errorf("rescue policy: mix %s: %w", m.Name, err)
		}
	}
	return nil
}

// RiskLevel classifies a volatility against the policy thresholds.
func (p Policy) RiskLevel(volatility float64) domain.RiskLevel {
	switch {
	case volatility < p.LowRiskMaxVolatility:
		return domain.RiskLow
	case volatility < p.MediumRiskMaxVolatility:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}
