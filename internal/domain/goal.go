package domain

import (
	"fmt"
	"math"
	"time"
)

// Goal represents a future financial target owned by a household member.
// Status, present value and success probability are derived, never stored.
type Goal struct {
	GoalID        string // uuid
	Name          string // display name
	BeneficiaryID string // optional household member reference

	TargetAmount        float64 // future amount required (> 0)
	YearsUntilDue       float64 // horizon in years (>= 0, fractional allowed)
	ExpectedReturn      float64 // annual fraction, e.g. 0.10
	Volatility          float64 // annual standard deviation fraction, e.g. 0.15
	MonthlyContribution float64 // planned SIP (>= 0)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Horizon buckets a goal by time to due date.
type Horizon string

// Horizon constants
const (
	HorizonShort  Horizon = "SHORT"  // under 3 years
	HorizonMedium Horizon = "MEDIUM" // 3 to 7 years
	HorizonLong   Horizon = "LONG"   // beyond 7 years
)

// Default assumptions applied when a goal is created without them.
const (
	DefaultExpectedReturn = 0.10
	DefaultVolatility     = 0.12
)

// MaxYearsUntilDue bounds the horizon so compounding stays representable.
const MaxYearsUntilDue = 100

// Horizon derives the horizon bucket from YearsUntilDue.
func (g *Goal) Horizon() Horizon {
	switch {
	case g.YearsUntilDue < 3:
		return HorizonShort
	case g.YearsUntilDue <= 7:
		return HorizonMedium
	default:
		return HorizonLong
	}
}

// Validate checks the goal's numeric parameters.
func (g *Goal) Validate() error {
	if g.Name == "" {
		return NewValidationError("name", "must not be empty")
	}
	if err := ValidatePositive("target_amount", g.TargetAmount); err != nil {
		return err
	}
	if err := ValidateYears("years_until_due", g.YearsUntilDue); err != nil {
		return err
	}
	if err := ValidateReturn("expected_return", g.ExpectedReturn); err != nil {
		return err
	}
	if err := ValidateNonNegative("volatility", g.Volatility); err != nil {
		return err
	}
	return ValidateNonNegative("monthly_contribution", g.MonthlyContribution)
}

// ValidatePositive rejects values that are not finite and strictly positive.
func ValidatePositive(field string, v float64) error {
	if !isFinite(v) {
		return NewValidationError(field, "must be a finite number")
	}
	if v <= 0 {
		return NewValidationError(field, "must be greater than zero")
	}
	return nil
}

// ValidateNonNegative rejects values that are not finite or are negative.
func ValidateNonNegative(field string, v float64) error {
	if !isFinite(v) {
		return NewValidationError(field, "must be a finite number")
	}
	if v < 0 {
		return NewValidationError(field, "must not be negative")
	}
	return nil
}

// ValidateYears rejects horizons outside [0, MaxYearsUntilDue].
func ValidateYears(field string, v float64) error {
	if err := ValidateNonNegative(field, v); err != nil {
		return err
	}
	if v > MaxYearsUntilDue {
		return NewValidationError(field, fmt.Sprintf("must not exceed %d", MaxYearsUntilDue))
	}
	return nil
}

// ValidateResult rejects a computed amount that overflowed or underflowed
// into Inf or NaN.
func ValidateResult(field string, v float64) error {
	if !isFinite(v) {
		return NewValidationError(field, "result is not representable for these parameters")
	}
	return nil
}

// ValidateReturn rejects rates at or below -100%, where compounding is undefined.
func ValidateReturn(field string, r float64) error {
	if !isFinite(r) {
		return NewValidationError(field, "must be a finite number")
	}
	if r <= -1 {
		return NewValidationError(field, "must be greater than -1")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
