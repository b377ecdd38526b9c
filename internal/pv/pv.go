// Package pv implements time-value-of-money calculations for goals.
package pv

import (
	"math"

	"wealth-planner/internal/domain"
)

// MonthsPerYear is the contribution frequency.
const MonthsPerYear = 12

// Months converts a fractional horizon in years to whole months, rounding to nearest.
func Months(years float64) int {
	return int(math.Round(years * MonthsPerYear))
}

// RequiredPresentValue returns the amount needed today to reach target in years,
// compounding annually at annualReturn. Fractional years are allowed.
// pv = target / (1 + r)^years, rounded to the cent.
func RequiredPresentValue(target, years, annualReturn float64) (float64, error) {
	if err := domain.ValidatePositive("target_amount", target); err != nil {
		return 0, err
	}
	if err := domain.ValidateNonNegative("years_until_due", years); err != nil {
		return 0, err
	}
	if err := domain.ValidateReturn("expected_return", annualReturn); err != nil {
		return 0, err
	}

	if years == 0 || annualReturn == 0 {
		return domain.RoundMoney(target), nil
	}

	return rounded("required_present_value", target/math.Pow(1+annualReturn, years))
}

// RequiredMonthlyContribution solves for the end-of-month SIP that grows
// currentAllocation to target over years at annualReturn:
//
//	target = alloc*(1+i)^n + sip*((1+i)^n - 1)/i,  i = r/12, n = round(years*12)
//
// Returns 0 when the allocation alone reaches target. Returns
// *domain.InfeasibleGoalError when there are no months left and a shortfall remains.
// The result is rounded up to the cent so that it always suffices.
func RequiredMonthlyContribution(target, years, annualReturn, currentAllocation float64) (float64, error) {
	if err := domain.ValidatePositive("target_amount", target); err != nil {
		return 0, err
	}
	if err := domain.ValidateNonNegative("years_until_due", years); err != nil {
		return 0, err
	}
	if err := domain.ValidateReturn("expected_return", annualReturn); err != nil {
		return 0, err
	}
	if err := domain.ValidateNonNegative("current_allocation", currentAllocation); err != nil {
		return 0, err
	}

	n := Months(years)
	if n == 0 {
		if currentAllocation >= target {
			return 0, nil
		}
		return 0, &domain.InfeasibleGoalError{
			Shortfall: domain.RoundMoney(target - currentAllocation),
			Reason:    "no contribution months remain",
		}
	}

	i := annualReturn / MonthsPerYear
	if i == 0 {
		sip := (target - currentAllocation) / float64(n)
		return domain.RoundMoneyUp(math.Max(0, sip)), nil
	}

	growth := math.Pow(1+i, float64(n))
	if err := domain.ValidateResult("required_monthly_contribution", growth); err != nil {
		return 0, err
	}
	need := target - currentAllocation*growth
	if need <= 0 {
		return 0, nil
	}

	sip := need * i / (growth - 1)
	if err := domain.ValidateResult("required_monthly_contribution", sip); err != nil {
		return 0, err
	}
	return domain.RoundMoneyUp(sip), nil
}

// FutureValue compounds a lump sum annually for years.
func FutureValue(presentValue, years, annualReturn float64) (float64, error) {
	if err := domain.ValidateNonNegative("present_value", presentValue); err != nil {
		return 0, err
	}
	if err := domain.ValidateNonNegative("years", years); err != nil {
		return 0, err
	}
	if err := domain.ValidateReturn("expected_return", annualReturn); err != nil {
		return 0, err
	}

	return rounded("future_value", presentValue*math.Pow(1+annualReturn, years))
}

// ContributionFutureValue returns the accumulated value of end-of-month
// contributions of sip over years at annualReturn compounded monthly.
func ContributionFutureValue(sip, years, annualReturn float64) (float64, error) {
	if err := domain.ValidateNonNegative("monthly_contribution", sip); err != nil {
		return 0, err
	}
	if err := domain.ValidateNonNegative("years", years); err != nil {
		return 0, err
	}
	if err := domain.ValidateReturn("expected_return", annualReturn); err != nil {
		return 0, err
	}

	n := Months(years)
	i := annualReturn / MonthsPerYear
	if i == 0 {
		return domain.RoundMoney(sip * float64(n)), nil
	}

	return rounded("contribution_future_value", sip*(math.Pow(1+i, float64(n))-1)/i)
}

// rounded rounds v to the cent, or reports that it overflowed.
func rounded(field string, v float64) (float64, error) {
	if err := domain.ValidateResult(field, v); err != nil {
		return 0, err
	}
	return domain.RoundMoney(v), nil
}
