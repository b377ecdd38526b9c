package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundMoney rounds an amount half away from zero to two decimal places.
// Inf and NaN are returned unchanged; callers validate results first.
func RoundMoney(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// RoundMoneyUp rounds an amount up to the next cent.
func RoundMoneyUp(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).RoundCeil(2).Float64()
	return f
}

// RoundPercent rounds a percentage to two decimal places.
func RoundPercent(v float64) float64 {
	return RoundMoney(v)
}
