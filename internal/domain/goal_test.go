package domain

import (
	"errors"
	"math"
	"testing"
)

func validGoal() *Goal {
	return &Goal{
		GoalID:              "g-1",
		Name:                "Retirement",
		TargetAmount:        10_000_000,
		YearsUntilDue:       10,
		ExpectedReturn:      0.10,
		Volatility:          0.15,
		MonthlyContribution: 30_000,
	}
}

func TestGoal_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *Goal)
		field  string
	}{
		{"valid", func(g *Goal) {}, ""},
		{"empty name", func(g *Goal) { g.Name = "" }, "name"},
		{"zero target", func(g *Goal) { g.TargetAmount = 0 }, "target_amount"},
		{"negative target", func(g *Goal) { g.TargetAmount = -1 }, "target_amount"},
		{"NaN target", func(g *Goal) { g.TargetAmount = math.NaN() }, "target_amount"},
		{"negative years", func(g *Goal) { g.YearsUntilDue = -0.5 }, "years_until_due"},
		{"zero years", func(g *Goal) { g.YearsUntilDue = 0 }, ""},
		{"years at limit", func(g *Goal) { g.YearsUntilDue = MaxYearsUntilDue }, ""},
		{"years beyond limit", func(g *Goal) { g.YearsUntilDue = 1100 }, "years_until_due"},
		{"return at -100%", func(g *Goal) { g.ExpectedReturn = -1 }, "expected_return"},
		{"negative return above -100%", func(g *Goal) { g.ExpectedReturn = -0.2 }, ""},
		{"negative volatility", func(g *Goal) { g.Volatility = -0.01 }, "volatility"},
		{"infinite contribution", func(g *Goal) { g.MonthlyContribution = math.Inf(1) }, "monthly_contribution"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGoal()
			tt.mutate(g)
			err := g.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected errors.Is(err, ErrValidation)")
			}
		})
	}
}

func TestValidateResult(t *testing.T) {
	if err := ValidateResult("present_value", 1234.5); err != nil {
		t.Errorf("finite value rejected: %v", err)
	}
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		err := ValidateResult("present_value", v)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("ValidateResult(%v) = %v, want validation error", v, err)
		}
	}
}

func TestRoundMoney_NonFinite(t *testing.T) {
	if got := RoundMoney(math.Inf(1)); !math.IsInf(got, 1) {
		t.Errorf("RoundMoney(+Inf) = %v", got)
	}
	if got := RoundMoneyUp(math.NaN()); !math.IsNaN(got) {
		t.Errorf("RoundMoneyUp(NaN) = %v", got)
	}
	if got := RoundMoney(12.345); got != 12.35 {
		t.Errorf("RoundMoney(12.345) = %v, want 12.35", got)
	}
}

func TestGoal_Horizon(t *testing.T) {
	tests := []struct {
		years float64
		want  Horizon
	}{
		{0, HorizonShort},
		{2.99, HorizonShort},
		{3, HorizonMedium},
		{7, HorizonMedium},
		{7.5, HorizonLong},
		{30, HorizonLong},
	}

	for _, tt := range tests {
		g := &Goal{YearsUntilDue: tt.years}
		if got := g.Horizon(); got != tt.want {
			t.Errorf("Horizon(%v) = %s, want %s", tt.years, got, tt.want)
		}
	}
}

func TestGoalAllocation_Validate(t *testing.T) {
	a := &GoalAllocation{GoalID: "g", InvestmentID: "inv", CurrentValue: 1000, AllocationPct: 50}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got := a.AllocatedValue(); got != 500 {
		t.Errorf("AllocatedValue = %v, want 500", got)
	}

	a.AllocationPct = 120
	if err := a.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for pct > 100, got %v", err)
	}

	a.AllocationPct = 0
	if err := a.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for zero pct, got %v", err)
	}
}

func TestSnapshotDay(t *testing.T) {
	day := SnapshotDay(mustParse(t, "2026-03-04T23:59:59+05:30"))
	if got := day.Format("2006-01-02"); got != "2026-03-04" {
		t.Errorf("SnapshotDay = %s, want 2026-03-04", got)
	}
	if day.Hour() != 0 || day.Location().String() != "UTC" {
		t.Errorf("SnapshotDay not truncated to UTC midnight: %v", day)
	}
}
