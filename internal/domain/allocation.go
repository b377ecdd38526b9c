package domain

// GoalAllocation maps a share of one investment to a goal.
type GoalAllocation struct {
	GoalID        string
	InvestmentID  string
	CurrentValue  float64 // market value of the investment
	AllocationPct float64 // share assigned to the goal, (0, 100]
}

// Validate checks the mapping's fields.
func (a *GoalAllocation) Validate() error {
	if a.GoalID == "" {
		return NewValidationError("goal_id", "must not be empty")
	}
	if a.InvestmentID == "" {
		return NewValidationError("investment_id", "must not be empty")
	}
	if err := ValidateNonNegative("current_value", a.CurrentValue); err != nil {
		return err
	}
	if err := ValidatePositive("allocation_pct", a.AllocationPct); err != nil {
		return err
	}
	if a.AllocationPct > 100 {
		return NewValidationError("allocation_pct", "must not exceed 100")
	}
	return nil
}

// AllocatedValue returns the portion of the investment counted toward the goal.
func (a *GoalAllocation) AllocatedValue() float64 {
	return a.CurrentValue * a.AllocationPct / 100
}
