package domain

// GoalDetails is the computed view of a goal against its current allocation.
type GoalDetails struct {
	Goal    *Goal
	Horizon Horizon

	PresentValue       float64
	CurrentAllocation  float64
	Shortfall          float64  // max(0, PresentValue - CurrentAllocation)
	RequiredMonthlySIP *float64 // nil when infeasible
	Feasible           bool
	Status             Status

	SuccessProbability         *float64 // latest simulation matching current params
	PreviousSuccessProbability *float64 // prior persisted simulation, if any
	LatestSimulation           *SimulationResult
}

// StatusSummary counts goals by status.
type StatusSummary struct {
	Total   int
	OnTrack int
	Monitor int
	AtRisk  int
}
