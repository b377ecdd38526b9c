package api

import (
	"time"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/engine"
	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/status"
)

// GoalRequest is the body of goal create and update.
// Omitted expected_return and volatility take the defaults.
type GoalRequest struct {
	Name                string   `json:"name"`
	BeneficiaryID       string   `json:"beneficiary_id"`
	TargetAmount        float64  `json:"target_amount"`
	YearsUntilDue       float64  `json:"years_until_due"`
	ExpectedReturn      *float64 `json:"expected_return"`
	Volatility          *float64 `json:"volatility"`
	MonthlyContribution float64  `json:"monthly_contribution"`
}

func (r GoalRequest) input() engine.GoalInput {
	return engine.GoalInput{
		Name:                r.Name,
		BeneficiaryID:       r.BeneficiaryID,
		TargetAmount:        r.TargetAmount,
		YearsUntilDue:       r.YearsUntilDue,
		ExpectedReturn:      r.ExpectedReturn,
		Volatility:          r.Volatility,
		MonthlyContribution: r.MonthlyContribution,
	}
}

// SimulateRequest is the body of POST /simulate.
type SimulateRequest struct {
	NumSimulations int     `json:"num_simulations"`
	Seed           *uint64 `json:"seed"`
	RecordSnapshot bool    `json:"record_snapshot"`
}

// AllocationsRequest is the body of PUT /allocations.
type AllocationsRequest struct {
	Allocations []AllocationItem `json:"allocations"`
}

// AllocationItem maps a share of one investment to the goal.
type AllocationItem struct {
	InvestmentID  string  `json:"investment_id"`
	CurrentValue  float64 `json:"current_value"`
	AllocationPct float64 `json:"allocation_pct"`
}

// GoalResponse is a stored goal.
type GoalResponse struct {
	GoalID              string    `json:"goal_id"`
	Name                string    `json:"name"`
	BeneficiaryID       string    `json:"beneficiary_id,omitempty"`
	TargetAmount        float64   `json:"target_amount"`
	YearsUntilDue       float64   `json:"years_until_due"`
	ExpectedReturn      float64   `json:"expected_return"`
	Volatility          float64   `json:"volatility"`
	MonthlyContribution float64   `json:"monthly_contribution"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// GoalDetailsResponse is a goal with its computed figures.
type GoalDetailsResponse struct {
	Goal                       GoalResponse        `json:"goal"`
	Horizon                    string              `json:"horizon"`
	PresentValue               float64             `json:"present_value"`
	CurrentAllocation          float64             `json:"current_allocation"`
	Shortfall                  float64             `json:"shortfall"`
	RequiredMonthlySIP         *float64            `json:"required_monthly_sip"`
	Feasible                   bool                `json:"feasible"`
	Status                     string              `json:"status"`
	SuccessProbability         *float64            `json:"success_probability"`
	PreviousSuccessProbability *float64            `json:"previous_success_probability"`
	LatestSimulation           *SimulationResponse `json:"latest_simulation,omitempty"`
}

// SimulationResponse is a stored simulation result.
type SimulationResponse struct {
	SimulationID       string    `json:"simulation_id"`
	GoalID             string    `json:"goal_id"`
	RunAt              time.Time `json:"run_at"`
	NumPaths           int       `json:"num_paths"`
	RequestedPaths     int       `json:"requested_paths"`
	Seed               uint64    `json:"seed"`
	Months             int       `json:"months"`
	WorstPercentile    float64   `json:"worst_percentile"`
	BestPercentile     float64   `json:"best_percentile"`
	ParamsHash         string    `json:"params_hash"`
	MedianOutcome      float64   `json:"median_outcome"`
	WorstCase          float64   `json:"worst_case"`
	BestCase           float64   `json:"best_case"`
	MeanOutcome        float64   `json:"mean_outcome"`
	SuccessProbability float64   `json:"success_probability"`
	RuinCount          int       `json:"ruin_count"`
	Degraded           bool      `json:"degraded"`
}

// SimulationRunResponse is the outcome of POST /simulate.
type SimulationRunResponse struct {
	Simulation       SimulationResponse `json:"simulation"`
	Status           string             `json:"status"`
	PresentValue     float64            `json:"present_value"`
	Saved            bool               `json:"saved"`
	SaveError        string             `json:"save_error,omitempty"`
	SnapshotRecorded bool               `json:"snapshot_recorded"`
}

// RescueResponse is the rescue strategy set for a goal.
type RescueResponse struct {
	GoalID     string                   `json:"goal_id"`
	Status     string                   `json:"status"`
	Strategies []RescueStrategyResponse `json:"strategies"`
}

// RescueStrategyResponse is one rescue strategy.
type RescueStrategyResponse struct {
	Name               string  `json:"name"`
	RiskLevel          string  `json:"risk_level"`
	NewExpectedReturn  float64 `json:"new_expected_return"`
	NewVolatility      float64 `json:"new_volatility"`
	YearsUntilDue      float64 `json:"years_until_due"`
	RequiredMonthlySIP float64 `json:"required_monthly_sip"`
	Feasible           bool    `json:"feasible"`
	SuccessProbability float64 `json:"success_probability"`
	Description        string  `json:"description"`
}

// SnapshotResponse is one history snapshot.
type SnapshotResponse struct {
	GoalID             string    `json:"goal_id"`
	SnapshotDate       string    `json:"snapshot_date"` // YYYY-MM-DD
	CurrentAllocation  float64   `json:"current_allocation"`
	RequiredPV         float64   `json:"required_pv"`
	SuccessProbability *float64  `json:"success_probability"`
	RecordedAt         time.Time `json:"recorded_at"`
}

// AllocationResponse is a stored goal allocation.
type AllocationResponse struct {
	InvestmentID   string  `json:"investment_id"`
	CurrentValue   float64 `json:"current_value"`
	AllocationPct  float64 `json:"allocation_pct"`
	AllocatedValue float64 `json:"allocated_value"`
}

// ProjectionResponse is the yearly balance distribution.
type ProjectionResponse struct {
	GoalID          string                    `json:"goal_id"`
	Seed            uint64                    `json:"seed"`
	WorstPercentile float64                   `json:"worst_percentile"`
	BestPercentile  float64                   `json:"best_percentile"`
	Points          []ProjectionPointResponse `json:"points"`
}

// ProjectionPointResponse is the balance distribution at one checkpoint.
type ProjectionPointResponse struct {
	Month    int     `json:"month"`
	Worst    float64 `json:"worst"`
	Median   float64 `json:"median"`
	Best     float64 `json:"best"`
	Required float64 `json:"required"`
}

// CriterionResponse is one status check.
type CriterionResponse struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
}

// SummaryResponse counts goals by status.
type SummaryResponse struct {
	Total   int `json:"total"`
	OnTrack int `json:"on_track"`
	Monitor int `json:"monitor"`
	AtRisk  int `json:"at_risk"`
}

func toGoalResponse(g *domain.Goal) GoalResponse {
	return GoalResponse{
		GoalID:              g.GoalID,
		Name:                g.Name,
		BeneficiaryID:       g.BeneficiaryID,
		TargetAmount:        g.TargetAmount,
		YearsUntilDue:       g.YearsUntilDue,
		ExpectedReturn:      g.ExpectedReturn,
		Volatility:          g.Volatility,
		MonthlyContribution: g.MonthlyContribution,
		CreatedAt:           g.CreatedAt,
		UpdatedAt:           g.UpdatedAt,
	}
}

func toDetailsResponse(d *domain.GoalDetails) GoalDetailsResponse {
	resp := GoalDetailsResponse{
		Goal:                       toGoalResponse(d.Goal),
		Horizon:                    string(d.Horizon),
		PresentValue:               d.PresentValue,
		CurrentAllocation:          d.CurrentAllocation,
		Shortfall:                  d.Shortfall,
		RequiredMonthlySIP:         d.RequiredMonthlySIP,
		Feasible:                   d.Feasible,
		Status:                     string(d.Status),
		SuccessProbability:         d.SuccessProbability,
		PreviousSuccessProbability: d.PreviousSuccessProbability,
	}
	if d.LatestSimulation != nil {
		sim := toSimulationResponse(d.LatestSimulation)
		resp.LatestSimulation = &sim
	}
	return resp
}

func toSimulationResponse(r *domain.SimulationResult) SimulationResponse {
	return SimulationResponse{
		SimulationID:       r.SimulationID,
		GoalID:             r.GoalID,
		RunAt:              r.RunAt,
		NumPaths:           r.Config.NumPaths,
		RequestedPaths:     r.Config.RequestedPaths,
		Seed:               r.Config.Seed,
		Months:             r.Config.Months,
		WorstPercentile:    r.Config.WorstPercentile,
		BestPercentile:     r.Config.BestPercentile,
		ParamsHash:         r.Config.ParamsHash,
		MedianOutcome:      r.MedianOutcome,
		WorstCase:          r.WorstCase,
		BestCase:           r.BestCase,
		MeanOutcome:        r.MeanOutcome,
		SuccessProbability: r.SuccessProbability,
		RuinCount:          r.RuinCount,
		Degraded:           r.Degraded,
	}
}

func toRunResponse(run *domain.SimulationRun) SimulationRunResponse {
	return SimulationRunResponse{
		Simulation:       toSimulationResponse(run.Result),
		Status:           string(run.Status),
		PresentValue:     run.PresentValue,
		Saved:            run.Saved,
		SaveError:        run.SaveError,
		SnapshotRecorded: run.SnapshotRecorded,
	}
}

func toRescueResponse(r *engine.RescueResult) RescueResponse {
	resp := RescueResponse{
		GoalID:     r.GoalID,
		Status:     string(r.Status),
		Strategies: make([]RescueStrategyResponse, 0, len(r.Strategies)),
	}
	for _, s := range r.Strategies {
		resp.Strategies = append(resp.Strategies, RescueStrategyResponse{
			Name:               s.Name,
			RiskLevel:          string(s.RiskLevel),
			NewExpectedReturn:  s.NewExpectedReturn,
			NewVolatility:      s.NewVolatility,
			YearsUntilDue:      s.YearsUntilDue,
			RequiredMonthlySIP: s.RequiredMonthlySIP,
			Feasible:           s.Feasible,
			SuccessProbability: s.SuccessProbability,
			Description:        s.Description,
		})
	}
	return resp
}

func toSnapshotResponses(snaps []*domain.GoalHistorySnapshot) []SnapshotResponse {
	out := make([]SnapshotResponse, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, SnapshotResponse{
			GoalID:             s.GoalID,
			SnapshotDate:       s.SnapshotDate.Format(time.DateOnly),
			CurrentAllocation:  s.CurrentAllocation,
			RequiredPV:         s.RequiredPV,
			SuccessProbability: s.SuccessProbability,
			RecordedAt:         s.RecordedAt,
		})
	}
	return out
}

func toAllocationResponses(allocs []*domain.GoalAllocation) []AllocationResponse {
	out := make([]AllocationResponse, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, AllocationResponse{
			InvestmentID:   a.InvestmentID,
			CurrentValue:   a.CurrentValue,
			AllocationPct:  a.AllocationPct,
			AllocatedValue: domain.RoundMoney(a.AllocatedValue()),
		})
	}
	return out
}

func toProjectionResponse(goalID string, p *montecarlo.Projection) ProjectionResponse {
	resp := ProjectionResponse{
		GoalID:          goalID,
		Seed:            p.Seed,
		WorstPercentile: p.Band.Worst,
		BestPercentile:  p.Band.Best,
		Points:          make([]ProjectionPointResponse, 0, len(p.Points)),
	}
	for _, pt := range p.Points {
		resp.Points = append(resp.Points, ProjectionPointResponse(pt))
	}
	return resp
}

func toCriterionResponses(results []status.CriterionResult) []CriterionResponse {
	out := make([]CriterionResponse, 0, len(results))
	for _, c := range results {
		out = append(out, CriterionResponse{Name: c.Name, Threshold: c.Threshold, Actual: c.Actual, Pass: c.Pass})
	}
	return out
}
