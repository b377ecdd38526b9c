package domain

import "time"

// SimulationConfig is the configuration snapshot recorded with every run.
// Together with Seed it is sufficient to reproduce the run bit for bit.
type SimulationConfig struct {
	NumPaths       int    // paths actually simulated
	RequestedPaths int    // paths requested (differs from NumPaths when degraded)
	Seed           uint64 // RNG seed used, recorded even when generated
	Months         int    // round(years * 12)

	Years               float64
	ExpectedReturn      float64
	Volatility          float64
	MonthlyContribution float64
	CurrentAllocation   float64
	TargetAmount        float64

	WorstPercentile float64 // e.g. 0.05
	BestPercentile  float64 // e.g. 0.95

	ParamsHash string // fingerprint of the goal parameters at run time
}

// SimulationResult is an immutable record of one Monte Carlo run for a goal.
// Append-only; the latest by RunAt is authoritative.
type SimulationResult struct {
	SimulationID string // deterministic hash of goal, config and run time
	GoalID       string
	RunAt        time.Time

	Config SimulationConfig

	MedianOutcome      float64 // P50 terminal balance
	WorstCase          float64 // worst percentile terminal balance
	BestCase           float64 // best percentile terminal balance
	MeanOutcome        float64
	SuccessProbability float64 // 0..100
	RuinCount          int     // paths whose balance reached zero or below at some month
	Degraded           bool    // ran with fewer paths after a timeout
}

// SimulationRun wraps a result with its persistence outcome.
type SimulationRun struct {
	Result           *SimulationResult
	Status           Status
	PresentValue     float64
	Saved            bool   // every requested write succeeded
	SaveError        string // set when Saved is false
	SnapshotRecorded bool   // a history snapshot was appended by this run
}
