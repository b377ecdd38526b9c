package status

import "fmt"

// Policy holds the success-probability thresholds. Lower bounds are inclusive.
type Policy struct {
	OnTrackMin float64 // probability >= OnTrackMin is ON_TRACK
	MonitorMin float64 // MonitorMin <= probability < OnTrackMin is MONITOR
}

// DefaultPolicy is 70 / 50.
var DefaultPolicy = Policy{OnTrackMin: 70, MonitorMin: 50}

// Validate checks 0 <= MonitorMin <= OnTrackMin <= 100.
func (p Policy) Validate() error {
	if p.MonitorMin < 0 || p.OnTrackMin > 100 || p.MonitorMin > p.OnTrackMin {
		return fmt.Errorf("invalid status policy: monitor_min=%v on_track_min=%v", p.MonitorMin, p.OnTrackMin)
	}
	return nil
}

// Input contains the figures a goal is classified on.
type Input struct {
	CurrentAllocation float64
	PresentValue      float64

	// SuccessProbability is nil when no simulation applies to the goal's
	// current parameters.
	SuccessProbability *float64
}

// CriterionResult represents pass/fail for one threshold check.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}
