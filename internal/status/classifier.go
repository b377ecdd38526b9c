// Package status classifies goal health.
package status

import (
	"fmt"

	"wealth-planner/internal/domain"
)

// Classifier maps goal figures to a domain.Status. Pure and stateless.
type Classifier struct {
	policy Policy
}

// NewClassifier creates a classifier for policy.
func NewClassifier(policy Policy) *Classifier {
	return &Classifier{policy: policy}
}

// Policy returns the thresholds in use.
func (c *Classifier) Policy() Policy {
	return c.policy
}

// Classify returns the goal status.
// With a simulation: >= OnTrackMin is ON_TRACK, >= MonitorMin is MONITOR, otherwise AT_RISK.
// Without one: allocation >= present value is ON_TRACK, otherwise AT_RISK.
func (c *Classifier) Classify(in Input) domain.Status {
	if in.SuccessProbability == nil {
		if in.CurrentAllocation >= in.PresentValue {
			return domain.StatusOnTrack
		}
		return domain.StatusAtRisk
	}

	p := *in.SuccessProbability
	switch {
	case p >= c.policy.OnTrackMin:
		return domain.StatusOnTrack
	case p >= c.policy.MonitorMin:
		return domain.StatusMonitor
	default:
		return domain.StatusAtRisk
	}
}

// Explain returns the checks behind Classify, in evaluation order.
func (c *Classifier) Explain(in Input) []CriterionResult {
	if in.SuccessProbability == nil {
		return []CriterionResult{{
			Name:      "Allocation covers present value",
			Threshold: fmt.Sprintf(">= %.2f", in.PresentValue),
			Actual:    fmt.Sprintf("%.2f", in.CurrentAllocation),
			Pass:      in.CurrentAllocation >= in.PresentValue,
		}}
	}

	p := *in.SuccessProbability
	return []CriterionResult{
		{
			Name:      "On track",
			Threshold: fmt.Sprintf(">= %.2f%%", c.policy.OnTrackMin),
			Actual:    fmt.Sprintf("%.2f%%", p),
			Pass:      p >= c.policy.OnTrackMin,
		},
		{
			Name:      "Monitor",
			Threshold: fmt.Sprintf(">= %.2f%%", c.policy.MonitorMin),
			Actual:    fmt.Sprintf("%.2f%%", p),
			Pass:      p >= c.policy.MonitorMin,
		},
	}
}
