package reporting

import (
	"time"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/montecarlo"
)

// GoalReport represents a single goal's viability report.
type GoalReport struct {
	// Metadata
	GeneratedAt time.Time
	Currency    string // ISO 4217 code used for display

	// Goal state
	Details *domain.GoalDetails

	// Recent simulations, newest first
	Simulations []*domain.SimulationResult

	// Yearly balance bands at the current allocation
	Projection []ProjectionRow

	// Rescue strategies (empty when ON_TRACK)
	Rescue []domain.RescueStrategy

	// History snapshots in date order
	History []*domain.GoalHistorySnapshot
}

// ProjectionRow represents one yearly checkpoint of the projection.
type ProjectionRow struct {
	Year     float64 // Month / 12
	Worst    float64
	Median   float64
	Best     float64
	Required float64
}

// projectionRows converts projection points to report rows.
func projectionRows(p *montecarlo.Projection) []ProjectionRow {
	if p == nil {
		return nil
	}
	rows := make([]ProjectionRow, 0, len(p.Points))
	for _, pt := range p.Points {
		rows = append(rows, ProjectionRow{
			Year:     float64(pt.Month) / 12,
			Worst:    pt.Worst,
			Median:   pt.Median,
			Best:     pt.Best,
			Required: pt.Required,
		})
	}
	return rows
}
