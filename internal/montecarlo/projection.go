package montecarlo

import (
	"context"
	"sort"
	"time"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/pv"
)

// ProjectionPoint is the balance distribution at one yearly checkpoint.
type ProjectionPoint struct {
	Month    int
	Worst    float64
	Median   float64
	Best     float64
	Required float64 // straight line from current allocation to target
}

// Projection is the per-year balance distribution over a goal's horizon.
type Projection struct {
	Seed   uint64
	Band   Band
	Points []ProjectionPoint
}

// Project simulates the same paths as Simulate (same seed gives the same
// draws) and reports percentile balances at month 0, each year end and the
// final month.
func (e *Engine) Project(ctx context.Context, p Params, opts Options) (*Projection, error) {
	started := time.Now()

	band, err := e.validate(&p)
	if err != nil {
		return nil, err
	}

	seed := e.resolveSeed(opts)
	months := pv.Months(p.Years)
	w := newWalker(p, months, seed)
	cps := checkpointCount(months)

	// balances[c][i] is path i's balance at checkpoint c.
	balances := make([][]float64, cps)
	for c := range balances {
		balances[c] = make([]float64, p.NumPaths)
	}

	err = e.runChunks(ctx, p.NumPaths, opts.Progress, func(i int) {
		row := make([]float64, cps)
		w.walk(i, row)
		for c, v := range row {
			balances[c][i] = v
		}
	})
	if err != nil {
		return nil, simulationError(ctx, err, p.NumPaths, started)
	}

	points := make([]ProjectionPoint, cps)
	for c, col := range balances {
		if err := checkFinite(col); err != nil {
			return nil, err
		}
		sort.Float64s(col)
		worst := percentile(col, band.Worst)
		median := percentile(col, 0.50)
		best := percentile(col, band.Best)
		if err := checkFinite([]float64{worst, median, best}); err != nil {
			return nil, err
		}
		month := min(c*12, months)
		points[c] = ProjectionPoint{
			Month:    month,
			Worst:    domain.RoundMoney(worst),
			Median:   domain.RoundMoney(median),
			Best:     domain.RoundMoney(best),
			Required: domain.RoundMoney(requiredLine(p.CurrentAllocation, p.TargetAmount, month, months)),
		}
	}

	return &Projection{Seed: seed, Band: band, Points: points}, nil
}

func requiredLine(start, target float64, month, months int) float64 {
	if months == 0 {
		return target
	}
	return start + (target-start)*float64(month)/float64(months)
}
