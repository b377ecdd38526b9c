package montecarlo

import (
	"math"
	"math/rand/v2"
)

// walker simulates single paths for one parameter set.
// It holds no mutable state and is shared read-only across workers.
type walker struct {
	start        float64
	contribution float64
	months       int
	mu           float64 // monthly mean return
	sigma        float64 // monthly standard deviation
	seed         uint64
}

func newWalker(p Params, months int, seed uint64) walker {
	return walker{
		start:        p.CurrentAllocation,
		contribution: p.MonthlyContribution,
		months:       months,
		mu:           p.ExpectedReturn / 12,
		sigma:        p.Volatility / math.Sqrt(12),
		seed:         seed,
	}
}

// walk simulates path idx. Each path draws from its own PCG stream keyed by
// (seed, idx), so the result does not depend on which worker runs it.
// When checkpoints is non-nil it receives the balance at month 0, every
// twelfth month and the final month.
func (w walker) walk(idx int, checkpoints []float64) (terminal float64, ruined bool) {
	rng := rand.New(rand.NewPCG(w.seed, uint64(idx)))
	funded := w.start > 0 || w.contribution > 0

	balance := w.start
	if checkpoints != nil {
		checkpoints[0] = balance
	}

	for m := 1; m <= w.months; m++ {
		r := w.mu + w.sigma*rng.NormFloat64()
		balance = balance*(1+r) + w.contribution
		if funded && balance <= 0 {
			ruined = true
		}
		if checkpoints != nil && (m%12 == 0 || m == w.months) {
			checkpoints[checkpointIndex(m)] = balance
		}
	}

	return balance, ruined
}

// checkpointCount is the number of recorded balances for a horizon of months.
func checkpointCount(months int) int {
	return checkpointIndex(months) + 1
}

func checkpointIndex(month int) int {
	return (month + 11) / 12
}
