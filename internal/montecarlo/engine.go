// Package montecarlo simulates stochastic portfolio paths for a goal.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/pv"
)

// Band selects the worst- and best-case percentiles reported with the median.
type Band struct {
	Worst float64 // e.g. 0.05
	Best  float64 // e.g. 0.95
}

// DefaultBand reports the 5th and 95th percentiles.
var DefaultBand = Band{Worst: 0.05, Best: 0.95}

// Validate checks 0 <= Worst < 0.5 < Best <= 1.
func (b Band) Validate() error {
	if b.Worst < 0 || b.Worst >= 0.5 {
		return domain.NewValidationError("worst_percentile", "must be in [0, 0.5)")
	}
	if b.Best <= 0.5 || b.Best > 1 {
		return domain.NewValidationError("best_percentile", "must be in (0.5, 1]")
	}
	return nil
}

// Seeder produces a seed when the caller does not supply one.
type Seeder func() uint64

// Params are the inputs of one simulation.
type Params struct {
	CurrentAllocation   float64
	MonthlyContribution float64
	Years               float64
	ExpectedReturn      float64 // annual
	Volatility          float64 // annual
	TargetAmount        float64
	NumPaths            int
	Band                Band // zero value selects the engine default
}

// Options control a single run.
type Options struct {
	// Seed fixes the RNG. When nil the engine's Seeder picks one and the
	// outcome records it.
	Seed *uint64

	// Progress, if set, is called after each chunk with the number of
	// completed paths. It is called from worker goroutines and must be safe
	// for concurrent use; calls may arrive out of order.
	Progress func(done, total int)
}

// Outcome is the aggregate of one completed simulation.
type Outcome struct {
	NumPaths int
	Months   int
	Seed     uint64
	Band     Band

	Median             float64
	Worst              float64
	Best               float64
	Mean               float64
	StdDev             float64
	SuccessProbability float64 // 0..100, two decimals
	RuinCount          int
}

// Config configures an Engine.
type Config struct {
	Workers   int // default runtime.GOMAXPROCS(0)
	ChunkSize int // paths per task, default 256
	MaxPaths  int // default 200000
	Band      Band
	Seeder    Seeder
}

const (
	defaultChunkSize = 256
	defaultMaxPaths  = 200_000
)

// MaxYears bounds a single path. It leaves room for rescue scenarios that
// extend a goal already at domain.MaxYearsUntilDue.
const MaxYears = 2 * domain.MaxYearsUntilDue

// Engine runs Monte Carlo simulations. Safe for concurrent use.
type Engine struct {
	workers   int
	chunkSize int
	maxPaths  int
	band      Band
	seeder    Seeder
}

// NewEngine creates an Engine, filling zero config fields with defaults.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		workers:   cfg.Workers,
		chunkSize: cfg.ChunkSize,
		maxPaths:  cfg.MaxPaths,
		band:      cfg.Band,
		seeder:    cfg.Seeder,
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	if e.chunkSize <= 0 {
		e.chunkSize = defaultChunkSize
	}
	if e.maxPaths <= 0 {
		e.maxPaths = defaultMaxPaths
	}
	if e.band == (Band{}) {
		e.band = DefaultBand
	}
	if e.seeder == nil {
		e.seeder = rand.Uint64
	}
	return e
}

// Band returns the engine's default percentile band.
func (e *Engine) Band() Band {
	return e.band
}

// Simulate runs p.NumPaths independent monthly paths and aggregates terminal balances.
//
// Each month a return r ~ N(mu/12, sigma/sqrt(12)) is applied to the balance and
// the contribution is then added. Balances are not floored at zero; paths that
// reach zero or below are counted in RuinCount and stay in the distribution.
//
// Paths run in chunks on a bounded worker pool. Aggregation happens only after
// every chunk has finished. If ctx is done first, partial results are discarded:
// a deadline yields *domain.SimulationTimeoutError, a cancellation ctx.Err().
func (e *Engine) Simulate(ctx context.Context, p Params, opts Options) (*Outcome, error) {
	started := time.Now()

	band, err := e.validate(&p)
	if err != nil {
		return nil, err
	}

	seed := e.resolveSeed(opts)
	months := pv.Months(p.Years)
	w := newWalker(p, months, seed)

	terminals := make([]float64, p.NumPaths)
	ruined := make([]bool, p.NumPaths)

	if p.Volatility == 0 {
		// Every path is the deterministic path.
		if err := ctx.Err(); err != nil {
			return nil, simulationError(ctx, err, p.NumPaths, started)
		}
		t, r := w.walk(0, nil)
		for i := range terminals {
			terminals[i] = t
			ruined[i] = r
		}
		if opts.Progress != nil {
			opts.Progress(p.NumPaths, p.NumPaths)
		}
	} else {
		err := e.runChunks(ctx, p.NumPaths, opts.Progress, func(i int) {
			terminals[i], ruined[i] = w.walk(i, nil)
		})
		if err != nil {
			return nil, simulationError(ctx, err, p.NumPaths, started)
		}
	}

	return aggregate(terminals, ruined, p.TargetAmount, band, seed, months)
}

// runChunks executes fn for every index in [0, n) across the worker pool.
// Each chunk owns a disjoint index range.
func (e *Engine) runChunks(ctx context.Context, n int, progress func(done, total int), fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	var done atomic.Int64
	for start := 0; start < n; start += e.chunkSize {
		if gctx.Err() != nil {
			break
		}
		end := min(start+e.chunkSize, n)

		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				fn(i)
			}
			d := done.Add(int64(end - start))
			if progress != nil {
				progress(int(d), n)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// A cancellation that raced the last chunk still invalidates the run.
	return ctx.Err()
}

func (e *Engine) validate(p *Params) (Band, error) {
	if p.NumPaths <= 0 {
		return Band{}, domain.NewValidationError("num_paths", "must be greater than zero")
	}
	if p.NumPaths > e.maxPaths {
		return Band{}, domain.NewValidationError("num_paths", fmt.Sprintf("must not exceed %d", e.maxPaths))
	}
	if err := domain.ValidateNonNegative("current_allocation", p.CurrentAllocation); err != nil {
		return Band{}, err
	}
	if err := domain.ValidateNonNegative("monthly_contribution", p.MonthlyContribution); err != nil {
		return Band{}, err
	}
	if err := domain.ValidateNonNegative("years_until_due", p.Years); err != nil {
		return Band{}, err
	}
	if p.Years > MaxYears {
		return Band{}, domain.NewValidationError("years_until_due", fmt.Sprintf("must not exceed %d", MaxYears))
	}
	if err := domain.ValidateReturn("expected_return", p.ExpectedReturn); err != nil {
		return Band{}, err
	}
	if err := domain.ValidateNonNegative("volatility", p.Volatility); err != nil {
		return Band{}, err
	}
	if err := domain.ValidatePositive("target_amount", p.TargetAmount); err != nil {
		return Band{}, err
	}

	band := p.Band
	if band == (Band{}) {
		band = e.band
	}
	if err := band.Validate(); err != nil {
		return Band{}, err
	}
	return band, nil
}

func (e *Engine) resolveSeed(opts Options) uint64 {
	if opts.Seed != nil {
		return *opts.Seed
	}
	return e.seeder()
}

// simulationError maps a worker pool failure to the caller-facing error.
func simulationError(ctx context.Context, err error, numPaths int, started time.Time) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		budget := time.Since(started)
		if dl, ok := ctx.Deadline(); ok {
			budget = dl.Sub(started)
		}
		return &domain.SimulationTimeoutError{RequestedPaths: numPaths, Budget: budget}
	}
	return fmt.Errorf("simulation cancelled: %w", err)
}

// errOverflow reports balances that left the float64 range.
var errOverflow = domain.NewValidationError("expected_return",
	"simulated balances overflow over this horizon; lower the return or shorten the horizon")

// checkFinite rejects a distribution containing Inf or NaN.
func checkFinite(values []float64) error {
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return errOverflow
		}
	}
	return nil
}

// aggregate reduces terminal balances into an Outcome. terminals is sorted in place.
// A non-finite terminal or statistic yields errOverflow.
func aggregate(terminals []float64, ruined []bool, target float64, band Band, seed uint64, months int) (*Outcome, error) {
	if err := checkFinite(terminals); err != nil {
		return nil, err
	}

	n := len(terminals)
	sort.Float64s(terminals)

	// First index with terminal >= target; everything from there succeeds.
	successes := n - sort.SearchFloat64s(terminals, target)

	ruinCount := 0
	for _, r := range ruined {
		if r {
			ruinCount++
		}
	}

	mean, stddev := moments(terminals)
	median := percentile(terminals, 0.50)
	worst := percentile(terminals, band.Worst)
	best := percentile(terminals, band.Best)
	if err := checkFinite([]float64{mean, stddev, median, worst, best}); err != nil {
		return nil, err
	}

	return &Outcome{
		NumPaths: n,
		Months:   months,
		Seed:     seed,
		Band:     band,

		Median:             domain.RoundMoney(median),
		Worst:              domain.RoundMoney(worst),
		Best:               domain.RoundMoney(best),
		Mean:               domain.RoundMoney(mean),
		StdDev:             domain.RoundMoney(stddev),
		SuccessProbability: domain.RoundPercent(100 * float64(successes) / float64(n)),
		RuinCount:          ruinCount,
	}, nil
}
