package montecarlo

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"wealth-planner/internal/domain"
)

func retirementParams(paths int) Params {
	return Params{
		CurrentAllocation:   2_000_000,
		MonthlyContribution: 30_000,
		Years:               10,
		ExpectedReturn:      0.10,
		Volatility:          0.15,
		TargetAmount:        10_000_000,
		NumPaths:            paths,
	}
}

func seedPtr(s uint64) *uint64 {
	return &s
}

func TestSimulate_Bounds(t *testing.T) {
	e := NewEngine(Config{})

	tests := []Params{
		retirementParams(2000),
		{CurrentAllocation: 0, MonthlyContribution: 1000, Years: 3, ExpectedReturn: 0.06, Volatility: 0.3, TargetAmount: 50_000, NumPaths: 1000},
		{CurrentAllocation: 100, MonthlyContribution: 0, Years: 0.5, ExpectedReturn: -0.2, Volatility: 0.5, TargetAmount: 1_000_000, NumPaths: 500},
		{CurrentAllocation: 5_000_000, MonthlyContribution: 0, Years: 1, ExpectedReturn: 0.1, Volatility: 0.1, TargetAmount: 1, NumPaths: 100},
	}

	for i, p := range tests {
		out, err := e.Simulate(context.Background(), p, Options{Seed: seedPtr(uint64(i))})
		if err != nil {
			t.Fatalf("Simulate failed: %v", err)
		}
		if out.SuccessProbability < 0 || out.SuccessProbability > 100 {
			t.Errorf("case %d: success probability %v out of [0, 100]", i, out.SuccessProbability)
		}
		if !(out.Worst <= out.Median && out.Median <= out.Best) {
			t.Errorf("case %d: expected worst <= median <= best, got %v, %v, %v", i, out.Worst, out.Median, out.Best)
		}
		if out.NumPaths != p.NumPaths {
			t.Errorf("case %d: NumPaths = %d, want %d", i, out.NumPaths, p.NumPaths)
		}
	}
}

func TestSimulate_SeededDeterminism(t *testing.T) {
	p := retirementParams(3000)

	a, err := NewEngine(Config{Workers: 1, ChunkSize: 1000}).Simulate(context.Background(), p, Options{Seed: seedPtr(42)})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	b, err := NewEngine(Config{Workers: 8, ChunkSize: 7}).Simulate(context.Background(), p, Options{Seed: seedPtr(42)})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	if *a != *b {
		t.Errorf("Seeded runs differ across worker counts:\n%+v\n%+v", a, b)
	}

	c, err := NewEngine(Config{}).Simulate(context.Background(), p, Options{Seed: seedPtr(43)})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if c.Median == a.Median {
		t.Errorf("Different seeds produced the same median %v", c.Median)
	}
}

func TestSimulate_RecordsGeneratedSeed(t *testing.T) {
	e := NewEngine(Config{Seeder: func() uint64 { return 7 }})
	p := retirementParams(500)

	unseeded, err := e.Simulate(context.Background(), p, Options{})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if unseeded.Seed != 7 {
		t.Fatalf("Seed = %d, want 7", unseeded.Seed)
	}

	replay, err := NewEngine(Config{}).Simulate(context.Background(), p, Options{Seed: seedPtr(unseeded.Seed)})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if *replay != *unseeded {
		t.Errorf("Replaying recorded seed differs:\n%+v\n%+v", replay, unseeded)
	}
}

func TestSimulate_Convergence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence test in short mode")
	}

	e := NewEngine(Config{})
	p := retirementParams(50_000)

	a, err := e.Simulate(context.Background(), p, Options{})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	b, err := e.Simulate(context.Background(), p, Options{})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	if a.Seed == b.Seed {
		t.Fatalf("Expected independent seeds, both %d", a.Seed)
	}
	if diff := math.Abs(a.SuccessProbability - b.SuccessProbability); diff > 2 {
		t.Errorf("Unseeded runs differ by %.2f points (%.2f vs %.2f)", diff, a.SuccessProbability, b.SuccessProbability)
	}
}

// replayed is a seeded run recomputed one path at a time on the test goroutine.
type replayed struct {
	successProbability float64
	median, worst      float64
	best               float64
	ruinCount          int
}

// replay walks every path of p in index order from its own PCG(seed, idx)
// stream and reduces the sorted terminals with linear-interpolated percentiles.
func replay(p Params, seed uint64, band Band) replayed {
	months := int(math.Round(p.Years * 12))
	mu := p.ExpectedReturn / 12
	sigma := p.Volatility / math.Sqrt(12)

	terminals := make([]float64, p.NumPaths)
	var res replayed
	for idx := range terminals {
		rng := rand.New(rand.NewPCG(seed, uint64(idx)))
		balance := p.CurrentAllocation
		broke := false
		for m := 0; m < months; m++ {
			r := mu + sigma*rng.NormFloat64()
			balance = balance*(1+r) + p.MonthlyContribution
			if balance <= 0 {
				broke = true
			}
		}
		terminals[idx] = balance
		if broke {
			res.ruinCount++
		}
	}

	sort.Float64s(terminals)
	last := len(terminals) - 1
	at := func(q float64) float64 {
		pos := q * float64(last)
		lo := int(math.Floor(pos))
		if lo >= last {
			return terminals[last]
		}
		return terminals[lo] + (pos-float64(lo))*(terminals[lo+1]-terminals[lo])
	}

	hits := 0
	for _, v := range terminals {
		if v >= p.TargetAmount {
			hits++
		}
	}

	res.successProbability = domain.RoundPercent(100 * float64(hits) / float64(len(terminals)))
	res.median = domain.RoundMoney(at(0.50))
	res.worst = domain.RoundMoney(at(band.Worst))
	res.best = domain.RoundMoney(at(band.Best))
	return res
}

func TestSimulate_RetirementScenario(t *testing.T) {
	const seed = 20240101
	p := retirementParams(5000)

	out, err := NewEngine(Config{Workers: 8}).Simulate(context.Background(), p, Options{Seed: seedPtr(seed)})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	want := replay(p, seed, DefaultBand)
	if out.SuccessProbability != want.successProbability {
		t.Errorf("SuccessProbability = %v, want %v", out.SuccessProbability, want.successProbability)
	}
	if out.Median != want.median {
		t.Errorf("Median = %v, want %v", out.Median, want.median)
	}
	if out.Worst != want.worst {
		t.Errorf("Worst = %v, want %v", out.Worst, want.worst)
	}
	if out.Best != want.best {
		t.Errorf("Best = %v, want %v", out.Best, want.best)
	}
	if out.RuinCount != want.ruinCount {
		t.Errorf("RuinCount = %d, want %d", out.RuinCount, want.ruinCount)
	}

	// Analytic median of the lognormal-ish terminal is near 10.7M; success near 57%.
	if out.SuccessProbability < 50 || out.SuccessProbability > 65 {
		t.Errorf("SuccessProbability = %.2f, want within [50, 65]", out.SuccessProbability)
	}
	if out.Median < 9_500_000 || out.Median > 12_000_000 {
		t.Errorf("Median = %.2f, want within [9.5M, 12M]", out.Median)
	}
	if out.Months != 120 {
		t.Errorf("Months = %d, want 120", out.Months)
	}
	if out.RuinCount != 0 {
		t.Errorf("RuinCount = %d, want 0", out.RuinCount)
	}
}

func TestSimulate_ZeroVolatility(t *testing.T) {
	e := NewEngine(Config{})

	tests := []struct {
		name   string
		target float64
		want   float64
	}{
		{"reachable", 5_000_000, 100},
		{"unreachable", 50_000_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := retirementParams(1000)
			p.Volatility = 0
			p.TargetAmount = tt.target

			out, err := e.Simulate(context.Background(), p, Options{})
			if err != nil {
				t.Fatalf("Simulate failed: %v", err)
			}
			if out.Median != out.Best || out.Median != out.Worst {
				t.Errorf("Expected collapsed distribution, got worst=%v median=%v best=%v", out.Worst, out.Median, out.Best)
			}
			if out.SuccessProbability != tt.want {
				t.Errorf("SuccessProbability = %v, want %v", out.SuccessProbability, tt.want)
			}
			if out.StdDev != 0 {
				t.Errorf("StdDev = %v, want 0", out.StdDev)
			}
		})
	}
}

func TestSimulate_ZeroVolatilityMatchesClosedForm(t *testing.T) {
	p := Params{
		CurrentAllocation:   1000,
		MonthlyContribution: 100,
		Years:               1,
		ExpectedReturn:      0.12,
		TargetAmount:        1,
		NumPaths:            10,
	}

	out, err := NewEngine(Config{}).Simulate(context.Background(), p, Options{})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	g := math.Pow(1.01, 12)
	want := 1000*g + 100*(g-1)/0.01
	if math.Abs(out.Median-want) > 0.01 {
		t.Errorf("Median = %.4f, want %.4f", out.Median, want)
	}
}

func TestSimulate_ZeroHorizon(t *testing.T) {
	p := retirementParams(100)
	p.Years = 0

	out, err := NewEngine(Config{}).Simulate(context.Background(), p, Options{Seed: seedPtr(1)})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if out.Median != 2_000_000 || out.SuccessProbability != 0 {
		t.Errorf("Expected terminal = allocation and zero success, got %+v", out)
	}
}

func TestSimulate_RuinCounted(t *testing.T) {
	p := Params{
		CurrentAllocation: 1000,
		Years:             5,
		ExpectedReturn:    0,
		Volatility:        5,
		TargetAmount:      1000,
		NumPaths:          500,
	}

	out, err := NewEngine(Config{}).Simulate(context.Background(), p, Options{Seed: seedPtr(3)})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if out.RuinCount == 0 {
		t.Error("Expected ruined paths with extreme volatility")
	}
	if out.Worst >= 0 {
		t.Errorf("Expected negative worst case with no floor, got %v", out.Worst)
	}
}

func TestSimulate_Validation(t *testing.T) {
	e := NewEngine(Config{MaxPaths: 1000})

	tests := []struct {
		name   string
		mutate func(p *Params)
		field  string
	}{
		{"zero paths", func(p *Params) { p.NumPaths = 0 }, "num_paths"},
		{"too many paths", func(p *Params) { p.NumPaths = 1001 }, "num_paths"},
		{"negative allocation", func(p *Params) { p.CurrentAllocation = -1 }, "current_allocation"},
		{"negative volatility", func(p *Params) { p.Volatility = -0.1 }, "volatility"},
		{"return at -100%", func(p *Params) { p.ExpectedReturn = -1 }, "expected_return"},
		{"zero target", func(p *Params) { p.TargetAmount = 0 }, "target_amount"},
		{"inverted band", func(p *Params) { p.Band = Band{Worst: 0.9, Best: 0.1} }, "worst_percentile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := retirementParams(100)
			tt.mutate(&p)

			_, err := e.Simulate(context.Background(), p, Options{})
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", vErr.Field, tt.field)
			}
		})
	}
}

func TestSimulate_CustomBand(t *testing.T) {
	e := NewEngine(Config{})
	p := retirementParams(2000)

	narrow, err := e.Simulate(context.Background(), p, Options{Seed: seedPtr(5)})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	p.Band = Band{Worst: 0.10, Best: 0.90}
	wide, err := e.Simulate(context.Background(), p, Options{Seed: seedPtr(5)})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}

	if wide.Worst <= narrow.Worst || wide.Best >= narrow.Best {
		t.Errorf("Expected 10/90 band inside 5/95 band: %v..%v vs %v..%v", wide.Worst, wide.Best, narrow.Worst, narrow.Best)
	}
	if wide.Median != narrow.Median {
		t.Errorf("Band changed the median: %v vs %v", wide.Median, narrow.Median)
	}
}

func TestSimulate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := NewEngine(Config{}).Simulate(ctx, retirementParams(1000), Options{})
	if out != nil {
		t.Error("Expected no outcome for a cancelled run")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if errors.Is(err, domain.ErrSimulationTimeout) {
		t.Error("Cancellation must not be reported as a timeout")
	}
}

func TestSimulate_DeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := NewEngine(Config{}).Simulate(ctx, retirementParams(1000), Options{})

	var timeout *domain.SimulationTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Expected SimulationTimeoutError, got %v", err)
	}
	if timeout.RequestedPaths != 1000 {
		t.Errorf("RequestedPaths = %d, want 1000", timeout.RequestedPaths)
	}
}

func TestSimulate_Progress(t *testing.T) {
	var calls atomic.Int64
	var maxDone atomic.Int64

	opts := Options{
		Seed: seedPtr(1),
		Progress: func(done, total int) {
			calls.Add(1)
			if total != 1000 {
				t.Errorf("total = %d, want 1000", total)
			}
			for {
				cur := maxDone.Load()
				if int64(done) <= cur || maxDone.CompareAndSwap(cur, int64(done)) {
					break
				}
			}
		},
	}

	_, err := NewEngine(Config{ChunkSize: 100, Workers: 4}).Simulate(context.Background(), retirementParams(1000), opts)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if calls.Load() != 10 {
		t.Errorf("Progress calls = %d, want 10", calls.Load())
	}
	if maxDone.Load() != 1000 {
		t.Errorf("Final progress = %d, want 1000", maxDone.Load())
	}
}

func TestSimulate_OverflowIsValidationError(t *testing.T) {
	for _, vol := range []float64{0, 0.15} {
		p := retirementParams(100)
		p.Years = 100
		p.ExpectedReturn = 1e6
		p.Volatility = vol

		out, err := NewEngine(Config{}).Simulate(context.Background(), p, Options{Seed: seedPtr(3)})
		if out != nil {
			t.Errorf("volatility %v: expected no outcome, got %+v", vol, out)
		}
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("volatility %v: expected validation error, got %v", vol, err)
		}

		proj, err := NewEngine(Config{}).Project(context.Background(), p, Options{Seed: seedPtr(3)})
		if proj != nil || !errors.Is(err, domain.ErrValidation) {
			t.Errorf("volatility %v: Project = %v, %v; want validation error", vol, proj, err)
		}
	}
}

func TestSimulate_HorizonLimit(t *testing.T) {
	p := retirementParams(10)
	p.Years = MaxYears + 1

	_, err := NewEngine(Config{}).Simulate(context.Background(), p, Options{})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "years_until_due" {
		t.Fatalf("Expected years_until_due ValidationError, got %v", err)
	}
}

func TestSimulate_DeadlineStopsRunningChunk(t *testing.T) {
	// One chunk holding every path; only a check between paths can stop it.
	e := NewEngine(Config{Workers: 1, ChunkSize: defaultMaxPaths})
	p := retirementParams(defaultMaxPaths)
	p.Years = domain.MaxYearsUntilDue

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := e.Simulate(ctx, p, Options{Seed: seedPtr(1)})
	elapsed := time.Since(started)

	var timeout *domain.SimulationTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Expected SimulationTimeoutError, got %v", err)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Simulate returned %v after a 20ms deadline", elapsed)
	}
}

func TestSimulate_ZeroVolatilityHonoursContext(t *testing.T) {
	p := retirementParams(1000)
	p.Volatility = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := NewEngine(Config{}).Simulate(ctx, p, Options{})
	if out != nil {
		t.Error("Expected no outcome for a cancelled run")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
