package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"

	"wealth-planner/internal/app"
	"wealth-planner/internal/config"
	"wealth-planner/internal/domain"
	"wealth-planner/internal/engine"
	"wealth-planner/internal/logger"
	"wealth-planner/internal/montecarlo"
)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

// goalFlags are the goal parameters shared by the calculator commands.
type goalFlags struct {
	target     float64
	years      float64
	ret        float64
	volatility float64
	sip        float64
	allocation float64
	paths      int
	seed       uint64
	raw        bool
}

func (g *goalFlags) register(f *flag.FlagSet) {
	f.Float64Var(&g.target, "target", 0, "Target amount due at the horizon (required)")
	f.Float64Var(&g.years, "years", 0, "Years until the goal is due")
	f.Float64Var(&g.ret, "return", domain.DefaultExpectedReturn, "Expected annual return, e.g. 0.10")
	f.Float64Var(&g.volatility, "volatility", domain.DefaultVolatility, "Annual volatility, e.g. 0.15")
	f.Float64Var(&g.sip, "sip", 0, "Planned monthly contribution")
	f.Float64Var(&g.allocation, "allocation", 0, "Current allocation toward the goal")
	f.IntVar(&g.paths, "paths", engine.DefaultPaths, "Number of Monte Carlo paths")
	f.Uint64Var(&g.seed, "seed", 0, "RNG seed (0 picks one)")
	f.BoolVar(&g.raw, "raw", false, "Print raw Markdown instead of rendering it")
}

// goal builds a validated goal from the flags.
func (g *goalFlags) goal() (*domain.Goal, error) {
	goal := &domain.Goal{
		Name:                "cli",
		TargetAmount:        g.target,
		YearsUntilDue:       g.years,
		ExpectedReturn:      g.ret,
		Volatility:          g.volatility,
		MonthlyContribution: g.sip,
	}
	if err := goal.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateNonNegative("allocation", g.allocation); err != nil {
		return nil, err
	}
	return goal, nil
}

// seedPtr returns nil when no seed was given.
func (g *goalFlags) seedPtr() *uint64 {
	if g.seed == 0 {
		return nil
	}
	s := g.seed
	return &s
}

func (g *goalFlags) params() montecarlo.Params {
	return montecarlo.Params{
		CurrentAllocation:   g.allocation,
		MonthlyContribution: g.sip,
		Years:               g.years,
		ExpectedReturn:      g.ret,
		Volatility:          g.volatility,
		TargetAmount:        g.target,
		NumPaths:            g.paths,
	}
}

// printMarkdown renders md for the terminal, or prints it as-is when raw.
func printMarkdown(md string, raw bool) {
	if !raw {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err == nil {
			if out, err := r.Render(md); err == nil {
				fmt.Fprint(stdout, out)
				return
			}
		}
	}
	fmt.Fprint(stdout, md)
}

// openService loads configuration and builds the store-backed service.
// The returned cleanup closes stores and flushes the logger.
func openService(ctx context.Context) (*engine.Service, *config.Config, func(), error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return nil, nil, nil, err
	}

	stores, closeStores, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		return nil, nil, nil, err
	}
	svc, err := app.NewService(cfg, stores, nil, log)
	if err != nil {
		closeStores()
		return nil, nil, nil, err
	}

	cleanup := func() {
		closeStores()
		_ = log.Sync()
	}
	return svc, cfg, cleanup, nil
}
