package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"wealth-planner/internal/app"
	"wealth-planner/internal/config"
	"wealth-planner/internal/logger"
	"wealth-planner/internal/verification"
)

// verifyCmd holds the flags for the 'verify' subcommand.
type verifyCmd struct {
	goalID       string
	simulationID string
	raw          bool
}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "replay stored simulations and report divergences" }
func (*verifyCmd) Usage() string {
	return `goalctl [-config <file>] verify (-goal <id> | -simulation <id>)

  Re-runs stored simulation results from their recorded seed and
  configuration and compares every reported figure. Exits non-zero when any
  result diverges.
`
}

func (c *verifyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.goalID, "goal", "", "Verify every stored simulation of this goal")
	f.StringVar(&c.simulationID, "simulation", "", "Verify a single stored simulation")
	f.BoolVar(&c.raw, "raw", false, "Print raw Markdown instead of rendering it")
}

func (c *verifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.goalID == "") == (c.simulationID == "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -goal or -simulation is required")
		return subcommands.ExitUsageError
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() { _ = log.Sync() }()

	stores, cleanup, err := app.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening stores: %v\n", err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	v := verification.NewReplayVerifier(stores.Simulations, app.NewSimulator(cfg.Simulation))

	var report *verification.VerificationReport
	if c.simulationID != "" {
		res, err := v.VerifySimulation(ctx, c.simulationID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		report = singleReport(res)
	} else {
		report, err = v.VerifyGoal(ctx, c.goalID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	printMarkdown(renderVerification(report), c.raw)
	if report.DivergentSimulations > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func singleReport(res *verification.VerificationResult) *verification.VerificationReport {
	r := &verification.VerificationReport{TotalSimulations: 1, Results: []verification.VerificationResult{*res}}
	if res.Match {
		r.MatchedSimulations = 1
	} else {
		r.DivergentSimulations = 1
	}
	return r
}

// renderVerification renders a verification report as Markdown.
func renderVerification(r *verification.VerificationReport) string {
	var b strings.Builder
	b.WriteString("# Replay Verification\n\n")
	fmt.Fprintf(&b, "Verified: %d | Matched: %d | Divergent: %d\n\n",
		r.TotalSimulations, r.MatchedSimulations, r.DivergentSimulations)

	if len(r.Results) == 0 {
		b.WriteString("No simulations stored.\n")
		return b.String()
	}

	b.WriteString("| Simulation | Result | Stored | Replayed |\n")
	b.WriteString("|------------|--------|--------|----------|\n")
	for _, res := range r.Results {
		result := "MATCH"
		if !res.Match {
			result = "DIVERGENT"
		}
		fmt.Fprintf(&b, "| %s | %s | %.2f%% | %.2f%% |\n",
			res.SimulationID, result, res.StoredProbability, res.ReplayedProbability)
	}

	for _, res := range r.Results {
		if res.Match {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", res.SimulationID)
		for _, d := range res.Divergences {
			fmt.Fprintf(&b, "- %s: stored %v, replayed %v\n", d.Field, d.Expected, d.Actual)
		}
	}
	return b.String()
}
