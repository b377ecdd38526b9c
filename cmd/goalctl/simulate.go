package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/pv"
	"wealth-planner/internal/status"
)

// simulateCmd holds the flags for the 'simulate' subcommand.
type simulateCmd struct {
	goalFlags
	workers int
}

func (*simulateCmd) Name() string     { return "simulate" }
func (*simulateCmd) Synopsis() string { return "run a Monte Carlo simulation for goal parameters" }
func (*simulateCmd) Usage() string {
	return `goalctl simulate -target <amount> -years <n> [-return <r>] [-volatility <v>] [-sip <amount>] [-allocation <amount>] [-paths <n>] [-seed <n>]

  Simulates monthly portfolio paths and reports the terminal distribution,
  success probability and resulting goal status. Nothing is stored.
`
}

func (c *simulateCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.IntVar(&c.workers, "workers", 0, "Worker goroutines (0 uses GOMAXPROCS)")
}

func (c *simulateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if _, err := c.goal(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	eng := montecarlo.NewEngine(montecarlo.Config{Workers: c.workers})
	out, err := eng.Simulate(ctx, c.params(), montecarlo.Options{Seed: c.seedPtr()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	presentValue, err := pv.RequiredPresentValue(c.target, c.years, c.ret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	prob := out.SuccessProbability
	st := status.NewClassifier(status.DefaultPolicy).Classify(status.Input{
		CurrentAllocation:  c.allocation,
		PresentValue:       presentValue,
		SuccessProbability: &prob,
	})

	printMarkdown(renderOutcome(out, string(st)), c.raw)
	return subcommands.ExitSuccess
}

// renderOutcome renders a simulation outcome as a Markdown table.
func renderOutcome(out *montecarlo.Outcome, st string) string {
	var b strings.Builder
	b.WriteString("# Simulation\n\n")
	fmt.Fprintf(&b, "**Status: %s**\n\n", st)
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Paths | %d |\n", out.NumPaths)
	fmt.Fprintf(&b, "| Months | %d |\n", out.Months)
	fmt.Fprintf(&b, "| Seed | %d |\n", out.Seed)
	fmt.Fprintf(&b, "| Worst (P%.0f) | %.2f |\n", out.Band.Worst*100, out.Worst)
	fmt.Fprintf(&b, "| Median | %.2f |\n", out.Median)
	fmt.Fprintf(&b, "| Best (P%.0f) | %.2f |\n", out.Band.Best*100, out.Best)
	fmt.Fprintf(&b, "| Mean | %.2f |\n", out.Mean)
	fmt.Fprintf(&b, "| Std Dev | %.2f |\n", out.StdDev)
	fmt.Fprintf(&b, "| Success Probability | %.2f%% |\n", out.SuccessProbability)
	fmt.Fprintf(&b, "| Ruined Paths | %d |\n", out.RuinCount)
	return b.String()
}
