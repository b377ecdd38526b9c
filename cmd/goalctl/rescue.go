package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/pv"
	"wealth-planner/internal/rescue"
	"wealth-planner/internal/status"
)

// rescueCmd holds the flags for the 'rescue' subcommand.
type rescueCmd struct {
	goalFlags
	rescuePaths int
	noExtend    bool
}

func (*rescueCmd) Name() string     { return "rescue" }
func (*rescueCmd) Synopsis() string { return "suggest rescue strategies for goal parameters" }
func (*rescueCmd) Usage() string {
	return `goalctl rescue -target <amount> -years <n> [-return <r>] [-volatility <v>] [-sip <amount>] [-allocation <amount>] [-seed <n>]

  Classifies the goal with a simulation and, unless it is on track, evaluates
  the rescue archetypes (higher SIP, allocation mixes, extended horizon).
`
}

func (c *rescueCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.IntVar(&c.rescuePaths, "rescue-paths", rescue.DefaultPolicy().NumPaths, "Paths per rescue archetype")
	f.BoolVar(&c.noExtend, "no-extend", false, "Do not suggest extending the horizon")
}

func (c *rescueCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	goal, err := c.goal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	eng := montecarlo.NewEngine(montecarlo.Config{})
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

	policy := rescue.DefaultPolicy()
	policy.NumPaths = c.rescuePaths
	policy.AllowExtend = !c.noExtend
	if err := policy.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	strategies, err := rescue.NewGenerator(eng, policy).Generate(ctx, rescue.Request{
		Goal:              goal,
		CurrentAllocation: c.allocation,
		Status:            st,
		Seed:              c.seedPtr(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderStrategies(st, prob, strategies), c.raw)
	return subcommands.ExitSuccess
}

// renderStrategies renders rescue strategies as a Markdown table.
func renderStrategies(st domain.Status, prob float64, strategies []domain.RescueStrategy) string {
	var b strings.Builder
	b.WriteString("# Rescue Strategies\n\n")
	fmt.Fprintf(&b, "**Status: %s** (success probability %.2f%%)\n\n", st, prob)

	if len(strategies) == 0 {
		b.WriteString("Goal is on track. No rescue needed.\n")
		return b.String()
	}

	b.WriteString("| Strategy | Risk | Return | Volatility | Years | Monthly SIP | Success |\n")
	b.WriteString("|----------|------|--------|------------|-------|-------------|---------|\n")
	for _, s := range strategies {
		sip := "infeasible"
		if s.Feasible {
			sip = fmt.Sprintf("%.2f", s.RequiredMonthlySIP)
		}
		fmt.Fprintf(&b, "| %s | %s | %.2f%% | %.2f%% | %g | %s | %.2f%% |\n",
			s.Name, s.RiskLevel, s.NewExpectedReturn*100, s.NewVolatility*100, s.YearsUntilDue, sip, s.SuccessProbability)
	}
	b.WriteString("\n")
	for _, s := range strategies {
		fmt.Fprintf(&b, "- **%s**: %s\n", s.Name, s.Description)
	}
	return b.String()
}
