package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"wealth-planner/internal/reporting"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	goalID  string
	output  string
	csvFile string
	paths   int
	seed    uint64
	raw     bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "render a stored goal's viability report" }
func (*reportCmd) Usage() string {
	return `goalctl [-config <file>] report -goal <id> [-o <file.md>] [-csv <history.csv>] [-paths <n>] [-seed <n>]

  Renders goal details, recent simulations, projection bands, rescue
  strategies and history. Writes Markdown to -o when given, otherwise prints
  it to the terminal.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.goalID, "goal", "", "Goal ID (required)")
	f.StringVar(&c.output, "o", "", "Write the Markdown report to this file")
	f.StringVar(&c.csvFile, "csv", "", "Also write the history as CSV to this file")
	f.IntVar(&c.paths, "paths", 0, "Projection paths (0 uses the default)")
	f.Uint64Var(&c.seed, "seed", 0, "Seed for projection and rescue (0 reuses the latest run's seed)")
	f.BoolVar(&c.raw, "raw", false, "Print raw Markdown instead of rendering it")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.goalID == "" {
		fmt.Fprintln(os.Stderr, "Error: -goal is required")
		return subcommands.ExitUsageError
	}

	svc, cfg, cleanup, err := openService(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer cleanup()

	opts := reporting.Options{ProjectionPaths: c.paths}
	if c.seed != 0 {
		seed := c.seed
		opts.Seed = &seed
	}

	report, err := reporting.NewGenerator(svc, cfg.Reporting.Currency).Generate(ctx, c.goalID, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		return subcommands.ExitFailure
	}
	md := reporting.RenderMarkdown(report)

	if c.csvFile != "" {
		csv, err := reporting.RenderHistoryCSV(report.History)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering CSV: %v\n", err)
			return subcommands.ExitFailure
		}
		if err := os.WriteFile(c.csvFile, []byte(csv), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", c.csvFile, err)
			return subcommands.ExitFailure
		}
	}

	if c.output != "" {
		if err := os.WriteFile(c.output, []byte(md), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(stdout, "Report written to %s\n", c.output)
		return subcommands.ExitSuccess
	}

	printMarkdown(md, c.raw)
	return subcommands.ExitSuccess
}
