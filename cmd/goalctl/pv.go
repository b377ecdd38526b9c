package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"wealth-planner/internal/domain"
	"wealth-planner/internal/pv"
)

// pvCmd holds the flags for the 'pv' subcommand.
type pvCmd struct {
	goalFlags
}

func (*pvCmd) Name() string     { return "pv" }
func (*pvCmd) Synopsis() string { return "compute required present value and monthly SIP" }
func (*pvCmd) Usage() string {
	return `goalctl pv -target <amount> -years <n> [-return <r>] [-allocation <amount>]

  Computes the amount needed today to reach the target, the shortfall against
  the current allocation, and the monthly contribution that closes it.
`
}

func (c *pvCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *pvCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if _, err := c.goal(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	md, err := renderPV(c.target, c.years, c.ret, c.allocation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(md, c.raw)
	return subcommands.ExitSuccess
}

// renderPV renders the funding figures as a Markdown table.
func renderPV(target, years, ret, allocation float64) (string, error) {
	presentValue, err := pv.RequiredPresentValue(target, years, ret)
	if err != nil {
		return "", err
	}

	sip := "infeasible"
	monthly, err := pv.RequiredMonthlyContribution(target, years, ret, allocation)
	switch {
	case err == nil:
		sip = fmt.Sprintf("%.2f", monthly)
	case !errors.Is(err, domain.ErrInfeasible):
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Required Funding\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Target Amount | %.2f |\n", target)
	fmt.Fprintf(&b, "| Years | %g (%d months) |\n", years, pv.Months(years))
	fmt.Fprintf(&b, "| Expected Return | %.2f%% |\n", ret*100)
	fmt.Fprintf(&b, "| Present Value | %.2f |\n", presentValue)
	fmt.Fprintf(&b, "| Current Allocation | %.2f |\n", allocation)
	fmt.Fprintf(&b, "| Shortfall | %.2f |\n", domain.RoundMoney(max(0, presentValue-allocation)))
	fmt.Fprintf(&b, "| Required Monthly SIP | %s |\n", sip)
	return b.String(), nil
}
