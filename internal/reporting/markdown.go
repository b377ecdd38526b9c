package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"wealth-planner/internal/domain"
)

// formatMoney renders an amount in the report currency, e.g. ₹3,855,432.89.
// Amounts are converted to minor units with decimal rounding first.
func formatMoney(amount float64, currency string) string {
	minor := decimal.NewFromFloat(amount).Shift(int32(money.GetCurrency(currency).Fraction)).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

// formatProbability renders a probability or "n/a" when absent.
func formatProbability(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *p)
}

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *GoalReport) string {
	var sb strings.Builder
	d := r.Details
	g := d.Goal
	cur := r.Currency

	// Header
	sb.WriteString(fmt.Sprintf("# Goal Report: %s\n\n", g.Name))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Status: %s**\n\n", d.Status))

	// Goal
	sb.WriteString("## Goal\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Goal ID | %s |\n", g.GoalID))
	sb.WriteString(fmt.Sprintf("| Target Amount | %s |\n", formatMoney(g.TargetAmount, cur)))
	sb.WriteString(fmt.Sprintf("| Years Until Due | %g |\n", g.YearsUntilDue))
	sb.WriteString(fmt.Sprintf("| Horizon | %s |\n", d.Horizon))
	sb.WriteString(fmt.Sprintf("| Expected Return | %.2f%% |\n", g.ExpectedReturn*100))
	sb.WriteString(fmt.Sprintf("| Volatility | %.2f%% |\n", g.Volatility*100))
	sb.WriteString(fmt.Sprintf("| Monthly Contribution | %s |\n", formatMoney(g.MonthlyContribution, cur)))
	sb.WriteString("\n")

	// Funding
	sb.WriteString("## Funding\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Present Value Required | %s |\n", formatMoney(d.PresentValue, cur)))
	sb.WriteString(fmt.Sprintf("| Current Allocation | %s |\n", formatMoney(d.CurrentAllocation, cur)))
	sb.WriteString(fmt.Sprintf("| Shortfall | %s |\n", formatMoney(d.Shortfall, cur)))
	if d.RequiredMonthlySIP != nil {
		sb.WriteString(fmt.Sprintf("| Required Monthly SIP | %s |\n", formatMoney(*d.RequiredMonthlySIP, cur)))
	} else {
		sb.WriteString("| Required Monthly SIP | infeasible |\n")
	}
	sb.WriteString(fmt.Sprintf("| Success Probability | %s |\n", formatProbability(d.SuccessProbability)))
	sb.WriteString(fmt.Sprintf("| Previous Probability | %s |\n", formatProbability(d.PreviousSuccessProbability)))
	sb.WriteString("\n")

	// Simulations
	sb.WriteString("## Recent Simulations\n\n")
	if len(r.Simulations) > 0 {
		sb.WriteString("| Run At | Paths | Seed | Median | Worst | Best | Success | Degraded |\n")
		sb.WriteString("|--------|-------|------|--------|-------|------|---------|----------|\n")
		for _, s := range r.Simulations {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s | %s | %s | %.2f%% | %t |\n",
				s.RunAt.Format(time.RFC3339), s.Config.NumPaths, s.Config.Seed,
				formatMoney(s.MedianOutcome, cur), formatMoney(s.WorstCase, cur), formatMoney(s.BestCase, cur),
				s.SuccessProbability, s.Degraded))
		}
	} else {
		sb.WriteString("No simulations recorded.\n")
	}
	sb.WriteString("\n")

	// Projection
	sb.WriteString("## Projection\n\n")
	if len(r.Projection) > 0 {
		sb.WriteString("| Year | Worst | Median | Best | Required |\n")
		sb.WriteString("|------|-------|--------|------|----------|\n")
		for _, p := range r.Projection {
			sb.WriteString(fmt.Sprintf("| %g | %s | %s | %s | %s |\n",
				p.Year, formatMoney(p.Worst, cur), formatMoney(p.Median, cur),
				formatMoney(p.Best, cur), formatMoney(p.Required, cur)))
		}
	} else {
		sb.WriteString("No projection available.\n")
	}
	sb.WriteString("\n")

	// Rescue
	sb.WriteString("## Rescue Strategies\n\n")
	switch {
	case d.Status == domain.StatusOnTrack:
		sb.WriteString("Goal is on track. No rescue needed.\n")
	case len(r.Rescue) == 0:
		sb.WriteString("No rescue strategies available.\n")
	default:
		sb.WriteString("| Strategy | Risk | Return | Volatility | Years | Monthly SIP | Success |\n")
		sb.WriteString("|----------|------|--------|------------|-------|-------------|---------|\n")
		for _, s := range r.Rescue {
			sip := "infeasible"
			if s.Feasible {
				sip = formatMoney(s.RequiredMonthlySIP, cur)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f%% | %.2f%% | %g | %s | %.2f%% |\n",
				s.Name, s.RiskLevel, s.NewExpectedReturn*100, s.NewVolatility*100,
				s.YearsUntilDue, sip, s.SuccessProbability))
		}
	}
	sb.WriteString("\n")

	// History
	sb.WriteString("## History\n\n")
	if len(r.History) > 0 {
		sb.WriteString("| Date | Allocation | Required PV | Success |\n")
		sb.WriteString("|------|------------|-------------|---------|\n")
		for _, h := range r.History {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				h.SnapshotDate.Format(time.DateOnly),
				formatMoney(h.CurrentAllocation, cur), formatMoney(h.RequiredPV, cur),
				formatProbability(h.SuccessProbability)))
		}
	} else {
		sb.WriteString("No history recorded.\n")
	}

	return sb.String()
}
