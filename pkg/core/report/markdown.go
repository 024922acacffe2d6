// Package report builds markdown summaries of forecasts and valuations for
// the dashboard and CLI, and renders them (and scenario notes) to HTML.
// Formatting stops at markdown/HTML: currency display and locale are the
// presentation layer's problem.
package report

import (
	"fmt"
	"strings"

	"finsim/pkg/core/model"
)

// BuildValuationReport renders a scenario's valuation breakdown as markdown.
func BuildValuationReport(s *model.SimulationScenario, pnl model.IncomeStatement, breakdown *model.ValuationBreakdown) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Valuation — %s\n\n", s.Name)
	fmt.Fprintf(&b, "Projected revenue: %s  \n", pnl.Revenue.StringFixed(2))
	fmt.Fprintf(&b, "EBITDA: %s (margin %.1f%%)  \n", pnl.EBITDA.StringFixed(2), pnl.EBITDAMargin*100)
	fmt.Fprintf(&b, "Revenue growth: %.1f%%\n\n", pnl.GrowthRate*100)

	if breakdown.InsufficientData {
		b.WriteString("**Insufficient data**: no valuation method produced an estimate.\n\n")
	} else {
		fmt.Fprintf(&b, "## Weighted range\n\n")
		fmt.Fprintf(&b, "| Low | Mid | High |\n|---|---|---|\n")
		fmt.Fprintf(&b, "| %.0f | %.0f | %.0f |\n\n", breakdown.Low, breakdown.Mid, breakdown.High)
	}

	b.WriteString("## Methods\n\n")
	b.WriteString("| Method | Status | Low | Mid | High | Weight |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, m := range breakdown.Methods {
		if m.Included {
			fmt.Fprintf(&b, "| %s | included | %.0f | %.0f | %.0f | %.1f%% |\n",
				m.Method, m.Estimate.Low, m.Estimate.Mid, m.Estimate.High, m.Weight*100)
		} else {
			fmt.Fprintf(&b, "| %s | excluded (%s) | — | — | — | — |\n", m.Method, m.ExclusionReason)
		}
	}

	if len(breakdown.Assumptions) > 0 {
		b.WriteString("\n## Assumptions\n\n")
		for _, a := range breakdown.Assumptions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}

	return b.String()
}

// BuildForecastReport renders the 13-week forecast and its bridge as markdown.
func BuildForecastReport(s *model.SimulationScenario, fc *model.ThirteenWeekCashForecast, bridge *model.CashReconciliationBridge) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 13-week cash forecast — %s\n\n", s.Name)
	fmt.Fprintf(&b, "Starting cash: %s  \n", fc.StartingCash.StringFixed(2))
	fmt.Fprintf(&b, "Ending cash: %s\n\n", fc.EndingCash().StringFixed(2))

	b.WriteString("| Week | Opening | Receipts | Disbursements | Closing |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, w := range fc.Weeks {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			w.Week, w.OpeningCash.StringFixed(2), w.Receipts.StringFixed(2),
			w.Disbursements.StringFixed(2), w.ClosingCash.StringFixed(2))
	}

	if bridge != nil {
		b.WriteString("\n## Profit-to-cash bridge\n\n")
		fmt.Fprintf(&b, "- Net income: %s\n", bridge.NetIncome.StringFixed(2))
		for _, adj := range bridge.Adjustments {
			fmt.Fprintf(&b, "- %s: %s\n", adj.Label, adj.Amount.StringFixed(2))
		}
		fmt.Fprintf(&b, "- **Net cash change: %s**\n", bridge.NetCashChange.StringFixed(2))
	}

	return b.String()
}

// CompareScenarios renders a side-by-side delta of two scenarios. Scenarios
// are comparable only when they share a currency basis.
func CompareScenarios(a, b *model.SimulationScenario, pnlA, pnlB model.IncomeStatement) (string, error) {
	if !a.AssumedExchangeRate.Equal(b.AssumedExchangeRate) {
		return "", &model.InvalidInputError{
			Field:  "assumed_exchange_rate",
			Reason: "scenarios must share a currency basis to be compared",
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# Scenario comparison — %s vs %s\n\n", a.Name, b.Name)
	out.WriteString("| Metric | " + a.Name + " | " + b.Name + " | Delta |\n")
	out.WriteString("|---|---|---|---|\n")

	row := func(label string, va, vb fmt.Stringer, delta string) {
		fmt.Fprintf(&out, "| %s | %s | %s | %s |\n", label, va.String(), vb.String(), delta)
	}
	row("Revenue", pnlA.Revenue, pnlB.Revenue, pnlB.Revenue.Sub(pnlA.Revenue).StringFixed(2))
	row("Expenses", pnlA.Expenses, pnlB.Expenses, pnlB.Expenses.Sub(pnlA.Expenses).StringFixed(2))
	row("EBITDA", pnlA.EBITDA, pnlB.EBITDA, pnlB.EBITDA.Sub(pnlA.EBITDA).StringFixed(2))
	row("Net income", pnlA.NetIncome, pnlB.NetIncome, pnlB.NetIncome.Sub(pnlA.NetIncome).StringFixed(2))

	return out.String(), nil
}
