// Package model defines the scenario data model shared by all engines.
// Monetary amounts are USD-denominated decimals; AssumedExchangeRate is a
// display concern only and never enters a computation.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectionItem is a single revenue or expense line in a scenario.
// BaseAmount is the current-year figure, ProjectedAmount the plan figure.
type ProjectionItem struct {
	Category        string          `json:"category"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	ProjectedAmount decimal.Decimal `json:"projected_amount"`
	Description     string          `json:"description,omitempty"`
	IsNew           bool            `json:"is_new"`
	StartMonth      int             `json:"start_month,omitempty"` // 1-12, required when IsNew
}

// Validate enforces the item invariants.
func (p *ProjectionItem) Validate() error {
	if p.Category == "" {
		return &InvalidInputError{Field: "category", Reason: "must not be empty"}
	}
	if p.IsNew {
		if p.StartMonth < 1 || p.StartMonth > 12 {
			return &InvalidInputError{Field: "start_month", Reason: "required and within 1-12 for new items"}
		}
	} else if p.StartMonth != 0 {
		return &InvalidInputError{Field: "start_month", Reason: "only valid on new items"}
	}
	return nil
}

// InvestmentItem is a one-time capital outlay scheduled within the projection year.
type InvestmentItem struct {
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Month       int             `json:"month"` // 1-12
}

// Validate enforces the investment invariants.
func (inv *InvestmentItem) Validate() error {
	if inv.Name == "" {
		return &InvalidInputError{Field: "name", Reason: "must not be empty"}
	}
	if inv.Amount.IsNegative() {
		return &InvalidInputError{Field: "amount", Reason: "must not be negative"}
	}
	if inv.Month < 1 || inv.Month > 12 {
		return &InvalidInputError{Field: "month", Reason: "must be within 1-12"}
	}
	return nil
}

// SimulationScenario is the unit of persistence and comparison.
// Two scenarios are comparable only when they share a currency basis.
type SimulationScenario struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Revenues            []ProjectionItem `json:"revenues"`
	Expenses            []ProjectionItem `json:"expenses"`
	Investments         []InvestmentItem `json:"investments,omitempty"`
	AssumedExchangeRate decimal.Decimal  `json:"assumed_exchange_rate"`
	Notes               string           `json:"notes,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// Validate checks the scenario and every contained item.
func (s *SimulationScenario) Validate() error {
	if s.Name == "" {
		return &InvalidInputError{Field: "name", Reason: "must not be empty"}
	}
	if !s.AssumedExchangeRate.IsPositive() {
		return &InvalidInputError{Field: "assumed_exchange_rate", Reason: "must be positive"}
	}
	for i := range s.Revenues {
		if err := s.Revenues[i].Validate(); err != nil {
			return err
		}
	}
	for i := range s.Expenses {
		if err := s.Expenses[i].Validate(); err != nil {
			return err
		}
	}
	for i := range s.Investments {
		if err := s.Investments[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy. Engines perturb copies, never the caller's value.
func (s *SimulationScenario) Clone() *SimulationScenario {
	out := *s
	out.Revenues = append([]ProjectionItem(nil), s.Revenues...)
	out.Expenses = append([]ProjectionItem(nil), s.Expenses...)
	out.Investments = append([]InvestmentItem(nil), s.Investments...)
	return &out
}

// TotalProjectedRevenue sums projected revenue lines.
func (s *SimulationScenario) TotalProjectedRevenue() decimal.Decimal {
	return sumProjected(s.Revenues)
}

// TotalProjectedExpenses sums projected expense lines.
func (s *SimulationScenario) TotalProjectedExpenses() decimal.Decimal {
	return sumProjected(s.Expenses)
}

// TotalBaseRevenue sums base-year revenue lines.
func (s *SimulationScenario) TotalBaseRevenue() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Revenues {
		total = total.Add(s.Revenues[i].BaseAmount)
	}
	return total
}

func sumProjected(items []ProjectionItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].ProjectedAmount)
	}
	return total
}

// QuarterlyAmounts holds one value per quarter, Q1..Q4.
type QuarterlyAmounts struct {
	Q1 decimal.Decimal `json:"q1"`
	Q2 decimal.Decimal `json:"q2"`
	Q3 decimal.Decimal `json:"q3"`
	Q4 decimal.Decimal `json:"q4"`
}

// Total returns the annual sum.
func (q QuarterlyAmounts) Total() decimal.Decimal {
	return q.Q1.Add(q.Q2).Add(q.Q3).Add(q.Q4)
}

// SplitAnnual spreads an annual amount over four quarters.
// The division remainder lands on Q4 so Total reconciles exactly.
func SplitAnnual(annual decimal.Decimal) QuarterlyAmounts {
	quarter := annual.Div(decimal.NewFromInt(4))
	return QuarterlyAmounts{
		Q1: quarter,
		Q2: quarter,
		Q3: quarter,
		Q4: annual.Sub(quarter.Mul(decimal.NewFromInt(3))),
	}
}

// WeekCash is one column of the rolling forecast.
type WeekCash struct {
	Week          int             `json:"week"` // 1-13
	OpeningCash   decimal.Decimal `json:"opening_cash"`
	Receipts      decimal.Decimal `json:"receipts"`
	Disbursements decimal.Decimal `json:"disbursements"`
	NetChange     decimal.Decimal `json:"net_change"`
	ClosingCash   decimal.Decimal `json:"closing_cash"`
}

// ForecastAccruals aggregates what the P&L recognized inside the forecast horizon.
type ForecastAccruals struct {
	RecognizedRevenue  decimal.Decimal `json:"recognized_revenue"`
	RecognizedExpenses decimal.Decimal `json:"recognized_expenses"`
	AccruedTax         decimal.Decimal `json:"accrued_tax"`
}

// ForecastCashTotals aggregates the actual cash movements inside the horizon.
type ForecastCashTotals struct {
	Collected       decimal.Decimal `json:"collected"`
	Paid            decimal.Decimal `json:"paid"`
	TaxPaid         decimal.Decimal `json:"tax_paid"`
	Investments     decimal.Decimal `json:"investments"`
	FinancingDraws  decimal.Decimal `json:"financing_draws"`
	FinancingRepaid decimal.Decimal `json:"financing_repaid"`
}

// ThirteenWeekCashForecast is the weekly cash timeline plus the accrual/cash
// aggregates the reconciliation bridge is built from.
type ThirteenWeekCashForecast struct {
	StartingCash decimal.Decimal    `json:"starting_cash"`
	Weeks        [13]WeekCash       `json:"weeks"`
	Accruals     ForecastAccruals   `json:"accruals"`
	CashTotals   ForecastCashTotals `json:"cash_totals"`
}

// EndingCash returns the closing balance of week 13.
func (f *ThirteenWeekCashForecast) EndingCash() decimal.Decimal {
	return f.Weeks[12].ClosingCash
}

// NetCashChange returns ending minus starting cash for the horizon.
func (f *ThirteenWeekCashForecast) NetCashChange() decimal.Decimal {
	return f.EndingCash().Sub(f.StartingCash)
}

// BridgeAdjustment is one itemized step from net income to cash.
type BridgeAdjustment struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// CashReconciliationBridge walks net income to the net cash change.
// Invariant: NetIncome plus every adjustment equals NetCashChange exactly.
type CashReconciliationBridge struct {
	NetIncome     decimal.Decimal    `json:"net_income"`
	Adjustments   []BridgeAdjustment `json:"adjustments"`
	NetCashChange decimal.Decimal    `json:"net_cash_change"`
}

// Balanced reports whether the bridge ties out within the given tolerance.
func (b *CashReconciliationBridge) Balanced(tolerance decimal.Decimal) bool {
	total := b.NetIncome
	for _, adj := range b.Adjustments {
		total = total.Add(adj.Amount)
	}
	return total.Sub(b.NetCashChange).Abs().Cmp(tolerance) <= 0
}

// TornadoResult ties one driver to its metric impact at the swept bounds.
type TornadoResult struct {
	Driver     string  `json:"driver"`
	LowInput   float64 `json:"low_input"`
	HighInput  float64 `json:"high_input"`
	LowMetric  float64 `json:"low_metric"`
	HighMetric float64 `json:"high_metric"`
	Impact     float64 `json:"impact"` // HighMetric - LowMetric
}

// ScenarioOutcome is one cell of a combinatorial sweep.
type ScenarioOutcome struct {
	Levels map[string]float64 `json:"levels"` // driver name -> multiplier applied
	Metric float64            `json:"metric"`
}

// ScenarioMatrix is the full combinatorial sweep result.
type ScenarioMatrix struct {
	Drivers      []string          `json:"drivers"`
	Combinations int               `json:"combinations"`
	Outcomes     []ScenarioOutcome `json:"outcomes"`
}

// HistogramBin is one bucket of a Monte Carlo outcome distribution.
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// MonteCarloSummary holds distribution statistics over the sampled metric.
type MonteCarloSummary struct {
	Iterations  int                `json:"iterations"`
	Seed        int64              `json:"seed"`
	Mean        float64            `json:"mean"`
	StdDev      float64            `json:"std_dev"`
	Min         float64            `json:"min"`
	Max         float64            `json:"max"`
	Percentiles map[string]float64 `json:"percentiles"` // "p5", "p25", "p50", "p75", "p95"
	Histogram   []HistogramBin     `json:"histogram"`
}

// ValuationEstimate is a low/mid/high range from a single method.
type ValuationEstimate struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// MethodResult is the tagged per-method outcome: either an included estimate
// with its weight, or an exclusion with the reason.
type MethodResult struct {
	Method          string            `json:"method"`
	Included        bool              `json:"included"`
	ExclusionReason string            `json:"exclusion_reason,omitempty"`
	Estimate        ValuationEstimate `json:"estimate,omitempty"`
	Weight          float64           `json:"weight"` // renormalized; 0 when excluded
	Assumptions     []string          `json:"assumptions,omitempty"`
}

// ValuationBreakdown is the weighted range with full methodology transparency.
// InsufficientData marks the sentinel result when every method was excluded.
type ValuationBreakdown struct {
	ScenarioID       string         `json:"scenario_id,omitempty"`
	Low              float64        `json:"low"`
	Mid              float64        `json:"mid"`
	High             float64        `json:"high"`
	Methods          []MethodResult `json:"methods"`
	Assumptions      []string       `json:"assumptions"`
	InsufficientData bool           `json:"insufficient_data"`
	ComputedAt       time.Time      `json:"computed_at"`
}
