// Package cashflow builds the 13-week rolling cash forecast and the
// profit-to-cash reconciliation bridge for a scenario.
//
// Recognition is computed weekly over the full projection year: annual
// amounts spread evenly across 52 weeks, new items contributing only from
// their start week. Working-capital day counts then lag (DSO/DPO) or lead
// (DIO) the cash realization of each recognized week. The forecast and the
// bridge are derived from the same weekly series, so the bridge ties out by
// construction; Reconcile verifies it anyway and reports a mismatch as a
// defect rather than rounding it away.
package cashflow

import (
	"github.com/shopspring/decimal"

	"finsim/pkg/core/model"
)

const (
	horizonWeeks = 13
	yearWeeks    = 52
)

// Tolerance for the bridge invariant.
var reconcileTolerance = decimal.New(1, -6) // 1e-6

// WorkingCapitalConfig holds the day-count timing assumptions.
type WorkingCapitalConfig struct {
	DSODays float64 `json:"dso_days"`
	DPODays float64 `json:"dpo_days"`
	DIODays float64 `json:"dio_days"`
}

// Validate rejects negative day counts.
func (c *WorkingCapitalConfig) Validate() error {
	if c.DSODays < 0 {
		return &model.InvalidInputError{Field: "dso_days", Reason: "must not be negative"}
	}
	if c.DPODays < 0 {
		return &model.InvalidInputError{Field: "dpo_days", Reason: "must not be negative"}
	}
	if c.DIODays < 0 {
		return &model.InvalidInputError{Field: "dio_days", Reason: "must not be negative"}
	}
	return nil
}

// FinancingEvent is a draw or repayment scheduled on a forecast week.
type FinancingEvent struct {
	Week   int             `json:"week"` // 1-13
	Amount decimal.Decimal `json:"amount"`
	Memo   string          `json:"memo,omitempty"`
}

// TaxFinancingConfig layers tax payments and financing flows onto the forecast.
// TaxPaymentWeek of zero means no tax payment falls inside the horizon.
type TaxFinancingConfig struct {
	OpeningCash    decimal.Decimal  `json:"opening_cash"`
	TaxRate        float64          `json:"tax_rate"`
	TaxPaymentWeek int              `json:"tax_payment_week"`
	Draws          []FinancingEvent `json:"draws,omitempty"`
	Repayments     []FinancingEvent `json:"repayments,omitempty"`
}

// Validate checks rates and event scheduling.
func (c *TaxFinancingConfig) Validate() error {
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return &model.InvalidInputError{Field: "tax_rate", Reason: "must be within [0, 1)"}
	}
	if c.TaxPaymentWeek < 0 || c.TaxPaymentWeek > horizonWeeks {
		return &model.InvalidInputError{Field: "tax_payment_week", Reason: "must be within 0-13"}
	}
	for _, ev := range append(append([]FinancingEvent(nil), c.Draws...), c.Repayments...) {
		if ev.Week < 1 || ev.Week > horizonWeeks {
			return &model.InvalidInputError{Field: "financing_week", Reason: "must be within 1-13"}
		}
		if ev.Amount.IsNegative() {
			return &model.InvalidInputError{Field: "financing_amount", Reason: "must not be negative"}
		}
	}
	return nil
}

// weekOfMonth maps a calendar month (1-12) to its first projection week.
func weekOfMonth(month int) int {
	return (month-1)*yearWeeks/12 + 1
}

// lagWeeks converts a day-count assumption to whole forecast weeks.
func lagWeeks(days float64) int {
	return int(days/7.0 + 0.5)
}

// weeklyRecognition spreads one item's projected amount over its active weeks.
// Index 0 is week 1; inactive weeks carry zero.
func weeklyRecognition(item *model.ProjectionItem) [yearWeeks]decimal.Decimal {
	var out [yearWeeks]decimal.Decimal
	start := 1
	if item.IsNew {
		start = weekOfMonth(item.StartMonth)
	}
	active := yearWeeks - start + 1
	weekly := item.ProjectedAmount.Div(decimal.NewFromInt(int64(active)))
	for w := start; w <= yearWeeks; w++ {
		out[w-1] = weekly
	}
	return out
}

// BuildForecast produces the 13-week cash timeline for a scenario.
// Cash balances are not clamped: negative cash is a valid, reportable outcome.
func BuildForecast(s *model.SimulationScenario, wc WorkingCapitalConfig, tax TaxFinancingConfig) (*model.ThirteenWeekCashForecast, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := wc.Validate(); err != nil {
		return nil, err
	}
	if err := tax.Validate(); err != nil {
		return nil, err
	}

	dsoLag := lagWeeks(wc.DSODays)
	dpoLag := lagWeeks(wc.DPODays)
	dioLag := lagWeeks(wc.DIODays)

	var receipts [horizonWeeks]decimal.Decimal
	var disbursements [horizonWeeks]decimal.Decimal
	fc := &model.ThirteenWeekCashForecast{StartingCash: tax.OpeningCash}

	// Revenue: recognized at w, collected at w + DSO lag.
	for i := range s.Revenues {
		rec := weeklyRecognition(&s.Revenues[i])
		for w := 1; w <= yearWeeks; w++ {
			amt := rec[w-1]
			if amt.IsZero() {
				continue
			}
			if w <= horizonWeeks {
				fc.Accruals.RecognizedRevenue = fc.Accruals.RecognizedRevenue.Add(amt)
			}
			cashWeek := w + dsoLag
			if cashWeek <= horizonWeeks {
				receipts[cashWeek-1] = receipts[cashWeek-1].Add(amt)
				fc.CashTotals.Collected = fc.CashTotals.Collected.Add(amt)
			}
		}
	}

	// Expenses: recognized at w, paid at w + DPO lag - DIO lead.
	// Inventory builds mean paying ahead of recognition; payments cannot land
	// before the horizon opens.
	for i := range s.Expenses {
		rec := weeklyRecognition(&s.Expenses[i])
		for w := 1; w <= yearWeeks; w++ {
			amt := rec[w-1]
			if amt.IsZero() {
				continue
			}
			if w <= horizonWeeks {
				fc.Accruals.RecognizedExpenses = fc.Accruals.RecognizedExpenses.Add(amt)
			}
			cashWeek := w + dpoLag - dioLag
			if cashWeek < 1 {
				cashWeek = 1
			}
			if cashWeek <= horizonWeeks {
				disbursements[cashWeek-1] = disbursements[cashWeek-1].Add(amt)
				fc.CashTotals.Paid = fc.CashTotals.Paid.Add(amt)
			}
		}
	}

	// Tax accrues on positive horizon profit; paid in one estimated
	// installment when a payment week is configured.
	profit := fc.Accruals.RecognizedRevenue.Sub(fc.Accruals.RecognizedExpenses)
	if profit.IsPositive() && tax.TaxRate > 0 {
		fc.Accruals.AccruedTax = profit.Mul(decimal.NewFromFloat(tax.TaxRate))
	}
	if tax.TaxPaymentWeek >= 1 && fc.Accruals.AccruedTax.IsPositive() {
		disbursements[tax.TaxPaymentWeek-1] = disbursements[tax.TaxPaymentWeek-1].Add(fc.Accruals.AccruedTax)
		fc.CashTotals.TaxPaid = fc.Accruals.AccruedTax
	}

	// Investments: one-time outflows at the first week of their month.
	for i := range s.Investments {
		w := weekOfMonth(s.Investments[i].Month)
		if w <= horizonWeeks {
			disbursements[w-1] = disbursements[w-1].Add(s.Investments[i].Amount)
			fc.CashTotals.Investments = fc.CashTotals.Investments.Add(s.Investments[i].Amount)
		}
	}

	// Financing draws and repayments.
	for _, ev := range tax.Draws {
		receipts[ev.Week-1] = receipts[ev.Week-1].Add(ev.Amount)
		fc.CashTotals.FinancingDraws = fc.CashTotals.FinancingDraws.Add(ev.Amount)
	}
	for _, ev := range tax.Repayments {
		disbursements[ev.Week-1] = disbursements[ev.Week-1].Add(ev.Amount)
		fc.CashTotals.FinancingRepaid = fc.CashTotals.FinancingRepaid.Add(ev.Amount)
	}

	// Chain the weekly balances.
	opening := tax.OpeningCash
	for w := 0; w < horizonWeeks; w++ {
		net := receipts[w].Sub(disbursements[w])
		fc.Weeks[w] = model.WeekCash{
			Week:          w + 1,
			OpeningCash:   opening,
			Receipts:      receipts[w],
			Disbursements: disbursements[w],
			NetChange:     net,
			ClosingCash:   opening.Add(net),
		}
		opening = fc.Weeks[w].ClosingCash
	}

	return fc, nil
}

// HorizonPnL derives the accrual income statement for the 13-week horizon
// from the same weekly recognition series the forecast uses.
func HorizonPnL(s *model.SimulationScenario, tax TaxFinancingConfig) (model.IncomeStatement, error) {
	fc, err := BuildForecast(s, WorkingCapitalConfig{}, tax)
	if err != nil {
		return model.IncomeStatement{}, err
	}
	ebitda := fc.Accruals.RecognizedRevenue.Sub(fc.Accruals.RecognizedExpenses)
	return model.IncomeStatement{
		Revenue:   fc.Accruals.RecognizedRevenue,
		Expenses:  fc.Accruals.RecognizedExpenses,
		EBITDA:    ebitda,
		Tax:       fc.Accruals.AccruedTax,
		NetIncome: ebitda.Sub(fc.Accruals.AccruedTax),
	}, nil
}

// Reconcile builds the itemized bridge from net income to the forecast's net
// cash change and verifies that it balances. An unbalanced bridge or a P&L
// that disagrees with the forecast accruals is a ReconciliationMismatchError.
func Reconcile(pnl model.IncomeStatement, fc *model.ThirteenWeekCashForecast) (*model.CashReconciliationBridge, error) {
	accrualNI := fc.Accruals.RecognizedRevenue.
		Sub(fc.Accruals.RecognizedExpenses).
		Sub(fc.Accruals.AccruedTax)
	if pnl.NetIncome.Sub(accrualNI).Abs().Cmp(reconcileTolerance) > 0 {
		return nil, &model.ReconciliationMismatchError{Expected: accrualNI, Actual: pnl.NetIncome}
	}

	bridge := &model.CashReconciliationBridge{
		NetIncome: pnl.NetIncome,
		Adjustments: []model.BridgeAdjustment{
			{Label: "Receivables timing (collected less billed)", Amount: fc.CashTotals.Collected.Sub(fc.Accruals.RecognizedRevenue)},
			{Label: "Payables and inventory timing (incurred less paid)", Amount: fc.Accruals.RecognizedExpenses.Sub(fc.CashTotals.Paid)},
			{Label: "Tax accrued less paid", Amount: fc.Accruals.AccruedTax.Sub(fc.CashTotals.TaxPaid)},
			{Label: "Capital expenditures", Amount: fc.CashTotals.Investments.Neg()},
			{Label: "Financing draws", Amount: fc.CashTotals.FinancingDraws},
			{Label: "Financing repayments", Amount: fc.CashTotals.FinancingRepaid.Neg()},
		},
		NetCashChange: fc.NetCashChange(),
	}

	if !bridge.Balanced(reconcileTolerance) {
		total := bridge.NetIncome
		for _, adj := range bridge.Adjustments {
			total = total.Add(adj.Amount)
		}
		return nil, &model.ReconciliationMismatchError{Expected: bridge.NetCashChange, Actual: total}
	}
	return bridge, nil
}
