package model

import (
	"github.com/shopspring/decimal"
)

// IncomeStatement is the annual P&L derived from a scenario's projected lines.
// Investments are capital outlays and do not enter the P&L.
type IncomeStatement struct {
	Revenue      decimal.Decimal `json:"revenue"`
	Expenses     decimal.Decimal `json:"expenses"`
	EBITDA       decimal.Decimal `json:"ebitda"`
	Tax          decimal.Decimal `json:"tax"`
	NetIncome    decimal.Decimal `json:"net_income"`
	GrowthRate   float64         `json:"growth_rate"`   // projected vs base revenue
	EBITDAMargin float64         `json:"ebitda_margin"` // EBITDA / revenue
}

// DeriveIncomeStatement rolls a scenario up into an annual income statement.
// Tax accrues only on positive EBITDA.
func DeriveIncomeStatement(s *SimulationScenario, taxRate float64) (IncomeStatement, error) {
	if taxRate < 0 || taxRate >= 1 {
		return IncomeStatement{}, &InvalidInputError{Field: "tax_rate", Reason: "must be within [0, 1)"}
	}

	revenue := s.TotalProjectedRevenue()
	expenses := s.TotalProjectedExpenses()
	ebitda := revenue.Sub(expenses)

	tax := decimal.Zero
	if ebitda.IsPositive() {
		tax = ebitda.Mul(decimal.NewFromFloat(taxRate))
	}

	stmt := IncomeStatement{
		Revenue:   revenue,
		Expenses:  expenses,
		EBITDA:    ebitda,
		Tax:       tax,
		NetIncome: ebitda.Sub(tax),
	}

	baseRev := s.TotalBaseRevenue()
	if baseRev.IsPositive() {
		stmt.GrowthRate = revenue.Sub(baseRev).Div(baseRev).InexactFloat64()
	}
	if revenue.IsPositive() {
		stmt.EBITDAMargin = ebitda.Div(revenue).InexactFloat64()
	}

	return stmt, nil
}
