package model

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDeriveIncomeStatement(t *testing.T) {
	// Revenue 1,000,000 (base 800,000), expenses 750,000.
	// EBITDA = 250,000, margin 25%, growth 25%.
	// Tax at 21% = 52,500 => net income 197,500.
	s := SimulationScenario{
		Name:                "Plan",
		AssumedExchangeRate: decimal.NewFromInt(1),
		Revenues: []ProjectionItem{{
			Category:        "SaaS",
			BaseAmount:      decimal.NewFromInt(800000),
			ProjectedAmount: decimal.NewFromInt(1000000),
		}},
		Expenses: []ProjectionItem{{
			Category:        "Payroll",
			ProjectedAmount: decimal.NewFromInt(750000),
		}},
	}

	pnl, err := DeriveIncomeStatement(&s, 0.21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pnl.EBITDA.Equal(decimal.NewFromInt(250000)) {
		t.Errorf("expected EBITDA 250000, got %s", pnl.EBITDA)
	}
	if !pnl.Tax.Equal(decimal.NewFromInt(52500)) {
		t.Errorf("expected tax 52500, got %s", pnl.Tax)
	}
	if !pnl.NetIncome.Equal(decimal.NewFromInt(197500)) {
		t.Errorf("expected net income 197500, got %s", pnl.NetIncome)
	}
	if math.Abs(pnl.GrowthRate-0.25) > 1e-9 {
		t.Errorf("expected growth 0.25, got %f", pnl.GrowthRate)
	}
	if math.Abs(pnl.EBITDAMargin-0.25) > 1e-9 {
		t.Errorf("expected margin 0.25, got %f", pnl.EBITDAMargin)
	}
}

func TestDeriveIncomeStatementNoTaxOnLoss(t *testing.T) {
	s := SimulationScenario{
		Name:                "Loss year",
		AssumedExchangeRate: decimal.NewFromInt(1),
		Revenues:            []ProjectionItem{{Category: "SaaS", ProjectedAmount: decimal.NewFromInt(100000)}},
		Expenses:            []ProjectionItem{{Category: "Payroll", ProjectedAmount: decimal.NewFromInt(150000)}},
	}

	pnl, err := DeriveIncomeStatement(&s, 0.21)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pnl.Tax.IsZero() {
		t.Errorf("expected no tax on a loss, got %s", pnl.Tax)
	}
	if !pnl.NetIncome.Equal(decimal.NewFromInt(-50000)) {
		t.Errorf("expected net income -50000, got %s", pnl.NetIncome)
	}
}

func TestDeriveIncomeStatementRejectsBadTaxRate(t *testing.T) {
	s := SimulationScenario{Name: "X", AssumedExchangeRate: decimal.NewFromInt(1)}

	var invalid *InvalidInputError
	if _, err := DeriveIncomeStatement(&s, 1.0); !errors.As(err, &invalid) {
		t.Errorf("expected invalid input for tax rate 1.0, got %v", err)
	}
	if _, err := DeriveIncomeStatement(&s, -0.1); !errors.As(err, &invalid) {
		t.Errorf("expected invalid input for negative tax rate, got %v", err)
	}
}
