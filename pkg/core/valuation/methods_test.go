package valuation

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"finsim/pkg/core/model"
)

func growthPnL() model.IncomeStatement {
	// Revenue 1,000,000 (base 800,000), EBITDA 250,000.
	// Growth 25%, margin 25%.
	return model.IncomeStatement{
		Revenue:      decimal.NewFromInt(1000000),
		Expenses:     decimal.NewFromInt(750000),
		EBITDA:       decimal.NewFromInt(250000),
		NetIncome:    decimal.NewFromInt(197500),
		GrowthRate:   0.25,
		EBITDAMargin: 0.25,
	}
}

func TestRevenueMultipleRuleOf40(t *testing.T) {
	// Score = (0.25 + 0.25) * 100 = 50. Adjustment = 1 + 10/100*0.5 = 1.05.
	// Mid = 1,000,000 * 6.0 * 1.05 = 6,300,000.
	cfg := &ValuationConfig{
		Sector:          "saas",
		SectorMultiples: map[string]float64{"saas": 6.0},
		DiscountRate:    0.18,
	}

	res := RevenueMultipleValue(growthPnL(), cfg)
	if !res.Included {
		t.Fatalf("expected inclusion, got %q", res.ExclusionReason)
	}
	if math.Abs(res.Estimate.Mid-6300000) > 1 {
		t.Errorf("expected mid 6300000, got %f", res.Estimate.Mid)
	}
	if math.Abs(res.Estimate.Low-6300000*0.8) > 1 || math.Abs(res.Estimate.High-6300000*1.2) > 1 {
		t.Errorf("expected +-20%% band, got %f / %f", res.Estimate.Low, res.Estimate.High)
	}
}

func TestRevenueMultipleAdjustmentClamps(t *testing.T) {
	cfg := &ValuationConfig{DiscountRate: 0.18}

	// Score 200 would push the adjustment to 1.8; it clamps at 1.5.
	// Mid = 1,000,000 * 2.5 (default multiple) * 1.5 = 3,750,000.
	pnl := growthPnL()
	pnl.GrowthRate = 1.5
	pnl.EBITDAMargin = 0.5
	res := RevenueMultipleValue(pnl, cfg)
	if math.Abs(res.Estimate.Mid-3750000) > 1 {
		t.Errorf("expected clamped mid 3750000, got %f", res.Estimate.Mid)
	}

	// Score -100 clamps at 0.5: mid = 1,000,000 * 2.5 * 0.5 = 1,250,000.
	pnl.GrowthRate = -0.5
	pnl.EBITDAMargin = -0.5
	res = RevenueMultipleValue(pnl, cfg)
	if math.Abs(res.Estimate.Mid-1250000) > 1 {
		t.Errorf("expected clamped mid 1250000, got %f", res.Estimate.Mid)
	}
}

func TestRevenueMultipleExcludesZeroRevenue(t *testing.T) {
	cfg := &ValuationConfig{DiscountRate: 0.18}
	res := RevenueMultipleValue(model.IncomeStatement{}, cfg)
	if res.Included {
		t.Error("expected exclusion on zero revenue")
	}
}

func TestEBITDAMultiple(t *testing.T) {
	cfg := &ValuationConfig{EBITDAMultiple: 8.0, DiscountRate: 0.18}

	// 250,000 * 8 = 2,000,000.
	res := EBITDAMultipleValue(growthPnL(), cfg)
	if !res.Included {
		t.Fatalf("expected inclusion, got %q", res.ExclusionReason)
	}
	if math.Abs(res.Estimate.Mid-2000000) > 1 {
		t.Errorf("expected mid 2000000, got %f", res.Estimate.Mid)
	}

	// Negative EBITDA is excluded, never valued negative.
	pnl := growthPnL()
	pnl.EBITDA = decimal.NewFromInt(-5000)
	res = EBITDAMultipleValue(pnl, cfg)
	if res.Included {
		t.Error("expected exclusion on negative EBITDA")
	}
	if res.ExclusionReason == "" {
		t.Error("expected an exclusion reason")
	}
}

func TestDCFValue(t *testing.T) {
	cfg := &ValuationConfig{
		DiscountRate:   0.18,
		TerminalGrowth: 0.02,
		HorizonYears:   5,
		FCFConversion:  0.8,
	}

	res := DCFValue(growthPnL(), cfg)
	if !res.Included {
		t.Fatalf("expected inclusion, got %q", res.ExclusionReason)
	}
	// Year-1 FCF alone is 197,500 * 0.8 * 1.25 / 1.18 ~ 167,000; five
	// fading years plus the terminal value must exceed that comfortably.
	if res.Estimate.Mid < 1000000 {
		t.Errorf("expected mid above 1,000,000, got %f", res.Estimate.Mid)
	}

	// No positive free cash flow to discount.
	pnl := growthPnL()
	pnl.NetIncome = decimal.NewFromInt(-5000)
	res = DCFValue(pnl, cfg)
	if res.Included {
		t.Error("expected exclusion on negative net income")
	}
}

func TestDCFHigherDiscountLowersValue(t *testing.T) {
	low := &ValuationConfig{DiscountRate: 0.12, TerminalGrowth: 0.02}
	high := &ValuationConfig{DiscountRate: 0.30, TerminalGrowth: 0.02}

	a := DCFValue(growthPnL(), low)
	b := DCFValue(growthPnL(), high)
	if a.Estimate.Mid <= b.Estimate.Mid {
		t.Errorf("expected lower value at higher discount rate: %f vs %f", a.Estimate.Mid, b.Estimate.Mid)
	}
}

func TestVCMethodBackSolve(t *testing.T) {
	// Flat revenue 1,000,000, exit at 4x => exit value 4,000,000.
	// 100,000 at 10x requires 1,000,000 at exit => 25% ownership.
	// Post-money = 100,000 / 0.25 = 400,000; pre-money = 300,000.
	cfg := &ValuationConfig{
		DiscountRate: 0.18,
		VC: VCConfig{
			InvestmentAmount:     100000,
			TargetReturnMultiple: 10,
			ExitHorizonYears:     5,
			ExitRevenueMultiple:  4.0,
		},
	}
	pnl := growthPnL()
	pnl.GrowthRate = 0

	res := VCMethodValue(pnl, cfg)
	if !res.Included {
		t.Fatalf("expected inclusion, got %q", res.ExclusionReason)
	}
	if math.Abs(res.Estimate.Mid-300000) > 1 {
		t.Errorf("expected pre-money 300000, got %f", res.Estimate.Mid)
	}
}

func TestVCMethodExclusions(t *testing.T) {
	pnl := growthPnL()
	pnl.GrowthRate = 0

	// Not configured.
	res := VCMethodValue(pnl, &ValuationConfig{DiscountRate: 0.18})
	if res.Included {
		t.Error("expected exclusion without VC config")
	}

	// Required ownership above 100%: 1,000,000 at 10x needs 10,000,000 at
	// exit, but the exit is only worth 4,000,000.
	cfg := &ValuationConfig{
		DiscountRate: 0.18,
		VC: VCConfig{
			InvestmentAmount:     1000000,
			TargetReturnMultiple: 10,
			ExitHorizonYears:     5,
			ExitRevenueMultiple:  4.0,
		},
	}
	res = VCMethodValue(pnl, cfg)
	if res.Included {
		t.Error("expected exclusion when required ownership exceeds 100%")
	}
}
