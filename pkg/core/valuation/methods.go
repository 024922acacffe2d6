package valuation

import (
	"fmt"
	"math"

	"finsim/pkg/core/model"
)

// Band applied around a method's mid case to produce low/high.
const (
	bandLow  = 0.8
	bandHigh = 1.2
)

func banded(mid float64) model.ValuationEstimate {
	return model.ValuationEstimate{Low: mid * bandLow, Mid: mid, High: mid * bandHigh}
}

func excluded(method, reason string) model.MethodResult {
	return model.MethodResult{Method: method, Included: false, ExclusionReason: reason}
}

func included(method string, est model.ValuationEstimate, assumptions []string) model.MethodResult {
	return model.MethodResult{Method: method, Included: true, Estimate: est, Assumptions: assumptions}
}

// RevenueMultipleValue values the scenario at a sector revenue multiple,
// adjusted by the Rule of 40: the growth-plus-margin score relative to the
// 40% threshold shifts the multiple up or down half a point per point of
// score, clamped to half and one-and-a-half times the sector base.
func RevenueMultipleValue(pnl model.IncomeStatement, cfg *ValuationConfig) model.MethodResult {
	revenue := pnl.Revenue.InexactFloat64()
	if revenue <= 0 {
		return excluded(MethodRevenueMultiple, "no positive projected revenue")
	}

	base := cfg.revenueMultiple()
	score := (pnl.GrowthRate + pnl.EBITDAMargin) * 100
	adj := 1 + (score-40)/100*0.5
	if adj < 0.5 {
		adj = 0.5
	}
	if adj > 1.5 {
		adj = 1.5
	}

	mid := revenue * base * adj
	return included(MethodRevenueMultiple, banded(mid), []string{
		fmt.Sprintf("sector %q base multiple %.2fx", cfg.Sector, base),
		fmt.Sprintf("rule of 40 score %.1f, multiple adjustment %.2fx", score, adj),
	})
}

// EBITDAMultipleValue values the scenario at an EBITDA multiple. A scenario
// without positive EBITDA is excluded rather than valued at a nonsensical
// negative multiple.
func EBITDAMultipleValue(pnl model.IncomeStatement, cfg *ValuationConfig) model.MethodResult {
	ebitda := pnl.EBITDA.InexactFloat64()
	if ebitda <= 0 {
		return excluded(MethodEBITDAMultiple, "EBITDA is not positive")
	}

	multiple := cfg.ebitdaMultiple()
	return included(MethodEBITDAMultiple, banded(ebitda*multiple), []string{
		fmt.Sprintf("EBITDA multiple %.2fx", multiple),
	})
}

// DCFValue discounts projected free cash flows over the horizon and adds a
// Gordon-growth terminal value. Free cash flow is approximated as after-tax
// EBITDA times the configured conversion ratio.
func DCFValue(pnl model.IncomeStatement, cfg *ValuationConfig) model.MethodResult {
	fcf0 := pnl.NetIncome.InexactFloat64() * cfg.fcfConversion()
	if fcf0 <= 0 {
		return excluded(MethodDCF, "no positive free cash flow to discount")
	}

	// Growth fades from the scenario's plan rate toward terminal growth.
	growth := pnl.GrowthRate
	if growth > 1.0 {
		growth = 1.0
	}
	if growth < -0.5 {
		growth = -0.5
	}

	horizon := cfg.horizon()
	var pvFCF float64
	fcf := fcf0
	cumDiscount := 1.0
	for t := 1; t <= horizon; t++ {
		// Linear fade of the growth rate across the horizon.
		fade := float64(t-1) / float64(horizon)
		g := growth + (cfg.TerminalGrowth-growth)*fade
		fcf *= 1 + g
		cumDiscount /= 1 + cfg.DiscountRate
		pvFCF += fcf * cumDiscount
	}

	terminal := fcf * (1 + cfg.TerminalGrowth) / (cfg.DiscountRate - cfg.TerminalGrowth)
	pvTerminal := terminal * cumDiscount

	mid := pvFCF + pvTerminal
	return included(MethodDCF, banded(mid), []string{
		fmt.Sprintf("discount rate %.2f%%, terminal growth %.2f%%", cfg.DiscountRate*100, cfg.TerminalGrowth*100),
		fmt.Sprintf("%d-year horizon, FCF conversion %.0f%% of net income", horizon, cfg.fcfConversion()*100),
	})
}

// VCMethodValue back-solves the pre-money valuation from the investor's
// target return and exit assumptions: the ownership stake that turns the
// investment into the required future value at exit fixes the post-money,
// and the pre-money is what remains after the round.
func VCMethodValue(pnl model.IncomeStatement, cfg *ValuationConfig) model.MethodResult {
	vc := cfg.VC
	if vc.InvestmentAmount <= 0 || vc.TargetReturnMultiple <= 0 || vc.ExitRevenueMultiple <= 0 {
		return excluded(MethodVC, "vc method not configured")
	}

	years := vc.ExitHorizonYears
	if years <= 0 {
		years = defaultHorizonYears
	}

	revenue := pnl.Revenue.InexactFloat64()
	growth := pnl.GrowthRate
	if growth < 0 {
		growth = 0
	}
	exitRevenue := revenue * math.Pow(1+growth, float64(years))
	exitValue := exitRevenue * vc.ExitRevenueMultiple
	if exitValue <= 0 {
		return excluded(MethodVC, "no positive exit value")
	}

	requiredFV := vc.InvestmentAmount * vc.TargetReturnMultiple
	ownership := requiredFV / exitValue
	if ownership >= 1 {
		return excluded(MethodVC, "required ownership exceeds 100%")
	}

	postMoney := vc.InvestmentAmount / ownership
	preMoney := postMoney - vc.InvestmentAmount
	return included(MethodVC, banded(preMoney), []string{
		fmt.Sprintf("investment %.0f at %.1fx target return over %d years", vc.InvestmentAmount, vc.TargetReturnMultiple, years),
		fmt.Sprintf("exit at %.2fx revenue, required ownership %.1f%%", vc.ExitRevenueMultiple, ownership*100),
	})
}
