package valuation

import (
	"fmt"
	"time"

	"finsim/pkg/core/model"
)

// ComputeValuation runs all four methods and folds the included ones into a
// single weighted range. Weights of excluded methods are redistributed
// proportionally among the rest. When every method is excluded the result is
// the designated insufficient-data sentinel, not an error.
func ComputeValuation(s *model.SimulationScenario, cfg *ValuationConfig) (*model.ValuationBreakdown, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pnl, err := model.DeriveIncomeStatement(s, cfg.TaxRate)
	if err != nil {
		return nil, err
	}

	methods := []model.MethodResult{
		RevenueMultipleValue(pnl, cfg),
		EBITDAMultipleValue(pnl, cfg),
		DCFValue(pnl, cfg),
		VCMethodValue(pnl, cfg),
	}

	breakdown := &model.ValuationBreakdown{
		ScenarioID: s.ID,
		Methods:    methods,
		ComputedAt: time.Now().UTC(),
		Assumptions: []string{
			fmt.Sprintf("projected revenue %s, EBITDA %s (USD)", pnl.Revenue.StringFixed(2), pnl.EBITDA.StringFixed(2)),
			fmt.Sprintf("revenue growth %.1f%%, EBITDA margin %.1f%%", pnl.GrowthRate*100, pnl.EBITDAMargin*100),
			fmt.Sprintf("tax rate %.1f%%", cfg.TaxRate*100),
		},
	}

	// Renormalize weights over the included methods only.
	var totalWeight float64
	includedCount := 0
	for i := range methods {
		if methods[i].Included {
			totalWeight += cfg.weight(methods[i].Method)
			includedCount++
		}
	}
	if includedCount == 0 {
		breakdown.InsufficientData = true
		return breakdown, nil
	}

	for i := range breakdown.Methods {
		m := &breakdown.Methods[i]
		if !m.Included {
			continue
		}
		if totalWeight > 0 {
			m.Weight = cfg.weight(m.Method) / totalWeight
		} else {
			// Every included method carries zero configured weight; blend equally.
			m.Weight = 1 / float64(includedCount)
		}
		breakdown.Low += m.Estimate.Low * m.Weight
		breakdown.Mid += m.Estimate.Mid * m.Weight
		breakdown.High += m.Estimate.High * m.Weight
		breakdown.Assumptions = append(breakdown.Assumptions, m.Assumptions...)
	}

	return breakdown, nil
}

// MidValuationMetric adapts ComputeValuation into a sensitivity metric over
// the weighted mid case. Insufficient data evaluates to zero rather than
// failing the sweep.
func MidValuationMetric(cfg *ValuationConfig) func(*model.SimulationScenario) (float64, error) {
	return func(s *model.SimulationScenario) (float64, error) {
		breakdown, err := ComputeValuation(s, cfg)
		if err != nil {
			return 0, err
		}
		if breakdown.InsufficientData {
			return 0, nil
		}
		return breakdown.Mid, nil
	}
}
