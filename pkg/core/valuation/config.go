// Package valuation computes per-method valuation estimates for a scenario
// and aggregates them into a weighted range with full methodology
// transparency.
package valuation

import (
	"finsim/pkg/core/model"
)

// Method names used in results and weight configuration.
const (
	MethodRevenueMultiple = "revenue_multiple"
	MethodEBITDAMultiple  = "ebitda_multiple"
	MethodDCF             = "dcf"
	MethodVC              = "vc_method"
)

// Fallbacks when the configuration leaves a knob unset.
const (
	defaultRevenueMultiple = 2.5
	defaultEBITDAMultiple  = 8.0
	defaultFCFConversion   = 0.8
	defaultHorizonYears    = 5
)

// defaultWeights apportions the blend before renormalization.
var defaultWeights = map[string]float64{
	MethodRevenueMultiple: 0.30,
	MethodEBITDAMultiple:  0.30,
	MethodDCF:             0.25,
	MethodVC:              0.15,
}

// VCConfig parameterizes the venture-capital method back-solve.
type VCConfig struct {
	InvestmentAmount     float64 `json:"investment_amount" yaml:"investment_amount"`
	TargetReturnMultiple float64 `json:"target_return_multiple" yaml:"target_return_multiple"` // e.g. 10 for 10x
	ExitHorizonYears     int     `json:"exit_horizon_years" yaml:"exit_horizon_years"`
	ExitRevenueMultiple  float64 `json:"exit_revenue_multiple" yaml:"exit_revenue_multiple"`
}

// ValuationConfig holds the assumptions shared by all four methods.
type ValuationConfig struct {
	Sector          string             `json:"sector" yaml:"sector"`
	SectorMultiples map[string]float64 `json:"sector_multiples,omitempty" yaml:"sector_multiples"`
	EBITDAMultiple  float64            `json:"ebitda_multiple,omitempty" yaml:"ebitda_multiple"`
	DiscountRate    float64            `json:"discount_rate" yaml:"discount_rate"`
	TerminalGrowth  float64            `json:"terminal_growth" yaml:"terminal_growth"`
	HorizonYears    int                `json:"horizon_years,omitempty" yaml:"horizon_years"`
	FCFConversion   float64            `json:"fcf_conversion,omitempty" yaml:"fcf_conversion"` // FCF as share of EBITDA
	TaxRate         float64            `json:"tax_rate" yaml:"tax_rate"`
	VC              VCConfig           `json:"vc" yaml:"vc"`
	Weights         map[string]float64 `json:"weights,omitempty" yaml:"weights"`
}

// Validate rejects contradictory rates before any method runs.
// A discount rate at or below terminal growth makes the perpetuity blow up.
func (c *ValuationConfig) Validate() error {
	if c.DiscountRate <= 0 {
		return &model.InvalidInputError{Field: "discount_rate", Reason: "must be positive"}
	}
	if c.DiscountRate <= c.TerminalGrowth {
		return &model.InvalidInputError{Field: "discount_rate", Reason: "must exceed terminal growth"}
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return &model.InvalidInputError{Field: "tax_rate", Reason: "must be within [0, 1)"}
	}
	if c.HorizonYears < 0 {
		return &model.InvalidInputError{Field: "horizon_years", Reason: "must not be negative"}
	}
	if c.FCFConversion < 0 {
		return &model.InvalidInputError{Field: "fcf_conversion", Reason: "must not be negative"}
	}
	for method, w := range c.Weights {
		if w < 0 {
			return &model.InvalidInputError{Field: "weights." + method, Reason: "must not be negative"}
		}
	}
	return nil
}

// horizon returns the configured DCF horizon or the default.
func (c *ValuationConfig) horizon() int {
	if c.HorizonYears > 0 {
		return c.HorizonYears
	}
	return defaultHorizonYears
}

// fcfConversion returns the configured conversion ratio or the default.
func (c *ValuationConfig) fcfConversion() float64 {
	if c.FCFConversion > 0 {
		return c.FCFConversion
	}
	return defaultFCFConversion
}

// revenueMultiple resolves the sector multiple with fallbacks.
func (c *ValuationConfig) revenueMultiple() float64 {
	if m, ok := c.SectorMultiples[c.Sector]; ok && m > 0 {
		return m
	}
	return defaultRevenueMultiple
}

// ebitdaMultiple resolves the EBITDA multiple with its fallback.
func (c *ValuationConfig) ebitdaMultiple() float64 {
	if c.EBITDAMultiple > 0 {
		return c.EBITDAMultiple
	}
	return defaultEBITDAMultiple
}

// weight returns the configured raw weight for a method.
func (c *ValuationConfig) weight(method string) float64 {
	if len(c.Weights) > 0 {
		return c.Weights[method]
	}
	return defaultWeights[method]
}
