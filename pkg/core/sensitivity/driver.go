// Package sensitivity perturbs scenario assumptions and records the outcome
// distributions: one-at-a-time for tornado analysis, combinatorially for the
// scenario matrix, and randomly for Monte Carlo simulation.
package sensitivity

import (
	"github.com/shopspring/decimal"

	"finsim/pkg/core/model"
)

// DriverKind selects which scenario lines a driver scales.
type DriverKind string

const (
	// DriverRevenue scales every projected revenue line.
	DriverRevenue DriverKind = "revenue"
	// DriverExpense scales every projected expense line.
	DriverExpense DriverKind = "expense"
	// DriverCategory scales lines matching the driver's category, on both sides.
	DriverCategory DriverKind = "category"
)

// DistributionType parameterizes Monte Carlo draws for a driver.
type DistributionType string

const (
	DistUniform DistributionType = "uniform"
	DistNormal  DistributionType = "normal"
)

// DriverSpec names an input assumption and how to perturb it. All perturbation
// values are multipliers applied to the driver's base (1.0 = unchanged).
type DriverSpec struct {
	Name     string     `json:"name"`
	Kind     DriverKind `json:"kind"`
	Category string     `json:"category,omitempty"` // required for DriverCategory

	// Scenario matrix levels; empty means the default {0.9, 1.0, 1.1}.
	Levels []float64 `json:"levels,omitempty"`

	// Monte Carlo distribution.
	Distribution DistributionType `json:"distribution,omitempty"`
	Mean         float64          `json:"mean,omitempty"` // normal
	Std          float64          `json:"std,omitempty"`  // normal
	Min          float64          `json:"min,omitempty"`  // uniform
	Max          float64          `json:"max,omitempty"`  // uniform
}

// defaultLevels is the three-point sweep used when a driver declares none.
var defaultLevels = []float64{0.9, 1.0, 1.1}

// Validate checks the driver declaration.
func (d *DriverSpec) Validate() error {
	if d.Name == "" {
		return &model.InvalidInputError{Field: "driver.name", Reason: "must not be empty"}
	}
	switch d.Kind {
	case DriverRevenue, DriverExpense:
	case DriverCategory:
		if d.Category == "" {
			return &model.InvalidInputError{Field: "driver.category", Reason: "required for category drivers"}
		}
	default:
		return &model.InvalidInputError{Field: "driver.kind", Reason: "must be revenue, expense or category"}
	}
	for _, lvl := range d.Levels {
		if lvl < 0 {
			return &model.InvalidInputError{Field: "driver.levels", Reason: "multipliers must not be negative"}
		}
	}
	return nil
}

// validateDistribution checks the Monte Carlo parameters specifically.
func (d *DriverSpec) validateDistribution() error {
	switch d.Distribution {
	case DistUniform:
		if d.Min > d.Max {
			return &model.InvalidInputError{Field: "driver.min", Reason: "must not exceed max"}
		}
	case DistNormal:
		if d.Std < 0 {
			return &model.InvalidInputError{Field: "driver.std", Reason: "must not be negative"}
		}
	default:
		return &model.InvalidInputError{Field: "driver.distribution", Reason: "must be uniform or normal"}
	}
	return nil
}

// levels returns the configured matrix levels or the default sweep.
func (d *DriverSpec) levels() []float64 {
	if len(d.Levels) > 0 {
		return d.Levels
	}
	return defaultLevels
}

// Apply returns a scenario copy with the driver's lines scaled by multiplier.
// The input scenario is never mutated.
func (d *DriverSpec) Apply(s *model.SimulationScenario, multiplier float64) *model.SimulationScenario {
	out := s.Clone()
	factor := decimal.NewFromFloat(multiplier)

	scale := func(items []model.ProjectionItem, byCategory bool) {
		for i := range items {
			if byCategory && items[i].Category != d.Category {
				continue
			}
			items[i].ProjectedAmount = items[i].ProjectedAmount.Mul(factor)
		}
	}

	switch d.Kind {
	case DriverRevenue:
		scale(out.Revenues, false)
	case DriverExpense:
		scale(out.Expenses, false)
	case DriverCategory:
		scale(out.Revenues, true)
		scale(out.Expenses, true)
	}
	return out
}

// Metric evaluates a scenario down to a single target number, e.g. net profit
// or the mid valuation.
type Metric func(*model.SimulationScenario) (float64, error)

// NetProfitMetric returns a metric evaluating annual net income at the given
// tax rate.
func NetProfitMetric(taxRate float64) Metric {
	return func(s *model.SimulationScenario) (float64, error) {
		pnl, err := model.DeriveIncomeStatement(s, taxRate)
		if err != nil {
			return 0, err
		}
		return pnl.NetIncome.InexactFloat64(), nil
	}
}
