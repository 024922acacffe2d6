// Package uniteconomics derives quarterly projection items from a
// driver-based business model configuration (customers, NRR, CAC, margins).
package uniteconomics

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"finsim/pkg/core/model"
)

// BusinessModelType selects the revenue recognition model.
type BusinessModelType string

const (
	// ModelSubscription projects recurring revenue forward with NRR compounding.
	ModelSubscription BusinessModelType = "subscription"
	// ModelProject recognizes one-time project revenue linearly or by milestones.
	ModelProject BusinessModelType = "project"
)

// Revenue and cost categories emitted by the engine.
const (
	CategoryRecurringRevenue    = "Recurring revenue"
	CategoryProjectRevenue      = "Project revenue"
	CategoryCostOfRevenue       = "Cost of revenue"
	CategoryCustomerAcquisition = "Customer acquisition"
)

// UnitEconomicsInput is the driver configuration for one projection year.
// NRR is an annual ratio (1.0 = flat recurring base).
type UnitEconomicsInput struct {
	StartingCustomers         float64 `json:"starting_customers"`
	NewCustomersPerQuarter    float64 `json:"new_customers_per_quarter"`
	MonthlyRevenuePerCustomer float64 `json:"monthly_revenue_per_customer"`
	NRR                       float64 `json:"nrr"`
	CAC                       float64 `json:"cac"`
	LTV                       float64 `json:"ltv"`
	GrossMarginPct            float64 `json:"gross_margin_pct"` // 0..1

	// Project-model drivers.
	ProjectsPerYear float64   `json:"projects_per_year"`
	AvgProjectValue float64   `json:"avg_project_value"`
	Milestones      []float64 `json:"milestones,omitempty"` // quarterly fractions; empty = linear
}

// Validate rejects contradictory driver inputs before any computation.
func (c *UnitEconomicsInput) Validate() error {
	if c.StartingCustomers < 0 {
		return &model.InvalidInputError{Field: "starting_customers", Reason: "must not be negative"}
	}
	if c.NewCustomersPerQuarter < 0 {
		return &model.InvalidInputError{Field: "new_customers_per_quarter", Reason: "must not be negative"}
	}
	if c.MonthlyRevenuePerCustomer < 0 {
		return &model.InvalidInputError{Field: "monthly_revenue_per_customer", Reason: "must not be negative"}
	}
	if c.NRR < 0 {
		return &model.InvalidInputError{Field: "nrr", Reason: "churn-implied ratio below zero is invalid"}
	}
	if c.CAC < 0 {
		return &model.InvalidInputError{Field: "cac", Reason: "must not be negative"}
	}
	if c.LTV < 0 {
		return &model.InvalidInputError{Field: "ltv", Reason: "must not be negative"}
	}
	if c.GrossMarginPct < 0 || c.GrossMarginPct > 1 {
		return &model.InvalidInputError{Field: "gross_margin_pct", Reason: "must be within [0, 1]"}
	}
	if c.ProjectsPerYear < 0 {
		return &model.InvalidInputError{Field: "projects_per_year", Reason: "must not be negative"}
	}
	if c.AvgProjectValue < 0 {
		return &model.InvalidInputError{Field: "avg_project_value", Reason: "must not be negative"}
	}
	if len(c.Milestones) > 0 {
		if len(c.Milestones) != 4 {
			return &model.InvalidInputError{Field: "milestones", Reason: "must list four quarterly fractions"}
		}
		sum := 0.0
		for _, m := range c.Milestones {
			if m < 0 {
				return &model.InvalidInputError{Field: "milestones", Reason: "fractions must not be negative"}
			}
			sum += m
		}
		if math.Abs(sum-1.0) > 1e-6 {
			return &model.InvalidInputError{Field: "milestones", Reason: "fractions must sum to 1.0"}
		}
	}
	return nil
}

// Project produces one projection item per revenue/cost category per quarter.
// The quarter is carried in the item description ("Q1".."Q4").
func Project(cfg UnitEconomicsInput, businessModel BusinessModelType) ([]model.ProjectionItem, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var revenue [4]float64
	var revCategory string

	switch businessModel {
	case ModelSubscription:
		revenue = projectSubscription(cfg)
		revCategory = CategoryRecurringRevenue
	case ModelProject:
		revenue = projectMilestones(cfg)
		revCategory = CategoryProjectRevenue
	default:
		return nil, &model.InvalidInputError{Field: "business_model", Reason: fmt.Sprintf("unknown model %q", businessModel)}
	}

	// Run-rate base: the flat quarter before growth and acquisition.
	baseQuarter := cfg.StartingCustomers * cfg.MonthlyRevenuePerCustomer * 3
	if businessModel == ModelProject {
		baseQuarter = cfg.ProjectsPerYear * cfg.AvgProjectValue / 4
	}

	var items []model.ProjectionItem
	for q := 0; q < 4; q++ {
		label := fmt.Sprintf("Q%d", q+1)

		items = append(items, model.ProjectionItem{
			Category:        revCategory,
			BaseAmount:      decimal.NewFromFloat(baseQuarter),
			ProjectedAmount: decimal.NewFromFloat(revenue[q]),
			Description:     label,
		})

		if cfg.GrossMarginPct < 1 {
			cost := revenue[q] * (1 - cfg.GrossMarginPct)
			items = append(items, model.ProjectionItem{
				Category:        CategoryCostOfRevenue,
				BaseAmount:      decimal.NewFromFloat(cost),
				ProjectedAmount: decimal.NewFromFloat(cost),
				Description:     label,
			})
		}

		if cfg.NewCustomersPerQuarter > 0 && cfg.CAC > 0 {
			spend := cfg.NewCustomersPerQuarter * cfg.CAC
			items = append(items, model.ProjectionItem{
				Category:        CategoryCustomerAcquisition,
				BaseAmount:      decimal.NewFromFloat(spend),
				ProjectedAmount: decimal.NewFromFloat(spend),
				Description:     label,
			})
		}
	}
	return items, nil
}

// projectSubscription compounds the recurring base by NRR per quarter and
// layers new customer cohorts from their acquisition quarter.
func projectSubscription(cfg UnitEconomicsInput) [4]float64 {
	var out [4]float64
	quarterRev := cfg.MonthlyRevenuePerCustomer * 3
	// NRR is annual; compound quarterly at its fourth root.
	qFactor := math.Pow(cfg.NRR, 0.25)

	for q := 0; q < 4; q++ {
		// Existing base, retained/expanded over elapsed quarters.
		total := cfg.StartingCustomers * quarterRev * math.Pow(qFactor, float64(q))
		// Cohorts acquired in quarters 1..q+1, each aging from its start.
		for j := 0; j <= q; j++ {
			total += cfg.NewCustomersPerQuarter * quarterRev * math.Pow(qFactor, float64(q-j))
		}
		out[q] = total
	}
	return out
}

// projectMilestones spreads annual project revenue across quarters, linearly
// unless an explicit milestone schedule is configured.
func projectMilestones(cfg UnitEconomicsInput) [4]float64 {
	annual := cfg.ProjectsPerYear * cfg.AvgProjectValue
	var out [4]float64
	if len(cfg.Milestones) == 4 {
		for q := 0; q < 4; q++ {
			out[q] = annual * cfg.Milestones[q]
		}
		return out
	}
	for q := 0; q < 4; q++ {
		out[q] = annual / 4
	}
	return out
}

// SplitItems separates engine output into revenue and expense lines for
// attachment to a scenario.
func SplitItems(items []model.ProjectionItem) (revenues, expenses []model.ProjectionItem) {
	for _, item := range items {
		switch item.Category {
		case CategoryCostOfRevenue, CategoryCustomerAcquisition:
			expenses = append(expenses, item)
		default:
			revenues = append(revenues, item)
		}
	}
	return revenues, expenses
}
