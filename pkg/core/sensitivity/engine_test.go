package sensitivity

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"finsim/pkg/core/model"
)

func sweepScenario() *model.SimulationScenario {
	// Revenue 100,000, expenses 60,000 => net profit 40,000 at 0% tax.
	return &model.SimulationScenario{
		Name:                "Sweep",
		AssumedExchangeRate: decimal.NewFromInt(1),
		Revenues: []model.ProjectionItem{{
			Category:        "SaaS",
			ProjectedAmount: decimal.NewFromInt(100000),
		}},
		Expenses: []model.ProjectionItem{{
			Category:        "Payroll",
			ProjectedAmount: decimal.NewFromInt(60000),
		}},
	}
}

func TestRunTornado(t *testing.T) {
	// Revenue +-10%: low 90,000-60,000=30,000; high 110,000-60,000=50,000.
	// Impact +20,000.
	// Expenses +-10%: low 100,000-54,000=46,000; high 100,000-66,000=34,000.
	// Impact -12,000. Revenue sorts first on |impact|.
	drivers := []DriverSpec{
		{Name: "Expenses", Kind: DriverExpense},
		{Name: "Revenue", Kind: DriverRevenue},
	}
	e := NewEngine(0, 0)

	results, err := e.RunTornado(sweepScenario(), drivers, 0.1, NetProfitMetric(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Driver != "Revenue" {
		t.Errorf("expected Revenue ranked first, got %q", results[0].Driver)
	}
	if math.Abs(results[0].Impact-20000) > 0.01 {
		t.Errorf("expected revenue impact 20000, got %f", results[0].Impact)
	}
	if math.Abs(results[0].LowMetric-30000) > 0.01 {
		t.Errorf("expected low metric 30000, got %f", results[0].LowMetric)
	}
	if math.Abs(results[1].Impact-(-12000)) > 0.01 {
		t.Errorf("expected expense impact -12000, got %f", results[1].Impact)
	}
}

func TestRunTornadoZeroRange(t *testing.T) {
	drivers := []DriverSpec{{Name: "Revenue", Kind: DriverRevenue}}
	e := NewEngine(0, 0)

	results, err := e.RunTornado(sweepScenario(), drivers, 0, NetProfitMetric(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Impact != 0 {
		t.Errorf("expected zero impact at zero range, got %f", results[0].Impact)
	}
}

func TestRunTornadoRejectsBadRange(t *testing.T) {
	drivers := []DriverSpec{{Name: "Revenue", Kind: DriverRevenue}}
	e := NewEngine(0, 0)

	var invalid *model.InvalidInputError
	if _, err := e.RunTornado(sweepScenario(), drivers, 1.0, NetProfitMetric(0)); !errors.As(err, &invalid) {
		t.Errorf("expected invalid range error, got %v", err)
	}
	if _, err := e.RunTornado(sweepScenario(), nil, 0.1, NetProfitMetric(0)); !errors.As(err, &invalid) {
		t.Errorf("expected empty drivers error, got %v", err)
	}
}

func TestRunTornadoDoesNotMutateScenario(t *testing.T) {
	s := sweepScenario()
	drivers := []DriverSpec{{Name: "Revenue", Kind: DriverRevenue}}
	e := NewEngine(0, 0)

	if _, err := e.RunTornado(s, drivers, 0.5, NetProfitMetric(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Revenues[0].ProjectedAmount.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("tornado mutated the input scenario: %s", s.Revenues[0].ProjectedAmount)
	}
}

func TestRunScenarioMatrixDefaultLevels(t *testing.T) {
	// Two drivers at the default {0.9, 1.0, 1.1} => 9 combinations.
	drivers := []DriverSpec{
		{Name: "Revenue", Kind: DriverRevenue},
		{Name: "Expenses", Kind: DriverExpense},
	}
	e := NewEngine(0, 0)

	matrix, err := e.RunScenarioMatrix(sweepScenario(), drivers, NetProfitMetric(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matrix.Combinations != 9 || len(matrix.Outcomes) != 9 {
		t.Fatalf("expected 9 combinations, got %d (%d outcomes)", matrix.Combinations, len(matrix.Outcomes))
	}

	// First cell is (0.9, 0.9): 90,000 - 54,000 = 36,000.
	first := matrix.Outcomes[0]
	if math.Abs(first.Metric-36000) > 0.01 {
		t.Errorf("expected first cell 36000, got %f", first.Metric)
	}
	// Last cell is (1.1, 1.1): 110,000 - 66,000 = 44,000.
	last := matrix.Outcomes[8]
	if math.Abs(last.Metric-44000) > 0.01 {
		t.Errorf("expected last cell 44000, got %f", last.Metric)
	}
}

func TestRunScenarioMatrixCeiling(t *testing.T) {
	// Six drivers with five levels each = 15,625 > the 10,000 default ceiling.
	// The engine must refuse before evaluating anything.
	levels := []float64{0.8, 0.9, 1.0, 1.1, 1.2}
	var drivers []DriverSpec
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		drivers = append(drivers, DriverSpec{Name: name, Kind: DriverRevenue, Levels: levels})
	}
	e := NewEngine(0, 0)

	evaluations := 0
	metric := func(s *model.SimulationScenario) (float64, error) {
		evaluations++
		return 0, nil
	}

	var tooMany *model.TooManyCombinationsError
	_, err := e.RunScenarioMatrix(sweepScenario(), drivers, metric)
	if !errors.As(err, &tooMany) {
		t.Fatalf("expected too-many-combinations error, got %v", err)
	}
	if tooMany.Ceiling != DefaultMatrixCeiling {
		t.Errorf("expected ceiling %d, got %d", DefaultMatrixCeiling, tooMany.Ceiling)
	}
	if evaluations != 0 {
		t.Errorf("expected no evaluations before the ceiling check, got %d", evaluations)
	}
}

func TestDriverSpecValidate(t *testing.T) {
	var invalid *model.InvalidInputError

	d := DriverSpec{Kind: DriverRevenue}
	if err := d.Validate(); !errors.As(err, &invalid) || invalid.Field != "driver.name" {
		t.Errorf("expected name error, got %v", err)
	}

	d = DriverSpec{Name: "COGS", Kind: DriverCategory}
	if err := d.Validate(); !errors.As(err, &invalid) || invalid.Field != "driver.category" {
		t.Errorf("expected category error, got %v", err)
	}

	d = DriverSpec{Name: "X", Kind: "percentile"}
	if err := d.Validate(); !errors.As(err, &invalid) || invalid.Field != "driver.kind" {
		t.Errorf("expected kind error, got %v", err)
	}

	d = DriverSpec{Name: "X", Kind: DriverRevenue, Levels: []float64{-0.5}}
	if err := d.Validate(); !errors.As(err, &invalid) || invalid.Field != "driver.levels" {
		t.Errorf("expected levels error, got %v", err)
	}
}

func TestCategoryDriverScalesBothSides(t *testing.T) {
	s := sweepScenario()
	s.Expenses = append(s.Expenses, model.ProjectionItem{
		Category:        "SaaS",
		ProjectedAmount: decimal.NewFromInt(10000),
	})

	d := DriverSpec{Name: "SaaS lines", Kind: DriverCategory, Category: "SaaS"}
	out := d.Apply(s, 2.0)

	if !out.Revenues[0].ProjectedAmount.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("expected revenue line doubled, got %s", out.Revenues[0].ProjectedAmount)
	}
	if !out.Expenses[1].ProjectedAmount.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("expected matching expense line doubled, got %s", out.Expenses[1].ProjectedAmount)
	}
	if !out.Expenses[0].ProjectedAmount.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("expected other category untouched, got %s", out.Expenses[0].ProjectedAmount)
	}
}
