package sensitivity

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"finsim/pkg/core/model"
)

func TestRunMonteCarloDeterministic(t *testing.T) {
	// Same seed, same results, regardless of worker scheduling.
	drivers := []DriverSpec{
		{Name: "Revenue", Kind: DriverRevenue, Distribution: DistNormal, Mean: 1.0, Std: 0.1},
		{Name: "Expenses", Kind: DriverExpense, Distribution: DistUniform, Min: 0.9, Max: 1.1},
	}
	e := NewEngine(0, 0)

	first, err := e.RunMonteCarlo(sweepScenario(), drivers, 2000, 42, NetProfitMetric(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.RunMonteCarlo(sweepScenario(), drivers, 2000, 42, NetProfitMetric(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Mean != second.Mean || first.StdDev != second.StdDev {
		t.Errorf("same seed produced different summaries: %f/%f vs %f/%f",
			first.Mean, first.StdDev, second.Mean, second.StdDev)
	}
	if !reflect.DeepEqual(first.Percentiles, second.Percentiles) {
		t.Errorf("same seed produced different percentiles")
	}

	// A different seed should almost surely differ.
	third, err := e.RunMonteCarlo(sweepScenario(), drivers, 2000, 7, NetProfitMetric(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Mean == third.Mean {
		t.Errorf("different seeds produced identical means")
	}
}

func TestRunMonteCarloStatistics(t *testing.T) {
	// Mean of the net profit should sit near the base 40,000 with a
	// symmetric +-10% revenue perturbation (revenue 100,000 => std 10,000
	// of metric per unit of multiplier std 0.1).
	drivers := []DriverSpec{
		{Name: "Revenue", Kind: DriverRevenue, Distribution: DistNormal, Mean: 1.0, Std: 0.1},
	}
	e := NewEngine(0, 0)

	summary, err := e.RunMonteCarlo(sweepScenario(), drivers, 20000, 1, NetProfitMetric(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Iterations != 20000 || summary.Seed != 1 {
		t.Errorf("summary echo wrong: %d iterations, seed %d", summary.Iterations, summary.Seed)
	}
	if math.Abs(summary.Mean-40000) > 500 {
		t.Errorf("expected mean near 40000, got %f", summary.Mean)
	}
	if math.Abs(summary.StdDev-10000) > 500 {
		t.Errorf("expected stddev near 10000, got %f", summary.StdDev)
	}
	if summary.Percentiles["p50"] < summary.Percentiles["p5"] || summary.Percentiles["p95"] < summary.Percentiles["p50"] {
		t.Errorf("percentiles out of order: %v", summary.Percentiles)
	}
	if summary.Min > summary.Percentiles["p5"] || summary.Max < summary.Percentiles["p95"] {
		t.Errorf("min/max inconsistent with percentiles")
	}

	count := 0
	for _, bin := range summary.Histogram {
		count += bin.Count
	}
	if count != 20000 {
		t.Errorf("histogram counts %d, expected 20000", count)
	}
}

func TestRunMonteCarloDegenerateDistribution(t *testing.T) {
	// Uniform [1,1] pins every draw at the base case: zero spread, one bin.
	drivers := []DriverSpec{
		{Name: "Revenue", Kind: DriverRevenue, Distribution: DistUniform, Min: 1, Max: 1},
	}
	e := NewEngine(0, 0)

	summary, err := e.RunMonteCarlo(sweepScenario(), drivers, 100, 3, NetProfitMetric(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.StdDev != 0 {
		t.Errorf("expected zero stddev, got %f", summary.StdDev)
	}
	if len(summary.Histogram) != 1 || summary.Histogram[0].Count != 100 {
		t.Errorf("expected a single full bin, got %+v", summary.Histogram)
	}
}

func TestRunMonteCarloLimits(t *testing.T) {
	drivers := []DriverSpec{
		{Name: "Revenue", Kind: DriverRevenue, Distribution: DistUniform, Min: 0.9, Max: 1.1},
	}
	e := NewEngine(0, 100)

	var tooMany *model.TooManyCombinationsError
	if _, err := e.RunMonteCarlo(sweepScenario(), drivers, 101, 1, NetProfitMetric(0)); !errors.As(err, &tooMany) {
		t.Errorf("expected iteration cap error, got %v", err)
	}

	var invalid *model.InvalidInputError
	if _, err := e.RunMonteCarlo(sweepScenario(), drivers, 0, 1, NetProfitMetric(0)); !errors.As(err, &invalid) {
		t.Errorf("expected invalid iterations error, got %v", err)
	}

	bad := []DriverSpec{{Name: "Revenue", Kind: DriverRevenue}}
	if _, err := e.RunMonteCarlo(sweepScenario(), bad, 10, 1, NetProfitMetric(0)); !errors.As(err, &invalid) {
		t.Errorf("expected missing distribution error, got %v", err)
	}

	bad = []DriverSpec{{Name: "Revenue", Kind: DriverRevenue, Distribution: DistUniform, Min: 2, Max: 1}}
	if _, err := e.RunMonteCarlo(sweepScenario(), bad, 10, 1, NetProfitMetric(0)); !errors.As(err, &invalid) {
		t.Errorf("expected min>max error, got %v", err)
	}
}
