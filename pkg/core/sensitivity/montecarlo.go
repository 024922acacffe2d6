package sensitivity

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"finsim/pkg/core/model"
)

const histogramBins = 20

// RunMonteCarlo draws `iterations` independent samples per driver from its
// declared distribution, recomputes the metric per sample, and summarizes
// the outcome distribution.
//
// Samples are embarrassingly parallel; determinism is preserved by seeding
// each sample from baseSeed + sampleIndex rather than sharing one sequential
// stream, so worker scheduling cannot perturb the result.
func (e *Engine) RunMonteCarlo(s *model.SimulationScenario, drivers []DriverSpec, iterations int, seed int64, metric Metric) (*model.MonteCarloSummary, error) {
	if iterations < 1 {
		return nil, &model.InvalidInputError{Field: "iterations", Reason: "must be at least 1"}
	}
	if iterations > e.MaxIterations {
		return nil, &model.TooManyCombinationsError{Requested: iterations, Ceiling: e.MaxIterations}
	}
	if len(drivers) == 0 {
		return nil, &model.InvalidInputError{Field: "drivers", Reason: "must not be empty"}
	}
	for i := range drivers {
		if err := drivers[i].Validate(); err != nil {
			return nil, err
		}
		if err := drivers[i].validateDistribution(); err != nil {
			return nil, err
		}
	}

	samples := make([]float64, iterations)
	workers := runtime.NumCPU()
	if workers > iterations {
		workers = iterations
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := offset; i < iterations; i += workers {
				rng := rand.New(rand.NewSource(seed + int64(i)))
				perturbed := s
				for d := range drivers {
					perturbed = drivers[d].Apply(perturbed, drawMultiplier(&drivers[d], rng))
				}
				value, err := metric(perturbed)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				samples[i] = value
			}
		}(worker)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return summarize(samples, iterations, seed), nil
}

// drawMultiplier samples one multiplier for a driver from its distribution.
func drawMultiplier(d *DriverSpec, rng *rand.Rand) float64 {
	switch d.Distribution {
	case DistUniform:
		return d.Min + rng.Float64()*(d.Max-d.Min)
	case DistNormal:
		return d.Mean + rng.NormFloat64()*d.Std
	}
	return 1.0
}

// summarize computes the distribution statistics over the sampled metric.
func summarize(samples []float64, iterations int, seed int64) *model.MonteCarloSummary {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(len(samples))

	var variance float64
	for _, v := range samples {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(samples))

	summary := &model.MonteCarloSummary{
		Iterations: iterations,
		Seed:       seed,
		Mean:       mean,
		StdDev:     math.Sqrt(variance),
		Min:        sorted[0],
		Max:        sorted[len(sorted)-1],
		Percentiles: map[string]float64{
			"p5":  percentile(sorted, 0.05),
			"p25": percentile(sorted, 0.25),
			"p50": percentile(sorted, 0.50),
			"p75": percentile(sorted, 0.75),
			"p95": percentile(sorted, 0.95),
		},
		Histogram: histogram(sorted),
	}
	return summary
}

// percentile reads the nearest-rank value from a sorted sample.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q*float64(len(sorted)-1) + 0.5)
	return sorted[idx]
}

// histogram buckets the sorted samples into fixed-width bins.
func histogram(sorted []float64) []model.HistogramBin {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		return []model.HistogramBin{{Low: lo, High: hi, Count: len(sorted)}}
	}

	width := (hi - lo) / histogramBins
	bins := make([]model.HistogramBin, histogramBins)
	for b := range bins {
		bins[b].Low = lo + width*float64(b)
		bins[b].High = lo + width*float64(b+1)
	}
	for _, v := range sorted {
		b := int((v - lo) / width)
		if b >= histogramBins {
			b = histogramBins - 1
		}
		bins[b].Count++
	}
	return bins
}
