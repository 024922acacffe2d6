package sensitivity

import (
	"math"
	"sort"

	"finsim/pkg/core/model"
)

// Defaults for the sweep safety ceilings.
const (
	DefaultMatrixCeiling = 10000
	DefaultMaxIterations = 1000000
)

// Engine runs sensitivity sweeps over immutable scenario snapshots.
type Engine struct {
	MatrixCeiling int // max combinations a scenario matrix may request
	MaxIterations int // max Monte Carlo iterations
}

// NewEngine returns an engine with the given ceilings; zero values fall back
// to the defaults.
func NewEngine(matrixCeiling, maxIterations int) *Engine {
	e := &Engine{MatrixCeiling: matrixCeiling, MaxIterations: maxIterations}
	if e.MatrixCeiling <= 0 {
		e.MatrixCeiling = DefaultMatrixCeiling
	}
	if e.MaxIterations <= 0 {
		e.MaxIterations = DefaultMaxIterations
	}
	return e
}

// RunTornado evaluates the metric at multiplier (1-rangePct) and (1+rangePct)
// for each driver independently, holding all others at base. Results are
// sorted by descending absolute impact.
func (e *Engine) RunTornado(s *model.SimulationScenario, drivers []DriverSpec, rangePct float64, metric Metric) ([]model.TornadoResult, error) {
	if rangePct < 0 || rangePct >= 1 {
		return nil, &model.InvalidInputError{Field: "range_percent", Reason: "must be within [0, 1)"}
	}
	if len(drivers) == 0 {
		return nil, &model.InvalidInputError{Field: "drivers", Reason: "must not be empty"}
	}
	for i := range drivers {
		if err := drivers[i].Validate(); err != nil {
			return nil, err
		}
	}

	results := make([]model.TornadoResult, 0, len(drivers))
	for i := range drivers {
		d := &drivers[i]
		lowInput := 1 - rangePct
		highInput := 1 + rangePct

		lowMetric, err := metric(d.Apply(s, lowInput))
		if err != nil {
			return nil, err
		}
		highMetric, err := metric(d.Apply(s, highInput))
		if err != nil {
			return nil, err
		}

		results = append(results, model.TornadoResult{
			Driver:     d.Name,
			LowInput:   lowInput,
			HighInput:  highInput,
			LowMetric:  lowMetric,
			HighMetric: highMetric,
			Impact:     highMetric - lowMetric,
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return math.Abs(results[a].Impact) > math.Abs(results[b].Impact)
	})
	return results, nil
}

// RunScenarioMatrix sweeps the full cross product of every driver's level
// set. The combination count is checked against the ceiling before any
// evaluation happens.
func (e *Engine) RunScenarioMatrix(s *model.SimulationScenario, drivers []DriverSpec, metric Metric) (*model.ScenarioMatrix, error) {
	if len(drivers) == 0 {
		return nil, &model.InvalidInputError{Field: "drivers", Reason: "must not be empty"}
	}
	for i := range drivers {
		if err := drivers[i].Validate(); err != nil {
			return nil, err
		}
	}

	combos := 1
	for i := range drivers {
		n := len(drivers[i].levels())
		if combos > e.MatrixCeiling/n {
			// Multiplying would overflow the ceiling (and possibly int).
			return nil, &model.TooManyCombinationsError{Requested: combos * n, Ceiling: e.MatrixCeiling}
		}
		combos *= n
	}
	if combos > e.MatrixCeiling {
		return nil, &model.TooManyCombinationsError{Requested: combos, Ceiling: e.MatrixCeiling}
	}

	matrix := &model.ScenarioMatrix{
		Drivers:      make([]string, len(drivers)),
		Combinations: combos,
		Outcomes:     make([]model.ScenarioOutcome, 0, combos),
	}
	for i := range drivers {
		matrix.Drivers[i] = drivers[i].Name
	}

	// Mixed-radix walk over the level indices.
	idx := make([]int, len(drivers))
	for c := 0; c < combos; c++ {
		perturbed := s
		levels := make(map[string]float64, len(drivers))
		for i := range drivers {
			lvl := drivers[i].levels()[idx[i]]
			levels[drivers[i].Name] = lvl
			perturbed = drivers[i].Apply(perturbed, lvl)
		}

		value, err := metric(perturbed)
		if err != nil {
			return nil, err
		}
		matrix.Outcomes = append(matrix.Outcomes, model.ScenarioOutcome{Levels: levels, Metric: value})

		for i := len(drivers) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(drivers[i].levels()) {
				break
			}
			idx[i] = 0
		}
	}

	return matrix, nil
}
