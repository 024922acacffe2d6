// Package sensitivity serves tornado, scenario matrix and Monte Carlo
// analyses.
package sensitivity

import (
	"net/http"

	"finsim/pkg/api/apiutil"
	"finsim/pkg/core/model"
	"finsim/pkg/core/sensitivity"
	"finsim/pkg/core/store"
	"finsim/pkg/core/valuation"
)

// Metric names accepted on requests.
const (
	metricNetProfit    = "net_profit"
	metricValuationMid = "valuation_mid"
)

// Handler serves /api/sensitivity.
type Handler struct {
	scenarios *store.ScenarioRepo
	engine    *sensitivity.Engine
	valuation valuation.ValuationConfig
}

// NewHandler creates the sensitivity handler. The valuation config backs the
// valuation_mid metric.
func NewHandler(scenarios *store.ScenarioRepo, engine *sensitivity.Engine, vcfg valuation.ValuationConfig) *Handler {
	return &Handler{scenarios: scenarios, engine: engine, valuation: vcfg}
}

type analysisRequest struct {
	apiutil.ScenarioRef
	Drivers    []sensitivity.DriverSpec `json:"drivers"`
	Metric     string                   `json:"metric,omitempty"`
	TaxRate    float64                  `json:"tax_rate,omitempty"`
	RangePct   float64                  `json:"range_pct,omitempty"`
	Iterations int                      `json:"iterations,omitempty"`
	Seed       int64                    `json:"seed,omitempty"`
}

func (h *Handler) metric(req *analysisRequest) (sensitivity.Metric, error) {
	switch req.Metric {
	case "", metricNetProfit:
		return sensitivity.NetProfitMetric(req.TaxRate), nil
	case metricValuationMid:
		cfg := h.valuation
		cfg.TaxRate = req.TaxRate
		return valuation.MidValuationMetric(&cfg), nil
	default:
		return nil, &model.InvalidInputError{Field: "metric", Reason: "unknown metric " + req.Metric}
	}
}

// HandleTornado runs the one-at-a-time driver sweep.
func (h *Handler) HandleTornado(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	var req analysisRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	s, metric, err := h.resolve(r, &req)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}

	rangePct := req.RangePct
	if rangePct == 0 {
		rangePct = 0.1
	}
	results, err := h.engine.RunTornado(s, req.Drivers, rangePct, metric)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, results)
}

// HandleMatrix runs the full cross-product of driver levels.
func (h *Handler) HandleMatrix(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	var req analysisRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	s, metric, err := h.resolve(r, &req)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}

	matrix, err := h.engine.RunScenarioMatrix(s, req.Drivers, metric)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, matrix)
}

// HandleMonteCarlo samples driver distributions and returns the summary.
func (h *Handler) HandleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	var req analysisRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	s, metric, err := h.resolve(r, &req)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}

	iterations := req.Iterations
	if iterations == 0 {
		iterations = 10000
	}
	summary, err := h.engine.RunMonteCarlo(s, req.Drivers, iterations, req.Seed, metric)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) resolve(r *http.Request, req *analysisRequest) (*model.SimulationScenario, sensitivity.Metric, error) {
	s, err := req.Resolve(r.Context(), h.scenarios)
	if err != nil {
		return nil, nil, err
	}
	metric, err := h.metric(req)
	if err != nil {
		return nil, nil, err
	}
	return s, metric, nil
}
