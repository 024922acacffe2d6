// Package valuation serves valuation breakdowns, snapshots and rendered
// reports.
package valuation

import (
	"net/http"

	"github.com/gorilla/mux"

	"finsim/pkg/api/apiutil"
	"finsim/pkg/core/model"
	"finsim/pkg/core/report"
	"finsim/pkg/core/store"
	"finsim/pkg/core/valuation"
)

// Handler serves /api/valuation.
type Handler struct {
	scenarios *store.ScenarioRepo
	snapshots *store.SnapshotRepo
	defaults  valuation.ValuationConfig
}

// NewHandler creates the valuation handler. defaults fills config fields the
// request leaves at zero, so the dashboard can send just a scenario ID.
func NewHandler(scenarios *store.ScenarioRepo, snapshots *store.SnapshotRepo, defaults valuation.ValuationConfig) *Handler {
	return &Handler{scenarios: scenarios, snapshots: snapshots, defaults: defaults}
}

type valuationRequest struct {
	apiutil.ScenarioRef
	Config *valuation.ValuationConfig `json:"config,omitempty"`
}

func (h *Handler) config(req *valuationRequest) *valuation.ValuationConfig {
	if req.Config != nil {
		return req.Config
	}
	cfg := h.defaults
	return &cfg
}

// HandleCompute runs the four methods and returns the weighted breakdown.
// When the scenario came from the store, the breakdown is also persisted as a
// snapshot so the history endpoint can trend it.
func (h *Handler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	var req valuationRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	s, err := req.Resolve(r.Context(), h.scenarios)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}

	breakdown, err := valuation.ComputeValuation(s, h.config(&req))
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	if req.ScenarioID != "" {
		if err := h.snapshots.Save(r.Context(), req.ScenarioID, breakdown); err != nil {
			apiutil.WriteError(w, err)
			return
		}
	}
	apiutil.WriteJSON(w, http.StatusOK, breakdown)
}

// HandleReport computes a valuation and returns the markdown report, or HTML
// when ?format=html is given.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	var req valuationRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	s, err := req.Resolve(r.Context(), h.scenarios)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}

	cfg := h.config(&req)
	breakdown, err := valuation.ComputeValuation(s, cfg)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	pnl, err := model.DeriveIncomeStatement(s, cfg.TaxRate)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}

	markdown := report.BuildValuationReport(s, pnl, breakdown)
	if r.URL.Query().Get("format") == "html" {
		html, err := report.RenderHTML(markdown)
		if err != nil {
			apiutil.WriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(markdown))
}

// HandleLatestSnapshot returns the most recent stored breakdown for a
// scenario.
func (h *Handler) HandleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	breakdown, err := h.snapshots.Latest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, breakdown)
}
