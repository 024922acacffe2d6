// Package cashflow serves the 13-week forecast and its profit-to-cash bridge.
package cashflow

import (
	"net/http"

	"finsim/pkg/api/apiutil"
	"finsim/pkg/core/cashflow"
	"finsim/pkg/core/store"
)

// Handler serves /api/cashflow.
type Handler struct {
	scenarios *store.ScenarioRepo
}

// NewHandler creates the cash flow handler.
func NewHandler(scenarios *store.ScenarioRepo) *Handler {
	return &Handler{scenarios: scenarios}
}

type forecastRequest struct {
	apiutil.ScenarioRef
	WorkingCapital cashflow.WorkingCapitalConfig `json:"working_capital"`
	TaxFinancing   cashflow.TaxFinancingConfig   `json:"tax_financing"`
}

// HandleForecast builds the forecast, derives the matching accrual P&L and
// returns both with the reconciliation bridge.
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	var req forecastRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	s, err := req.Resolve(r.Context(), h.scenarios)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}

	fc, err := cashflow.BuildForecast(s, req.WorkingCapital, req.TaxFinancing)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	pnl, err := cashflow.HorizonPnL(s, req.TaxFinancing)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	bridge, err := cashflow.Reconcile(pnl, fc)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}

	apiutil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"forecast": fc,
		"pnl":      pnl,
		"bridge":   bridge,
	})
}
