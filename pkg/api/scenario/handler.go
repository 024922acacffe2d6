// Package scenario exposes scenario CRUD over HTTP, backed by the pg store.
package scenario

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"finsim/pkg/api/apiutil"
	scenariofile "finsim/pkg/core/scenario"
	"finsim/pkg/core/store"
	"finsim/pkg/core/uniteconomics"
)

// Handler serves /api/scenarios.
type Handler struct {
	repo *store.ScenarioRepo
}

// NewHandler creates the scenario handler.
func NewHandler(repo *store.ScenarioRepo) *Handler {
	return &Handler{repo: repo}
}

// HandleList returns all stored scenarios, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	scenarios, err := h.repo.List(r.Context())
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, scenarios)
}

// HandleSave creates or updates a scenario. The body goes through the
// tolerant parser so hand-written Hjson imports work directly.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, err := scenariofile.Parse(body)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	if err := h.repo.Save(r.Context(), s); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, s)
}

// HandleGet returns one scenario by ID.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	s, err := h.repo.Load(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, s)
}

type projectRequest struct {
	Model uniteconomics.BusinessModelType  `json:"model"`
	Input uniteconomics.UnitEconomicsInput `json:"input"`
}

// HandleProject derives quarterly revenue and expense items from unit
// economics, ready to be dropped into a scenario.
func (h *Handler) HandleProject(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	var req projectRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}

	items, err := uniteconomics.Project(req.Input, req.Model)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	revenues, expenses := uniteconomics.SplitItems(items)
	apiutil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"revenues": revenues,
		"expenses": expenses,
	})
}

// HandleDelete removes a scenario and its snapshots.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if apiutil.CORS(w, r) {
		return
	}
	if err := h.repo.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
