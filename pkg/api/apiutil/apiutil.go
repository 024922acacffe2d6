// Package apiutil holds the JSON envelope and error mapping shared by the
// API handlers.
package apiutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"finsim/pkg/core/model"
	"finsim/pkg/core/store"
)

// CORS applies the permissive headers the dashboard dev server needs.
// Returns true when the request was a preflight and has been answered.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

// WriteJSON writes a JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError maps engine error kinds onto HTTP statuses. The core never
// formats user-facing text; the raw kind and message are passed through for
// the presentation layer to translate.
func WriteError(w http.ResponseWriter, err error) {
	var invalid *model.InvalidInputError
	var tooMany *model.TooManyCombinationsError
	var mismatch *model.ReconciliationMismatchError

	status := http.StatusInternalServerError
	kind := "internal"
	switch {
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
		kind = "invalid_input"
	case errors.As(err, &tooMany):
		status = http.StatusUnprocessableEntity
		kind = "too_many_combinations"
	case errors.As(err, &mismatch):
		kind = "reconciliation_mismatch"
	}

	WriteJSON(w, status, map[string]string{"error": kind, "message": err.Error()})
}

// ScenarioRef is the common request fragment: either an inline scenario or
// the ID of a stored one.
type ScenarioRef struct {
	ScenarioID string                    `json:"scenario_id,omitempty"`
	Scenario   *model.SimulationScenario `json:"scenario,omitempty"`
}

// Resolve returns the referenced scenario, loading from the store when an ID
// is given.
func (ref *ScenarioRef) Resolve(ctx context.Context, repo *store.ScenarioRepo) (*model.SimulationScenario, error) {
	if ref.ScenarioID != "" {
		return repo.Load(ctx, ref.ScenarioID)
	}
	if ref.Scenario == nil {
		return nil, &model.InvalidInputError{Field: "scenario", Reason: "scenario or scenario_id required"}
	}
	if err := ref.Scenario.Validate(); err != nil {
		return nil, err
	}
	return ref.Scenario, nil
}

// DecodeJSON decodes a request body, wrapping malformed payloads as invalid
// input.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &model.InvalidInputError{Field: "body", Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return nil
}
