package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"finsim/pkg/core/model"
)

// ScenarioRepo handles persistence of simulation scenarios.
// The scenario body is stored as a JSONB blob; id, name and timestamps are
// lifted into columns for listing and lookups.
type ScenarioRepo struct{}

// NewScenarioRepo creates a new repository instance.
func NewScenarioRepo() *ScenarioRepo {
	return &ScenarioRepo{}
}

// Save validates and persists a scenario, assigning an ID on first save.
// It uses an upsert strategy keyed on the scenario ID.
func (r *ScenarioRepo) Save(ctx context.Context, s *model.SimulationScenario) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if err := s.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = uuid.NewString()
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	jsonData, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	query := `
		INSERT INTO simulation_scenarios (id, name, scenario_json, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			scenario_json = EXCLUDED.scenario_json,
			updated_at = EXCLUDED.updated_at;
	`
	_, err = pool.Exec(ctx, query, s.ID, s.Name, jsonData, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save scenario: %w", err)
	}
	return nil
}

// Load retrieves one scenario by ID. The blob is validated on the way out so
// no engine ever sees an entity that breaks the data-model invariants.
func (r *ScenarioRepo) Load(ctx context.Context, id string) (*model.SimulationScenario, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT scenario_json FROM simulation_scenarios WHERE id = $1`

	var jsonData []byte
	err := pool.QueryRow(ctx, query, id).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no scenario found for id %s", id)
		}
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}

	var s model.SimulationScenario
	if err := json.Unmarshal(jsonData, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("stored scenario %s is invalid: %w", id, err)
	}
	return &s, nil
}

// List returns all scenarios ordered by last update, newest first.
func (r *ScenarioRepo) List(ctx context.Context) ([]*model.SimulationScenario, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT scenario_json FROM simulation_scenarios ORDER BY updated_at DESC`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var out []*model.SimulationScenario
	for rows.Next() {
		var jsonData []byte
		if err := rows.Scan(&jsonData); err != nil {
			return nil, fmt.Errorf("failed to scan scenario row: %w", err)
		}
		var s model.SimulationScenario
		if err := json.Unmarshal(jsonData, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Delete removes a scenario and, via the schema cascade, its snapshots.
func (r *ScenarioRepo) Delete(ctx context.Context, id string) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	tag, err := pool.Exec(ctx, `DELETE FROM simulation_scenarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no scenario found for id %s", id)
	}
	return nil
}
