package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"finsim/pkg/core/model"
)

// SnapshotRepo stores the valuation breakdowns written by the nightly
// revaluation job, keeping an audit trail per scenario.
type SnapshotRepo struct{}

// NewSnapshotRepo creates a new repository instance.
func NewSnapshotRepo() *SnapshotRepo {
	return &SnapshotRepo{}
}

// Save appends one breakdown for a scenario.
func (r *SnapshotRepo) Save(ctx context.Context, scenarioID string, breakdown *model.ValuationBreakdown) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}

	query := `
		INSERT INTO valuation_snapshots (id, scenario_id, breakdown_json, created_at)
		VALUES ($1, $2, $3, $4);
	`
	_, err = pool.Exec(ctx, query, uuid.NewString(), scenarioID, jsonData, breakdown.ComputedAt)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent breakdown for a scenario.
func (r *SnapshotRepo) Latest(ctx context.Context, scenarioID string) (*model.ValuationBreakdown, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT breakdown_json FROM valuation_snapshots
		WHERE scenario_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var jsonData []byte
	err := pool.QueryRow(ctx, query, scenarioID).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no snapshot found for scenario %s", scenarioID)
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var breakdown model.ValuationBreakdown
	if err := json.Unmarshal(jsonData, &breakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
	}
	return &breakdown, nil
}
