package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rsned/factorio-planner-server/pkg/planner"
)

// PlanStore handles stored plan access.
type PlanStore struct {
	db *DB
}

// NewPlanStore creates a new PlanStore.
func NewPlanStore(db *DB) *PlanStore {
	return &PlanStore{db: db}
}

// SavePlan stores a plan document and returns its ID. An empty id inserts a
// new plan under a fresh UUID; a known id overwrites that plan.
func (s *PlanStore) SavePlan(ctx context.Context, id string, doc *planner.PlanDoc) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding plan: %w", err)
	}
	if id == "" {
		id = uuid.NewString()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (id, name, document)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			document = excluded.document,
			updated_at = datetime('now')
	`, id, doc.Name, string(payload))
	if err != nil {
		return "", fmt.Errorf("saving plan: %w", err)
	}

	return id, nil
}

// LoadPlan retrieves a stored plan by ID. Returns nil when no plan has that
// ID.
func (s *PlanStore) LoadPlan(ctx context.Context, id string) (*planner.PlanDoc, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM plans WHERE id = ?`,
		id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan: %w", err)
	}

	doc := &planner.PlanDoc{}
	if err := json.Unmarshal([]byte(payload), doc); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", id, err)
	}

	return doc, nil
}

// ListPlans returns summaries of all stored plans, most recently updated
// first.
func (s *PlanStore) ListPlans(ctx context.Context) ([]planner.PlanSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, updated_at
		FROM plans
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []planner.PlanSummary
	for rows.Next() {
		var p planner.PlanSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		summaries = append(summaries, p)
	}

	return summaries, rows.Err()
}

// DeletePlan removes a stored plan. Reports whether a plan was deleted.
func (s *PlanStore) DeletePlan(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting plan: %w", err)
	}
	return n > 0, nil
}
