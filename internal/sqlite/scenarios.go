package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"facility-planner/internal/database"
	"facility-planner/internal/models"
)

type scenarioRepository struct {
	store *Store
}

const scenarioColumns = `id, name, facilities, metric, notes, created_at, updated_at`

func scanScenario(row interface{ Scan(...any) error }, s *models.Scenario) error {
	return row.Scan(&s.ID, &s.Name, &s.Facilities, &s.Metric, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
}

func (r *scenarioRepository) List(ctx context.Context) ([]models.Scenario, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows, err := r.store.db.QueryContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	scenarios := []models.Scenario{}
	for rows.Next() {
		var s models.Scenario
		if err := scanScenario(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenarios = append(scenarios, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenarios: %w", err)
	}
	return scenarios, nil
}

func (r *scenarioRepository) GetByID(ctx context.Context, id int64) (*models.Scenario, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var s models.Scenario
	err := scanScenario(r.store.db.QueryRowContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = ?`, id), &s)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return &s, nil
}

func (r *scenarioRepository) Create(ctx context.Context, s *models.Scenario) (*models.Scenario, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.Metric == "" {
		s.Metric = models.MetricDistance
	}

	result, err := r.store.db.ExecContext(ctx,
		`INSERT INTO scenarios (name, facilities, metric, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.Name, s.Facilities, s.Metric, s.Notes, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	s.ID = id

	return s, nil
}

func (r *scenarioRepository) Update(ctx context.Context, s *models.Scenario) (*models.Scenario, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s.UpdatedAt = time.Now()
	if s.Metric == "" {
		s.Metric = models.MetricDistance
	}

	result, err := r.store.db.ExecContext(ctx,
		`UPDATE scenarios SET name = ?, facilities = ?, metric = ?, notes = ?, updated_at = ? WHERE id = ?`,
		s.Name, s.Facilities, s.Metric, s.Notes, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update scenario: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, database.ErrNotFound
	}

	return s, nil
}

func (r *scenarioRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Foreign key cascade removes sites and solutions
	result, err := r.store.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return database.ErrNotFound
	}
	return nil
}
