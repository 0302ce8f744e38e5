package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"facility-planner/internal/models"
)

type solutionRepository struct {
	store *Store
}

const solutionColumns = `id, run_id, scenario_id, facility_site_ids, total_cost, metric,
	swaps, passes, restarts, seed, converged, created_at`

func scanSolution(row interface{ Scan(...any) error }) (*models.Solution, error) {
	var s models.Solution
	var facilities string
	if err := row.Scan(
		&s.ID, &s.RunID, &s.ScenarioID, &facilities, &s.TotalCost, &s.Metric,
		&s.Swaps, &s.Passes, &s.Restarts, &s.Seed, &s.Converged, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(facilities), &s.FacilitySiteIDs); err != nil {
		return nil, fmt.Errorf("failed to decode facility ids: %w", err)
	}
	return &s, nil
}

func (r *solutionRepository) ListByScenario(ctx context.Context, scenarioID int64) ([]models.Solution, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+solutionColumns+` FROM solutions WHERE scenario_id = ? ORDER BY created_at DESC, id DESC`,
		scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query solutions: %w", err)
	}
	defer rows.Close()

	// Listings omit per-site assignments
	solutions := []models.Solution{}
	for rows.Next() {
		s, err := scanSolution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan solution: %w", err)
		}
		solutions = append(solutions, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating solutions: %w", err)
	}
	return solutions, nil
}

func (r *solutionRepository) GetByID(ctx context.Context, id int64) (*models.Solution, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, err := scanSolution(r.store.db.QueryRowContext(ctx,
		`SELECT `+solutionColumns+` FROM solutions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get solution: %w", err)
	}

	rows, err := r.store.db.QueryContext(ctx,
		`SELECT site_id, facility_site_id, cost FROM solution_assignments WHERE solution_id = ? ORDER BY site_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query solution assignments: %w", err)
	}
	defer rows.Close()

	s.Assignments = []models.SiteAssignment{}
	for rows.Next() {
		var a models.SiteAssignment
		if err := rows.Scan(&a.SiteID, &a.FacilitySiteID, &a.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan solution assignment: %w", err)
		}
		s.Assignments = append(s.Assignments, a)
	}

	return s, rows.Err()
}

func (r *solutionRepository) Create(ctx context.Context, s *models.Solution) (*models.Solution, error) {
	facilities, err := json.Marshal(s.FacilitySiteIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode facility ids: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	s.CreatedAt = time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO solutions (run_id, scenario_id, facility_site_ids, total_cost, metric,
		                        swaps, passes, restarts, seed, converged, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.ScenarioID, string(facilities), s.TotalCost, s.Metric,
		s.Swaps, s.Passes, s.Restarts, s.Seed, s.Converged, s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create solution: %w", err)
	}

	s.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get solution id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO solution_assignments (solution_id, site_id, facility_site_id, cost) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare assignment insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range s.Assignments {
		if _, err := stmt.ExecContext(ctx, s.ID, a.SiteID, a.FacilitySiteID, a.Cost); err != nil {
			return nil, fmt.Errorf("failed to create solution assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.store.logger.Debug("solution stored", "id", s.ID, "run_id", s.RunID, "scenario_id", s.ScenarioID)
	return s, nil
}
