package sqlite

import (
	"context"
	"fmt"
	"time"

	"facility-planner/internal/database"
	"facility-planner/internal/models"
)

type siteRepository struct {
	store *Store
}

func (r *siteRepository) ListByScenario(ctx context.Context, scenarioID int64) ([]models.Site, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT id, scenario_id, name, address, lat, lng, created_at
	          FROM sites
	          WHERE scenario_id = ?
	          ORDER BY id`

	rows, err := r.store.db.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	sites := []models.Site{}
	for rows.Next() {
		var s models.Site
		if err := rows.Scan(&s.ID, &s.ScenarioID, &s.Name, &s.Address, &s.Lat, &s.Lng, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sites: %w", err)
	}
	return sites, nil
}

func (r *siteRepository) Create(ctx context.Context, s *models.Site) (*models.Site, error) {
	created, err := r.CreateBatch(ctx, s.ScenarioID, []models.Site{*s})
	if err != nil {
		return nil, err
	}
	*s = created[0]
	return s, nil
}

func (r *siteRepository) CreateBatch(ctx context.Context, scenarioID int64, sites []models.Site) ([]models.Site, error) {
	if len(sites) == 0 {
		return []models.Site{}, nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sites (scenario_id, name, address, lat, lng, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	created := make([]models.Site, len(sites))
	for i, s := range sites {
		s.ScenarioID = scenarioID
		s.CreatedAt = now

		result, err := stmt.ExecContext(ctx, s.ScenarioID, s.Name, s.Address, s.Lat, s.Lng, s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create site: %w", err)
		}
		s.ID, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get last insert id: %w", err)
		}
		created[i] = s
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

func (r *siteRepository) Delete(ctx context.Context, scenarioID, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result, err := r.store.db.ExecContext(ctx, `DELETE FROM sites WHERE id = ? AND scenario_id = ?`, id, scenarioID)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
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
