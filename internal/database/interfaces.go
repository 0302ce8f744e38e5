package database

import (
	"context"

	"facility-planner/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	Scenarios() ScenarioRepository
	Sites() SiteRepository
	Solutions() SolutionRepository
	DistanceCache() DistanceCacheRepository
}

// ScenarioRepository handles scenario persistence
type ScenarioRepository interface {
	List(ctx context.Context) ([]models.Scenario, error)
	GetByID(ctx context.Context, id int64) (*models.Scenario, error)
	Create(ctx context.Context, s *models.Scenario) (*models.Scenario, error)
	Update(ctx context.Context, s *models.Scenario) (*models.Scenario, error)
	Delete(ctx context.Context, id int64) error
}

// SiteRepository handles candidate site persistence. Sites of a scenario are
// always returned in ID order, which fixes their distance matrix index.
type SiteRepository interface {
	ListByScenario(ctx context.Context, scenarioID int64) ([]models.Site, error)
	Create(ctx context.Context, s *models.Site) (*models.Site, error)
	CreateBatch(ctx context.Context, scenarioID int64, sites []models.Site) ([]models.Site, error)
	Delete(ctx context.Context, scenarioID, id int64) error
}

// SolutionRepository handles solve result persistence
type SolutionRepository interface {
	ListByScenario(ctx context.Context, scenarioID int64) ([]models.Solution, error)
	GetByID(ctx context.Context, id int64) (*models.Solution, error)
	Create(ctx context.Context, s *models.Solution) (*models.Solution, error)
}

// DistanceCacheRepository handles distance cache persistence
type DistanceCacheRepository interface {
	Get(ctx context.Context, origin, dest models.Coordinates) (*models.DistanceCacheEntry, error)
	SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error
	Clear(ctx context.Context) error
}
