package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"facility-planner/internal/models"
)

// fileCacheData is the on-disk layout of a FileDistanceCache
type fileCacheData struct {
	Entries []models.DistanceCacheEntry `json:"entries"`
}

type cacheKey struct {
	oLat, oLng, dLat, dLng float64
}

func keyOf(origin, dest models.Coordinates) cacheKey {
	return cacheKey{
		oLat: models.RoundCoordinate(origin.Lat),
		oLng: models.RoundCoordinate(origin.Lng),
		dLat: models.RoundCoordinate(dest.Lat),
		dLng: models.RoundCoordinate(dest.Lng),
	}
}

// FileDistanceCache is a JSON file implementation of DistanceCacheRepository
// for runs that have no database, such as one-off CLI solves. Every write
// rewrites the whole file through a temp file and rename.
type FileDistanceCache struct {
	path    string
	mu      sync.RWMutex
	entries map[cacheKey]models.DistanceCacheEntry
	logger  *log.Logger
}

// NewFileDistanceCache opens the cache stored at path. A missing file is an
// empty cache; it is created on the first write.
func NewFileDistanceCache(path string) (*FileDistanceCache, error) {
	c := &FileDistanceCache{
		path:    path,
		entries: make(map[cacheKey]models.DistanceCacheEntry),
		logger:  log.Default().WithPrefix("cache"),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var stored fileCacheData
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	for _, e := range stored.Entries {
		c.entries[keyOf(e.Origin, e.Destination)] = e
	}

	c.logger.Debug("loaded distance cache", "path", path, "entries", len(c.entries))
	return c, nil
}

func (c *FileDistanceCache) Get(ctx context.Context, origin, dest models.Coordinates) (*models.DistanceCacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[keyOf(origin, dest)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (c *FileDistanceCache) SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error {
	if len(entries) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		c.entries[keyOf(e.Origin, e.Destination)] = e
	}
	return c.saveLocked()
}

func (c *FileDistanceCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]models.DistanceCacheEntry)
	return c.saveLocked()
}

// Len returns the number of cached pairs
func (c *FileDistanceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// saveLocked writes the cache file. Callers hold c.mu.
func (c *FileDistanceCache) saveLocked() error {
	stored := fileCacheData{Entries: make([]models.DistanceCacheEntry, 0, len(c.entries))}
	for _, e := range c.entries {
		stored.Entries = append(stored.Entries, e)
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}
	return nil
}
