package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"facility-planner/internal/database"
	"facility-planner/internal/models"
)

// DistanceResult contains the result of a distance calculation
type DistanceResult struct {
	DistanceMeters float64 `json:"distance_meters"`
	DurationSecs   float64 `json:"duration_secs"`
}

// DistanceCalculator provides distance calculations between coordinates
type DistanceCalculator interface {
	GetDistance(ctx context.Context, origin, dest models.Coordinates) (*DistanceResult, error)
	GetDistanceMatrix(ctx context.Context, points []models.Coordinates) ([][]DistanceResult, error)
	GetDistancesFromPoint(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) ([]DistanceResult, error)
	PrewarmCache(ctx context.Context, points []models.Coordinates) error
}

// ErrDistanceCalculationFailed is returned when the routing backend fails
type ErrDistanceCalculationFailed struct {
	Origin models.Coordinates
	Dest   models.Coordinates
	Reason string
}

func (e *ErrDistanceCalculationFailed) Error() string {
	return fmt.Sprintf("distance calculation failed: %s", e.Reason)
}

const (
	// DefaultOSRMURL is the public OSRM demo server
	DefaultOSRMURL = "https://router.project-osrm.org"

	// maxOSRMCoordinates is the maximum number of coordinates the public OSRM API accepts
	maxOSRMCoordinates = 80
)

type osrmCalculator struct {
	baseURL    string
	httpClient *http.Client
	cache      database.DistanceCacheRepository
	batchDelay time.Duration
	logger     *log.Logger
}

type osrmTableResponse struct {
	Code      string      `json:"code"`
	Message   string      `json:"message,omitempty"`
	// Entries are null for pairs OSRM cannot route
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// OSRMOption configures the OSRM calculator
type OSRMOption func(*osrmCalculator)

// WithBaseURL points the calculator at a different OSRM server
func WithBaseURL(url string) OSRMOption {
	return func(c *osrmCalculator) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) OSRMOption {
	return func(c *osrmCalculator) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBatchDelay sets the pause between batched table requests
func WithBatchDelay(d time.Duration) OSRMOption {
	return func(c *osrmCalculator) {
		c.batchDelay = d
	}
}

// WithOSRMLogger sets the logger
func WithOSRMLogger(l *log.Logger) OSRMOption {
	return func(c *osrmCalculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewOSRMCalculator creates a new OSRM distance calculator with caching
func NewOSRMCalculator(cache database.DistanceCacheRepository, opts ...OSRMOption) DistanceCalculator {
	c := &osrmCalculator{
		baseURL: DefaultOSRMURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:      cache,
		batchDelay: 100 * time.Millisecond,
		logger:     log.Default().WithPrefix("osrm"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func samePoint(a, b models.Coordinates) bool {
	return models.RoundCoordinate(a.Lat) == models.RoundCoordinate(b.Lat) &&
		models.RoundCoordinate(a.Lng) == models.RoundCoordinate(b.Lng)
}

func (c *osrmCalculator) GetDistance(ctx context.Context, origin, dest models.Coordinates) (*DistanceResult, error) {
	if samePoint(origin, dest) {
		return &DistanceResult{}, nil
	}

	cached, err := c.cache.Get(ctx, origin, dest)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return &DistanceResult{
			DistanceMeters: cached.DistanceMeters,
			DurationSecs:   cached.DurationSecs,
		}, nil
	}

	c.logger.Debug("cache miss", "origin", origin, "dest", dest)
	results, err := c.GetDistancesFromPoint(ctx, origin, []models.Coordinates{dest})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, &ErrDistanceCalculationFailed{Origin: origin, Dest: dest, Reason: "no results returned"}
	}
	return &results[0], nil
}

func (c *osrmCalculator) GetDistanceMatrix(ctx context.Context, points []models.Coordinates) ([][]DistanceResult, error) {
	n := len(points)
	if n == 0 {
		return [][]DistanceResult{}, nil
	}

	matrix := make([][]DistanceResult, n)
	for i := range matrix {
		matrix[i] = make([]DistanceResult, n)
	}

	missing := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || samePoint(points[i], points[j]) {
				continue
			}
			cached, err := c.cache.Get(ctx, points[i], points[j])
			if err != nil {
				return nil, err
			}
			if cached == nil {
				missing++
				continue
			}
			matrix[i][j] = DistanceResult{
				DistanceMeters: cached.DistanceMeters,
				DurationSecs:   cached.DurationSecs,
			}
		}
	}

	if missing == 0 {
		c.logger.Debug("distance matrix fully cached", "points", n)
		return matrix, nil
	}

	c.logger.Info("distance matrix request", "points", n, "missing", missing)

	var entries []models.DistanceCacheEntry
	var err error
	if n <= maxOSRMCoordinates {
		entries, err = c.fetchBlock(ctx, points, indexRange(0, n), indexRange(0, n), matrix)
	} else {
		entries, err = c.fetchBatched(ctx, points, matrix)
	}
	if err != nil {
		return nil, err
	}

	if len(entries) > 0 {
		if err := c.cache.SetBatch(ctx, entries); err != nil {
			return nil, err
		}
	}
	return matrix, nil
}

func indexRange(from, to int) []int {
	idx := make([]int, to-from)
	for i := range idx {
		idx[i] = from + i
	}
	return idx
}

// fetchBatched splits points into blocks of at most maxOSRMCoordinates/2 so
// that every pair of blocks fits into one table request
func (c *osrmCalculator) fetchBatched(ctx context.Context, points []models.Coordinates, matrix [][]DistanceResult) ([]models.DistanceCacheEntry, error) {
	n := len(points)
	size := maxOSRMCoordinates / 2

	var blocks [][]int
	for i := 0; i < n; i += size {
		blocks = append(blocks, indexRange(i, min(i+size, n)))
	}
	c.logger.Info("using batched requests", "points", n, "blocks", len(blocks))

	var entries []models.DistanceCacheEntry
	requests := 0
	for bi, sources := range blocks {
		for bj, dests := range blocks {
			if requests > 0 && c.batchDelay > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(c.batchDelay):
				}
			}
			got, err := c.fetchBlock(ctx, points, sources, dests, matrix)
			if err != nil {
				return nil, err
			}
			entries = append(entries, got...)
			requests++
			c.logger.Debug("block fetched", "sources", bi, "destinations", bj)
		}
	}

	c.logger.Info("batched requests complete", "requests", requests, "entries", len(entries))
	return entries, nil
}

// fetchBlock requests the sources x dests sub-table (global indices) and
// writes it into matrix
func (c *osrmCalculator) fetchBlock(ctx context.Context, points []models.Coordinates, sources, dests []int, matrix [][]DistanceResult) ([]models.DistanceCacheEntry, error) {
	// Local coordinate list: sources first, then destinations not already present
	local := make(map[int]int, len(sources)+len(dests))
	var coords []string
	add := func(idx int) {
		if _, ok := local[idx]; ok {
			return
		}
		local[idx] = len(coords)
		p := points[idx]
		coords = append(coords, fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat))
	}
	for _, idx := range sources {
		add(idx)
	}
	for _, idx := range dests {
		add(idx)
	}

	queryURL := fmt.Sprintf("%s/table/v1/driving/%s?annotations=distance,duration", c.baseURL, strings.Join(coords, ";"))
	full := len(coords) == len(sources) && len(coords) == len(dests)
	if !full {
		queryURL += "&sources=" + joinLocal(sources, local) + "&destinations=" + joinLocal(dests, local)
	}

	resp, err := c.query(ctx, queryURL)
	if err != nil {
		return nil, err
	}
	if len(resp.Distances) != len(sources) || len(resp.Durations) != len(sources) {
		return nil, &ErrDistanceCalculationFailed{
			Reason: fmt.Sprintf("unexpected table size: got %d rows, want %d", len(resp.Distances), len(sources)),
		}
	}

	var entries []models.DistanceCacheEntry
	for si, src := range sources {
		if len(resp.Distances[si]) != len(dests) || len(resp.Durations[si]) != len(dests) {
			return nil, &ErrDistanceCalculationFailed{Reason: "unexpected table row size"}
		}
		for di, dst := range dests {
			if src == dst {
				continue
			}
			if resp.Distances[si][di] == nil || resp.Durations[si][di] == nil {
				return nil, &ErrDistanceCalculationFailed{
					Origin: points[src],
					Dest:   points[dst],
					Reason: fmt.Sprintf("no route from point %d to point %d", src, dst),
				}
			}
			dist := *resp.Distances[si][di]
			dur := *resp.Durations[si][di]
			matrix[src][dst] = DistanceResult{DistanceMeters: dist, DurationSecs: dur}
			if dist > 0 {
				entries = append(entries, models.DistanceCacheEntry{
					Origin:         points[src],
					Destination:    points[dst],
					DistanceMeters: dist,
					DurationSecs:   dur,
				})
			}
		}
	}
	return entries, nil
}

func joinLocal(global []int, local map[int]int) string {
	parts := make([]string, len(global))
	for i, idx := range global {
		parts[i] = strconv.Itoa(local[idx])
	}
	return strings.Join(parts, ";")
}

func (c *osrmCalculator) query(ctx context.Context, queryURL string) (*osrmTableResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, &ErrDistanceCalculationFailed{Reason: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("OSRM request failed", "err", err)
		return nil, &ErrDistanceCalculationFailed{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("OSRM API error", "status", resp.StatusCode, "body", string(body))
		return nil, &ErrDistanceCalculationFailed{
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var out osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ErrDistanceCalculationFailed{Reason: err.Error()}
	}
	if out.Code != "Ok" {
		c.logger.Error("OSRM returned error code", "code", out.Code, "message", out.Message)
		return nil, &ErrDistanceCalculationFailed{Reason: fmt.Sprintf("OSRM error: %s", out.Code)}
	}
	return &out, nil
}

func (c *osrmCalculator) GetDistancesFromPoint(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) ([]DistanceResult, error) {
	if len(destinations) == 0 {
		return []DistanceResult{}, nil
	}

	allPoints := append([]models.Coordinates{origin}, destinations...)
	matrix, err := c.GetDistanceMatrix(ctx, allPoints)
	if err != nil {
		return nil, err
	}

	results := make([]DistanceResult, len(destinations))
	for i := range destinations {
		results[i] = matrix[0][i+1]
	}
	return results, nil
}

func (c *osrmCalculator) PrewarmCache(ctx context.Context, points []models.Coordinates) error {
	_, err := c.GetDistanceMatrix(ctx, points)
	return err
}
