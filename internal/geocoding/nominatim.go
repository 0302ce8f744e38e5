// Package geocoding resolves site addresses to coordinates through a
// Nominatim server.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"facility-planner/internal/models"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim instance
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// GeocodingResult contains the result of a geocoding operation
type GeocodingResult struct {
	Coords      models.Coordinates `json:"coords"`
	DisplayName string             `json:"display_name"`
}

// Geocoder provides address-to-coordinates conversion
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*GeocodingResult, error)
	GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*GeocodingResult, error)
	Search(ctx context.Context, query string, limit int) ([]GeocodingResult, error)
}

// ErrGeocodingFailed is returned when an address cannot be geocoded
type ErrGeocodingFailed struct {
	Address string
	Reason  string
}

func (e *ErrGeocodingFailed) Error() string {
	return fmt.Sprintf("geocoding failed for address: %s - %s", e.Address, e.Reason)
}

type nominatimGeocoder struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *time.Ticker
	retryBase   time.Duration
	logger      *log.Logger
}

type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Option configures the geocoder
type Option func(*nominatimGeocoder)

// WithBaseURL points the geocoder at a different Nominatim server
func WithBaseURL(u string) Option {
	return func(g *nominatimGeocoder) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(g *nominatimGeocoder) {
		if c != nil {
			g.httpClient = c
		}
	}
}

// WithRateLimit sets the minimum interval between requests. Zero disables
// limiting, which the public server does not allow.
func WithRateLimit(every time.Duration) Option {
	return func(g *nominatimGeocoder) {
		if g.rateLimiter != nil {
			g.rateLimiter.Stop()
			g.rateLimiter = nil
		}
		if every > 0 {
			g.rateLimiter = time.NewTicker(every)
		}
	}
}

// WithRetryBackoff sets the first retry delay; later retries double it
func WithRetryBackoff(d time.Duration) Option {
	return func(g *nominatimGeocoder) {
		g.retryBase = d
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(g *nominatimGeocoder) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewNominatimGeocoder creates a new Nominatim geocoder, limited to one
// request per second by default
func NewNominatimGeocoder(opts ...Option) Geocoder {
	g := &nominatimGeocoder{
		baseURL:   DefaultNominatimURL,
		userAgent: "FacilityPlanner/1.0",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: time.NewTicker(time.Second),
		retryBase:   time.Second,
		logger:      log.Default().WithPrefix("geocoding"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *nominatimGeocoder) wait(ctx context.Context) error {
	if g.rateLimiter == nil {
		return ctx.Err()
	}
	select {
	case <-g.rateLimiter.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// search runs one /search request and returns the raw hits
func (g *nominatimGeocoder) search(ctx context.Context, query string, limit int) ([]nominatimResponse, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	queryURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=%d", g.baseURL, url.QueryEscape(query), limit)
	g.logger.Debug("request", "query", query, "limit", limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, &ErrGeocodingFailed{Address: query, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("geocoding request failed", "query", query, "err", err)
		return nil, &ErrGeocodingFailed{Address: query, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.Error("geocoding API error", "query", query, "status", resp.StatusCode)
		return nil, &ErrGeocodingFailed{
			Address: query,
			Reason:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, &ErrGeocodingFailed{Address: query, Reason: err.Error()}
	}
	return results, nil
}

func (r nominatimResponse) coords() (models.Coordinates, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("invalid latitude %q", r.Lat)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("invalid longitude %q", r.Lon)
	}
	return models.Coordinates{Lat: lat, Lng: lng}, nil
}

func (g *nominatimGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	results, err := g.search(ctx, address, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, &ErrGeocodingFailed{Address: address, Reason: "no results found"}
	}

	coords, err := results[0].coords()
	if err != nil {
		return nil, &ErrGeocodingFailed{Address: address, Reason: err.Error()}
	}

	g.logger.Debug("geocoded", "address", address, "lat", coords.Lat, "lng", coords.Lng)
	return &GeocodingResult{Coords: coords, DisplayName: results[0].DisplayName}, nil
}

func (g *nominatimGeocoder) GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*GeocodingResult, error) {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		result, err := g.Geocode(ctx, address)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if i < maxRetries-1 {
			backoff := g.retryBase << uint(i)
			g.logger.Warn("retrying geocode", "attempt", i+1, "max", maxRetries, "address", address,
				"backoff", backoff, "err", err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, lastErr
}

func (g *nominatimGeocoder) Search(ctx context.Context, query string, limit int) ([]GeocodingResult, error) {
	results, err := g.search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	out := make([]GeocodingResult, 0, len(results))
	for _, r := range results {
		coords, err := r.coords()
		if err != nil {
			g.logger.Warn("skipping search hit", "query", query, "err", err)
			continue
		}
		out = append(out, GeocodingResult{Coords: coords, DisplayName: r.DisplayName})
	}
	return out, nil
}
