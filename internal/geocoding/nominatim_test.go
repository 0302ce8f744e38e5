package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocoder(server *httptest.Server) Geocoder {
	return NewNominatimGeocoder(
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithRateLimit(0),
		WithRetryBackoff(time.Millisecond),
	)
}

func TestNominatimGeocodeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "New York", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		json.NewEncoder(w).Encode([]nominatimResponse{
			{Lat: "40.7128", Lon: "-74.0060", DisplayName: "New York, NY, USA"},
		})
	}))
	defer server.Close()

	result, err := newTestGeocoder(server).Geocode(context.Background(), "New York")
	require.NoError(t, err)
	assert.Equal(t, 40.7128, result.Coords.Lat)
	assert.Equal(t, -74.0060, result.Coords.Lng)
	assert.Equal(t, "New York, NY, USA", result.DisplayName)
}

func TestNominatimGeocodeFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name: "no results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode([]nominatimResponse{})
			},
			reason: "no results found",
		},
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "slow down", http.StatusTooManyRequests)
			},
			reason: "HTTP 429",
		},
		{
			name: "bad latitude",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode([]nominatimResponse{{Lat: "north", Lon: "1"}})
			},
			reason: "invalid latitude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			result, err := newTestGeocoder(server).Geocode(context.Background(), "Somewhere")
			require.Error(t, err)
			assert.Nil(t, result)

			var gerr *ErrGeocodingFailed
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, "Somewhere", gerr.Address)
			assert.Contains(t, gerr.Reason, tt.reason)
		})
	}
}

func TestNominatimGeocodeWithRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]nominatimResponse{{Lat: "1.5", Lon: "2.5", DisplayName: "Depot"}})
	}))
	defer server.Close()

	g := newTestGeocoder(server)
	result, err := g.GeocodeWithRetry(context.Background(), "Depot", 3)
	require.NoError(t, err)
	assert.Equal(t, 1.5, result.Coords.Lat)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, -10)
	_, err = g.GeocodeWithRetry(context.Background(), "Depot", 2)
	assert.Error(t, err)
}

func TestNominatimSearchSkipsInvalidHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]nominatimResponse{
			{Lat: "10", Lon: "20", DisplayName: "A"},
			{Lat: "x", Lon: "20", DisplayName: "broken"},
			{Lat: "11", Lon: "21", DisplayName: "B"},
		})
	}))
	defer server.Close()

	results, err := newTestGeocoder(server).Search(context.Background(), "warehouse", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].DisplayName)
	assert.Equal(t, "B", results[1].DisplayName)
}

func TestNominatimContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}))
	defer server.Close()

	g := NewNominatimGeocoder(WithBaseURL(server.URL), WithRateLimit(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Geocode(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}
