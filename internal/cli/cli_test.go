package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PLANNER_LOG_LEVEL", "")
	t.Setenv("PLANNER_RESTARTS", "")

	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const lineMatrix = `[[0,1,2,10],[1,0,1,9],[2,1,0,8],[10,9,8,0]]`

func TestSolve_MatrixJSON(t *testing.T) {
	path := writeTemp(t, "dist.json", lineMatrix)

	out, err := runCLI(t, "solve", "--matrix", path, "-p", "2", "--restarts", "3", "--seed", "5", "--json")
	require.NoError(t, err)

	var result solveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2.0, result.Cost)
	assert.ElementsMatch(t, []int{1, 3}, result.Facilities)
	assert.Equal(t, 3, result.Restarts)
	assert.Equal(t, int64(5), result.Seed)
	assert.Equal(t, 4, result.Points)
	assert.True(t, result.Converged)
}

func TestSolve_TextOutput(t *testing.T) {
	path := writeTemp(t, "dist.json", `[[0,5,10],[5,0,5],[10,5,0]]`)

	out, err := runCLI(t, "solve", "--matrix", path, "-p", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "facilities: [1]")
	assert.Contains(t, out, "cost:       10")
}

func TestSolve_ORLib(t *testing.T) {
	path := writeTemp(t, "pmed.txt", "4 4 2\n1 2 1\n2 3 1\n3 4 1\n4 1 1\n")

	out, err := runCLI(t, "solve", "--orlib", path, "--json", "--workers", "2", "--parallelism", "2")
	require.NoError(t, err)

	var result solveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2.0, result.Cost)
	assert.Len(t, result.Facilities, 2)
}

func TestSolve_ConfigRestarts(t *testing.T) {
	matrix := writeTemp(t, "dist.json", lineMatrix)
	cfg := writeTemp(t, "planner.toml", "[solver]\nrestarts = 6\n")

	out, err := runCLI(t, "--config", cfg, "solve", "--matrix", matrix, "-p", "2", "--json")
	require.NoError(t, err)

	var result solveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 6, result.Restarts)
}

const lineSites = `[
	{"name":"a","lat":0,"lng":0},
	{"name":"b","lat":0,"lng":0.01},
	{"name":"c","lat":0,"lng":0.02},
	{"name":"d","lat":0,"lng":0.10}
]`

func TestSolve_SitesHaversine(t *testing.T) {
	sites := writeTemp(t, "sites.json", lineSites)
	t.Setenv("PLANNER_DISTANCE_PROVIDER", "haversine")

	out, err := runCLI(t, "solve", "--sites", sites, "-p", "2", "--json",
		"--cache-file", filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)

	var result solveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.ElementsMatch(t, []string{"b", "d"}, result.Sites)
	assert.InDelta(t, 2*1111.95, result.Cost, 1)
}

// osrmLine answers table requests with 1000m per position step between coordinates
func osrmLine(t *testing.T, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		n := len(strings.Split(strings.TrimPrefix(r.URL.Path, "/table/v1/driving/"), ";"))
		dist := make([][]float64, n)
		for i := range dist {
			dist[i] = make([]float64, n)
			for j := range dist[i] {
				d := i - j
				if d < 0 {
					d = -d
				}
				dist[i][j] = float64(1000 * d)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"code": "Ok", "distances": dist, "durations": dist})
	}))
}

func TestSolve_SitesOSRMUsesFileCache(t *testing.T) {
	var requests int32
	osrm := osrmLine(t, &requests)
	defer osrm.Close()

	sites := writeTemp(t, "sites.json", `[
		{"name":"a","lat":0,"lng":0},
		{"name":"b","lat":0,"lng":0.01},
		{"name":"c","lat":0,"lng":0.02},
		{"name":"d","lat":0,"lng":0.03}
	]`)
	cacheFile := filepath.Join(t.TempDir(), "cache.json")
	t.Setenv("PLANNER_DISTANCE_PROVIDER", "osrm")
	t.Setenv("PLANNER_OSRM_URL", osrm.URL)

	solve := func() solveOutput {
		out, err := runCLI(t, "solve", "--sites", sites, "-p", "2", "--json", "--cache-file", cacheFile)
		require.NoError(t, err)
		var result solveOutput
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		return result
	}

	first := solve()
	assert.Equal(t, 2000.0, first.Cost)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.FileExists(t, cacheFile)

	osrm.Close()
	second := solve()
	assert.Equal(t, 2000.0, second.Cost)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestSolve_Errors(t *testing.T) {
	matrix := writeTemp(t, "dist.json", lineMatrix)
	bad := writeTemp(t, "bad.json", `{"not":"a matrix"}`)
	ragged := writeTemp(t, "ragged.json", `[[0,1],[1]]`)
	sites := writeTemp(t, "sites.json", lineSites)
	noSites := writeTemp(t, "empty.json", `[]`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no input", []string{"solve"}, "matrix"},
		{"both inputs", []string{"solve", "--matrix", matrix, "--orlib", matrix}, "matrix"},
		{"missing p", []string{"solve", "--matrix", matrix}, "--facilities"},
		{"p too large", []string{"solve", "--matrix", matrix, "-p", "5"}, "invalid input"},
		{"bad json", []string{"solve", "--matrix", bad, "-p", "1"}, "invalid matrix"},
		{"ragged", []string{"solve", "--matrix", ragged, "-p", "1"}, "invalid input"},
		{"missing file", []string{"solve", "--matrix", filepath.Join(t.TempDir(), "nope.json"), "-p", "1"}, "no such file"},
		{"sites missing p", []string{"solve", "--sites", sites}, "--facilities"},
		{"sites bad metric", []string{"solve", "--sites", sites, "-p", "1", "--metric", "hops"}, "unknown metric"},
		{"no sites", []string{"solve", "--sites", noSites, "-p", "1"}, "no sites"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "error %q should mention %q", err, tt.want)
		})
	}
}
