package nsserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langos-dfs/langos/pkg/catalog"
)

func TestHealthzReportsCounts(t *testing.T) {
	cat, err := catalog.Open(t.TempDir())
	require.NoError(t, err)
	_, err = cat.RegisterUser("alice", "127.0.0.1:1")
	require.NoError(t, err)

	router := NewAdminRouter(cat)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 1, resp.Users)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	cat, err := catalog.Open(t.TempDir())
	require.NoError(t, err)

	router := NewAdminRouter(cat)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}
