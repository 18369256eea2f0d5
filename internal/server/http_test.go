package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPServer_RequiresMCPServer(t *testing.T) {
	_, err := NewHTTPServer(nil)
	assert.Error(t, err)
}

func TestHTTPServer_HandlerServesHealthAndMetrics(t *testing.T) {
	srv, err := NewHTTPServer(mcpserver.NewMCPServer("autoschedule-test", "0.0.0"))
	require.NoError(t, err)

	srv.SetHealthChecker(NewHealthChecker(newTestServerContext(t)))
	srv.SetMetrics(prometheusProvider(t).Metrics())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	sr.WriteHeader(http.StatusTeapot)
	sr.Flush()

	assert.Equal(t, http.StatusTeapot, sr.status)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
