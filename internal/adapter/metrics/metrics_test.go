package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVotingMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewVotingMetrics(reg)

	m.Decisions.WithLabelValues("pass").Inc()
	m.MergeRetries.Add(2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Decisions.WithLabelValues("pass")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.MergeRetries), 0)

	assert.Panics(t, func() { NewVotingMetrics(reg) }, "duplicate registration must fail")
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewGitHubMetrics(reg)
	m.Requests.WithLabelValues("list_pulls", "200").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ballotbot_github_requests_total{operation="list_pulls",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHTTPMetrics_SkipsProbes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/proposals", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/health/live", "/api/proposals", "/api/proposals"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/api/proposals", "200")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
}
