package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callLimited(t *testing.T, handler echo.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/proposals", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	require.NoError(t, handler(echo.New().NewContext(req, rec)))
	return rec
}

func TestRateLimiter_AllowsBurst(t *testing.T) {
	handler := newRateLimiter(10, 3)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for range 3 {
		assert.Equal(t, http.StatusOK, callLimited(t, handler, "1.2.3.4:1234").Code)
	}
}

func TestRateLimiter_BlocksPerClient(t *testing.T) {
	handler := newRateLimiter(0.5, 1)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, callLimited(t, handler, "1.2.3.4:1234").Code)

	rec := callLimited(t, handler, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, callLimited(t, handler, "5.6.7.8:1234").Code)
}
