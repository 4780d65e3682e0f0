package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMiddleware_LabelsByRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/things/:id", func(c echo.Context) error { return c.String(http.StatusTeapot, "x") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	body := scrape(t)
	assert.Contains(t, body, `agrodesk_http_requests_total{method="GET",path="/things/:id",status="418"} 1`)
	assert.NotContains(t, body, "/things/42")
}

func TestMiddleware_HTTPErrorStatus(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusForbidden, "no") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)

	assert.Contains(t, scrape(t), `agrodesk_http_requests_total{method="GET",path="/boom",status="403"} 1`)
}

func TestHandler_ExposesDomainCounters(t *testing.T) {
	ReportsCreated.Inc()
	AlertsPublished.WithLabelValues("warning").Inc()

	body := scrape(t)
	assert.Contains(t, body, "agrodesk_reports_created_total")
	assert.Contains(t, body, `agrodesk_alerts_published_total{severity="warning"}`)
	assert.Contains(t, body, "go_goroutines")
}
