package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestStatusCategory(t *testing.T) {
	require.Equal(t, "2xx", statusCategory(http.StatusCreated))
	require.Equal(t, "4xx", statusCategory(http.StatusConflict))
	require.Equal(t, "5xx", statusCategory(http.StatusInternalServerError))
	require.Equal(t, "", statusCategory(http.StatusFound))
}

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := NewHTTPMetrics("erp", "erp-test")
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/payments/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payments/7", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	got := testutil.ToFloat64(m.c.requests.WithLabelValues("erp-test", http.MethodGet, "/payments/:id", "204"))
	require.Equal(t, float64(2), got)
}
