package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	m := newHTTPMetrics(registry)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/v1/promotions/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/promotions/42", nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	families, err := registry.Gather()
	require.NoError(t, err)

	requests := findFamily(families, "meritup_http_requests_total")
	require.NotNil(t, requests)
	require.Len(t, requests.GetMetric(), 1)
	metric := requests.GetMetric()[0]
	assert.EqualValues(t, 3, metric.GetCounter().GetValue())
	assert.Equal(t, map[string]string{
		"route":       "/api/v1/promotions/:id",
		"method":      http.MethodGet,
		"status_code": "200",
	}, labelMap(metric))

	duration := findFamily(families, "meritup_http_request_duration_seconds")
	require.NotNil(t, duration)
	require.Len(t, duration.GetMetric(), 1)
	assert.EqualValues(t, 3, duration.GetMetric()[0].GetHistogram().GetSampleCount())
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func labelMap(metric *dto.Metric) map[string]string {
	labels := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	return labels
}
