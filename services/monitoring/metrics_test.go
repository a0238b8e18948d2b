package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricNamingConvention(t *testing.T) {
	for _, c := range Collectors() {
		ch := make(chan *prometheus.Desc, 10)
		c.Describe(ch)
		close(ch)

		for desc := range ch {
			assert.Contains(t, desc.String(), `fqName: "aula_`)
			assert.NotContains(t, desc.String(), `help: ""`)
		}
	}
}

func TestBatchObserver(t *testing.T) {
	t.Cleanup(func() {
		groupBatchTotal.Reset()
		groupBatchCalls.Reset()
		groupBatchDuration.Reset()
	})

	tests := []struct {
		name      string
		operation string
		succeeded int
		failed    int
		result    string
	}{
		{name: "success", operation: "add", succeeded: 3, result: "success"},
		{name: "partial", operation: "remove", succeeded: 1, failed: 2, result: "partial"},
		{name: "failure", operation: "remove", failed: 1, result: "failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			BatchObserver{}.ObserveBatch(tt.operation, tt.succeeded, tt.failed, 20*time.Millisecond)
			assert.Equal(t, 1.0, testutil.ToFloat64(groupBatchTotal.WithLabelValues(tt.operation, tt.result)))
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(groupBatchCalls.WithLabelValues("remove", "succeeded")))
	assert.Equal(t, 3.0, testutil.ToFloat64(groupBatchCalls.WithLabelValues("remove", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(groupBatchCalls.WithLabelValues("add", "succeeded")))
}

func TestHandler(t *testing.T) {
	t.Cleanup(func() {
		httpRequestTotal.Reset()
		httpRequestDuration.Reset()
		chartRenderTotal.Reset()
	})

	ObserveRequest(http.MethodGet, "/v1/groups/:id/assignment", http.StatusOK, time.Millisecond)
	ObserveChartRender("svg")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `aula_http_request_total{code="200",method="GET",route="/v1/groups/:id/assignment"} 1`), body)
	assert.Contains(t, body, `aula_chart_render_total{format="svg"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
