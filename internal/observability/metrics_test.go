package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.IncVerdict("judge", "VALID")
	m.ObserveAggregateOperation("op", "success", time.Millisecond)
	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	assert.Empty(t, buf.String())
}

func TestWritePrometheus(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/api/sessions/:id/heartbeat", "200", 20*time.Millisecond)
	m.IncVerdict("cache", "VALID")
	m.IncVerdict("cache", "VALID")
	m.ObserveHeartbeat(true, 30)
	m.IncAggregateRetry("Focus.Session.Heartbeat")

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	out := buf.String()

	assert.Contains(t, out, "# TYPE ft_verdicts_total counter")
	assert.Contains(t, out, `ft_verdicts_total{source="cache",decision="VALID"} 2`)
	assert.Contains(t, out, `ft_focus_seconds_total{kind="heartbeat"} 30`)
	assert.Contains(t, out, `ft_aggregate_retries_total{op="Focus.Session.Heartbeat"} 1`)
	assert.Contains(t, out, `ft_api_request_duration_seconds_bucket{method="POST",route="/api/sessions/:id/heartbeat",status="200",le="0.025"} 1`)
	assert.True(t, strings.Contains(out, `le="+Inf"} 1`))
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := NewHistogramVec("h", "help", []string{"k"}, []float64{1, 2})
	h.Observe(0.5, "a")
	h.Observe(1.5, "a")
	h.Observe(3, "a")

	var buf bytes.Buffer
	require.NoError(t, h.WritePrometheus(&buf))
	out := buf.String()
	assert.Contains(t, out, `h_bucket{k="a",le="1"} 1`)
	assert.Contains(t, out, `h_bucket{k="a",le="2"} 2`)
	assert.Contains(t, out, `h_bucket{k="a",le="+Inf"} 3`)
	assert.Contains(t, out, `h_count{k="a"} 3`)
}

func TestOtlpHeaders(t *testing.T) {
	assert.Nil(t, otlpHeaders(""))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, otlpHeaders("a=1, b=2,broken"))
}
