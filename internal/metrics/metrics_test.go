package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// fixedCounter reports a constant size.
type fixedCounter int

// Len returns the constant.
func (f fixedCounter) Len() int { return int(f) }

// TestRecorder_Counters verifies that recorded outcomes reach the counters.
func TestRecorder_Counters(t *testing.T) {
	t.Parallel()

	r := New(fixedCounter(3), fixedCounter(7))

	r.AlertAccepted("default")
	r.AlertAccepted("default")
	r.SubmissionRejected("rate_limited")
	r.SirenCommandApplied("mute")

	require.InDelta(t, 2, testutil.ToFloat64(r.alertsSubmitted.WithLabelValues("default")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.submissionsRejected.WithLabelValues("rate_limited")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.sirenCommands.WithLabelValues("mute")), 0)
}

// TestRecorder_Handler serves gauges and counters in text format.
func TestRecorder_Handler(t *testing.T) {
	t.Parallel()

	r := New(fixedCounter(3), nil)
	r.AlertAccepted("escola")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.True(t, strings.Contains(body, "panic_alert_tenants 3"), body)
	require.Contains(t, body, `panic_alert_alerts_submitted_total{tenant="escola"} 1`)
	require.NotContains(t, body, "panic_alert_rate_limit_sources")
}
