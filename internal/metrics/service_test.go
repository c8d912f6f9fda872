package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewService(reg)

	s.IncSmsSent(SmsScheduled)
	s.IncSmsSent(SmsScheduled)
	s.IncSmsFailed(SmsCancel)
	s.IncGradesRecorded(SourceSMS)
	s.IncInboundRejected("Invalid grade.")
	s.ObserveOperationDuration("create", 0.02)
	s.SetStartupTime(1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.SmsSent.WithLabelValues(SmsScheduled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.SmsFailed.WithLabelValues(SmsCancel)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.GradesRecorded.WithLabelValues(SourceSMS)))
	assert.Equal(t, 1.5, testutil.ToFloat64(s.StartupTimeSeconds))

	t.Run("handler exposes registered metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewMetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `refgrade_sms_sent_total{kind="scheduled"} 2`)
		assert.Contains(t, string(body), "refgrade_operation_duration_seconds")
	})
}
