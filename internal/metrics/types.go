package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	SmsSent            *prometheus.CounterVec
	SmsFailed          *prometheus.CounterVec
	GradesRecorded     *prometheus.CounterVec
	InboundRejected    *prometheus.CounterVec
	MatchesScheduled   prometheus.Counter
	OperationDuration  *prometheus.HistogramVec
	SlackNotifSent     prometheus.Counter
	SlackNotifFailed   prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}
