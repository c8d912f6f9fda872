package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		SmsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refgrade_sms_sent_total",
			Help: "Gateway calls that succeeded, by kind.",
		}, []string{"kind"}),
		SmsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refgrade_sms_failed_total",
			Help: "Gateway calls that failed, by kind.",
		}, []string{"kind"}),
		GradesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refgrade_grades_recorded_total",
			Help: "Grades committed, by source.",
		}, []string{"source"}),
		InboundRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refgrade_inbound_rejected_total",
			Help: "Inbound grade messages rejected, by reply.",
		}, []string{"reason"}),
		MatchesScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refgrade_matches_scheduled_total",
			Help: "The total number of matches created or rescheduled.",
		}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "refgrade_operation_duration_seconds",
			Help:    "The duration of match lifecycle operations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refgrade_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refgrade_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "refgrade_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.SmsSent,
		s.SmsFailed,
		s.GradesRecorded,
		s.InboundRejected,
		s.MatchesScheduled,
		s.OperationDuration,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncSmsSent(kind string) {
	s.SmsSent.WithLabelValues(kind).Inc()
}

func (s *Service) IncSmsFailed(kind string) {
	s.SmsFailed.WithLabelValues(kind).Inc()
}

func (s *Service) IncGradesRecorded(source string) {
	s.GradesRecorded.WithLabelValues(source).Inc()
}

func (s *Service) IncInboundRejected(reason string) {
	s.InboundRejected.WithLabelValues(reason).Inc()
}

func (s *Service) IncMatchesScheduled() {
	s.MatchesScheduled.Inc()
}

func (s *Service) ObserveOperationDuration(operation string, duration float64) {
	s.OperationDuration.WithLabelValues(operation).Observe(duration)
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
