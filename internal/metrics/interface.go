package metrics

// Metrics defines the interface for collecting application metrics.
type Metrics interface {
	IncSmsSent(kind string)
	IncSmsFailed(kind string)
	IncGradesRecorded(source string)
	IncInboundRejected(reason string)
	IncMatchesScheduled()
	ObserveOperationDuration(operation string, duration float64)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}

// SMS kinds.
const (
	SmsOneWay    = "one_way"
	SmsScheduled = "scheduled"
	SmsCancel    = "cancel"
)

// Grade sources.
const (
	SourceAPI     = "api"
	SourceSMS     = "sms"
	SourceOverall = "overall"
)
