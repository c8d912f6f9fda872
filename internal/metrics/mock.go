package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	smsSent            map[string]int
	smsFailed          map[string]int
	gradesRecorded     map[string]int
	inboundRejected    map[string]int
	matchesScheduled   int
	operationDurations map[string][]float64
	slackNotifSent     int
	slackNotifFailed   int
	startupTime        float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		smsSent:            make(map[string]int),
		smsFailed:          make(map[string]int),
		gradesRecorded:     make(map[string]int),
		inboundRejected:    make(map[string]int),
		operationDurations: make(map[string][]float64),
	}
}

func (m *Mock) IncSmsSent(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.smsSent[kind]++
}

func (m *Mock) IncSmsFailed(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.smsFailed[kind]++
}

func (m *Mock) IncGradesRecorded(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gradesRecorded[source]++
}

func (m *Mock) IncInboundRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inboundRejected[reason]++
}

func (m *Mock) IncMatchesScheduled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesScheduled++
}

func (m *Mock) ObserveOperationDuration(operation string, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operationDurations[operation] = append(m.operationDurations[operation], duration)
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// SmsSent returns how many successful gateway calls of kind were recorded.
func (m *Mock) SmsSent(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.smsSent[kind]
}

// SmsFailed returns how many failed gateway calls of kind were recorded.
func (m *Mock) SmsFailed(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.smsFailed[kind]
}

// GradesRecorded returns how many grades from source were recorded.
func (m *Mock) GradesRecorded(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gradesRecorded[source]
}

// InboundRejected returns how many inbound messages were rejected with reason.
func (m *Mock) InboundRejected(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inboundRejected[reason]
}

func (m *Mock) MatchesScheduled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesScheduled
}

// OperationDurations returns the recorded durations for operation.
func (m *Mock) OperationDurations(operation string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.operationDurations[operation]...)
}

func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}
