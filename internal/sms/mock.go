package sms

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// SentMessage records a SendOneWay call.
type SentMessage struct {
	To  string
	Msg string
}

// ScheduledMessage records a Schedule call.
type ScheduledMessage struct {
	MatchDate time.Time
	Key       string
	To        string
}

// Mock is a mock implementation of the Client interface for testing.
// It is safe for concurrent use. Calls lists every invocation in order as
// "send", "schedule" or "cancel".
type Mock struct {
	mu sync.Mutex

	SendOneWayFunc func(to, msg string) error
	ScheduleFunc   func(matchDate time.Time, key, to string) (string, error)
	CancelFunc     func(messageID string) error

	SendOneWayCalls []SentMessage
	ScheduleCalls   []ScheduledMessage
	CancelCalls     []string
	Calls           []string

	nextID int
}

var _ Client = (*Mock)(nil)

// NewMock creates a new mock instance. Scheduled messages get ids 1001, 1002...
func NewMock() *Mock {
	return &Mock{nextID: 1000}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendOneWayCalls = nil
	m.ScheduleCalls = nil
	m.CancelCalls = nil
	m.Calls = nil
}

func (m *Mock) SendOneWay(_ context.Context, to, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendOneWayCalls = append(m.SendOneWayCalls, SentMessage{To: to, Msg: msg})
	m.Calls = append(m.Calls, "send")
	if m.SendOneWayFunc != nil {
		return m.SendOneWayFunc(to, msg)
	}
	return nil
}

func (m *Mock) Schedule(_ context.Context, matchDate time.Time, key, to string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScheduleCalls = append(m.ScheduleCalls, ScheduledMessage{MatchDate: matchDate, Key: key, To: to})
	m.Calls = append(m.Calls, "schedule")
	if m.ScheduleFunc != nil {
		return m.ScheduleFunc(matchDate, key, to)
	}
	m.nextID++
	return strconv.Itoa(m.nextID), nil
}

func (m *Mock) Cancel(_ context.Context, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls = append(m.CancelCalls, messageID)
	m.Calls = append(m.Calls, "cancel")
	if _, err := parseMessageID(messageID); err != nil {
		return err
	}
	if m.CancelFunc != nil {
		return m.CancelFunc(messageID)
	}
	return nil
}

// Replies returns the bodies of all one-way messages sent to phone.
func (m *Mock) Replies(phone string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.SendOneWayCalls {
		if s.To == phone {
			out = append(out, s.Msg)
		}
	}
	return out
}
