package pubsub

import (
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

var _ Publisher = (*Mock)(nil)

// Mock is a mock implementation of Publisher for testing.
// It is safe for concurrent use. Published payloads go through msgpack so
// tests see exactly what subscribers would decode.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	SendMessageFunc func(topic EventType, data any) error

	// Call records
	SendMessageCalls []SendMessageCall
}

// SendMessageCall holds the arguments for a call to SendMessage.
type SendMessageCall struct {
	Topic   EventType
	Data    any
	Encoded []byte
}

// NewMock creates a new mock Publisher.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMessageCalls = nil
}

// SendMessage records the call and executes the mock function if provided.
func (m *Mock) SendMessage(topic EventType, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	encoded, err := msgpack.Marshal(data)
	if err != nil {
		return err
	}
	m.SendMessageCalls = append(m.SendMessageCalls, SendMessageCall{Topic: topic, Data: data, Encoded: encoded})
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(topic, data)
	}
	return nil
}

// Topics returns the topics published so far, in order.
func (m *Mock) Topics() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EventType, 0, len(m.SendMessageCalls))
	for _, c := range m.SendMessageCalls {
		out = append(out, c.Topic)
	}
	return out
}
