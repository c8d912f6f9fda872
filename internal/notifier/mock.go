package notifier

import (
	"sync"

	"github.com/mauv0809/refgrade/internal/match"
)

var _ Notifier = (*Mock)(nil)

// GradeCall records a NotifyGradeEntered call.
type GradeCall struct {
	View   match.View
	Source string
}

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	NotifyGradeEnteredFunc        func(view match.View, source string) error
	NotifyOverallGradeEnteredFunc func(view match.View) error
	NotifyMatchRemovedFunc        func(view match.View) error

	// Call records
	NotifyGradeEnteredCalls        []GradeCall
	NotifyOverallGradeEnteredCalls []match.View
	NotifyMatchRemovedCalls        []match.View
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyGradeEnteredCalls = nil
	m.NotifyOverallGradeEnteredCalls = nil
	m.NotifyMatchRemovedCalls = nil
}

func (m *Mock) NotifyGradeEntered(view match.View, source string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyGradeEnteredCalls = append(m.NotifyGradeEnteredCalls, GradeCall{View: view, Source: source})
	if m.NotifyGradeEnteredFunc != nil {
		return m.NotifyGradeEnteredFunc(view, source)
	}
	return nil
}

func (m *Mock) NotifyOverallGradeEntered(view match.View, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyOverallGradeEnteredCalls = append(m.NotifyOverallGradeEnteredCalls, view)
	if m.NotifyOverallGradeEnteredFunc != nil {
		return m.NotifyOverallGradeEnteredFunc(view)
	}
	return nil
}

func (m *Mock) NotifyMatchRemoved(view match.View, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyMatchRemovedCalls = append(m.NotifyMatchRemovedCalls, view)
	if m.NotifyMatchRemovedFunc != nil {
		return m.NotifyMatchRemovedFunc(view)
	}
	return nil
}
