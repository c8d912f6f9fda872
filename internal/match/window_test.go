package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsWithinEntryWindow(t *testing.T) {
	ref := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
	window := 4 * time.Hour

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before reference", ref.Add(-time.Hour), false},
		{"one minute short", ref.Add(3*time.Hour + 59*time.Minute), false},
		{"exactly at the boundary", ref.Add(4 * time.Hour), true},
		{"long after", ref.Add(365 * 24 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithinEntryWindow(tt.now, ref, window))
		})
	}
}

func TestNewWindows(t *testing.T) {
	w := NewWindows(DefaultMatchDuration)
	assert.Equal(t, 2*time.Hour, w.MatchEnd)
	assert.Equal(t, 4*time.Hour, w.RefereeGrade)
	assert.Equal(t, 50*time.Hour, w.OverallGrade)
}
