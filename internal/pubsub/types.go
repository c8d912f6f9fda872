package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	EventRefereeGraded EventType = "referee-graded"
	EventOverallGraded EventType = "overall-graded"
	EventMatchRemoved  EventType = "match-removed"
)

// GradeEvent is published after a referee or overall grade is committed.
type GradeEvent struct {
	MatchID   string    `msgpack:"match_id"`
	Key       string    `msgpack:"key"`
	RefereeID string    `msgpack:"referee_id"`
	Grade     string    `msgpack:"grade"`
	Source    string    `msgpack:"source"`
	GradedAt  time.Time `msgpack:"graded_at"`
}

// MatchRemovedEvent is published after a match is deleted.
type MatchRemovedEvent struct {
	MatchID   string    `msgpack:"match_id"`
	Key       string    `msgpack:"key"`
	MatchDate time.Time `msgpack:"match_date"`
}
