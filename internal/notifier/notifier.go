package notifier

import (
	"github.com/charmbracelet/log"
	"github.com/mauv0809/refgrade/internal/match"
)

// Notifier defines a high-level interface for sending notifications about business events.
type Notifier interface {
	// A referee grade was committed, by SMS or through the API.
	NotifyGradeEntered(view match.View, source string, dryRun bool) error
	// An overall grade was committed.
	NotifyOverallGradeEntered(view match.View, dryRun bool) error
	// A match was canceled and deleted.
	NotifyMatchRemoved(view match.View, dryRun bool) error
}

// Nop logs and drops notifications. Used when no office channel is configured.
type Nop struct{}

var _ Notifier = Nop{}

func (Nop) NotifyGradeEntered(view match.View, source string, _ bool) error {
	log.Debug("Notifier disabled, skipping grade notification", "matchID", view.ID, "source", source)
	return nil
}

func (Nop) NotifyOverallGradeEntered(view match.View, _ bool) error {
	log.Debug("Notifier disabled, skipping overall grade notification", "matchID", view.ID)
	return nil
}

func (Nop) NotifyMatchRemoved(view match.View, _ bool) error {
	log.Debug("Notifier disabled, skipping removal notification", "matchID", view.ID)
	return nil
}
