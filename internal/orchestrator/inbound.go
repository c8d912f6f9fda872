package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/refgrade/internal/gradesms"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/metrics"
)

// HandleGradeMessage processes an observer's grade reply. Every outcome,
// rejection or success, is answered with exactly one SMS to the sender and
// returned as reply. err is set only when the reply could not be produced or
// delivered because of an infrastructure failure.
func (o *Orchestrator) HandleGradeMessage(ctx context.Context, msg match.GradeMessage) (reply string, err error) {
	defer o.observe("inbound_grade", time.Now())
	log.Info("Inbound grade message received", "id", msg.ID, "sender", msg.SenderPhoneNumber)

	m, err := o.applyGradeMessage(msg)
	var rej *gradesms.Rejection
	switch {
	case errors.As(err, &rej):
		log.Info("Inbound grade message rejected", "id", msg.ID, "reason", rej.Reply)
		o.metrics.IncInboundRejected(rej.Reply)
		reply = rej.Reply
	case err != nil:
		log.Error("Failed to process inbound grade message", "id", msg.ID, "error", err)
		return "", err
	default:
		reply = gradesms.ReplyGradeEntered
	}

	// The grade is stored at this point whether or not the reply goes out.
	if m != nil {
		o.gradeCommitted(m, metrics.SourceSMS)
	}
	if err := o.sms.SendOneWay(ctx, msg.SenderPhoneNumber, reply); err != nil {
		log.Error("Failed to send reply", "id", msg.ID, "to", msg.SenderPhoneNumber, "error", err)
		return reply, err
	}
	return reply, nil
}

// applyGradeMessage runs the gates in order and commits the grade. Gate
// failures come back as *gradesms.Rejection.
func (o *Orchestrator) applyGradeMessage(msg match.GradeMessage) (*match.Match, error) {
	parsed, err := gradesms.Parse(msg.Msg)
	if err != nil {
		return nil, err
	}

	m, err := o.store.FindMatchByKey(parsed.Key)
	if errors.Is(err, match.ErrNotFound) {
		return nil, gradesms.Reject(gradesms.ReplyInvalidKey)
	}
	if err != nil {
		return nil, err
	}
	if m.RefereeGrade != nil {
		return nil, gradesms.Reject(gradesms.ReplyAlreadyGraded)
	}
	now := o.clock.Now()
	if !match.IsWithinEntryWindow(now, m.MatchDate, o.windows.MatchEnd) {
		return nil, gradesms.Reject(gradesms.ReplyTooEarly)
	}

	grade := parsed.Grade
	m.RefereeGrade = &grade
	m.RefereeGradeAt = &now
	if err := o.store.SaveMatch(m); err != nil {
		return nil, err
	}
	log.Info("Referee grade recorded", "matchID", m.ID, "key", m.UserReadableKey, "grade", grade, "source", metrics.SourceSMS)
	return m, nil
}
