package orchestrator

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/refgrade/internal/match"
)

// UpdateReportData stores the artifact key of a report after checking the user may upload it.
func (o *Orchestrator) UpdateReportData(ctx context.Context, user match.User, id string, rt match.ReportType, key string) (*match.Match, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: report key is empty", match.ErrValidation)
	}
	m, err := o.authorize(user, id, rt, match.ActionUpload)
	if err != nil {
		return nil, err
	}
	if err := m.SetReportKey(rt, &key); err != nil {
		return nil, err
	}
	if err := o.store.SaveMatch(m); err != nil {
		return nil, err
	}
	log.Info("Report stored", "matchID", id, "type", rt, "userID", user.ID)
	return m, nil
}

// GetKeyForReport returns the artifact key of a report the user may view.
func (o *Orchestrator) GetKeyForReport(ctx context.Context, user match.User, id string, rt match.ReportType) (string, error) {
	m, err := o.authorize(user, id, rt, match.ActionView)
	if err != nil {
		return "", err
	}
	key, err := m.ReportKey(rt)
	if err != nil {
		return "", err
	}
	if key == nil {
		return "", fmt.Errorf("%w: no %s report for match %s", match.ErrNotFound, rt, id)
	}
	return *key, nil
}

// RemoveReport clears the artifact key of a report the user may delete.
func (o *Orchestrator) RemoveReport(ctx context.Context, user match.User, id string, rt match.ReportType) (*match.Match, error) {
	m, err := o.authorize(user, id, rt, match.ActionDelete)
	if err != nil {
		return nil, err
	}
	if err := m.SetReportKey(rt, nil); err != nil {
		return nil, err
	}
	if err := o.store.SaveMatch(m); err != nil {
		return nil, err
	}
	log.Info("Report removed", "matchID", id, "type", rt, "userID", user.ID)
	return m, nil
}

func (o *Orchestrator) authorize(user match.User, id string, rt match.ReportType, action match.Action) (*match.Match, error) {
	m, err := o.store.GetMatch(id)
	if err != nil {
		return nil, err
	}
	if err := match.ValidateUserAction(user, m, rt, action); err != nil {
		log.Warn("Report access denied", "matchID", id, "userID", user.ID, "role", user.Role, "type", rt, "action", action)
		return nil, err
	}
	return m, nil
}
