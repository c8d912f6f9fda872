package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/refgrade/internal/clock"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/metrics"
	"github.com/mauv0809/refgrade/internal/pubsub"
	"github.com/mauv0809/refgrade/internal/sms"
	"github.com/mauv0809/refgrade/internal/store"
)

// New creates a new Orchestrator.
func New(store Store, smsClient sms.Client, notifier Notifier, pubsub pubsub.Publisher, metrics metrics.Metrics, opts Options) *Orchestrator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MatchDuration <= 0 {
		opts.MatchDuration = match.DefaultMatchDuration
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	return &Orchestrator{
		store:    store,
		sms:      smsClient,
		notifier: notifier,
		pubsub:   pubsub,
		metrics:  metrics,
		clock:    opts.Clock,
		loc:      opts.Location,
		windows:  match.NewWindows(opts.MatchDuration),
	}
}

// Create validates the draft, schedules the observer's reminder and stores the
// match with the gateway message id. Nothing is stored when scheduling fails.
func (o *Orchestrator) Create(ctx context.Context, draft match.Draft, dryRun bool) (*match.Match, error) {
	defer o.observe("create", time.Now())
	log.Info("Creating match", "date", draft.MatchDate, "home", draft.HomeTeamID, "away", draft.AwayTeamID)

	m := &match.Match{}
	observer, err := o.prepare(m, draft, "")
	if err != nil {
		log.Info("Match rejected", "error", err)
		return nil, err
	}
	if dryRun {
		log.Info("[Dry Run] Would schedule reminder and store match", "key", m.UserReadableKey)
		return m, nil
	}

	smsID, err := o.sms.Schedule(ctx, m.MatchDate, m.UserReadableKey, observer.Phone)
	if err != nil {
		log.Error("Failed to schedule reminder, match not stored", "key", m.UserReadableKey, "error", err)
		return nil, err
	}
	m.ObserverSmsID = smsID
	o.metrics.IncMatchesScheduled()

	if err := o.store.SaveMatch(m); err != nil {
		log.Error("Match not stored, scheduled reminder left in place", "key", m.UserReadableKey, "messageId", smsID, "error", err)
		return nil, err
	}
	log.Info("Match created", "matchID", m.ID, "key", m.UserReadableKey, "messageId", smsID)
	return m, nil
}

// Update replaces the schedule and officials of a match. The pending reminder
// is canceled before the replacement is booked; if booking fails the record
// keeps its old schedule with no pending reminder.
func (o *Orchestrator) Update(ctx context.Context, id string, draft match.Draft, dryRun bool) (*match.Match, error) {
	defer o.observe("update", time.Now())
	log.Info("Updating match", "matchID", id)

	existing, err := o.store.GetMatch(id)
	if err != nil {
		return nil, err
	}
	updated := *existing
	observer, err := o.prepare(&updated, draft, id)
	if err != nil {
		log.Info("Match update rejected", "matchID", id, "error", err)
		return nil, err
	}
	if dryRun {
		log.Info("[Dry Run] Would reschedule reminder and update match", "matchID", id, "key", updated.UserReadableKey)
		return &updated, nil
	}

	if existing.ObserverSmsID != "" {
		if err := o.sms.Cancel(ctx, existing.ObserverSmsID); err != nil {
			log.Error("Failed to cancel pending reminder, match unchanged", "matchID", id, "messageId", existing.ObserverSmsID, "error", err)
			return nil, err
		}
	}

	smsID, err := o.sms.Schedule(ctx, updated.MatchDate, updated.UserReadableKey, observer.Phone)
	if err != nil {
		log.Error("Failed to schedule replacement reminder", "matchID", id, "error", err)
		existing.ObserverSmsID = ""
		if saveErr := o.store.SaveMatch(existing); saveErr != nil {
			log.Error("Failed to clear canceled reminder id", "matchID", id, "error", saveErr)
		}
		return nil, err
	}
	updated.ObserverSmsID = smsID
	o.metrics.IncMatchesScheduled()

	if err := o.store.SaveMatch(&updated); err != nil {
		return nil, err
	}
	log.Info("Match updated", "matchID", id, "key", updated.UserReadableKey, "messageId", smsID)
	return &updated, nil
}

// Remove cancels the pending reminder, tells the officials the match is off and
// deletes it. A failed cancellation or notice leaves the match in place.
func (o *Orchestrator) Remove(ctx context.Context, id string, dryRun bool) error {
	defer o.observe("remove", time.Now())
	log.Info("Removing match", "matchID", id)

	m, err := o.store.GetMatch(id)
	if err != nil {
		return err
	}
	officials := o.officials(m)
	if dryRun {
		log.Info("[Dry Run] Would cancel reminder, notify officials and delete match", "matchID", id, "officials", len(officials))
		return nil
	}

	if m.ObserverSmsID != "" {
		if err := o.sms.Cancel(ctx, m.ObserverSmsID); err != nil {
			log.Error("Failed to cancel pending reminder, match kept", "matchID", id, "messageId", m.ObserverSmsID, "error", err)
			return err
		}
	}
	notice := sms.CanceledText(m.MatchDate, m.UserReadableKey, o.loc)
	for _, u := range officials {
		if err := o.sms.SendOneWay(ctx, u.Phone, notice); err != nil {
			log.Error("Failed to notify official, match kept", "matchID", id, "userID", u.ID, "error", err)
			return err
		}
	}
	if err := o.store.DeleteMatch(id); err != nil {
		return err
	}
	log.Info("Match removed", "matchID", id, "key", m.UserReadableKey)

	o.publish(pubsub.EventMatchRemoved, pubsub.MatchRemovedEvent{MatchID: m.ID, Key: m.UserReadableKey, MatchDate: m.MatchDate})
	view := o.project(m, false)
	if err := o.notifier.NotifyMatchRemoved(view, false); err != nil {
		log.Error("Failed to notify office about removal", "matchID", id, "error", err)
	}
	return nil
}

// SetRefereeGrade records the referee grade. The first entry is always
// accepted; overwriting it waits until the referee-grade window has opened.
func (o *Orchestrator) SetRefereeGrade(ctx context.Context, id string, grade float64, dryRun bool) (*match.Match, error) {
	defer o.observe("referee_grade", time.Now())

	m, err := o.store.GetMatch(id)
	if err != nil {
		return nil, err
	}
	now := o.clock.Now()
	if m.RefereeGrade != nil && !match.IsWithinEntryWindow(now, m.MatchDate, o.windows.RefereeGrade) {
		return nil, fmt.Errorf("%w: the referee grade can be changed from %s", match.ErrValidation,
			m.MatchDate.Add(o.windows.RefereeGrade).In(o.loc).Format("2006-01-02 15:04"))
	}
	m.RefereeGrade = &grade
	m.RefereeGradeAt = &now
	if dryRun {
		return m, nil
	}
	if err := o.store.SaveMatch(m); err != nil {
		return nil, err
	}
	log.Info("Referee grade recorded", "matchID", id, "grade", grade, "source", metrics.SourceAPI)
	o.gradeCommitted(m, metrics.SourceAPI)
	return m, nil
}

// SetOverallGrade records the overall grade, gated by the longer window on re-entry.
func (o *Orchestrator) SetOverallGrade(ctx context.Context, id, grade string, dryRun bool) (*match.Match, error) {
	defer o.observe("overall_grade", time.Now())

	if grade == "" {
		return nil, fmt.Errorf("%w: overall grade is empty", match.ErrValidation)
	}
	m, err := o.store.GetMatch(id)
	if err != nil {
		return nil, err
	}
	now := o.clock.Now()
	if m.OverallGrade != nil && !match.IsWithinEntryWindow(now, m.MatchDate, o.windows.OverallGrade) {
		return nil, fmt.Errorf("%w: the overall grade can be changed from %s", match.ErrValidation,
			m.MatchDate.Add(o.windows.OverallGrade).In(o.loc).Format("2006-01-02 15:04"))
	}
	m.OverallGrade = &grade
	m.OverallGradeAt = &now
	if dryRun {
		return m, nil
	}
	if err := o.store.SaveMatch(m); err != nil {
		return nil, err
	}
	log.Info("Overall grade recorded", "matchID", id, "grade", grade)
	o.metrics.IncGradesRecorded(metrics.SourceOverall)
	o.publish(pubsub.EventOverallGraded, pubsub.GradeEvent{
		MatchID:   m.ID,
		Key:       m.UserReadableKey,
		RefereeID: m.RefereeID,
		Grade:     grade,
		Source:    metrics.SourceOverall,
		GradedAt:  now,
	})
	if err := o.notifier.NotifyOverallGradeEntered(o.project(m, false), false); err != nil {
		log.Error("Failed to notify office about overall grade", "matchID", id, "error", err)
	}
	return m, nil
}

// SetRefereeNote replaces the free-text note. An empty note clears it.
func (o *Orchestrator) SetRefereeNote(ctx context.Context, id, note string) (*match.Match, error) {
	m, err := o.store.GetMatch(id)
	if err != nil {
		return nil, err
	}
	if note == "" {
		m.RefereeNote = nil
	} else {
		m.RefereeNote = &note
	}
	if err := o.store.SaveMatch(m); err != nil {
		return nil, err
	}
	log.Info("Referee note updated", "matchID", id)
	return m, nil
}

// Get returns the view of a match for viewer.
func (o *Orchestrator) Get(ctx context.Context, id string, viewer match.User) (match.View, error) {
	m, err := o.store.GetMatch(id)
	if err != nil {
		return match.View{}, err
	}
	return o.project(m, hideObserverFrom(viewer, m)), nil
}

// List returns the views of every match selected by filter.
func (o *Orchestrator) List(ctx context.Context, filter store.MatchFilter, viewer match.User) ([]match.View, error) {
	matches, err := o.store.ListMatches(filter)
	if err != nil {
		return nil, err
	}
	users, teams, err := o.lookups()
	if err != nil {
		return nil, err
	}
	now := o.clock.Now()
	views := make([]match.View, 0, len(matches))
	for _, m := range matches {
		views = append(views, match.Project(m, users, teams, hideObserverFrom(viewer, m), now))
	}
	return views, nil
}

// prepare validates draft against the stored state and copies it onto m with
// a fresh key. excludeID is the match being updated, if any.
func (o *Orchestrator) prepare(m *match.Match, draft match.Draft, excludeID string) (*match.User, error) {
	if draft.Stadium == "" {
		return nil, fmt.Errorf("%w: stadium is required", match.ErrValidation)
	}
	if draft.MatchDate.IsZero() {
		return nil, fmt.Errorf("%w: match date is required", match.ErrValidation)
	}
	if draft.HomeTeamID == draft.AwayTeamID {
		return nil, fmt.Errorf("%w: a team cannot play against itself", match.ErrValidation)
	}
	if _, err := o.store.GetLeague(draft.LeagueID); err != nil {
		return nil, asValidation(err, "league %s", draft.LeagueID)
	}
	for _, teamID := range []string{draft.HomeTeamID, draft.AwayTeamID} {
		team, err := o.store.GetTeam(teamID)
		if err != nil {
			return nil, asValidation(err, "team %s", teamID)
		}
		if team.LeagueID != draft.LeagueID {
			return nil, fmt.Errorf("%w: team %s does not play in league %s", match.ErrValidation, team.Name, draft.LeagueID)
		}
	}
	if _, err := o.store.GetUser(draft.RefereeID); err != nil {
		return nil, asValidation(err, "referee %s", draft.RefereeID)
	}
	observer, err := o.store.GetUser(draft.ObserverID)
	if err != nil {
		return nil, asValidation(err, "observer %s", draft.ObserverID)
	}
	if observer.Phone == "" {
		return nil, fmt.Errorf("%w: observer %s has no phone number", match.ErrValidation, observer.FullName())
	}

	dayStart, dayEnd := o.dayBounds(draft.MatchDate)
	conflict, err := o.store.FindConflicting(dayStart, dayEnd, []string{draft.HomeTeamID, draft.AwayTeamID}, excludeID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, fmt.Errorf("%w: a team already plays on %s in match %s", match.ErrValidation,
			dayStart.Format("2006-01-02"), conflict.UserReadableKey)
	}

	key, err := o.key(draft)
	if err != nil {
		return nil, err
	}
	dup, err := o.store.FindUngradedByKey(key, excludeID)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, fmt.Errorf("%w: key %s is already used by an ungraded match", match.ErrValidation, key)
	}

	m.UserReadableKey = key
	m.MatchDate = draft.MatchDate
	m.Stadium = draft.Stadium
	m.LeagueID = draft.LeagueID
	m.HomeTeamID = draft.HomeTeamID
	m.AwayTeamID = draft.AwayTeamID
	m.RefereeID = draft.RefereeID
	m.ObserverID = draft.ObserverID
	return observer, nil
}

func (o *Orchestrator) key(draft match.Draft) (string, error) {
	leagueIdx, err := o.store.LeagueOrdinal(draft.LeagueID)
	if err != nil {
		return "", err
	}
	teamIdx, err := o.store.TeamOrdinal(draft.LeagueID, draft.HomeTeamID)
	if err != nil {
		return "", err
	}
	if leagueIdx+1 > match.MaxOrdinal || teamIdx+1 > match.MaxOrdinal {
		return "", fmt.Errorf("%w: league or team ordinal exceeds %d", match.ErrValidation, match.MaxOrdinal)
	}
	return match.UserReadableKey(draft.MatchDate, leagueIdx, teamIdx), nil
}

// dayBounds returns the start of the calendar day of t and the start of the next one.
func (o *Orchestrator) dayBounds(t time.Time) (time.Time, time.Time) {
	local := t.In(o.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, o.loc)
	return start, start.AddDate(0, 0, 1)
}

// officials returns the assigned referee and observer that have a phone number.
func (o *Orchestrator) officials(m *match.Match) []*match.User {
	var out []*match.User
	seen := map[string]bool{}
	for _, id := range []string{m.ObserverID, m.RefereeID} {
		u, err := o.store.GetUser(id)
		if err != nil {
			log.Warn("Official not found", "matchID", m.ID, "userID", id, "error", err)
			continue
		}
		if u.Phone == "" || seen[u.Phone] {
			continue
		}
		seen[u.Phone] = true
		out = append(out, u)
	}
	return out
}

func (o *Orchestrator) lookups() (map[string]match.User, map[string]match.Team, error) {
	users, err := o.store.ListUsers()
	if err != nil {
		return nil, nil, err
	}
	teams, err := o.store.ListTeams("")
	if err != nil {
		return nil, nil, err
	}
	userMap := make(map[string]match.User, len(users))
	for _, u := range users {
		userMap[u.ID] = u
	}
	teamMap := make(map[string]match.Team, len(teams))
	for _, t := range teams {
		teamMap[t.ID] = t
	}
	return userMap, teamMap, nil
}

func (o *Orchestrator) project(m *match.Match, hideObserver bool) match.View {
	users, teams, err := o.lookups()
	if err != nil {
		log.Error("Failed to load lookups for match view", "matchID", m.ID, "error", err)
	}
	return match.Project(m, users, teams, hideObserver, o.clock.Now())
}

// gradeCommitted fans a committed referee grade out to metrics, events and the office.
func (o *Orchestrator) gradeCommitted(m *match.Match, source string) {
	o.metrics.IncGradesRecorded(source)
	o.publish(pubsub.EventRefereeGraded, pubsub.GradeEvent{
		MatchID:   m.ID,
		Key:       m.UserReadableKey,
		RefereeID: m.RefereeID,
		Grade:     fmt.Sprintf("%g", *m.RefereeGrade),
		Source:    source,
		GradedAt:  *m.RefereeGradeAt,
	})
	if err := o.notifier.NotifyGradeEntered(o.project(m, false), source, false); err != nil {
		log.Error("Failed to notify office about grade", "matchID", m.ID, "error", err)
	}
}

func (o *Orchestrator) publish(topic pubsub.EventType, data any) {
	if err := o.pubsub.SendMessage(topic, data); err != nil {
		log.Error("Failed to publish event", "topic", topic, "error", err)
	}
}

func (o *Orchestrator) observe(operation string, start time.Time) {
	o.metrics.ObserveOperationDuration(operation, time.Since(start).Seconds())
}

// hideObserverFrom keeps the observer anonymous to everyone but admins and the observer.
func hideObserverFrom(viewer match.User, m *match.Match) bool {
	return viewer.Role != match.RoleAdmin && viewer.ID != m.ObserverID
}

// asValidation turns a missing reference into a validation error.
func asValidation(err error, format string, args ...any) error {
	if errors.Is(err, match.ErrNotFound) {
		return fmt.Errorf("%w: unknown "+format, append([]any{match.ErrValidation}, args...)...)
	}
	return err
}
