package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mauv0809/refgrade/internal/clock"
	"github.com/mauv0809/refgrade/internal/database"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/metrics"
	"github.com/mauv0809/refgrade/internal/notifier"
	"github.com/mauv0809/refgrade/internal/pubsub"
	"github.com/mauv0809/refgrade/internal/sms"
	"github.com/mauv0809/refgrade/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kickoff = time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

type harness struct {
	o        *Orchestrator
	store    store.Store
	sms      *sms.Mock
	notifier *notifier.Mock
	pubsub   *pubsub.Mock
	metrics  *metrics.Mock
	clock    *clock.Fake

	league   *match.League
	teams    []*match.Team
	referee  *match.User
	observer *match.User
	mentor   *match.User
}

// newHarness wires an orchestrator to an in-memory database holding one league
// with four teams, a referee, an observer and a mentor.
func newHarness(t *testing.T, loc *time.Location) *harness {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	h := &harness{
		store:    store.New(db),
		sms:      sms.NewMock(),
		notifier: notifier.NewMock(),
		pubsub:   pubsub.NewMock(),
		metrics:  metrics.NewMock(),
		clock:    clock.NewFake(kickoff.AddDate(0, 0, -14)),
	}
	h.o = New(h.store, h.sms, h.notifier, h.pubsub, h.metrics, Options{Location: loc, Clock: h.clock})

	h.league, err = h.store.CreateLeague("IV liga")
	require.NoError(t, err)
	for _, name := range []string{"Polonia", "Lech II", "Warta", "Olimpia"} {
		team, err := h.store.CreateTeam(h.league.ID, name)
		require.NoError(t, err)
		h.teams = append(h.teams, team)
	}
	h.referee, err = h.store.CreateUser(match.User{FirstName: "Jan", LastName: "Kowalski", Phone: "+48600000001", Role: match.RoleReferee})
	require.NoError(t, err)
	h.observer, err = h.store.CreateUser(match.User{FirstName: "Anna", LastName: "Nowak", Phone: "+48600000002", Role: match.RoleObserver})
	require.NoError(t, err)
	h.mentor, err = h.store.CreateUser(match.User{FirstName: "Ewa", LastName: "Lis", Phone: "+48600000003", Role: match.RoleMentor})
	require.NoError(t, err)
	return h
}

func (h *harness) draft(date time.Time, home, away int) match.Draft {
	return match.Draft{
		MatchDate:  date,
		Stadium:    "Stadion Miejski",
		LeagueID:   h.league.ID,
		HomeTeamID: h.teams[home].ID,
		AwayTeamID: h.teams[away].ID,
		RefereeID:  h.referee.ID,
		ObserverID: h.observer.ID,
	}
}

func (h *harness) create(t *testing.T, date time.Time, home, away int) *match.Match {
	t.Helper()
	m, err := h.o.Create(context.Background(), h.draft(date, home, away), false)
	require.NoError(t, err)
	return m
}

func TestCreateAndRemove_EndToEnd(t *testing.T) {
	h := newHarness(t, time.UTC)
	ctx := context.Background()

	m := h.create(t, kickoff, 1, 2)

	assert.Equal(t, "1506240102", m.UserReadableKey)
	require.Len(t, h.sms.ScheduleCalls, 1)
	call := h.sms.ScheduleCalls[0]
	assert.Equal(t, "1506240102", call.Key)
	assert.Equal(t, h.observer.Phone, call.To)
	assert.True(t, kickoff.Equal(call.MatchDate))
	assert.Equal(t, "14-06-2024 18:00:00", sms.SendDate(call.MatchDate, time.UTC))
	assert.Contains(t, sms.ReminderText(call.MatchDate, call.Key, time.UTC), "1506240102")

	stored, err := h.store.GetMatch(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "1001", stored.ObserverSmsID)

	require.NoError(t, h.o.Remove(ctx, m.ID, false))

	assert.Equal(t, []string{"schedule", "cancel", "send", "send"}, h.sms.Calls)
	assert.Equal(t, []string{"1001"}, h.sms.CancelCalls)
	assert.Equal(t, h.observer.Phone, h.sms.SendOneWayCalls[0].To)
	assert.Contains(t, h.sms.SendOneWayCalls[0].Msg, "1506240102")
	assert.Equal(t, h.referee.Phone, h.sms.SendOneWayCalls[1].To)

	_, err = h.store.GetMatch(m.ID)
	assert.ErrorIs(t, err, match.ErrNotFound)
	assert.Equal(t, []pubsub.EventType{pubsub.EventMatchRemoved}, h.pubsub.Topics())
	require.Len(t, h.notifier.NotifyMatchRemovedCalls, 1)
	assert.Equal(t, "Lech II", h.notifier.NotifyMatchRemovedCalls[0].HomeTeam)
}

func TestCreate_ScheduleFailureStoresNothing(t *testing.T) {
	h := newHarness(t, time.UTC)
	h.sms.ScheduleFunc = func(time.Time, string, string) (string, error) {
		return "", fmt.Errorf("%w: status 500", match.ErrGatewayUnavailable)
	}

	_, err := h.o.Create(context.Background(), h.draft(kickoff, 1, 2), false)
	assert.ErrorIs(t, err, match.ErrGatewayUnavailable)

	all, err := h.store.ListMatches(store.MatchFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_DryRun(t *testing.T) {
	h := newHarness(t, time.UTC)

	m, err := h.o.Create(context.Background(), h.draft(kickoff, 1, 2), true)
	require.NoError(t, err)
	assert.Equal(t, "1506240102", m.UserReadableKey)
	assert.Empty(t, h.sms.Calls)

	all, err := h.store.ListMatches(store.MatchFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_ConflictRule(t *testing.T) {
	h := newHarness(t, time.UTC)
	h.create(t, kickoff, 1, 2)

	tests := []struct {
		name       string
		date       time.Time
		home, away int
		wantErr    bool
	}{
		{"existing home team plays away", kickoff.Add(-6 * time.Hour), 0, 1, true},
		{"existing away team plays home", kickoff.Add(-6 * time.Hour), 2, 0, true},
		{"existing away team plays away", kickoff.Add(-4 * time.Hour), 3, 2, true},
		{"late the same day", kickoff.Add(5 * time.Hour), 1, 3, true},
		{"no team in common", kickoff.Add(-6 * time.Hour), 0, 3, false},
		{"next day", kickoff.AddDate(0, 0, 1), 2, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.o.Create(context.Background(), h.draft(tt.date, tt.home, tt.away), true)
			if tt.wantErr {
				assert.ErrorIs(t, err, match.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("a team cannot play itself on any date", func(t *testing.T) {
		_, err := h.o.Create(context.Background(), h.draft(kickoff.AddDate(1, 0, 0), 3, 3), false)
		assert.ErrorIs(t, err, match.ErrValidation)
		assert.Contains(t, err.Error(), "itself")
	})
}

func TestCreate_DuplicateUngradedKey(t *testing.T) {
	// In UTC+2 these kick-offs fall on different local days but share the UTC day in the key.
	loc := time.FixedZone("CEST", 2*60*60)
	h := newHarness(t, loc)
	ctx := context.Background()

	first := h.create(t, time.Date(2024, 6, 15, 23, 30, 0, 0, loc), 1, 2)
	second := h.draft(time.Date(2024, 6, 16, 1, 0, 0, 0, loc), 1, 3)

	_, err := h.o.Create(ctx, second, false)
	require.ErrorIs(t, err, match.ErrValidation)
	assert.Contains(t, err.Error(), first.UserReadableKey)

	_, err = h.o.SetRefereeGrade(ctx, first.ID, 8, false)
	require.NoError(t, err)

	m, err := h.o.Create(ctx, second, false)
	require.NoError(t, err)
	assert.Equal(t, first.UserReadableKey, m.UserReadableKey)
}

func TestCreate_UnknownReferences(t *testing.T) {
	h := newHarness(t, time.UTC)
	d := h.draft(kickoff, 1, 2)
	d.RefereeID = "missing"

	_, err := h.o.Create(context.Background(), d, false)
	assert.ErrorIs(t, err, match.ErrValidation)
	assert.Empty(t, h.sms.Calls)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels before rescheduling", func(t *testing.T) {
		h := newHarness(t, time.UTC)
		m := h.create(t, kickoff, 1, 2)

		later := kickoff.AddDate(0, 0, 7)
		updated, err := h.o.Update(ctx, m.ID, h.draft(later, 2, 1), false)
		require.NoError(t, err)

		assert.Equal(t, []string{"schedule", "cancel", "schedule"}, h.sms.Calls)
		assert.Equal(t, []string{"1001"}, h.sms.CancelCalls)
		assert.Equal(t, "2206240103", updated.UserReadableKey)

		stored, err := h.store.GetMatch(m.ID)
		require.NoError(t, err)
		assert.Equal(t, "1002", stored.ObserverSmsID)
		assert.True(t, later.Equal(stored.MatchDate))
	})

	t.Run("failed reschedule leaves no pending notification", func(t *testing.T) {
		h := newHarness(t, time.UTC)
		m := h.create(t, kickoff, 1, 2)
		h.sms.ScheduleFunc = func(time.Time, string, string) (string, error) {
			return "", fmt.Errorf("%w: status 503", match.ErrGatewayUnavailable)
		}

		_, err := h.o.Update(ctx, m.ID, h.draft(kickoff.AddDate(0, 0, 7), 1, 2), false)
		assert.ErrorIs(t, err, match.ErrGatewayUnavailable)
		assert.Equal(t, []string{"schedule", "cancel", "schedule"}, h.sms.Calls)

		stored, err := h.store.GetMatch(m.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.ObserverSmsID, "canceled id must not be kept")
		assert.True(t, kickoff.Equal(stored.MatchDate))

		t.Run("a retry skips the cancel", func(t *testing.T) {
			h.sms.ScheduleFunc = nil
			h.sms.Reset()
			_, err := h.o.Update(ctx, m.ID, h.draft(kickoff.AddDate(0, 0, 7), 1, 2), false)
			require.NoError(t, err)
			assert.Equal(t, []string{"schedule"}, h.sms.Calls)
		})
	})

	t.Run("failed cancel changes nothing", func(t *testing.T) {
		h := newHarness(t, time.UTC)
		m := h.create(t, kickoff, 1, 2)
		h.sms.CancelFunc = func(string) error {
			return fmt.Errorf("%w: status 500", match.ErrGatewayUnavailable)
		}

		_, err := h.o.Update(ctx, m.ID, h.draft(kickoff.AddDate(0, 0, 7), 1, 2), false)
		assert.ErrorIs(t, err, match.ErrGatewayUnavailable)
		assert.Equal(t, []string{"schedule", "cancel"}, h.sms.Calls)

		stored, err := h.store.GetMatch(m.ID)
		require.NoError(t, err)
		assert.Equal(t, "1001", stored.ObserverSmsID)
	})

	t.Run("conflict check excludes the match itself", func(t *testing.T) {
		h := newHarness(t, time.UTC)
		m := h.create(t, kickoff, 1, 2)
		_, err := h.o.Update(ctx, m.ID, h.draft(kickoff.Add(time.Hour), 1, 2), false)
		assert.NoError(t, err)
	})

	t.Run("unknown match", func(t *testing.T) {
		h := newHarness(t, time.UTC)
		_, err := h.o.Update(ctx, "nope", h.draft(kickoff, 1, 2), false)
		assert.ErrorIs(t, err, match.ErrNotFound)
	})
}

func TestRemove_CancelFailureKeepsMatch(t *testing.T) {
	h := newHarness(t, time.UTC)
	m := h.create(t, kickoff, 1, 2)
	h.sms.CancelFunc = func(string) error {
		return fmt.Errorf("%w: status 500", match.ErrGatewayUnavailable)
	}

	err := h.o.Remove(context.Background(), m.ID, false)
	assert.ErrorIs(t, err, match.ErrGatewayUnavailable)
	assert.Empty(t, h.sms.SendOneWayCalls)

	_, err = h.store.GetMatch(m.ID)
	assert.NoError(t, err)
	assert.Empty(t, h.pubsub.Topics())
}

func TestRemove_CorruptMessageIDKeepsMatch(t *testing.T) {
	h := newHarness(t, time.UTC)
	m := h.create(t, kickoff, 1, 2)
	m.ObserverSmsID = "abc"
	require.NoError(t, h.store.SaveMatch(m))

	err := h.o.Remove(context.Background(), m.ID, false)
	assert.ErrorIs(t, err, match.ErrInvalidMessageID)
	assert.ErrorIs(t, err, match.ErrGatewayUnavailable)
	assert.Empty(t, h.sms.SendOneWayCalls)

	_, err = h.store.GetMatch(m.ID)
	assert.NoError(t, err)
}

func TestSetRefereeGrade_Reentry(t *testing.T) {
	h := newHarness(t, time.UTC)
	ctx := context.Background()
	m := h.create(t, kickoff, 1, 2)

	h.clock.Set(kickoff.Add(-time.Hour))
	graded, err := h.o.SetRefereeGrade(ctx, m.ID, 7.5, false)
	require.NoError(t, err, "first entry is unconditional")
	require.NotNil(t, graded.RefereeGradeAt)

	h.clock.Set(kickoff.Add(3*time.Hour + 59*time.Minute))
	_, err = h.o.SetRefereeGrade(ctx, m.ID, 8, false)
	assert.ErrorIs(t, err, match.ErrValidation)

	h.clock.Set(kickoff.Add(4 * time.Hour))
	graded, err = h.o.SetRefereeGrade(ctx, m.ID, 8, false)
	require.NoError(t, err)
	assert.Equal(t, 8.0, *graded.RefereeGrade)

	h.clock.Set(kickoff.AddDate(1, 0, 0))
	_, err = h.o.SetRefereeGrade(ctx, m.ID, 9, false)
	assert.NoError(t, err, "no upper bound")

	stored, err := h.store.GetMatch(m.ID)
	require.NoError(t, err)
	assert.Equal(t, 9.0, *stored.RefereeGrade)
	assert.Equal(t, 3, h.metrics.GradesRecorded(metrics.SourceAPI))
	assert.Len(t, h.notifier.NotifyGradeEnteredCalls, 3)
}

func TestSetOverallGrade_Reentry(t *testing.T) {
	h := newHarness(t, time.UTC)
	ctx := context.Background()
	m := h.create(t, kickoff, 1, 2)

	h.clock.Set(kickoff.Add(time.Hour))
	_, err := h.o.SetOverallGrade(ctx, m.ID, "B+", false)
	require.NoError(t, err)

	h.clock.Set(kickoff.Add(49 * time.Hour))
	_, err = h.o.SetOverallGrade(ctx, m.ID, "A", false)
	assert.ErrorIs(t, err, match.ErrValidation)

	h.clock.Set(kickoff.Add(50 * time.Hour))
	graded, err := h.o.SetOverallGrade(ctx, m.ID, "A", false)
	require.NoError(t, err)
	assert.Equal(t, "A", *graded.OverallGrade)
	assert.Nil(t, graded.RefereeGrade, "independent of the referee grade")
	assert.Equal(t, []pubsub.EventType{pubsub.EventOverallGraded, pubsub.EventOverallGraded}, h.pubsub.Topics())

	_, err = h.o.SetOverallGrade(ctx, m.ID, "", false)
	assert.ErrorIs(t, err, match.ErrValidation)
}

func TestSetRefereeNote(t *testing.T) {
	h := newHarness(t, time.UTC)
	ctx := context.Background()
	m := h.create(t, kickoff, 1, 2)

	noted, err := h.o.SetRefereeNote(ctx, m.ID, "Good positioning")
	require.NoError(t, err)
	require.NotNil(t, noted.RefereeNote)

	noted, err = h.o.SetRefereeNote(ctx, m.ID, "")
	require.NoError(t, err)
	assert.Nil(t, noted.RefereeNote)
}

func TestGet_HidesObserverUntilKickoff(t *testing.T) {
	h := newHarness(t, time.UTC)
	ctx := context.Background()
	m := h.create(t, kickoff, 1, 2)

	view, err := h.o.Get(ctx, m.ID, *h.referee)
	require.NoError(t, err)
	assert.Equal(t, match.HiddenObserver, view.Observer)
	assert.Empty(t, view.ObserverID)
	assert.Equal(t, "Jan Kowalski", view.Referee)

	view, err = h.o.Get(ctx, m.ID, *h.observer)
	require.NoError(t, err)
	assert.Equal(t, "Anna Nowak", view.Observer)

	h.clock.Set(kickoff.Add(time.Minute))
	views, err := h.o.List(ctx, store.MatchFilter{}, *h.referee)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Anna Nowak", views[0].Observer)
}

func TestReports(t *testing.T) {
	h := newHarness(t, time.UTC)
	ctx := context.Background()
	m := h.create(t, kickoff, 1, 2)

	_, err := h.o.UpdateReportData(ctx, *h.observer, m.ID, match.ReportObserver, "reports/obs.pdf")
	require.NoError(t, err)

	_, err = h.o.UpdateReportData(ctx, *h.mentor, m.ID, match.ReportObserver, "reports/other.pdf")
	assert.ErrorIs(t, err, match.ErrForbidden)

	key, err := h.o.GetKeyForReport(ctx, *h.referee, m.ID, match.ReportObserver)
	require.NoError(t, err)
	assert.Equal(t, "reports/obs.pdf", key)

	_, err = h.o.GetKeyForReport(ctx, *h.mentor, m.ID, match.ReportTV)
	assert.ErrorIs(t, err, match.ErrNotFound)

	_, err = h.o.RemoveReport(ctx, *h.referee, m.ID, match.ReportObserver)
	assert.ErrorIs(t, err, match.ErrForbidden)

	_, err = h.o.RemoveReport(ctx, *h.observer, m.ID, match.ReportObserver)
	require.NoError(t, err)
	_, err = h.o.GetKeyForReport(ctx, *h.observer, m.ID, match.ReportObserver)
	assert.ErrorIs(t, err, match.ErrNotFound)
}

func TestHandleGradeMessage(t *testing.T) {
	const sender = "+48600000002"
	ctx := context.Background()

	tests := []struct {
		name      string
		body      string
		now       time.Time
		preGraded bool
		want      string
		stored    bool
	}{
		{"no hash", "ABC", kickoff.Add(3 * time.Hour), false, "Invalid sms format.", false},
		{"no slash", "KEY#5", kickoff.Add(3 * time.Hour), false, "Invalid sms grade format.", false},
		{"empty key", "#5/10", kickoff.Add(3 * time.Hour), false, "Invalid match key.", false},
		{"not a number", "KEY#x/10", kickoff.Add(3 * time.Hour), false, "Invalid grade.", false},
		{"unknown key", "0101010101#5/10", kickoff.Add(3 * time.Hour), false, "Invalid match key.", false},
		{"already graded", "1506240102#5/10", kickoff.Add(3 * time.Hour), true, "Grade has already been entered.", false},
		{"before match end", "1506240102#5/10", kickoff.Add(time.Hour + 59*time.Minute), false, "Cannot enter a grade before match end.", false},
		{"at match end", "1506240102#8.4/10", kickoff.Add(2 * time.Hour), false, "Grade has been entered.", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, time.UTC)
			m := h.create(t, kickoff, 1, 2)
			if tt.preGraded {
				_, err := h.o.SetRefereeGrade(ctx, m.ID, 6, false)
				require.NoError(t, err)
			}
			h.clock.Set(tt.now)
			h.sms.Reset()

			reply, err := h.o.HandleGradeMessage(ctx, match.GradeMessage{ID: "in-1", Msg: tt.body, SenderPhoneNumber: sender})
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
			assert.Equal(t, []string{tt.want}, h.sms.Replies(sender), "exactly one reply")

			stored, err := h.store.GetMatch(m.ID)
			require.NoError(t, err)
			if tt.stored {
				require.NotNil(t, stored.RefereeGrade)
				assert.InDelta(t, 8.4, *stored.RefereeGrade, 1e-9)
				require.NotNil(t, stored.RefereeGradeAt)
				assert.True(t, tt.now.Equal(*stored.RefereeGradeAt))
				assert.Equal(t, 1, h.metrics.GradesRecorded(metrics.SourceSMS))
				assert.Equal(t, []pubsub.EventType{pubsub.EventRefereeGraded}, h.pubsub.Topics())
			} else if !tt.preGraded {
				assert.Nil(t, stored.RefereeGrade)
				assert.Equal(t, 1, h.metrics.InboundRejected(tt.want))
			}
		})
	}
}

func TestHandleGradeMessage_ReplyFailure(t *testing.T) {
	h := newHarness(t, time.UTC)
	h.sms.SendOneWayFunc = func(string, string) error {
		return fmt.Errorf("%w: status 502", match.ErrGatewayUnavailable)
	}

	reply, err := h.o.HandleGradeMessage(context.Background(), match.GradeMessage{ID: "in-2", Msg: "ABC", SenderPhoneNumber: "+48600000009"})
	assert.Equal(t, "Invalid sms format.", reply)
	assert.True(t, errors.Is(err, match.ErrGatewayUnavailable))
	assert.Empty(t, h.pubsub.Topics())
}

func TestHandleGradeMessage_ReplyFailureStillAnnouncesGrade(t *testing.T) {
	h := newHarness(t, time.UTC)
	m := h.create(t, kickoff, 1, 2)
	h.clock.Set(kickoff.Add(3 * time.Hour))
	h.sms.SendOneWayFunc = func(string, string) error {
		return fmt.Errorf("%w: status 502", match.ErrGatewayUnavailable)
	}

	reply, err := h.o.HandleGradeMessage(context.Background(), match.GradeMessage{
		ID:                "in-3",
		Msg:               m.UserReadableKey + "#8/10",
		SenderPhoneNumber: h.observer.Phone,
	})
	assert.Equal(t, "Grade has been entered.", reply)
	assert.True(t, errors.Is(err, match.ErrGatewayUnavailable))

	stored, err := h.store.GetMatch(m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefereeGrade)
	assert.Equal(t, 8.0, *stored.RefereeGrade)
	assert.Equal(t, []pubsub.EventType{pubsub.EventRefereeGraded}, h.pubsub.Topics())
	assert.Len(t, h.notifier.NotifyGradeEnteredCalls, 1)
	assert.Equal(t, 1, h.metrics.GradesRecorded(metrics.SourceSMS))
}
