package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/refgrade/internal/match"
	"github.com/mauv0809/refgrade/internal/metrics"
	"github.com/mauv0809/refgrade/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier posts league office notifications to a Slack channel.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	loc       *time.Location
}

// NewNotifier creates a new Notifier. Match times are rendered in loc.
func NewNotifier(token, channelID string, loc *time.Location, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return NewNotifierWithAPI(api, channelID, loc, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, loc *time.Location, metrics metrics.Metrics) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
		loc:       loc,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) NotifyGradeEntered(view match.View, source string, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatGradeEntered(view, source), dryRun)
	return err
}

func (s *Notifier) NotifyOverallGradeEntered(view match.View, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatOverallGradeEntered(view), dryRun)
	return err
}

func (s *Notifier) NotifyMatchRemoved(view match.View, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatMatchRemoved(view), dryRun)
	return err
}

// formatGradeEntered creates the Block Kit message for a committed referee grade.
func (s *Notifier) formatGradeEntered(view match.View, source string) slack.Message {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", "📋 Referee graded", true, false)),
		s.fixtureSection(view),
	}

	grade := "-"
	if view.RefereeGrade != nil {
		grade = strconv.FormatFloat(*view.RefereeGrade, 'f', -1, 64)
	}
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Referee*\n%s", view.Referee), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Grade*\n%s", grade), false, false),
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject("plain_text", fmt.Sprintf("Key %s · entered via %s", view.UserReadableKey, source), false, false),
	))
	return slack.NewBlockMessage(blocks...)
}

// formatOverallGradeEntered creates the Block Kit message for a committed overall grade.
func (s *Notifier) formatOverallGradeEntered(view match.View) slack.Message {
	grade := "-"
	if view.OverallGrade != nil {
		grade = *view.OverallGrade
	}
	return slack.NewBlockMessage(
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", "🏁 Overall grade entered", true, false)),
		s.fixtureSection(view),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Referee*\n%s", view.Referee), false, false),
			slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Overall grade*\n%s", grade), false, false),
		}, nil),
	)
}

// formatMatchRemoved creates the Block Kit message for a canceled match.
func (s *Notifier) formatMatchRemoved(view match.View) slack.Message {
	return slack.NewBlockMessage(
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", "❌ Match canceled", true, false)),
		s.fixtureSection(view),
		slack.NewContextBlock("",
			slack.NewTextBlockObject("plain_text", fmt.Sprintf("Key %s · officials notified by SMS", view.UserReadableKey), false, false),
		),
	)
}

func (s *Notifier) fixtureSection(view match.View) *slack.SectionBlock {
	text := fmt.Sprintf("%s vs %s\n%s, %s",
		view.HomeTeam,
		view.AwayTeam,
		view.Stadium,
		view.MatchDate.In(s.loc).Format("Monday 02 Jan, 15:04"),
	)
	return slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, true, false), nil, nil)
}
