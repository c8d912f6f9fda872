package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/refgrade/internal/importer"
	"github.com/mauv0809/refgrade/internal/match"
)

// Import creates every match of a schedule. All rows are validated against
// the store and against each other before the first reminder is booked; a
// single bad row rejects the whole batch. A gateway failure while booking
// stops the batch, keeping the matches created so far.
func (o *Orchestrator) Import(ctx context.Context, leagueID string, rows []importer.Row, dryRun bool) ([]*match.Match, error) {
	defer o.observe("import", time.Now())
	log.Info("Importing schedule", "leagueID", leagueID, "rows", len(rows))

	if _, err := o.store.GetLeague(leagueID); err != nil {
		return nil, asValidation(err, "league %s", leagueID)
	}
	drafts, err := importer.Resolve(rows, leagueID, o.store, o.loc, o.clock.Now())
	if err != nil {
		log.Info("Schedule rejected", "error", err)
		return nil, err
	}

	type slot struct {
		day  time.Time
		team string
	}
	taken := map[slot]int{}
	keys := map[string]int{}
	for i, d := range drafts {
		line := rows[i].Line
		if _, err := o.prepare(&match.Match{}, d, ""); err != nil {
			return nil, &importer.LineError{Line: line, Err: err}
		}
		day, _ := o.dayBounds(d.MatchDate)
		for _, team := range []string{d.HomeTeamID, d.AwayTeamID} {
			if other, ok := taken[slot{day, team}]; ok {
				return nil, &importer.LineError{Line: line, Err: fmt.Errorf("%w: a team already plays that day on line %d", match.ErrValidation, other)}
			}
			taken[slot{day, team}] = line
		}
		key, err := o.key(d)
		if err != nil {
			return nil, &importer.LineError{Line: line, Err: err}
		}
		if other, ok := keys[key]; ok {
			return nil, &importer.LineError{Line: line, Err: fmt.Errorf("%w: key %s duplicates line %d", match.ErrValidation, key, other)}
		}
		keys[key] = line
	}

	created := make([]*match.Match, 0, len(drafts))
	for i, d := range drafts {
		m, err := o.Create(ctx, d, dryRun)
		if err != nil {
			log.Error("Schedule import stopped", "line", rows[i].Line, "created", len(created), "error", err)
			return created, &importer.LineError{Line: rows[i].Line, Err: err}
		}
		created = append(created, m)
	}
	log.Info("Schedule imported", "leagueID", leagueID, "matches", len(created))
	return created, nil
}
