package importer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mauv0809/refgrade/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const schedule = `date;time;home team;away team;referee;observer;stadium
2024-06-15;18:00;Lech II;Warta;Jan Kowalski;Anna Nowak;Stadion Miejski

2024-06-22;17:30;Warta;Polonia;Jan Kowalski;Anna Nowak;Stadion Warty
`

type fakeLookup struct {
	teams map[string]match.Team
	users map[string]match.User
}

func (f fakeLookup) FindTeamByName(leagueID, name string) (*match.Team, error) {
	t, ok := f.teams[name]
	if !ok || t.LeagueID != leagueID {
		return nil, fmt.Errorf("%w: team", match.ErrNotFound)
	}
	return &t, nil
}

func (f fakeLookup) FindUserByName(fullName string, role match.Role) (*match.User, error) {
	u, ok := f.users[fullName]
	if !ok || u.Role != role {
		return nil, fmt.Errorf("%w: user", match.ErrNotFound)
	}
	return &u, nil
}

func newLookup() fakeLookup {
	return fakeLookup{
		teams: map[string]match.Team{
			"Lech II": {ID: "t1", LeagueID: "l1", Name: "Lech II"},
			"Warta":   {ID: "t2", LeagueID: "l1", Name: "Warta"},
			"Polonia": {ID: "t3", LeagueID: "l1", Name: "Polonia"},
		},
		users: map[string]match.User{
			"Jan Kowalski": {ID: "u1", FirstName: "Jan", LastName: "Kowalski", Role: match.RoleReferee},
			"Anna Nowak":   {ID: "u2", FirstName: "Anna", LastName: "Nowak", Role: match.RoleObserver},
		},
	}
}

func TestParseCSV(t *testing.T) {
	rows, err := Parse(strings.NewReader(schedule), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Lech II", rows[0].HomeTeam)
	assert.Equal(t, "Stadion Miejski", rows[0].Stadium)
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "17:30", rows[1].Time)
}

func TestParseCSV_FieldCount(t *testing.T) {
	input := "2024-06-15;18:00;Lech II;Warta;Jan Kowalski;Anna Nowak;Stadion\n2024-06-22;18:00;Warta;Polonia;Jan Kowalski\n"
	_, err := Parse(strings.NewReader(input), FormatCSV)

	var lineErr *LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, 2, lineErr.Line)
	assert.ErrorIs(t, err, match.ErrValidation)
	assert.Contains(t, err.Error(), "line 2: ")
}

func TestParseCSV_LineNumbersCountBlankLines(t *testing.T) {
	input := "date;time;home team;away team;referee;observer;stadium\n" +
		"\n" +
		"2024-06-15;18:00;Lech II;Warta;Jan Kowalski;Anna Nowak;Stadion\n" +
		"\n" +
		"\n" +
		"2024-06-22;18:00;Warta;Polonia\n"
	_, err := Parse(strings.NewReader(input), FormatCSV)

	var lineErr *LineError
	require.True(t, errors.As(err, &lineErr))
	assert.Equal(t, 6, lineErr.Line)
	assert.Contains(t, err.Error(), "line 6: ")
}

func TestParseCSV_QuotedNewline(t *testing.T) {
	input := "2024-06-15;18:00;Lech II;Warta;Jan Kowalski;Anna Nowak;\"Stadion\nMiejski\"\n" +
		"2024-06-22;17:30;Warta;Polonia;Jan Kowalski;Anna Nowak;Stadion Warty\n"
	rows, err := Parse(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, 3, rows[1].Line)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader("date;time;home team;away team;referee;observer;stadium\n"), FormatCSV)
	assert.ErrorIs(t, err, match.ErrValidation)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"date", "time", "home team", "away team", "referee", "observer", "stadium"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2024-06-15", "18:00", "Lech II", "Warta", "Jan Kowalski", "Anna Nowak", "Stadion Miejski"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"2024-06-22", "17:30", "Warta", "Polonia", "Jan Kowalski", "Anna Nowak"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Parse(bytes.NewReader(buf.Bytes()), FormatXLSX)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Stadion Miejski", rows[0].Stadium)
	assert.Equal(t, 3, rows[1].Line)
	assert.Empty(t, rows[1].Stadium)
}

func TestParseXLSX_Invalid(t *testing.T) {
	_, err := Parse(strings.NewReader("definitely not a zip"), FormatXLSX)
	assert.ErrorIs(t, err, match.ErrValidation)
}

func TestFormatFromFilename(t *testing.T) {
	f, err := FormatFromFilename("Schedule.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FormatFromFilename("runda.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatFromFilename("runda.pdf")
	assert.ErrorIs(t, err, match.ErrValidation)
}

func TestResolve(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rows, err := Parse(strings.NewReader(schedule), FormatCSV)
	require.NoError(t, err)

	drafts, err := Resolve(rows, "l1", newLookup(), time.UTC, now)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, match.Draft{
		MatchDate:  time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC),
		Stadium:    "Stadion Miejski",
		LeagueID:   "l1",
		HomeTeamID: "t1",
		AwayTeamID: "t2",
		RefereeID:  "u1",
		ObserverID: "u2",
	}, drafts[0])
}

func TestResolve_Rejections(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	valid := Row{Line: 7, Date: "2024-06-15", Time: "18:00", HomeTeam: "Lech II", AwayTeam: "Warta", Referee: "Jan Kowalski", Observer: "Anna Nowak", Stadium: "Stadion"}

	tests := []struct {
		name   string
		mutate func(r *Row)
		want   string
	}{
		{"unknown home team", func(r *Row) { r.HomeTeam = "Legia" }, `unknown team "Legia"`},
		{"unknown away team", func(r *Row) { r.AwayTeam = "Legia" }, `unknown team "Legia"`},
		{"referee with the wrong role", func(r *Row) { r.Referee = "Anna Nowak" }, `unknown referee "Anna Nowak"`},
		{"unknown observer", func(r *Row) { r.Observer = "Ewa Lis" }, `unknown observer "Ewa Lis"`},
		{"past date", func(r *Row) { r.Date = "2024-05-01" }, "in the past"},
		{"bad time", func(r *Row) { r.Time = "6pm" }, "invalid date or time"},
		{"missing stadium", func(r *Row) { r.Stadium = "" }, "missing stadium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := valid
			tt.mutate(&bad)
			_, err := Resolve([]Row{valid, bad}, "l1", newLookup(), time.UTC, now)

			var lineErr *LineError
			require.True(t, errors.As(err, &lineErr))
			assert.Equal(t, 7, lineErr.Line)
			assert.ErrorIs(t, err, match.ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
