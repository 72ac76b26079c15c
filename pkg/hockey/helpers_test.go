package hockey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testSeason = "2023-2024"

// score is the home and away goals of one period
type score [2]int

func rawGame(id, date, home, away string, periods ...score) RawGame {
	raw := RawGame{ID: id, Date: date, Season: testSeason, HomeTeam: home, AwayTeam: away, GameType: RegularSeason}
	for i, p := range periods {
		raw.Periods = append(raw.Periods, RawPeriod{Number: i + 1, HomeGoals: p[0], AwayGoals: p[1]})
	}
	return raw
}

// corpus accumulates transformed games for aggregation tests
type corpus struct {
	games []Game
	rows  []PeriodResult
}

func (c *corpus) add(t *testing.T, raw RawGame) {
	t.Helper()
	g, rows, err := TransformGame(raw)
	require.NoError(t, err)
	c.games = append(c.games, g)
	c.rows = append(c.rows, rows...)
}

func (c *corpus) play(t *testing.T, id, date, home, away string, periods ...score) {
	t.Helper()
	c.add(t, rawGame(id, date, home, away, periods...))
}

func testTeams(codes ...string) []Team {
	out := make([]Team, 0, len(codes))
	for _, c := range codes {
		out = append(out, Team{Code: c, Name: "Team " + c, Conference: Eastern, Division: "Atlantic"})
	}
	return out
}

func rowFor(rows []PeriodResult, team string, period int) PeriodResult {
	for _, r := range rows {
		if r.TeamCode == team && r.PeriodNumber == period {
			return r
		}
	}
	return PeriodResult{}
}
