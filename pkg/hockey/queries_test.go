package hockey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodWinRankings(t *testing.T) {
	c := threeTeams(t)

	got, err := PeriodWinRankings(PeriodRankingQuery{Outcome: Win}, c.games, c.rows)
	require.NoError(t, err)
	assert.Equal(t, []PeriodRanking{
		{Rank: 1, TeamCode: "BBB", Count: 3},
		{Rank: 2, TeamCode: "AAA", Count: 2},
		{Rank: 3, TeamCode: "CCC", Count: 2},
	}, got)

	got, err = PeriodWinRankings(PeriodRankingQuery{Outcome: Win, RegulationOnly: true}, c.games, c.rows)
	require.NoError(t, err)
	assert.Equal(t, []PeriodRanking{
		{Rank: 1, TeamCode: "AAA", Count: 2},
		{Rank: 2, TeamCode: "BBB", Count: 2},
		{Rank: 3, TeamCode: "CCC", Count: 1},
	}, got)

	got, err = PeriodWinRankings(PeriodRankingQuery{Outcome: Tie, From: "2023-10-13"}, c.games, c.rows)
	require.NoError(t, err)
	assert.Equal(t, []PeriodRanking{
		{Rank: 1, TeamCode: "AAA", Count: 4},
		{Rank: 2, TeamCode: "CCC", Count: 4},
	}, got)
}

func TestPeriodWinRankingsErrors(t *testing.T) {
	c := threeTeams(t)

	_, err := PeriodWinRankings(PeriodRankingQuery{Outcome: "DRAW", From: "2023-13-01"}, c.games, c.rows)
	assert.ElementsMatch(t, []string{"outcome", "from"}, fields(err))

	_, err = PeriodWinRankings(PeriodRankingQuery{Outcome: Win, From: "2024-06-01"}, c.games, c.rows)
	var empty *EmptyResultError
	assert.True(t, errors.As(err, &empty))
}

func TestTwoPlusGamesNewestFirst(t *testing.T) {
	c := threeTeams(t)
	c.play(t, "g4", "2023-10-20", "BBB", "AAA", score{0, 1}, score{0, 1}, score{0, 0})

	got, err := TwoPlusGames("AAA", c.games, c.rows)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, TwoPlusGame{
		GameID: "g4", Date: "2023-10-20", Season: testSeason, Opponent: "BBB", Home: false,
		RegulationPeriodsWon: 2, GoalsFor: 2, GoalsAgainst: 0, Result: "W",
	}, got[0])
	assert.Equal(t, "g1", got[1].GameID)
	assert.True(t, got[1].Home)

	_, err = TwoPlusGames("CCC", c.games, c.rows)
	var empty *EmptyResultError
	assert.True(t, errors.As(err, &empty))

	_, err = TwoPlusGames("ccc", c.games, c.rows)
	assert.Equal(t, []string{"team_code"}, fields(err))
}

func TestTeamPeriodPerformance(t *testing.T) {
	c := threeTeams(t)

	got, err := TeamPeriodPerformance(PerformanceQuery{TeamCode: "AAA"}, c.games, c.rows)
	require.NoError(t, err)
	require.Len(t, got, 8)
	assert.Equal(t, PeriodPerformance{Date: "2023-10-10", GameID: "g1", Opponent: "BBB", PeriodNumber: 1, GoalsFor: 2, Outcome: Win}, got[0])
	last := got[len(got)-1]
	assert.Equal(t, "g3", last.GameID)
	assert.Equal(t, ShootoutPeriod, last.PeriodNumber)
	assert.Equal(t, Loss, last.Outcome)

	got, err = TeamPeriodPerformance(PerformanceQuery{TeamCode: "AAA", From: "2023-10-13", To: "2023-10-31"}, c.games, c.rows)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	_, err = TeamPeriodPerformance(PerformanceQuery{}, c.games, c.rows)
	assert.Equal(t, []string{"team_code"}, fields(err))

	_, err = TeamPeriodPerformance(PerformanceQuery{TeamCode: "DDD"}, c.games, c.rows)
	var empty *EmptyResultError
	assert.True(t, errors.As(err, &empty))
}
