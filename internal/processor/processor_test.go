package processor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/richard-senior/hockey/pkg/hockey"
	"github.com/richard-senior/hockey/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seeded returns a processor over TOR, MTL and BOS with three games:
// TOR beats MTL winning two periods, MTL beats BOS in a shootout, TOR beats BOS.
func seeded(t *testing.T) *Processor {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.SaveTeams(ctx, []hockey.Team{
		{Code: "TOR", Name: "Toronto Maple Leafs", Conference: hockey.Eastern, Division: "Atlantic"},
		{Code: "MTL", Name: "Montreal Canadiens", Conference: hockey.Eastern, Division: "Atlantic"},
		{Code: "BOS", Name: "Boston Bruins", Conference: hockey.Eastern, Division: "Atlantic"},
	}))
	for _, raw := range []hockey.RawGame{
		game("g1", "2023-10-10", "TOR", "MTL", [2]int{1, 0}, [2]int{1, 0}, [2]int{0, 1}),
		game("g2", "2023-10-12", "BOS", "MTL", [2]int{1, 0}, [2]int{0, 1}, [2]int{0, 0}, [2]int{0, 0}, [2]int{0, 1}),
		game("g3", "2023-10-14", "BOS", "TOR", [2]int{0, 1}, [2]int{0, 0}, [2]int{1, 1}),
	} {
		g, rows, err := hockey.TransformGame(raw)
		require.NoError(t, err)
		require.NoError(t, s.ReplaceGame(ctx, g, rows))
	}
	return New(s)
}

func game(id, date, home, away string, goals ...[2]int) hockey.RawGame {
	raw := hockey.RawGame{ID: id, Date: date, Season: "2023-2024", HomeTeam: home, AwayTeam: away}
	for i, g := range goals {
		raw.Periods = append(raw.Periods, hockey.RawPeriod{Number: i + 1, HomeGoals: g[0], AwayGoals: g[1]})
	}
	return raw
}

func TestTeamStats(t *testing.T) {
	p := seeded(t)
	res, err := p.TeamStats(context.Background(), hockey.Scope{Season: "2023-2024"}, 0)
	require.NoError(t, err)
	require.Len(t, res.Teams, 3)
	assert.Equal(t, "TOR", res.Teams[0].TeamCode)
	assert.Equal(t, 2, res.Teams[0].Wins)
	assert.Equal(t, 4, res.Teams[0].Points)

	res, err = p.TeamStats(context.Background(), hockey.Scope{}, 1)
	require.NoError(t, err)
	assert.Len(t, res.Teams, 1)

	_, err = p.TeamStats(context.Background(), hockey.Scope{Conference: hockey.Western}, 0)
	var empty *hockey.EmptyResultError
	assert.ErrorAs(t, err, &empty)

	_, err = p.TeamStats(context.Background(), hockey.Scope{TeamCode: "tor"}, 0)
	var verr *hockey.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestHeadToHeadAndTwoPlus(t *testing.T) {
	ctx := context.Background()
	p := seeded(t)

	h2h, err := p.HeadToHead(ctx, hockey.HeadToHeadQuery{TeamA: "TOR", TeamB: "MTL"})
	require.NoError(t, err)
	assert.Equal(t, 1, h2h.GamesPlayed)
	assert.Equal(t, "TOR", h2h.SeriesLeader)

	games, err := p.TwoPlusGames(ctx, "TOR", "")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "g1", games[0].GameID)
}

func TestPeriodQueries(t *testing.T) {
	ctx := context.Background()
	p := seeded(t)

	ranks, err := p.PeriodRankings(ctx, hockey.PeriodRankingQuery{Outcome: hockey.Win})
	require.NoError(t, err)
	require.NotEmpty(t, ranks)
	assert.Equal(t, 1, ranks[0].Rank)

	perf, err := p.PeriodPerformance(ctx, hockey.PerformanceQuery{TeamCode: "MTL", From: "2023-10-12"})
	require.NoError(t, err)
	assert.Len(t, perf, 5)
	assert.Equal(t, "BOS", perf[0].Opponent)
}

func TestHealth(t *testing.T) {
	rep, err := seeded(t).Health(context.Background(), "2023-2024")
	require.NoError(t, err)
	assert.Equal(t, 3, rep.TotalGames)
	assert.Equal(t, 100, rep.HealthScore)

	_, err = seeded(t).Health(context.Background(), "2023")
	assert.Error(t, err)
}

func TestProcessRequest(t *testing.T) {
	p := seeded(t)
	ctx := context.Background()

	out, err := p.ProcessRequest(ctx, []byte(`{"query":"team_stats","requestId":"r1","args":{"season":"2023-2024","limit":2}}`))
	require.NoError(t, err)
	var resp struct {
		RequestID string                 `json:"requestId"`
		Result    hockey.TeamStatsResult `json:"result"`
		Error     *ErrorResponse         `json:"error"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "r1", resp.RequestID)
	assert.Nil(t, resp.Error)
	assert.Len(t, resp.Result.Teams, 2)

	for input, code := range map[string]string{
		`not json`:                                                    CodeInvalidRequest,
		`{"query":"nope"}`:                                            CodeInvalidRequest,
		`{"query":"head_to_head","args":{"team_a":"TOR"}}`:            CodeValidation,
		`{"query":"head_to_head","args":{"team_a":"TOR","team_b":1}}`: CodeInvalidRequest,
		`{"query":"two_plus_games","args":{"team_code":"BOS"}}`:       CodeEmptyResult,
	} {
		out, err := p.ProcessRequest(ctx, []byte(input))
		require.NoError(t, err)
		var r Response
		require.NoError(t, json.Unmarshal(out, &r))
		require.NotNil(t, r.Error, input)
		assert.Equal(t, code, r.Error.Code, input)
	}
}

func TestProcessRequestRejectsUnknownArgs(t *testing.T) {
	p := seeded(t)
	ctx := context.Background()

	for _, input := range []string{
		`{"query":"team_stats","args":{"teem_code":"TOR","seasn":"1900-1901"}}`,
		`{"query":"head_to_head","args":{"team_a":"TOR","team_b":"MTL","seasons":"2023-2024"}}`,
		`{"query":"data_health","args":{"season":"2023-2024","verbose":true}}`,
	} {
		out, err := p.ProcessRequest(ctx, []byte(input))
		require.NoError(t, err)
		var r Response
		require.NoError(t, json.Unmarshal(out, &r))
		require.NotNil(t, r.Error, input)
		assert.Equal(t, CodeInvalidRequest, r.Error.Code, input)
		assert.Contains(t, r.Error.Message, "unknown field", input)
		assert.Nil(t, r.Result, input)
	}
}
