package feed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/richard-senior/hockey/pkg/hockey"
	"github.com/richard-senior/hockey/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const landingDoc = `{
  "id": 2023030111,
  "season": 20232024,
  "gameType": 3,
  "gameDate": "2024-04-20",
  "gameState": "OFF",
  "homeTeam": {"abbrev": "BOS", "name": {"default": "Bruins"}},
  "awayTeam": {"abbrev": "TOR", "name": {"default": "Maple Leafs"}},
  "summary": {
    "linescore": {
      "byPeriod": [
        {"periodDescriptor": {"number": 1, "periodType": "REG"}, "home": 1, "away": 0},
        {"periodDescriptor": {"number": 2, "periodType": "REG"}, "home": 0, "away": 1},
        {"periodDescriptor": {"number": 3, "periodType": "REG"}, "home": 2, "away": 2},
        {"periodDescriptor": {"number": 4, "periodType": "OT"}, "home": 0, "away": 0},
        {"periodDescriptor": {"number": 5, "periodType": "OT"}, "home": 1, "away": 0}
      ]
    },
    "scoring": [
      {"periodDescriptor": {"number": 3, "periodType": "REG"}, "goals": [
        {"teamAbbrev": {"default": "TOR"}, "goalModifier": "none"},
        {"teamAbbrev": {"default": "BOS"}, "goalModifier": "empty-net"}
      ]}
    ]
  }
}`

// fakeGetter answers each url with queued results, then keeps repeating the last one
type fakeGetter struct {
	results map[string][]result
	calls   map[string]int
}

type result struct {
	data string
	err  error
}

func newFake() *fakeGetter {
	return &fakeGetter{results: map[string][]result{}, calls: map[string]int{}}
}

func (f *fakeGetter) on(url string, rs ...result) {
	f.results[url] = rs
}

func (f *fakeGetter) Get(_ context.Context, url, _ string) ([]byte, error) {
	rs := f.results[url]
	f.calls[url]++
	if len(rs) == 0 {
		return nil, &transport.StatusError{URL: url, Code: 404}
	}
	i := min(f.calls[url]-1, len(rs)-1)
	if rs[i].err != nil {
		return nil, rs[i].err
	}
	return []byte(rs[i].data), nil
}

func testClient(g Getter, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://feed.test/v1/"
	}
	c := NewClient(g, opts)
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

const landingURL = "https://feed.test/v1/gamecenter/2023030111/landing"

func TestParseLandingFoldsOvertimes(t *testing.T) {
	raw, err := ParseLanding([]byte(landingDoc))
	require.NoError(t, err)

	assert.Equal(t, "2023030111", raw.ID)
	assert.Equal(t, "2023-2024", raw.Season)
	assert.Equal(t, hockey.Playoff, raw.GameType)
	assert.Equal(t, "BOS", raw.HomeTeam)
	assert.Equal(t, "TOR", raw.AwayTeam)
	require.Len(t, raw.Periods, 4)
	assert.Equal(t, hockey.RawPeriod{Number: 4, Type: "OT", HomeGoals: 1, AwayGoals: 0}, raw.Periods[3])
	assert.Equal(t, []hockey.RawEmptyNetGoal{{Period: 3, TeamCode: "BOS"}}, raw.EmptyNetGoals)

	_, rows, err := hockey.TransformGame(raw)
	require.NoError(t, err)
	assert.Len(t, rows, 8)
}

func TestModelPeriodTrustsTheNumber(t *testing.T) {
	tests := []struct {
		desc periodDescriptor
		want int
	}{
		{periodDescriptor{Number: 2, PeriodType: "REG"}, 2},
		{periodDescriptor{Number: 2, PeriodType: "OT"}, 2},
		{periodDescriptor{Number: 3, PeriodType: "SO"}, 3},
		{periodDescriptor{Number: 4, PeriodType: "OT"}, hockey.OvertimePeriod},
		{periodDescriptor{Number: 6, PeriodType: "OT"}, hockey.OvertimePeriod},
		{periodDescriptor{Number: 4, PeriodType: "REG"}, hockey.OvertimePeriod},
		{periodDescriptor{Number: 5, PeriodType: "SO"}, hockey.ShootoutPeriod},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, modelPeriod(tt.desc), "%+v", tt.desc)
	}

	doc := strings.Replace(landingDoc, `{"number": 2, "periodType": "REG"}, "home": 0`, `{"number": 2, "periodType": "OT"}, "home": 0`, 1)
	raw, err := ParseLanding([]byte(doc))
	require.NoError(t, err)
	require.Len(t, raw.Periods, 4)
	assert.Equal(t, hockey.RawPeriod{Number: 2, Type: string(hockey.Regulation), HomeGoals: 0, AwayGoals: 1}, raw.Periods[1])
}

func TestParseLandingRejectsLiveGame(t *testing.T) {
	doc := strings.Replace(landingDoc, `"OFF"`, `"LIVE"`, 1)
	_, err := ParseLanding([]byte(doc))
	assert.ErrorIs(t, err, ErrGameNotFinal)
}

func TestFetchGameRetriesTemporaryErrors(t *testing.T) {
	g := newFake()
	g.on(landingURL,
		result{err: &transport.StatusError{Code: 502}},
		result{err: errors.New("connection reset")},
		result{data: landingDoc},
	)

	raw, err := testClient(g, Options{Retries: 4}).FetchGame(context.Background(), "2023030111")
	require.NoError(t, err)
	assert.Equal(t, "BOS", raw.HomeTeam)
	assert.Equal(t, 3, g.calls[landingURL])
}

func TestFetchGameGivesUp(t *testing.T) {
	g := newFake()
	g.on(landingURL, result{err: &transport.StatusError{Code: 503}})
	_, err := testClient(g, Options{Retries: 3}).FetchGame(context.Background(), "2023030111")
	require.Error(t, err)
	assert.Equal(t, 3, g.calls[landingURL])

	g = newFake()
	_, err = testClient(g, Options{Retries: 3}).FetchGame(context.Background(), "2023030111")
	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 404, se.Code)
	assert.Equal(t, 1, g.calls[landingURL], "client errors are not retried")

	_, err = testClient(g, Options{}).FetchGame(context.Background(), "12ab")
	assert.ErrorContains(t, err, "invalid game id")
}

func TestFetchGameUsesCache(t *testing.T) {
	dir := t.TempDir()
	g := newFake()
	g.on(landingURL, result{data: landingDoc})
	c := testClient(g, Options{CacheDir: dir})

	_, err := c.FetchGame(context.Background(), "2023030111")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "nhl-game-2023030111.json"))

	raw, err := c.FetchGame(context.Background(), "2023030111")
	require.NoError(t, err)
	assert.Equal(t, "2023030111", raw.ID)
	assert.Equal(t, 1, g.calls[landingURL])
}

func TestFetchGameDoesNotCacheLiveGames(t *testing.T) {
	dir := t.TempDir()
	g := newFake()
	g.on(landingURL, result{data: strings.Replace(landingDoc, `"OFF"`, `"LIVE"`, 1)})

	_, err := testClient(g, Options{CacheDir: dir}).FetchGame(context.Background(), "2023030111")
	assert.ErrorIs(t, err, ErrGameNotFinal)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchGameAddsRecap(t *testing.T) {
	g := newFake()
	g.on(landingURL, result{data: landingDoc})
	g.on("https://news.test/recap/2023030111", result{data: `<html><body><nav>menu</nav><article><h1>Bruins win in double overtime</h1><p>A <b>long</b> night.</p></article></body></html>`})

	raw, err := testClient(g, Options{RecapURL: "https://news.test/recap/%s"}).FetchGame(context.Background(), "2023030111")
	require.NoError(t, err)
	assert.Contains(t, raw.Notes, "# Bruins win in double overtime")
	assert.Contains(t, raw.Notes, "**long**")
	assert.NotContains(t, raw.Notes, "menu")
}

func TestFetchGameIgnoresMissingRecap(t *testing.T) {
	g := newFake()
	g.on(landingURL, result{data: landingDoc})

	raw, err := testClient(g, Options{RecapURL: "https://news.test/recap/%s"}).FetchGame(context.Background(), "2023030111")
	require.NoError(t, err)
	assert.Empty(t, raw.Notes)
}

func TestReadRawGames(t *testing.T) {
	games, err := ReadRawGames(strings.NewReader(`[{"id":"g1","date":"2023-10-10","season":"2023-2024","home_team":"TOR","away_team":"MTL","periods":[{"number":1,"home_goals":1,"away_goals":0}]}]`))
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 1, games[0].Periods[0].HomeGoals)

	_, err = ReadRawGames(strings.NewReader(`[{"id":"g1","home":"TOR"}]`))
	assert.Error(t, err)
}

func TestResolveTeamCode(t *testing.T) {
	for in, want := range map[string]string{
		"TOR":                 "TOR",
		"tor":                 "TOR",
		"Montreal Canadiens":  "MTL",
		"Montréal  Canadiens": "MTL",
		"maple leafs":         "TOR",
		"Golden Knights":      "VGK",
		"NJ":                  "NJD",
		"Blues":               "STL",
	} {
		got, ok := ResolveTeamCode(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ResolveTeamCode("Hartford Whalers")
	assert.False(t, ok)
	assert.Len(t, Teams(), 32)
}
