package hockey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeason(t *testing.T) {
	first, second, err := ParseSeason("2023-2024")
	require.NoError(t, err)
	assert.Equal(t, 2023, first)
	assert.Equal(t, 2024, second)

	for _, bad := range []string{"", "2023", "2023-2025", "2024-2023", "2023/2024", "23-24"} {
		_, _, err := ParseSeason(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormaliseSeason(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2023-2024", "2023-2024"},
		{"2023/2024", "2023-2024"},
		{"20232024", "2023-2024"},
		{"2023-24", "2023-2024"},
		{" 2023/24 ", "2023-2024"},
		{"1999-00", "1999-2000"},
		{"2099/00", "2099-2100"},
		{"2023-25", "2023-25"},
		{"abcd-ef", "abcd-ef"},
		{"2023", "2023"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormaliseSeason(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}

	_, _, err := ParseSeason(NormaliseSeason("1999-00"))
	assert.NoError(t, err)
}

func TestSeasonSpellingsMatch(t *testing.T) {
	first, err := GetFirstYear("1999-00")
	require.NoError(t, err)
	assert.Equal(t, 1999, first)
	_, err = GetFirstYear("2023")
	assert.Error(t, err)

	assert.True(t, IsSameSeason("2023-2024", "2023/24"))
	assert.True(t, IsSameSeason("20232024", "2023-24"))
	assert.False(t, IsSameSeason("2023-2024", "2024-2025"))
	assert.False(t, IsSameSeason("2023-2024", "junk"))

	g := Game{ID: "g1", Date: "2023-10-10", Season: "2023-2024"}
	assert.True(t, Scope{Season: "2023/24"}.MatchesGame(g))
	assert.False(t, Scope{Season: "2022-23"}.MatchesGame(g))
	assert.NoError(t, Scope{Season: "2023/24"}.Validate())
}

func TestShortSeasonFiltersHeadToHeadAndTrend(t *testing.T) {
	c := &corpus{}
	c.play(t, "g1", "2023-10-10", "AAA", "BBB", score{1, 0}, score{1, 0}, score{0, 1})

	res, err := HeadToHead(HeadToHeadQuery{TeamA: "AAA", TeamB: "BBB", Season: "2023-24"}, c.games, c.rows)
	require.NoError(t, err)
	assert.Equal(t, "AAA", res.SeriesLeader)

	trend, err := AnalyzeTrend(TrendConfig{TeamCode: "AAA", Metric: MetricWinPct, Window: WindowMonthly, Season: "2023/24"}, c.games, c.rows)
	require.NoError(t, err)
	assert.Len(t, trend.Windows, 1)

	rep := CheckHealth(testTeams("AAA", "BBB"), c.games, c.rows, "2023/24")
	assert.Equal(t, 1, rep.TotalGames)
}
