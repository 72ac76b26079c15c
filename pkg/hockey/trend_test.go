package hockey

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monthlyDates = []string{"2023-10-15", "2023-11-15", "2023-12-15", "2024-01-15", "2024-02-15", "2024-03-15"}

// monthlyGoals plays one AAA home win per month, scoring the given goals in the first period
func monthlyGoals(t *testing.T, goals ...int) *corpus {
	c := &corpus{}
	for i, n := range goals {
		c.play(t, fmt.Sprintf("g%d", i), monthlyDates[i], "AAA", "BBB", score{n, 0}, score{0, 0}, score{0, 0})
	}
	return c
}

func goalsTrend(t *testing.T, c *corpus) TrendResult {
	t.Helper()
	res, err := AnalyzeTrend(TrendConfig{TeamCode: "AAA", Metric: MetricGoalsPerGame, Window: WindowMonthly}, c.games, c.rows)
	require.NoError(t, err)
	return res
}

func TestAnalyzeTrendImproving(t *testing.T) {
	res := goalsTrend(t, monthlyGoals(t, 1, 2, 3, 4, 5, 6))

	require.Len(t, res.Windows, 6)
	assert.Equal(t, "2023-10", res.Windows[0].Label)
	assert.Equal(t, 2.0, res.FirstMean)
	assert.Equal(t, 5.0, res.LastMean)
	assert.Equal(t, 150.0, res.ChangePct)
	assert.Equal(t, Improving, res.Direction)
	assert.Equal(t, "2024-03", res.Best.Label)
	assert.Equal(t, "2023-10", res.Worst.Label)
	assert.Equal(t, 100.0, res.Windows[0].WinPct)
}

func TestAnalyzeTrendDeclining(t *testing.T) {
	res := goalsTrend(t, monthlyGoals(t, 6, 5, 4, 3, 2, 1))
	assert.Equal(t, Declining, res.Direction)
	assert.Equal(t, -60.0, res.ChangePct)
}

func TestAnalyzeTrendStableInsideDeadband(t *testing.T) {
	res := goalsTrend(t, monthlyGoals(t, 10, 10, 10, 11, 11, 10))
	assert.Equal(t, Stable, res.Direction)
	assert.Equal(t, 6.67, res.ChangePct)
	assert.Equal(t, "2024-01", res.Best.Label, "earliest window wins a tie")
}

func TestAnalyzeTrendExactlyAtDeadbandIsStable(t *testing.T) {
	// 10/3 to 11/3 is exactly +10%, the rounded means would suggest 10.21%
	res := goalsTrend(t, monthlyGoals(t, 3, 3, 4, 4, 4, 3))
	assert.Equal(t, 3.33, res.FirstMean)
	assert.Equal(t, 3.67, res.LastMean)
	assert.Equal(t, 10.0, res.ChangePct)
	assert.Equal(t, Stable, res.Direction)

	res = goalsTrend(t, monthlyGoals(t, 4, 4, 3, 3, 3, 4))
	assert.Equal(t, -9.09, res.ChangePct)
	assert.Equal(t, Stable, res.Direction)

	res = goalsTrend(t, monthlyGoals(t, 3, 3, 4, 4, 4, 4))
	assert.Equal(t, Improving, res.Direction)
}

func TestAnalyzeTrendFromZero(t *testing.T) {
	c := &corpus{}
	for i, d := range monthlyDates {
		if i < 3 {
			c.play(t, fmt.Sprintf("g%d", i), d, "AAA", "BBB", score{1, 0}, score{0, 0}, score{0, 0})
		} else {
			c.play(t, fmt.Sprintf("g%d", i), d, "AAA", "BBB", score{1, 0}, score{1, 0}, score{0, 0})
		}
	}
	res, err := AnalyzeTrend(TrendConfig{TeamCode: "AAA", Metric: MetricGoodWins, Window: WindowMonthly}, c.games, c.rows)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.FirstMean)
	assert.Equal(t, 100.0, res.ChangePct)
	assert.Equal(t, Improving, res.Direction)
}

func TestAnalyzeTrendRollingWindows(t *testing.T) {
	start := time.Date(2023, 10, 10, 0, 0, 0, 0, time.UTC)
	c := &corpus{}
	for i := 0; i < 12; i++ {
		day := start.AddDate(0, 0, 2*i).Format(DateLayout)
		c.play(t, fmt.Sprintf("g%02d", i), day, "AAA", "BBB", score{1, 0}, score{0, 0}, score{0, 0})
	}
	cfg := TrendConfig{TeamCode: "AAA", Metric: MetricWinPct, Window: WindowRolling10}

	res, err := AnalyzeTrend(cfg, c.games, c.rows)
	require.NoError(t, err)
	require.Len(t, res.Windows, 3)
	assert.Equal(t, "games 3-12", res.Windows[2].Label)
	assert.Equal(t, 10, res.Windows[2].Games)
	assert.Equal(t, Stable, res.Direction)

	res, err = AnalyzeTrend(cfg, c.games[:5], c.rows)
	require.NoError(t, err)
	require.Len(t, res.Windows, 1)
	assert.Equal(t, "games 1-5", res.Windows[0].Label)
}

func TestAnalyzeTrendWeeklyLabels(t *testing.T) {
	c := &corpus{}
	c.play(t, "g1", "2024-01-29", "AAA", "BBB", score{1, 0}, score{0, 0}, score{0, 0})
	c.play(t, "g2", "2024-02-04", "BBB", "AAA", score{1, 0}, score{0, 0}, score{0, 0})
	c.play(t, "g3", "2024-02-05", "AAA", "BBB", score{1, 0}, score{0, 0}, score{0, 0})

	res, err := AnalyzeTrend(TrendConfig{TeamCode: "AAA", Metric: MetricWinPct, Window: WindowWeekly}, c.games, c.rows)
	require.NoError(t, err)
	require.Len(t, res.Windows, 2)
	assert.Equal(t, "2024-W05", res.Windows[0].Label)
	assert.Equal(t, 2, res.Windows[0].Games)
	assert.Equal(t, 50.0, res.Windows[0].WinPct)
	assert.Equal(t, "2024-W06", res.Windows[1].Label)
}

func TestAnalyzeTrendErrors(t *testing.T) {
	_, err := AnalyzeTrend(TrendConfig{TeamCode: "AAA", Metric: "shots", Window: "yearly"}, nil, nil)
	assert.ElementsMatch(t, []string{"metric", "window"}, fields(err))

	_, err = AnalyzeTrend(TrendConfig{TeamCode: "AAA", Metric: MetricWinPct, Window: WindowMonthly}, nil, nil)
	var empty *EmptyResultError
	assert.True(t, errors.As(err, &empty))
}
