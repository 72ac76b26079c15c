package hockey

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/richard-senior/hockey/internal/logger"
	"github.com/shopspring/decimal"
)

type TrendMetric string

const (
	MetricPeriodsWon   TrendMetric = "periods_won"
	MetricGoodWins     TrendMetric = "good_wins"
	MetricWinPct       TrendMetric = "win_pct"
	MetricGoalsPerGame TrendMetric = "goals_per_game"
	MetricPeriodWinPct TrendMetric = "period_win_pct"
)

type TrendWindow string

const (
	WindowWeekly    TrendWindow = "weekly"
	WindowMonthly   TrendWindow = "monthly"
	WindowRolling10 TrendWindow = "rolling10"
)

type TrendDirection string

const (
	Improving TrendDirection = "improving"
	Stable    TrendDirection = "stable"
	Declining TrendDirection = "declining"
)

const (
	rollingSize      = 10
	trendEdgeWindows = 3
	trendDeadband    = 10.0 // percent
)

// TrendConfig selects the team, metric and windowing of a trend
type TrendConfig struct {
	TeamCode string      `json:"team_code"`
	Metric   TrendMetric `json:"metric"`
	Window   TrendWindow `json:"window"`
	Season   string      `json:"season,omitempty"`
}

func (c TrendConfig) Validate() error {
	verr := &ValidationError{}
	if !ValidTeamCode(c.TeamCode) {
		verr.add("team_code", "3 uppercase letters", quote(c.TeamCode))
	}
	switch c.Metric {
	case MetricPeriodsWon, MetricGoodWins, MetricWinPct, MetricGoalsPerGame, MetricPeriodWinPct:
	default:
		verr.add("metric", "periods_won, good_wins, win_pct, goals_per_game or period_win_pct", quote(string(c.Metric)))
	}
	switch c.Window {
	case WindowWeekly, WindowMonthly, WindowRolling10:
	default:
		verr.add("window", "weekly, monthly or rolling10", quote(string(c.Window)))
	}
	if c.Season != "" {
		if _, err := GetFirstYear(c.Season); err != nil {
			verr.add("season", "YYYY-YYYY with consecutive years", quote(c.Season))
		}
	}
	if len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

// WindowStats is the full stat bundle of one window
type WindowStats struct {
	Label          string  `json:"label"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Games          int     `json:"games"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	OvertimeLosses int     `json:"overtime_losses"`
	GoodWins       int     `json:"good_wins"`
	BadWins        int     `json:"bad_wins"`
	PeriodsWon     int     `json:"periods_won"`
	PeriodWinPct   float64 `json:"period_win_pct"`
	WinPct         float64 `json:"win_pct"`
	GoalsPerGame   float64 `json:"goals_per_game"`
	Value          float64 `json:"value"`
}

// TrendResult is the windowed series and its classification
type TrendResult struct {
	Config    TrendConfig              `json:"config"`
	Windows   []WindowStats            `json:"windows"`
	FirstMean float64                  `json:"first_mean"`
	LastMean  float64                  `json:"last_mean"`
	ChangePct float64                  `json:"change_pct"`
	Direction TrendDirection           `json:"direction"`
	Best      WindowStats              `json:"best"`
	Worst     WindowStats              `json:"worst"`
	Excluded  []DataInconsistencyError `json:"excluded,omitempty"`
}

type datedResult struct {
	date time.Time
	game Game
	res  gameResult
}

// AnalyzeTrend windows one team's games chronologically and classifies the direction of
// the selected metric by comparing the mean of the last three windows to the first three.
func AnalyzeTrend(cfg TrendConfig, games []Game, rows []PeriodResult) (TrendResult, error) {
	if err := cfg.Validate(); err != nil {
		return TrendResult{}, err
	}
	out := TrendResult{Config: cfg}

	teamGames := map[string]Game{}
	for _, g := range games {
		if g.Involves(cfg.TeamCode) && (cfg.Season == "" || IsSameSeason(g.Season, cfg.Season)) {
			teamGames[g.ID] = g
		}
	}
	grouped := groupByGameAndTeam(teamGames, rows)

	var series []datedResult
	for id, g := range teamGames {
		day, err := g.Day()
		if err != nil {
			out.Excluded = append(out.Excluded, DataInconsistencyError{GameID: id, TeamCode: cfg.TeamCode, Reason: "unparseable date " + g.Date})
			continue
		}
		res, err := resolveGame(id, cfg.TeamCode, grouped[id][cfg.TeamCode])
		if err != nil {
			logger.Warn("excluding game from trend:", err)
			var die *DataInconsistencyError
			if errors.As(err, &die) {
				out.Excluded = append(out.Excluded, *die)
			}
			continue
		}
		series = append(series, datedResult{date: day, game: g, res: res})
	}
	if len(series) == 0 {
		return out, &EmptyResultError{What: "games", Scope: fmt.Sprintf("trend for %s %s", cfg.TeamCode, cfg.Season)}
	}
	sort.Slice(series, func(i, j int) bool {
		if !series[i].date.Equal(series[j].date) {
			return series[i].date.Before(series[j].date)
		}
		return series[i].game.ID < series[j].game.ID
	})

	for _, w := range partition(series, cfg.Window) {
		out.Windows = append(out.Windows, windowStats(w.label, w.games, cfg.Metric))
	}

	out.FirstMean, out.LastMean, out.ChangePct, out.Direction = classify(out.Windows)
	out.Best, out.Worst = extremes(out.Windows)
	return out, nil
}

type window struct {
	label string
	games []datedResult
}

func partition(series []datedResult, mode TrendWindow) []window {
	if mode == WindowRolling10 {
		if len(series) < rollingSize {
			return []window{{label: fmt.Sprintf("games 1-%d", len(series)), games: series}}
		}
		out := make([]window, 0, len(series)-rollingSize+1)
		for i := 0; i+rollingSize <= len(series); i++ {
			out = append(out, window{
				label: fmt.Sprintf("games %d-%d", i+1, i+rollingSize),
				games: series[i : i+rollingSize],
			})
		}
		return out
	}

	var out []window
	for _, d := range series {
		var label string
		if mode == WindowWeekly {
			y, w := d.date.ISOWeek()
			label = fmt.Sprintf("%d-W%02d", y, w)
		} else {
			label = d.date.Format("2006-01")
		}
		if n := len(out); n > 0 && out[n-1].label == label {
			out[n-1].games = append(out[n-1].games, d)
			continue
		}
		out = append(out, window{label: label, games: []datedResult{d}})
	}
	return out
}

func windowStats(label string, games []datedResult, metric TrendMetric) WindowStats {
	ws := WindowStats{
		Label: label,
		Start: games[0].game.Date,
		End:   games[len(games)-1].game.Date,
		Games: len(games),
	}
	goals, regPeriods := 0, 0
	for _, d := range games {
		r := d.res
		switch {
		case r.Won:
			ws.Wins++
			if r.TwoPlus {
				ws.GoodWins++
			} else {
				ws.BadWins++
			}
		case r.ExtraTime:
			ws.OvertimeLosses++
		default:
			ws.Losses++
		}
		ws.PeriodsWon += r.RegPeriodsWon
		regPeriods += r.RegPeriodsWon + r.RegPeriodsLost + r.RegPeriodsTied
		goals += r.GoalsFor
	}
	ws.WinPct = percent(ws.Wins, ws.Games)
	ws.PeriodWinPct = percent(ws.PeriodsWon, regPeriods)
	ws.GoalsPerGame = ratio(goals, ws.Games)

	switch metric {
	case MetricPeriodsWon:
		ws.Value = float64(ws.PeriodsWon)
	case MetricGoodWins:
		ws.Value = float64(ws.GoodWins)
	case MetricWinPct:
		ws.Value = ws.WinPct
	case MetricGoalsPerGame:
		ws.Value = ws.GoalsPerGame
	case MetricPeriodWinPct:
		ws.Value = ws.PeriodWinPct
	}
	return ws
}

// classify compares the mean of the first and last windows. The deadband test is made on
// the unrounded window sums so that a change of exactly 10% stays stable.
func classify(windows []WindowStats) (float64, float64, float64, TrendDirection) {
	n := min(trendEdgeWindows, len(windows))
	firstSum := sum(windows[:n])
	lastSum := sum(windows[len(windows)-n:])
	first := round2(firstSum / float64(n))
	last := round2(lastSum / float64(n))

	if firstSum == 0 {
		if lastSum > 0 {
			return first, last, 100, Improving
		}
		return first, last, 0, Stable
	}
	change := round2((lastSum - firstSum) / abs64(firstSum) * 100)
	delta := decimal.NewFromFloat(lastSum).Sub(decimal.NewFromFloat(firstSum)).Mul(decimal.NewFromInt(100))
	band := decimal.NewFromFloat(trendDeadband).Mul(decimal.NewFromFloat(abs64(firstSum)))
	switch {
	case delta.GreaterThan(band):
		return first, last, change, Improving
	case delta.LessThan(band.Neg()):
		return first, last, change, Declining
	}
	return first, last, change, Stable
}

func extremes(windows []WindowStats) (WindowStats, WindowStats) {
	best, worst := windows[0], windows[0]
	for _, w := range windows[1:] {
		if w.Value > best.Value {
			best = w
		}
		if w.Value < worst.Value {
			worst = w
		}
	}
	return best, worst
}

func sum(windows []WindowStats) float64 {
	total := 0.0
	for _, w := range windows {
		total += w.Value
	}
	return total
}

func abs64(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
