package hockey

import (
	"errors"
	"fmt"
	"sort"

	"github.com/richard-senior/hockey/internal/logger"
)

const (
	Even = "EVEN"
	Tied = "TIED"
)

// HeadToHeadTeam is one side of a series
type HeadToHeadTeam struct {
	TeamCode       string      `json:"team_code"`
	Wins           int         `json:"wins"`
	Losses         int         `json:"losses"`
	OvertimeLosses int         `json:"overtime_losses"`
	GoodWins       int         `json:"good_wins"`
	BadWins        int         `json:"bad_wins"`
	PeriodWins     map[int]int `json:"period_wins"`
	PeriodsWon     int         `json:"periods_won"`
	GoalsFor       int         `json:"goals_for"`
}

// HeadToHeadGame is one meeting in the series
type HeadToHeadGame struct {
	GameID    string `json:"game_id"`
	Date      string `json:"date"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	Winner    string `json:"winner"`
	ExtraTime bool   `json:"extra_time"`
	GoodWin   bool   `json:"good_win"`
}

// HeadToHeadResult compares two teams over the games they played against each other
type HeadToHeadResult struct {
	Season            string                   `json:"season,omitempty"`
	GamesPlayed       int                      `json:"games_played"`
	TeamA             HeadToHeadTeam           `json:"team_a"`
	TeamB             HeadToHeadTeam           `json:"team_b"`
	PeriodDominance   map[int]string           `json:"period_dominance"`
	SeriesLeader      string                   `json:"series_leader"`
	PeriodLeader      string                   `json:"period_leader"`
	BetterQualityWins string                   `json:"better_quality_wins"`
	Games             []HeadToHeadGame         `json:"games"`
	Excluded          []DataInconsistencyError `json:"excluded,omitempty"`
}

// HeadToHeadQuery names the two teams and an optional season
type HeadToHeadQuery struct {
	TeamA  string `json:"team_a"`
	TeamB  string `json:"team_b"`
	Season string `json:"season,omitempty"`
}

func (q HeadToHeadQuery) Validate() error {
	verr := &ValidationError{}
	if !ValidTeamCode(q.TeamA) {
		verr.add("team_a", "3 uppercase letters", quote(q.TeamA))
	}
	if !ValidTeamCode(q.TeamB) {
		verr.add("team_b", "3 uppercase letters", quote(q.TeamB))
	}
	if q.TeamA == q.TeamB {
		verr.add("team_b", "a team different from team_a", quote(q.TeamB))
	}
	if q.Season != "" {
		if _, err := GetFirstYear(q.Season); err != nil {
			verr.add("season", "YYYY-YYYY with consecutive years", quote(q.Season))
		}
	}
	if len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

// HeadToHead compares two teams over every game they played against each other. The
// winner of each game is decided the same way as in AggregateTeamStats, counting
// overtime and shootout.
func HeadToHead(q HeadToHeadQuery, games []Game, rows []PeriodResult) (HeadToHeadResult, error) {
	if err := q.Validate(); err != nil {
		return HeadToHeadResult{}, err
	}

	meetings := map[string]Game{}
	for _, g := range games {
		if q.Season != "" && !IsSameSeason(g.Season, q.Season) {
			continue
		}
		if g.Involves(q.TeamA) && g.Involves(q.TeamB) {
			meetings[g.ID] = g
		}
	}
	if len(meetings) == 0 {
		return HeadToHeadResult{}, &EmptyResultError{What: "head-to-head games", Scope: fmt.Sprintf("%s vs %s %s", q.TeamA, q.TeamB, q.Season)}
	}

	res := HeadToHeadResult{
		Season:          q.Season,
		TeamA:           HeadToHeadTeam{TeamCode: q.TeamA, PeriodWins: map[int]int{1: 0, 2: 0, 3: 0}},
		TeamB:           HeadToHeadTeam{TeamCode: q.TeamB, PeriodWins: map[int]int{1: 0, 2: 0, 3: 0}},
		PeriodDominance: map[int]string{},
	}

	grouped := groupByGameAndTeam(meetings, rows)
	ordered := make([]Game, 0, len(meetings))
	for _, g := range meetings {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Date != ordered[j].Date {
			return ordered[i].Date < ordered[j].Date
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, g := range ordered {
		a, errA := resolveGame(g.ID, q.TeamA, grouped[g.ID][q.TeamA])
		b, errB := resolveGame(g.ID, q.TeamB, grouped[g.ID][q.TeamB])
		if err := errors.Join(errA, errB); err != nil || a.Won == b.Won {
			if err == nil {
				err = &DataInconsistencyError{GameID: g.ID, Reason: "both sides resolve to the same result"}
			}
			logger.Warn("excluding game from head-to-head:", err)
			res.Excluded = append(res.Excluded, inconsistencies(err)...)
			continue
		}

		res.GamesPlayed++
		res.TeamA.record(a)
		res.TeamB.record(b)

		meeting := HeadToHeadGame{GameID: g.ID, Date: g.Date, HomeTeam: g.HomeTeamCode, AwayTeam: g.AwayTeamCode, ExtraTime: a.ExtraTime}
		if a.Won {
			meeting.Winner, meeting.GoodWin = q.TeamA, a.TwoPlus
		} else {
			meeting.Winner, meeting.GoodWin = q.TeamB, b.TwoPlus
		}
		res.Games = append(res.Games, meeting)
	}

	if res.GamesPlayed == 0 {
		return res, &EmptyResultError{What: "consistent head-to-head games", Scope: fmt.Sprintf("%s vs %s %s", q.TeamA, q.TeamB, q.Season)}
	}

	for p := FirstPeriod; p <= LastRegulation; p++ {
		res.PeriodDominance[p] = leader(q.TeamA, res.TeamA.PeriodWins[p], q.TeamB, res.TeamB.PeriodWins[p], Even)
	}
	res.SeriesLeader = leader(q.TeamA, res.TeamA.Wins, q.TeamB, res.TeamB.Wins, Tied)
	res.PeriodLeader = leader(q.TeamA, res.TeamA.PeriodsWon, q.TeamB, res.TeamB.PeriodsWon, Tied)
	res.BetterQualityWins = leader(q.TeamA, res.TeamA.GoodWins, q.TeamB, res.TeamB.GoodWins, Tied)
	return res, nil
}

func (t *HeadToHeadTeam) record(g gameResult) {
	switch {
	case g.Won && g.TwoPlus:
		t.Wins++
		t.GoodWins++
	case g.Won:
		t.Wins++
		t.BadWins++
	case g.ExtraTime:
		t.OvertimeLosses++
	default:
		t.Losses++
	}
	for i, o := range g.Regulation {
		if o == Win {
			t.PeriodWins[i+1]++
			t.PeriodsWon++
		}
	}
	t.GoalsFor += g.GoalsFor
}

func leader(a string, av int, b string, bv int, level string) string {
	switch {
	case av > bv:
		return a
	case bv > av:
		return b
	}
	return level
}

// inconsistencies flattens a possibly joined error into its DataInconsistencyErrors
func inconsistencies(err error) []DataInconsistencyError {
	var out []DataInconsistencyError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, inconsistencies(e)...)
		}
		return out
	}
	var die *DataInconsistencyError
	if errors.As(err, &die) {
		out = append(out, *die)
	}
	return out
}
