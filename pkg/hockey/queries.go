package hockey

import (
	"fmt"
	"sort"
)

// PeriodRankingQuery counts one period outcome per team inside a date range
type PeriodRankingQuery struct {
	Outcome        Outcome `json:"outcome"`
	From           string  `json:"from,omitempty"`
	To             string  `json:"to,omitempty"`
	RegulationOnly bool    `json:"regulation_only,omitempty"`
}

func (q PeriodRankingQuery) Validate() error {
	verr := &ValidationError{}
	switch q.Outcome {
	case Win, Loss, Tie:
	default:
		verr.add("outcome", "WIN, LOSS or TIE", quote(string(q.Outcome)))
	}
	if err := (Scope{From: q.From, To: q.To}).Validate(); err != nil {
		verr.Violations = append(verr.Violations, err.(*ValidationError).Violations...)
	}
	if len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

// PeriodRanking is one team's count of the requested outcome
type PeriodRanking struct {
	Rank     int    `json:"rank"`
	TeamCode string `json:"team_code"`
	Count    int    `json:"count"`
}

// PeriodWinRankings counts rows with the requested outcome per team, highest first and
// alphabetical by code on equal counts.
func PeriodWinRankings(q PeriodRankingQuery, games []Game, rows []PeriodResult) ([]PeriodRanking, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	scope := Scope{From: q.From, To: q.To}
	inRange := map[string]bool{}
	for _, g := range games {
		if scope.InDateRange(g.Date) {
			inRange[g.ID] = true
		}
	}

	counts := map[string]int{}
	for _, r := range rows {
		if !inRange[r.GameID] || r.PeriodOutcome != q.Outcome {
			continue
		}
		if q.RegulationOnly && !r.IsRegulation() {
			continue
		}
		counts[r.TeamCode]++
	}
	if len(counts) == 0 {
		return nil, &EmptyResultError{What: "period " + string(q.Outcome) + " rows", Scope: scope.String()}
	}

	out := make([]PeriodRanking, 0, len(counts))
	for code, n := range counts {
		out = append(out, PeriodRanking{TeamCode: code, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].TeamCode < out[j].TeamCode
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// TwoPlusGame is a game in which the team won at least two regulation periods
type TwoPlusGame struct {
	GameID               string `json:"game_id"`
	Date                 string `json:"date"`
	Season               string `json:"season"`
	Opponent             string `json:"opponent"`
	Home                 bool   `json:"home"`
	RegulationPeriodsWon int    `json:"regulation_periods_won"`
	GoalsFor             int    `json:"goals_for"`
	GoalsAgainst         int    `json:"goals_against"`
	Result               string `json:"result,omitempty"`
}

// TwoPlusGames lists one team's games carrying the two-plus flag, most recent first
func TwoPlusGames(team string, games []Game, rows []PeriodResult) ([]TwoPlusGame, error) {
	if !ValidTeamCode(team) {
		return nil, &ValidationError{Violations: []Violation{{Field: "team_code", Expected: "3 uppercase letters", Actual: quote(team)}}}
	}
	teamGames := map[string]Game{}
	for _, g := range games {
		if g.Involves(team) {
			teamGames[g.ID] = g
		}
	}
	grouped := groupByGameAndTeam(teamGames, rows)

	var out []TwoPlusGame
	for id, byTeam := range grouped {
		teamRows := byTeam[team]
		if len(teamRows) == 0 || !teamRows[0].WonTwoPlusRegPeriods {
			continue
		}
		g := teamGames[id]
		entry := TwoPlusGame{
			GameID:               id,
			Date:                 g.Date,
			Season:               g.Season,
			Opponent:             g.Opponent(team),
			Home:                 g.HomeTeamCode == team,
			RegulationPeriodsWon: RegulationPeriodsWon(teamRows),
		}
		if res, err := resolveGame(id, team, teamRows); err == nil {
			entry.GoalsFor, entry.GoalsAgainst = res.GoalsFor, res.GoalsAgainst
			entry.Result = resultLabel(res)
		}
		out = append(out, entry)
	}
	if len(out) == 0 {
		return nil, &EmptyResultError{What: "games with 2+ regulation periods won", Scope: team}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].GameID > out[j].GameID
	})
	return out, nil
}

// PerformanceQuery selects one team's period rows inside a date range
type PerformanceQuery struct {
	TeamCode string `json:"team_code"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
}

func (q PerformanceQuery) Validate() error {
	return Scope{TeamCode: q.TeamCode, From: q.From, To: q.To}.Validate()
}

// PeriodPerformance is one period row of one team, flattened with its game
type PeriodPerformance struct {
	Date          string  `json:"date"`
	GameID        string  `json:"game_id"`
	Opponent      string  `json:"opponent"`
	PeriodNumber  int     `json:"period_number"`
	GoalsFor      int     `json:"goals_for"`
	GoalsAgainst  int     `json:"goals_against"`
	EmptyNetGoals int     `json:"empty_net_goals"`
	Outcome       Outcome `json:"outcome"`
}

// TeamPeriodPerformance lists every period row of one team in date order, then by period
func TeamPeriodPerformance(q PerformanceQuery, games []Game, rows []PeriodResult) ([]PeriodPerformance, error) {
	if q.TeamCode == "" {
		return nil, &ValidationError{Violations: []Violation{{Field: "team_code", Expected: "3 uppercase letters", Actual: `""`}}}
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	scope := Scope{From: q.From, To: q.To}
	index := map[string]Game{}
	for _, g := range games {
		if g.Involves(q.TeamCode) && scope.InDateRange(g.Date) {
			index[g.ID] = g
		}
	}

	var out []PeriodPerformance
	for _, r := range rows {
		g, ok := index[r.GameID]
		if !ok || r.TeamCode != q.TeamCode {
			continue
		}
		out = append(out, PeriodPerformance{
			Date:          g.Date,
			GameID:        g.ID,
			Opponent:      g.Opponent(q.TeamCode),
			PeriodNumber:  r.PeriodNumber,
			GoalsFor:      r.GoalsFor,
			GoalsAgainst:  r.GoalsAgainst,
			EmptyNetGoals: r.EmptyNetGoals,
			Outcome:       r.PeriodOutcome,
		})
	}
	if len(out) == 0 {
		return nil, &EmptyResultError{What: "period rows", Scope: fmt.Sprintf("%s %s", q.TeamCode, scope.String())}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		return a.PeriodNumber < b.PeriodNumber
	})
	return out, nil
}

func resultLabel(r gameResult) string {
	switch {
	case r.Won && r.ExtraTime:
		return "W (OT/SO)"
	case r.Won:
		return "W"
	case r.ExtraTime:
		return "L (OT/SO)"
	}
	return "L"
}
