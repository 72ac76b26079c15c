package hockey

import (
	"sort"

	"github.com/richard-senior/hockey/internal/logger"
)

// RawGame is one game as delivered by a feed adapter, before any derivation
type RawGame struct {
	ID            string            `json:"id"`
	Date          string            `json:"date"`
	Season        string            `json:"season"`
	HomeTeam      string            `json:"home_team"`
	AwayTeam      string            `json:"away_team"`
	GameType      GameType          `json:"game_type,omitempty"`
	Periods       []RawPeriod       `json:"periods"`
	EmptyNetGoals []RawEmptyNetGoal `json:"empty_net_goals,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

// RawPeriod carries the goal totals of one period. Type is whatever the feed said and is
// only used to log disagreements.
type RawPeriod struct {
	Number    int    `json:"number"`
	Type      string `json:"type,omitempty"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
}

// RawEmptyNetGoal is one goal scored into an empty net by TeamCode
type RawEmptyNetGoal struct {
	Period   int    `json:"period"`
	TeamCode string `json:"team_code"`
}

// TransformGame turns a raw game into a Game and two PeriodResult rows per period, then
// runs the validator over the result. Validation failures come back as *ValidationError
// together with whatever was built, so callers can report them per game.
func TransformGame(raw RawGame) (Game, []PeriodResult, error) {
	game := Game{
		ID:           raw.ID,
		Date:         raw.Date,
		Season:       NormaliseSeason(raw.Season),
		HomeTeamCode: raw.HomeTeam,
		AwayTeamCode: raw.AwayTeam,
		GameType:     raw.GameType,
		Notes:        raw.Notes,
	}
	if game.GameType == "" {
		game.GameType = RegularSeason
	}

	type periodTeam struct {
		period int
		team   string
	}
	emptyNet := map[periodTeam]int{}
	for _, en := range raw.EmptyNetGoals {
		emptyNet[periodTeam{en.Period, en.TeamCode}]++
	}

	periods := make([]RawPeriod, len(raw.Periods))
	copy(periods, raw.Periods)
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].Number < periods[j].Number })

	rows := make([]PeriodResult, 0, 2*len(periods))
	for _, p := range periods {
		pt := PeriodTypeFor(p.Number)
		if p.Type != "" && PeriodType(p.Type) != pt {
			logger.Debug("ignoring feed period type", game.ID, p.Number, p.Type, "using", string(pt))
		}
		homeEN := emptyNet[periodTeam{p.Number, game.HomeTeamCode}]
		awayEN := emptyNet[periodTeam{p.Number, game.AwayTeamCode}]
		rows = append(rows,
			newPeriodRow(game, game.HomeTeamCode, game.AwayTeamCode, p.Number, pt, p.HomeGoals, p.AwayGoals, homeEN),
			newPeriodRow(game, game.AwayTeamCode, game.HomeTeamCode, p.Number, pt, p.AwayGoals, p.HomeGoals, awayEN),
		)
	}

	BackfillTwoPlus(rows)

	if err := ValidateGame(game, rows); err != nil {
		return game, rows, err
	}
	return game, rows, nil
}

func newPeriodRow(game Game, team, opponent string, number int, pt PeriodType, goalsFor, goalsAgainst, emptyNet int) PeriodResult {
	return PeriodResult{
		GameID:        game.ID,
		TeamCode:      team,
		OpponentCode:  opponent,
		PeriodNumber:  number,
		PeriodType:    pt,
		GoalsFor:      goalsFor,
		GoalsAgainst:  goalsAgainst,
		EmptyNetGoals: emptyNet,
		PeriodOutcome: CalculatePeriodOutcome(number, goalsFor, goalsAgainst, emptyNet),
	}
}
