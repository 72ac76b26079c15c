package hockey

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the result of one period from one team's perspective
type Outcome string

const (
	Win  Outcome = "WIN"
	Loss Outcome = "LOSS"
	Tie  Outcome = "TIE"
)

// ParseOutcome accepts WIN, LOSS or TIE in any case
func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(strings.ToUpper(strings.TrimSpace(s))); o {
	case Win, Loss, Tie:
		return o, nil
	}
	return "", fmt.Errorf("unknown period outcome %q, expected WIN, LOSS or TIE", s)
}

// PeriodType is derived from the period number and never taken from a feed
type PeriodType string

const (
	Regulation PeriodType = "REGULATION"
	Overtime   PeriodType = "OT"
	Shootout   PeriodType = "SO"
)

const (
	FirstPeriod    = 1
	LastRegulation = 3
	OvertimePeriod = 4
	ShootoutPeriod = 5
)

type GameType string

const (
	RegularSeason GameType = "regular"
	Playoff       GameType = "playoff"
	Preseason     GameType = "preseason"
	AllStar       GameType = "all-star"
)

// Valid reports whether t is one of the known game types
func (t GameType) Valid() bool {
	switch t {
	case RegularSeason, Playoff, Preseason, AllStar:
		return true
	}
	return false
}

type Conference string

const (
	Eastern Conference = "Eastern"
	Western Conference = "Western"
)

// DateLayout is the only accepted calendar date format
const DateLayout = "2006-01-02"

// Team is immutable reference data keyed by its three letter code
type Team struct {
	Code       string     `json:"code" column:"code" dbtype:"TEXT NOT NULL" primary:"true"`
	Name       string     `json:"name" column:"name" dbtype:"TEXT NOT NULL UNIQUE"`
	Division   string     `json:"division,omitempty" column:"division" dbtype:"TEXT" index:"true"`
	Conference Conference `json:"conference,omitempty" column:"conference" dbtype:"TEXT" index:"true"`
}

// Game is one played fixture. Date is kept as YYYY-MM-DD text so that it sorts lexically.
type Game struct {
	ID           string   `json:"id" column:"id" dbtype:"TEXT NOT NULL" primary:"true"`
	Date         string   `json:"date" column:"date" dbtype:"TEXT NOT NULL" index:"true"`
	Season       string   `json:"season" column:"season" dbtype:"TEXT NOT NULL" index:"true"`
	HomeTeamCode string   `json:"home_team_code" column:"home_team_code" dbtype:"TEXT NOT NULL" index:"true"`
	AwayTeamCode string   `json:"away_team_code" column:"away_team_code" dbtype:"TEXT NOT NULL" index:"true"`
	GameType     GameType `json:"game_type" column:"game_type" dbtype:"TEXT NOT NULL"`
	Notes        string   `json:"notes,omitempty" column:"notes" dbtype:"TEXT"`
}

// Day parses the game date
func (g Game) Day() (time.Time, error) {
	return time.Parse(DateLayout, g.Date)
}

// Involves reports whether the team played in this game
func (g Game) Involves(code string) bool {
	return g.HomeTeamCode == code || g.AwayTeamCode == code
}

// Opponent returns the other team in the game, or "" when code did not play
func (g Game) Opponent(code string) string {
	switch code {
	case g.HomeTeamCode:
		return g.AwayTeamCode
	case g.AwayTeamCode:
		return g.HomeTeamCode
	}
	return ""
}

// PeriodResult is one period of one game seen from one team. Every period of a game
// produces two of these, one per side.
type PeriodResult struct {
	GameID               string     `json:"game_id" column:"game_id" dbtype:"TEXT NOT NULL" primary:"true" index:"true" fk:"game.id" fk_delete:"CASCADE"`
	TeamCode             string     `json:"team_code" column:"team_code" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	PeriodNumber         int        `json:"period_number" column:"period_number" dbtype:"INTEGER NOT NULL" primary:"true"`
	OpponentCode         string     `json:"opponent_code" column:"opponent_code" dbtype:"TEXT NOT NULL"`
	PeriodType           PeriodType `json:"period_type" column:"period_type" dbtype:"TEXT NOT NULL"`
	GoalsFor             int        `json:"goals_for" column:"goals_for" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	GoalsAgainst         int        `json:"goals_against" column:"goals_against" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	EmptyNetGoals        int        `json:"empty_net_goals" column:"empty_net_goals" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	PeriodOutcome        Outcome    `json:"period_outcome" column:"period_outcome" dbtype:"TEXT NOT NULL" index:"true"`
	WonTwoPlusRegPeriods bool       `json:"won_two_plus_reg_periods" column:"won_two_plus_reg_periods" dbtype:"BOOLEAN NOT NULL DEFAULT 0"`
}

// IsRegulation reports whether the row is one of periods 1-3
func (p PeriodResult) IsRegulation() bool {
	return p.PeriodNumber >= FirstPeriod && p.PeriodNumber <= LastRegulation
}
