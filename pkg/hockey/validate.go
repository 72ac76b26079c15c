package hockey

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

var (
	teamCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// MinPeriodRows is the smallest row count of a fully recorded game: three regulation
// periods for each side.
const MinPeriodRows = 2 * LastRegulation

// ValidTeamCode reports whether code is three uppercase letters
func ValidTeamCode(code string) bool {
	return teamCodePattern.MatchString(code)
}

// ValidDate reports whether s is a real calendar date written YYYY-MM-DD
func ValidDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidateGame checks a candidate game and all of its period rows. It returns a
// *ValidationError listing every problem found, or nil.
func ValidateGame(game Game, rows []PeriodResult) error {
	verr := &ValidationError{GameID: game.ID}

	validateHeader(game, verr)
	validateRows(game, rows, verr)

	if len(verr.Violations) == 0 {
		return nil
	}
	return verr
}

func validateHeader(game Game, verr *ValidationError) {
	if game.ID == "" {
		verr.add("id", "non-empty game id", `""`)
	}
	if !ValidDate(game.Date) {
		verr.add("date", "YYYY-MM-DD", quote(game.Date))
	}
	if _, _, err := ParseSeason(game.Season); err != nil {
		verr.add("season", "YYYY-YYYY with consecutive years", quote(game.Season))
	}
	if !ValidTeamCode(game.HomeTeamCode) {
		verr.add("home_team_code", "3 uppercase letters", quote(game.HomeTeamCode))
	}
	if !ValidTeamCode(game.AwayTeamCode) {
		verr.add("away_team_code", "3 uppercase letters", quote(game.AwayTeamCode))
	}
	if game.HomeTeamCode == game.AwayTeamCode {
		verr.add("away_team_code", "a team different from home", quote(game.AwayTeamCode))
	}
	if !game.GameType.Valid() {
		verr.add("game_type", "regular, playoff, preseason or all-star", quote(string(game.GameType)))
	}
}

func validateRows(game Game, rows []PeriodResult, verr *ValidationError) {
	if len(rows) < MinPeriodRows {
		verr.add("period_rows", fmt.Sprintf("at least %d rows", MinPeriodRows), len(rows))
	}

	// byTeam[team][period] -> row
	byTeam := map[string]map[int]PeriodResult{
		game.HomeTeamCode: {},
		game.AwayTeamCode: {},
	}

	for _, r := range rows {
		where := fmt.Sprintf("period[%s/%d]", r.TeamCode, r.PeriodNumber)

		if r.GameID != game.ID {
			verr.add(where+".game_id", quote(game.ID), quote(r.GameID))
		}
		periods, ok := byTeam[r.TeamCode]
		if !ok {
			verr.add(where+".team_code", "home or away team of the game", quote(r.TeamCode))
			continue
		}
		if r.OpponentCode != game.Opponent(r.TeamCode) {
			verr.add(where+".opponent_code", quote(game.Opponent(r.TeamCode)), quote(r.OpponentCode))
		}
		if r.PeriodNumber < FirstPeriod || r.PeriodNumber > ShootoutPeriod {
			verr.add(where+".period_number", "1-5", r.PeriodNumber)
		} else if r.PeriodType != PeriodTypeFor(r.PeriodNumber) {
			verr.add(where+".period_type", string(PeriodTypeFor(r.PeriodNumber)), quote(string(r.PeriodType)))
		}
		if _, dup := periods[r.PeriodNumber]; dup {
			verr.add(where, "one row per team and period", "duplicate")
			continue
		}
		periods[r.PeriodNumber] = r

		if r.GoalsFor < 0 {
			verr.add(where+".goals_for", ">= 0", r.GoalsFor)
		}
		if r.GoalsAgainst < 0 {
			verr.add(where+".goals_against", ">= 0", r.GoalsAgainst)
		}
		if r.EmptyNetGoals < 0 {
			verr.add(where+".empty_net_goals", ">= 0", r.EmptyNetGoals)
		}
		if r.EmptyNetGoals > r.GoalsFor {
			verr.add(where+".empty_net_goals", fmt.Sprintf("<= goals_for (%d)", r.GoalsFor), r.EmptyNetGoals)
		}
		if want := CalculatePeriodOutcome(r.PeriodNumber, r.GoalsFor, r.GoalsAgainst, r.EmptyNetGoals); r.PeriodOutcome != want {
			verr.add(where+".period_outcome", string(want), quote(string(r.PeriodOutcome)))
		}
	}

	for _, team := range []string{game.HomeTeamCode, game.AwayTeamCode} {
		periods := byTeam[team]
		for p := FirstPeriod; p <= LastRegulation; p++ {
			if _, ok := periods[p]; !ok {
				verr.add(fmt.Sprintf("period[%s/%d]", team, p), "regulation period present", "missing")
			}
		}
		validateTwoPlusFlag(team, periods, verr)
	}

	if game.HomeTeamCode != game.AwayTeamCode {
		validateSymmetry(byTeam[game.HomeTeamCode], byTeam[game.AwayTeamCode], game, verr)
	}
}

func validateSymmetry(home, away map[int]PeriodResult, game Game, verr *ValidationError) {
	numbers := map[int]bool{}
	for p := range home {
		numbers[p] = true
	}
	for p := range away {
		numbers[p] = true
	}
	sorted := make([]int, 0, len(numbers))
	for p := range numbers {
		sorted = append(sorted, p)
	}
	sort.Ints(sorted)

	for _, p := range sorted {
		h, hok := home[p]
		a, aok := away[p]
		field := fmt.Sprintf("symmetry[%d]", p)
		switch {
		case !hok:
			verr.add(field, "row for "+game.HomeTeamCode, "missing")
		case !aok:
			verr.add(field, "row for "+game.AwayTeamCode, "missing")
		default:
			if h.GoalsFor != a.GoalsAgainst {
				verr.add(field, fmt.Sprintf("%s goals_for == %s goals_against (%d)", h.TeamCode, a.TeamCode, a.GoalsAgainst), h.GoalsFor)
			}
			if a.GoalsFor != h.GoalsAgainst {
				verr.add(field, fmt.Sprintf("%s goals_for == %s goals_against (%d)", a.TeamCode, h.TeamCode, h.GoalsAgainst), a.GoalsFor)
			}
		}
	}
}

func validateTwoPlusFlag(team string, periods map[int]PeriodResult, verr *ValidationError) {
	if len(periods) == 0 {
		return
	}
	rows := make([]PeriodResult, 0, len(periods))
	for _, r := range periods {
		rows = append(rows, r)
	}
	want := WonTwoPlusRegPeriods(rows)
	for p := FirstPeriod; p <= ShootoutPeriod; p++ {
		r, ok := periods[p]
		if ok && r.WonTwoPlusRegPeriods != want {
			verr.add(fmt.Sprintf("period[%s/%d].won_two_plus_reg_periods", team, p), fmt.Sprint(want), r.WonTwoPlusRegPeriods)
		}
	}
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
