package hockey

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// gameResult is one team's reconstructed view of one game
type gameResult struct {
	GameID         string
	Won            bool
	ExtraTime      bool // an OT or SO row exists
	TwoPlus        bool
	RegPeriodsWon  int
	RegPeriodsLost int
	RegPeriodsTied int
	GoalsFor       int // regulation plus overtime, shootout goals are not goals
	GoalsAgainst   int
	Regulation     [LastRegulation]Outcome
}

// resolveGame decides whether the team won, using only that team's rows for the game.
// A shootout row decides on its own; otherwise an overtime row is added to the
// regulation totals; otherwise regulation alone decides. Anything still level, or rows
// that break the model invariants, is reported as *DataInconsistencyError.
func resolveGame(gameID, team string, rows []PeriodResult) (gameResult, error) {
	res := gameResult{GameID: gameID}
	inconsistent := func(format string, args ...any) (gameResult, error) {
		return res, &DataInconsistencyError{GameID: gameID, TeamCode: team, Reason: fmt.Sprintf(format, args...)}
	}
	if len(rows) == 0 {
		return inconsistent("no period rows")
	}

	var ot, so *PeriodResult
	regFor, regAgainst := 0, 0
	flag := rows[0].WonTwoPlusRegPeriods
	for i := range rows {
		r := &rows[i]
		if r.WonTwoPlusRegPeriods != flag {
			return inconsistent("won_two_plus_reg_periods differs between period rows")
		}
		switch {
		case r.IsRegulation():
			if res.Regulation[r.PeriodNumber-1] != "" {
				return inconsistent("duplicate row for period %d", r.PeriodNumber)
			}
			res.Regulation[r.PeriodNumber-1] = r.PeriodOutcome
			regFor += r.GoalsFor
			regAgainst += r.GoalsAgainst
			switch r.PeriodOutcome {
			case Win:
				res.RegPeriodsWon++
			case Loss:
				res.RegPeriodsLost++
			default:
				res.RegPeriodsTied++
			}
		case r.PeriodNumber == OvertimePeriod:
			ot = r
		case r.PeriodNumber == ShootoutPeriod:
			so = r
		default:
			return inconsistent("period number %d out of range", r.PeriodNumber)
		}
	}
	for i, o := range res.Regulation {
		if o == "" {
			return inconsistent("missing regulation period %d", i+1)
		}
	}

	res.TwoPlus = flag
	res.GoalsFor, res.GoalsAgainst = regFor, regAgainst
	if ot != nil {
		res.GoalsFor += ot.GoalsFor
		res.GoalsAgainst += ot.GoalsAgainst
	}

	switch {
	case so != nil:
		res.ExtraTime = true
		if so.GoalsFor == so.GoalsAgainst {
			return inconsistent("shootout is level at %d-%d", so.GoalsFor, so.GoalsAgainst)
		}
		res.Won = so.GoalsFor > so.GoalsAgainst
	case ot != nil:
		res.ExtraTime = true
		if res.GoalsFor == res.GoalsAgainst {
			return inconsistent("level at %d-%d after overtime with no shootout", res.GoalsFor, res.GoalsAgainst)
		}
		res.Won = res.GoalsFor > res.GoalsAgainst
	default:
		if regFor == regAgainst {
			return inconsistent("level at %d-%d after regulation with no overtime", regFor, regAgainst)
		}
		res.Won = regFor > regAgainst
	}
	return res, nil
}

// groupByGameAndTeam indexes rows as [game][team] -> rows, keeping only games in the set
func groupByGameAndTeam(games map[string]Game, rows []PeriodResult) map[string]map[string][]PeriodResult {
	out := map[string]map[string][]PeriodResult{}
	for _, r := range rows {
		if _, ok := games[r.GameID]; !ok {
			continue
		}
		byTeam, ok := out[r.GameID]
		if !ok {
			byTeam = map[string][]PeriodResult{}
			out[r.GameID] = byTeam
		}
		byTeam[r.TeamCode] = append(byTeam[r.TeamCode], r)
	}
	return out
}

func indexGames(games []Game) map[string]Game {
	m := make(map[string]Game, len(games))
	for _, g := range games {
		m[g.ID] = g
	}
	return m
}

// percent returns part/whole as a percentage rounded to 2dp, 0 when whole is 0
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) * 100 / float64(whole))
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole))
}

func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
