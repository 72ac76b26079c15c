package hockey

import "sort"

// CalculatePeriodOutcome decides one period for one team. Empty-net goals are removed
// from the team's tally in the third period only.
func CalculatePeriodOutcome(period, goalsFor, goalsAgainst, emptyNet int) Outcome {
	adjusted := goalsFor
	if period == LastRegulation {
		adjusted = goalsFor - emptyNet
	}
	switch {
	case adjusted > goalsAgainst:
		return Win
	case adjusted < goalsAgainst:
		return Loss
	default:
		return Tie
	}
}

// PeriodTypeFor infers the period type from its number. Numbers outside 1-5 return "".
func PeriodTypeFor(period int) PeriodType {
	switch {
	case period >= FirstPeriod && period <= LastRegulation:
		return Regulation
	case period == OvertimePeriod:
		return Overtime
	case period == ShootoutPeriod:
		return Shootout
	}
	return ""
}

// RegulationPeriodsWon counts WIN outcomes among periods 1-3 of the given rows
func RegulationPeriodsWon(rows []PeriodResult) int {
	n := 0
	for _, r := range rows {
		if r.IsRegulation() && r.PeriodOutcome == Win {
			n++
		}
	}
	return n
}

// WonTwoPlusRegPeriods reports whether one team's rows for one game hold at least two
// regulation period wins.
func WonTwoPlusRegPeriods(rows []PeriodResult) bool {
	return RegulationPeriodsWon(rows) >= 2
}

type teamGameKey struct {
	game string
	team string
}

// BackfillTwoPlus sets WonTwoPlusRegPeriods on every row of each team+game. A team+game
// whose three regulation outcomes are not all present is left untouched and returned so
// the caller can report it.
func BackfillTwoPlus(rows []PeriodResult) []string {
	groups := map[teamGameKey][]int{}
	var order []teamGameKey
	for i, r := range rows {
		k := teamGameKey{r.GameID, r.TeamCode}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	var incomplete []string
	for _, k := range order {
		idx := groups[k]
		seen := map[int]bool{}
		group := make([]PeriodResult, 0, len(idx))
		for _, i := range idx {
			if rows[i].IsRegulation() && rows[i].PeriodOutcome != "" {
				seen[rows[i].PeriodNumber] = true
			}
			group = append(group, rows[i])
		}
		if len(seen) < LastRegulation {
			incomplete = append(incomplete, k.game+"/"+k.team)
			continue
		}
		flag := WonTwoPlusRegPeriods(group)
		for _, i := range idx {
			rows[i].WonTwoPlusRegPeriods = flag
		}
	}
	return incomplete
}

// Rederive recomputes period types, outcomes and the two-plus flag from the stored goal
// counts. It is the pure half of a backfill pass.
func Rederive(rows []PeriodResult) []PeriodResult {
	out := make([]PeriodResult, len(rows))
	copy(out, rows)
	for i := range out {
		r := &out[i]
		r.PeriodType = PeriodTypeFor(r.PeriodNumber)
		r.PeriodOutcome = CalculatePeriodOutcome(r.PeriodNumber, r.GoalsFor, r.GoalsAgainst, r.EmptyNetGoals)
		r.WonTwoPlusRegPeriods = false
	}
	BackfillTwoPlus(out)
	SortRows(out)
	return out
}

// SortRows orders rows by game, team and period number
func SortRows(rows []PeriodResult) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		if a.TeamCode != b.TeamCode {
			return a.TeamCode < b.TeamCode
		}
		return a.PeriodNumber < b.PeriodNumber
	})
}
