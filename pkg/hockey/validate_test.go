package hockey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(err error) []string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	out := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		out = append(out, v.Field)
	}
	return out
}

func TestValidateGameAcceptsTransformedGame(t *testing.T) {
	g, rows, err := TransformGame(rawGame("2023020001", "2023-10-10", "TOR", "MTL", score{1, 0}, score{0, 0}, score{2, 1}))
	require.NoError(t, err)
	assert.NoError(t, ValidateGame(g, rows))
}

func TestValidateGameCollectsEveryHeaderViolation(t *testing.T) {
	_, rows, _ := TransformGame(rawGame("x", "2023-10-10", "TOR", "MTL", score{1, 0}, score{0, 0}, score{2, 1}))
	bad := Game{ID: "", Date: "10/10/2023", Season: "2023-2025", HomeTeamCode: "tor", AwayTeamCode: "tor", GameType: "friendly"}

	err := ValidateGame(bad, rows)
	require.Error(t, err)
	got := fields(err)
	for _, f := range []string{"id", "date", "season", "home_team_code", "away_team_code", "game_type"} {
		assert.Contains(t, got, f)
	}
}

func TestValidateGameRejectsImpossibleDate(t *testing.T) {
	g, rows, _ := TransformGame(rawGame("x", "2023-02-30", "TOR", "MTL", score{1, 0}, score{0, 0}, score{2, 1}))
	assert.Contains(t, fields(ValidateGame(g, rows)), "date")
}

func TestValidateGameRowChecks(t *testing.T) {
	g, rows, err := TransformGame(rawGame("g1", "2023-10-10", "TOR", "MTL", score{1, 0}, score{0, 0}, score{2, 1}))
	require.NoError(t, err)

	t.Run("too few rows and missing regulation period", func(t *testing.T) {
		short := append([]PeriodResult{}, rows[:4]...)
		got := fields(ValidateGame(g, short))
		assert.Contains(t, got, "period_rows")
		assert.Contains(t, got, "period[TOR/3]")
		assert.Contains(t, got, "period[MTL/3]")
	})

	t.Run("symmetry", func(t *testing.T) {
		broken := append([]PeriodResult{}, rows...)
		broken[0].GoalsAgainst = 4
		broken[0].PeriodOutcome = CalculatePeriodOutcome(1, broken[0].GoalsFor, 4, 0)
		broken[0].WonTwoPlusRegPeriods = false
		got := fields(ValidateGame(g, broken))
		assert.Contains(t, got, "symmetry[1]")
	})

	t.Run("empty net above goals for", func(t *testing.T) {
		broken := append([]PeriodResult{}, rows...)
		for i := range broken {
			if broken[i].TeamCode == "MTL" && broken[i].PeriodNumber == 3 {
				broken[i].EmptyNetGoals = 2
			}
		}
		got := fields(ValidateGame(g, broken))
		assert.Contains(t, got, "period[MTL/3].empty_net_goals")
	})

	t.Run("stale outcome and flag", func(t *testing.T) {
		broken := append([]PeriodResult{}, rows...)
		broken[0].PeriodOutcome = Loss
		broken[1].WonTwoPlusRegPeriods = !broken[1].WonTwoPlusRegPeriods
		got := fields(ValidateGame(g, broken))
		assert.Contains(t, got, "period[TOR/1].period_outcome")
		assert.Contains(t, got, "period[MTL/1].won_two_plus_reg_periods")
	})

	t.Run("foreign team and duplicate", func(t *testing.T) {
		broken := append([]PeriodResult{}, rows...)
		broken = append(broken, rows[0])
		stray := rows[1]
		stray.TeamCode = "BOS"
		broken = append(broken, stray)
		got := fields(ValidateGame(g, broken))
		assert.Contains(t, got, "period[TOR/1]")
		assert.Contains(t, got, "period[BOS/1].team_code")
	})

	t.Run("period type must follow number", func(t *testing.T) {
		broken := append([]PeriodResult{}, rows...)
		broken[2].PeriodType = Overtime
		assert.Contains(t, fields(ValidateGame(g, broken)), "period[TOR/2].period_type")
	})
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{GameID: "g1"}
	err.add("date", "YYYY-MM-DD", `"x"`)
	err.add("season", "YYYY-YYYY", `"y"`)
	assert.Equal(t, `game g1 failed validation (2 violations): date: expected YYYY-MM-DD, got "x"; season: expected YYYY-YYYY, got "y"`, err.Error())
}
