package hockey

import (
	"fmt"
	"sort"
	"time"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type IssueKind string

const (
	IssueMissingPeriods IssueKind = "missing_periods"
	IssueIncompleteGame IssueKind = "incomplete_game"
	IssueInvalidTeamRef IssueKind = "invalid_team_ref"
	IssueOrphanedRow    IssueKind = "orphaned_row"
	IssueScheduleGap    IssueKind = "schedule_gap"
)

// MaxScheduleGapDays is the longest run of days without a game before a gap is reported
const MaxScheduleGapDays = 5

// HealthIssue is one anomaly found in the corpus
type HealthIssue struct {
	Severity Severity  `json:"severity"`
	Kind     IssueKind `json:"kind"`
	GameID   string    `json:"game_id,omitempty"`
	Season   string    `json:"season,omitempty"`
	Message  string    `json:"message"`
}

// HealthReport summarises the structural state of the stored corpus
type HealthReport struct {
	Season          string        `json:"season,omitempty"`
	TotalGames      int           `json:"total_games"`
	TotalRows       int           `json:"total_rows"`
	MissingGames    int           `json:"missing_games"`
	IncompleteGames int           `json:"incomplete_games"`
	InvalidTeamRefs int           `json:"invalid_team_refs"`
	OrphanedRows    int           `json:"orphaned_rows"`
	ScheduleGaps    int           `json:"schedule_gaps"`
	HealthScore     int           `json:"health_score"`
	Issues          []HealthIssue `json:"issues"`
}

// CheckHealth scans teams, games and period rows for structural anomalies. An empty
// season checks the whole corpus. Nothing passed in is modified.
func CheckHealth(teams []Team, games []Game, rows []PeriodResult, season string) HealthReport {
	rep := HealthReport{Season: season}

	known := make(map[string]bool, len(teams))
	for _, t := range teams {
		known[t.Code] = true
	}

	scoped := make([]Game, 0, len(games))
	allIDs := make(map[string]bool, len(games))
	for _, g := range games {
		allIDs[g.ID] = true
		if season == "" || IsSameSeason(g.Season, season) {
			scoped = append(scoped, g)
		}
	}
	sort.Slice(scoped, func(i, j int) bool {
		if scoped[i].Date != scoped[j].Date {
			return scoped[i].Date < scoped[j].Date
		}
		return scoped[i].ID < scoped[j].ID
	})
	scopedIDs := make(map[string]bool, len(scoped))
	for _, g := range scoped {
		scopedIDs[g.ID] = true
	}

	rowCount := map[string]int{}
	for _, r := range rows {
		if !allIDs[r.GameID] {
			// an orphan has no game and so no season, it is only counted in a full scan
			if season == "" {
				rep.OrphanedRows++
				rep.TotalRows++
				rep.Issues = append(rep.Issues, HealthIssue{
					Severity: SeverityWarning, Kind: IssueOrphanedRow, GameID: r.GameID,
					Message: fmt.Sprintf("period %d row for %s references unknown game", r.PeriodNumber, r.TeamCode),
				})
			}
			continue
		}
		if scopedIDs[r.GameID] {
			rowCount[r.GameID]++
			rep.TotalRows++
		}
	}

	for _, g := range scoped {
		rep.TotalGames++
		switch n := rowCount[g.ID]; {
		case n == 0:
			rep.MissingGames++
			rep.Issues = append(rep.Issues, HealthIssue{
				Severity: SeverityError, Kind: IssueMissingPeriods, GameID: g.ID, Season: g.Season,
				Message: "game has no period rows",
			})
		case n < MinPeriodRows:
			rep.IncompleteGames++
			rep.Issues = append(rep.Issues, HealthIssue{
				Severity: SeverityWarning, Kind: IssueIncompleteGame, GameID: g.ID, Season: g.Season,
				Message: fmt.Sprintf("game has %d period rows, expected at least %d", n, MinPeriodRows),
			})
		}
		for _, code := range []string{g.HomeTeamCode, g.AwayTeamCode} {
			if !known[code] {
				rep.InvalidTeamRefs++
				rep.Issues = append(rep.Issues, HealthIssue{
					Severity: SeverityError, Kind: IssueInvalidTeamRef, GameID: g.ID, Season: g.Season,
					Message: fmt.Sprintf("team %q is not a known team", code),
				})
			}
		}
	}

	gaps := scheduleGaps(scoped)
	rep.ScheduleGaps = len(gaps)
	rep.Issues = append(rep.Issues, gaps...)

	rep.HealthScore = HealthScore(rep.MissingGames, rep.IncompleteGames, rep.InvalidTeamRefs, rep.OrphanedRows)
	return rep
}

// HealthScore weighs the anomaly counts into a 0-100 completeness heuristic
func HealthScore(missing, incomplete, invalidRefs, orphaned int) int {
	score := 100 - (2*missing + incomplete + 5*invalidRefs + orphaned)
	return min(max(score, 0), 100)
}

// scheduleGaps walks each season's distinct game dates in order and reports every
// stretch longer than MaxScheduleGapDays. Games must already be sorted by date.
func scheduleGaps(sorted []Game) []HealthIssue {
	var out []HealthIssue
	last := map[string]time.Time{}
	lastID := map[string]string{}
	for _, g := range sorted {
		day, err := g.Day()
		if err != nil {
			continue
		}
		prev, ok := last[g.Season]
		if ok {
			days := int(day.Sub(prev).Hours() / 24)
			if days > MaxScheduleGapDays {
				out = append(out, HealthIssue{
					Severity: SeverityWarning, Kind: IssueScheduleGap, GameID: g.ID, Season: g.Season,
					Message: fmt.Sprintf("%d days without a game between %s (%s) and %s", days, prev.Format(DateLayout), lastID[g.Season], g.Date),
				})
			}
		}
		last[g.Season] = day
		lastID[g.Season] = g.ID
	}
	return out
}
