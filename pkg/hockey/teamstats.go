package hockey

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/richard-senior/hockey/internal/logger"
)

// Scope selects the games an aggregation runs over. The zero value means everything.
type Scope struct {
	TeamCode   string     `json:"team_code,omitempty"`
	Season     string     `json:"season,omitempty"`
	From       string     `json:"from,omitempty"`
	To         string     `json:"to,omitempty"`
	Conference Conference `json:"conference,omitempty"`
	Division   string     `json:"division,omitempty"`
}

// Validate rejects malformed filters up front rather than letting them match nothing
func (s Scope) Validate() error {
	verr := &ValidationError{}
	if s.TeamCode != "" && !ValidTeamCode(s.TeamCode) {
		verr.add("team_code", "3 uppercase letters", quote(s.TeamCode))
	}
	if s.Season != "" {
		if _, err := GetFirstYear(s.Season); err != nil {
			verr.add("season", "YYYY-YYYY with consecutive years", quote(s.Season))
		}
	}
	if s.From != "" && !ValidDate(s.From) {
		verr.add("from", "YYYY-MM-DD", quote(s.From))
	}
	if s.To != "" && !ValidDate(s.To) {
		verr.add("to", "YYYY-MM-DD", quote(s.To))
	}
	if s.From != "" && s.To != "" && s.From > s.To {
		verr.add("to", "a date on or after from ("+s.From+")", quote(s.To))
	}
	switch s.Conference {
	case "", Eastern, Western:
	default:
		verr.add("conference", "Eastern or Western", quote(string(s.Conference)))
	}
	if len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

// InDateRange reports whether a YYYY-MM-DD date falls inside the scope's from/to bounds
func (s Scope) InDateRange(date string) bool {
	if s.From != "" && date < s.From {
		return false
	}
	if s.To != "" && date > s.To {
		return false
	}
	return true
}

// MatchesGame applies the season and date filters of the scope to a game. The season may
// be given in any spelling NormaliseSeason accepts.
func (s Scope) MatchesGame(g Game) bool {
	if s.Season != "" && !IsSameSeason(g.Season, s.Season) {
		return false
	}
	return s.InDateRange(g.Date)
}

// MatchesTeam applies the team, conference and division filters of the scope
func (s Scope) MatchesTeam(t Team) bool {
	if s.TeamCode != "" && t.Code != s.TeamCode {
		return false
	}
	if s.Conference != "" && t.Conference != s.Conference {
		return false
	}
	if s.Division != "" && !strings.EqualFold(t.Division, s.Division) {
		return false
	}
	return true
}

func (s Scope) String() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("team", s.TeamCode)
	add("season", s.Season)
	add("from", s.From)
	add("to", s.To)
	add("conference", string(s.Conference))
	add("division", s.Division)
	if len(parts) == 0 {
		return "all games"
	}
	return strings.Join(parts, " ")
}

// TeamRecord is one team's line in the standings
type TeamRecord struct {
	Rank           int        `json:"rank"`
	TeamCode       string     `json:"team_code"`
	Name           string     `json:"name,omitempty"`
	Conference     Conference `json:"conference,omitempty"`
	Division       string     `json:"division,omitempty"`
	GamesPlayed    int        `json:"games_played"`
	Wins           int        `json:"wins"`
	Losses         int        `json:"losses"`
	OvertimeLosses int        `json:"overtime_losses"`
	GoodWins       int        `json:"good_wins"`
	BadWins        int        `json:"bad_wins"`
	PeriodsWon     int        `json:"periods_won"`
	PeriodsLost    int        `json:"periods_lost"`
	PeriodsTied    int        `json:"periods_tied"`
	PeriodWinPct   float64    `json:"period_win_pct"`
	Points         int        `json:"points"`
	Difference     int        `json:"difference"`
	RankScore      int        `json:"rank_score"`
}

// TeamStatsResult is the ranked table plus any games that had to be left out
type TeamStatsResult struct {
	Teams    []TeamRecord             `json:"teams"`
	Excluded []DataInconsistencyError `json:"excluded,omitempty"`
}

const (
	pointsWeight     = 0.6
	differenceWeight = 0.4
)

// AggregateTeamStats builds a ranked record for every team given. Games whose rows cannot
// be resolved to a winner are logged, listed in Excluded and skipped for that team only.
func AggregateTeamStats(teams []Team, games []Game, rows []PeriodResult) TeamStatsResult {
	gameIndex := indexGames(games)
	grouped := groupByGameAndTeam(gameIndex, rows)

	gameIDs := sortedGameIDs(grouped)
	records := make([]TeamRecord, 0, len(teams))
	var excluded []DataInconsistencyError

	for _, team := range teams {
		rec := TeamRecord{TeamCode: team.Code, Name: team.Name, Conference: team.Conference, Division: team.Division}

		for _, gameID := range gameIDs {
			teamRows, ok := grouped[gameID][team.Code]
			if !ok {
				continue
			}
			res, err := resolveGame(gameID, team.Code, teamRows)
			if err != nil {
				logger.Warn("excluding game from team stats:", err)
				var die *DataInconsistencyError
				if errors.As(err, &die) {
					excluded = append(excluded, *die)
				}
				continue
			}
			rec.add(res)
		}
		rec.Points = rec.Wins*2 + rec.OvertimeLosses
		rec.Difference = rec.GoodWins - rec.BadWins
		rec.PeriodWinPct = percent(rec.PeriodsWon, rec.PeriodsWon+rec.PeriodsLost+rec.PeriodsTied)
		records = append(records, rec)
	}

	RankTeams(records)
	return TeamStatsResult{Teams: records, Excluded: excluded}
}

func (rec *TeamRecord) add(res gameResult) {
	rec.GamesPlayed++
	rec.PeriodsWon += res.RegPeriodsWon
	rec.PeriodsLost += res.RegPeriodsLost
	rec.PeriodsTied += res.RegPeriodsTied
	switch {
	case res.Won:
		rec.Wins++
		if res.TwoPlus {
			rec.GoodWins++
		} else {
			rec.BadWins++
		}
	case res.ExtraTime:
		rec.OvertimeLosses++
	default:
		rec.Losses++
	}
}

// RankTeams fills RankScore and Rank and sorts the slice in place: good wins first,
// then rank score, then team code so that the order is deterministic.
func RankTeams(records []TeamRecord) {
	maxPoints, maxDiff := 0, 0
	for _, r := range records {
		maxPoints = max(maxPoints, abs(r.Points))
		maxDiff = max(maxDiff, abs(r.Difference))
	}
	pointsDen := float64(max(maxPoints, 1))
	diffDen := float64(max(maxDiff, 1))

	for i := range records {
		np := float64(records[i].Points) * 100 / pointsDen
		nd := float64(records[i].Difference) * 100 / diffDen
		records[i].RankScore = int(math.Round(pointsWeight*np + differenceWeight*nd))
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.GoodWins != b.GoodWins {
			return a.GoodWins > b.GoodWins
		}
		if a.RankScore != b.RankScore {
			return a.RankScore > b.RankScore
		}
		return a.TeamCode < b.TeamCode
	})
	for i := range records {
		records[i].Rank = i + 1
	}
}

// FilterTeams returns the teams that match the scope's team filters
func FilterTeams(teams []Team, scope Scope) []Team {
	out := make([]Team, 0, len(teams))
	for _, t := range teams {
		if scope.MatchesTeam(t) {
			out = append(out, t)
		}
	}
	return out
}

func sortedGameIDs(grouped map[string]map[string][]PeriodResult) []string {
	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// String gives a one-line standings summary, handy in logs
func (rec TeamRecord) String() string {
	return fmt.Sprintf("%d. %s %d-%d-%d pts=%d good=%d bad=%d score=%d",
		rec.Rank, rec.TeamCode, rec.Wins, rec.Losses, rec.OvertimeLosses, rec.Points, rec.GoodWins, rec.BadWins, rec.RankScore)
}
