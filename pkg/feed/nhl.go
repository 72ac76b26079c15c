package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/pkg/hockey"
)

// ErrGameNotFinal is returned for games that have not finished yet. They are never
// cached and never retried.
var ErrGameNotFinal = errors.New("game is not final")

// landing is the part of the NHL gamecenter landing document we read
type landing struct {
	ID        int64       `json:"id"`
	Season    int         `json:"season"`
	GameType  int         `json:"gameType"`
	GameDate  string      `json:"gameDate"`
	GameState string      `json:"gameState"`
	HomeTeam  landingTeam `json:"homeTeam"`
	AwayTeam  landingTeam `json:"awayTeam"`
	Summary   struct {
		Linescore struct {
			ByPeriod []struct {
				PeriodDescriptor periodDescriptor `json:"periodDescriptor"`
				Home             int              `json:"home"`
				Away             int              `json:"away"`
			} `json:"byPeriod"`
		} `json:"linescore"`
		Scoring []struct {
			PeriodDescriptor periodDescriptor `json:"periodDescriptor"`
			Goals            []struct {
				TeamAbbrev   localized `json:"teamAbbrev"`
				GoalModifier string    `json:"goalModifier"`
			} `json:"goals"`
		} `json:"scoring"`
	} `json:"summary"`
}

type landingTeam struct {
	Abbrev string    `json:"abbrev"`
	Name   localized `json:"name"`
}

type periodDescriptor struct {
	Number     int    `json:"number"`
	PeriodType string `json:"periodType"`
}

// localized is the {"default": "..."} wrapper the NHL api puts around display strings
type localized struct {
	Default string `json:"default"`
}

var nhlGameTypes = map[int]hockey.GameType{
	1: hockey.Preseason,
	2: hockey.RegularSeason,
	3: hockey.Playoff,
	4: hockey.AllStar,
}

// ParseLanding converts an NHL gamecenter landing document into a RawGame. Playoff
// games can run several overtime periods; their goals are folded into the one overtime
// period the model has.
func ParseLanding(data []byte) (hockey.RawGame, error) {
	var l landing
	if err := json.Unmarshal(data, &l); err != nil {
		return hockey.RawGame{}, fmt.Errorf("error parsing landing JSON: %w", err)
	}
	return l.rawGame()
}

func (l landing) rawGame() (hockey.RawGame, error) {
	id := strconv.FormatInt(l.ID, 10)
	switch l.GameState {
	case "OFF", "FINAL":
	default:
		return hockey.RawGame{}, fmt.Errorf("game %s is in state %q: %w", id, l.GameState, ErrGameNotFinal)
	}

	raw := hockey.RawGame{
		ID:       id,
		Date:     l.GameDate,
		Season:   hockey.NormaliseSeason(strconv.Itoa(l.Season)),
		HomeTeam: teamCode(l.HomeTeam),
		AwayTeam: teamCode(l.AwayTeam),
		GameType: nhlGameTypes[l.GameType],
	}

	periods := map[int]*hockey.RawPeriod{}
	for _, p := range l.Summary.Linescore.ByPeriod {
		n := modelPeriod(p.PeriodDescriptor)
		rp, ok := periods[n]
		if !ok {
			rp = &hockey.RawPeriod{Number: n, Type: string(hockey.PeriodTypeFor(n))}
			periods[n] = rp
		}
		rp.HomeGoals += p.Home
		rp.AwayGoals += p.Away
	}
	for _, p := range periods {
		raw.Periods = append(raw.Periods, *p)
	}
	sort.Slice(raw.Periods, func(i, j int) bool { return raw.Periods[i].Number < raw.Periods[j].Number })

	for _, s := range l.Summary.Scoring {
		n := modelPeriod(s.PeriodDescriptor)
		for _, g := range s.Goals {
			if g.GoalModifier != "empty-net" {
				continue
			}
			code := g.TeamAbbrev.Default
			if resolved, ok := ResolveTeamCode(code); ok {
				code = resolved
			}
			raw.EmptyNetGoals = append(raw.EmptyNetGoals, hockey.RawEmptyNetGoal{Period: n, TeamCode: code})
		}
	}

	if len(raw.Periods) == 0 {
		logger.Warn("landing document has no linescore", id)
	}
	return raw, nil
}

// modelPeriod maps a feed period onto 1-5. Periods 1-3 keep their number whatever the
// label says. Past regulation every overtime is period 4 and the shootout is period 5.
func modelPeriod(d periodDescriptor) int {
	if d.Number <= hockey.LastRegulation {
		return d.Number
	}
	if d.PeriodType == "SO" {
		return hockey.ShootoutPeriod
	}
	return hockey.OvertimePeriod
}

func teamCode(t landingTeam) string {
	for _, candidate := range []string{t.Abbrev, t.Name.Default} {
		if code, ok := ResolveTeamCode(candidate); ok {
			return code
		}
	}
	return t.Abbrev
}
