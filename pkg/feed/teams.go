package feed

import (
	"strings"
	"unicode"

	"github.com/richard-senior/hockey/pkg/hockey"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nhlTeams is the current league reference data
var nhlTeams = []hockey.Team{
	{Code: "BOS", Name: "Boston Bruins", Division: "Atlantic", Conference: hockey.Eastern},
	{Code: "BUF", Name: "Buffalo Sabres", Division: "Atlantic", Conference: hockey.Eastern},
	{Code: "DET", Name: "Detroit Red Wings", Division: "Atlantic", Conference: hockey.Eastern},
	{Code: "FLA", Name: "Florida Panthers", Division: "Atlantic", Conference: hockey.Eastern},
	{Code: "MTL", Name: "Montréal Canadiens", Division: "Atlantic", Conference: hockey.Eastern},
	{Code: "OTT", Name: "Ottawa Senators", Division: "Atlantic", Conference: hockey.Eastern},
	{Code: "TBL", Name: "Tampa Bay Lightning", Division: "Atlantic", Conference: hockey.Eastern},
	{Code: "TOR", Name: "Toronto Maple Leafs", Division: "Atlantic", Conference: hockey.Eastern},
	{Code: "CAR", Name: "Carolina Hurricanes", Division: "Metropolitan", Conference: hockey.Eastern},
	{Code: "CBJ", Name: "Columbus Blue Jackets", Division: "Metropolitan", Conference: hockey.Eastern},
	{Code: "NJD", Name: "New Jersey Devils", Division: "Metropolitan", Conference: hockey.Eastern},
	{Code: "NYI", Name: "New York Islanders", Division: "Metropolitan", Conference: hockey.Eastern},
	{Code: "NYR", Name: "New York Rangers", Division: "Metropolitan", Conference: hockey.Eastern},
	{Code: "PHI", Name: "Philadelphia Flyers", Division: "Metropolitan", Conference: hockey.Eastern},
	{Code: "PIT", Name: "Pittsburgh Penguins", Division: "Metropolitan", Conference: hockey.Eastern},
	{Code: "WSH", Name: "Washington Capitals", Division: "Metropolitan", Conference: hockey.Eastern},
	{Code: "CHI", Name: "Chicago Blackhawks", Division: "Central", Conference: hockey.Western},
	{Code: "COL", Name: "Colorado Avalanche", Division: "Central", Conference: hockey.Western},
	{Code: "DAL", Name: "Dallas Stars", Division: "Central", Conference: hockey.Western},
	{Code: "MIN", Name: "Minnesota Wild", Division: "Central", Conference: hockey.Western},
	{Code: "NSH", Name: "Nashville Predators", Division: "Central", Conference: hockey.Western},
	{Code: "STL", Name: "St. Louis Blues", Division: "Central", Conference: hockey.Western},
	{Code: "UTA", Name: "Utah Hockey Club", Division: "Central", Conference: hockey.Western},
	{Code: "WPG", Name: "Winnipeg Jets", Division: "Central", Conference: hockey.Western},
	{Code: "ANA", Name: "Anaheim Ducks", Division: "Pacific", Conference: hockey.Western},
	{Code: "CGY", Name: "Calgary Flames", Division: "Pacific", Conference: hockey.Western},
	{Code: "EDM", Name: "Edmonton Oilers", Division: "Pacific", Conference: hockey.Western},
	{Code: "LAK", Name: "Los Angeles Kings", Division: "Pacific", Conference: hockey.Western},
	{Code: "SEA", Name: "Seattle Kraken", Division: "Pacific", Conference: hockey.Western},
	{Code: "SJS", Name: "San Jose Sharks", Division: "Pacific", Conference: hockey.Western},
	{Code: "VAN", Name: "Vancouver Canucks", Division: "Pacific", Conference: hockey.Western},
	{Code: "VGK", Name: "Vegas Golden Knights", Division: "Pacific", Conference: hockey.Western},
}

// short codes and nicknames that turn up in older feeds. Relocated franchises keep
// their own codes.
var teamAliases = map[string]string{
	"LA":             "LAK",
	"NJ":             "NJD",
	"SJ":             "SJS",
	"TB":             "TBL",
	"habs":           "MTL",
	"leafs":          "TOR",
	"canadiens":      "MTL",
	"golden knights": "VGK",
}

// Teams returns a copy of the league reference data
func Teams() []hockey.Team {
	out := make([]hockey.Team, len(nhlTeams))
	copy(out, nhlTeams)
	return out
}

// fold lower cases s and strips accents so that "Montréal" matches "montreal"
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}

var teamIndex = func() map[string]string {
	m := map[string]string{}
	for _, t := range nhlTeams {
		m[fold(t.Code)] = t.Code
		m[fold(t.Name)] = t.Code
		// the nickname alone, "Maple Leafs", "Red Wings", "Blues"
		words := strings.Fields(t.Name)
		for i := 1; i < len(words); i++ {
			m[fold(strings.Join(words[i:], " "))] = t.Code
		}
	}
	for alias, code := range teamAliases {
		m[fold(alias)] = code
	}
	return m
}()

// ResolveTeamCode maps a code, full name, nickname or short code to the three letter
// code. Matching ignores case, accents and extra spaces.
func ResolveTeamCode(name string) (string, bool) {
	code, ok := teamIndex[fold(name)]
	return code, ok
}
