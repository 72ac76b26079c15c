package hockey

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var seasonPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// ParseSeason returns the two years of a YYYY-YYYY season string, requiring the second
// to follow the first.
func ParseSeason(season string) (int, int, error) {
	m := seasonPattern.FindStringSubmatch(season)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid season format: %q, expected YYYY-YYYY", season)
	}
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	if second != first+1 {
		return 0, 0, fmt.Errorf("season years must be consecutive: %q", season)
	}
	return first, second, nil
}

// NormaliseSeason rewrites the season spellings that feeds commonly use into YYYY-YYYY.
// 2023/2024, 2023-24, 2023/24 and 20232024 all become 2023-2024, and 1999-00 becomes
// 1999-2000. Anything it does not
// recognise is returned unchanged so that validation can report it.
func NormaliseSeason(season string) string {
	ss := strings.TrimSpace(season)
	switch {
	case len(ss) == 9 && (ss[4] == '-' || ss[4] == '/'):
		return ss[:4] + "-" + ss[5:]
	case len(ss) == 8 && isDigits(ss):
		return ss[:4] + "-" + ss[4:]
	case len(ss) == 7 && (ss[4] == '-' || ss[4] == '/') && isDigits(ss[:4]) && isDigits(ss[5:]):
		// short form, only the last two digits of the second year are given
		first, _ := strconv.Atoi(ss[:4])
		if fmt.Sprintf("%02d", (first+1)%100) == ss[5:] {
			return fmt.Sprintf("%04d-%04d", first, first+1)
		}
	}
	return season
}

// GetFirstYear returns the first year of a season
func GetFirstYear(season string) (int, error) {
	first, _, err := ParseSeason(NormaliseSeason(season))
	return first, err
}

// IsSameSeason returns true if both strings name the same season in any accepted spelling
func IsSameSeason(s1, s2 string) bool {
	a, err := GetFirstYear(s1)
	if err != nil {
		return false
	}
	b, err := GetFirstYear(s2)
	if err != nil {
		return false
	}
	return a == b
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
