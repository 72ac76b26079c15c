package hockey

import (
	"fmt"
	"strings"
)

// Violation is one failed check, detailed enough for a caller to decide whether to
// retry with adjusted input or give up.
type Violation struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", v.Field, v.Expected, v.Actual)
}

// ValidationError carries every violation found in a candidate game, not just the first
type ValidationError struct {
	GameID     string      `json:"game_id"`
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	id := e.GameID
	if id == "" {
		id = "<no id>"
	}
	return fmt.Sprintf("game %s failed validation (%d violations): %s", id, len(e.Violations), strings.Join(parts, "; "))
}

func (e *ValidationError) add(field, expected string, actual any) {
	e.Violations = append(e.Violations, Violation{Field: field, Expected: expected, Actual: fmt.Sprint(actual)})
}

// DataInconsistencyError means stored rows describe something that cannot happen,
// such as a finished game that is still level after overtime and shootout.
type DataInconsistencyError struct {
	GameID   string `json:"game_id"`
	TeamCode string `json:"team_code,omitempty"`
	Reason   string `json:"reason"`
}

func (e *DataInconsistencyError) Error() string {
	if e.TeamCode != "" {
		return fmt.Sprintf("inconsistent data for game %s (%s): %s", e.GameID, e.TeamCode, e.Reason)
	}
	return fmt.Sprintf("inconsistent data for game %s: %s", e.GameID, e.Reason)
}

// EmptyResultError means a query scope matched nothing. It is not a store failure and
// callers can suggest loosening the filters.
type EmptyResultError struct {
	What  string `json:"what"`
	Scope string `json:"scope,omitempty"`
}

func (e *EmptyResultError) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("no %s found", e.What)
	}
	return fmt.Sprintf("no %s found for %s", e.What, e.Scope)
}
