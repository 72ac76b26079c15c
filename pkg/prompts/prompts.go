package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/richard-senior/hockey/internal/logger"
)

// TeamReportPrompt asks for a written report on one team built from the stats tools
func TeamReportPrompt() *mcp.Prompt {
	return &mcp.Prompt{
		Name:        "team_report",
		Description: "Write a report on one team's period by period form",
		Arguments: []*mcp.PromptArgument{
			{Name: "team_code", Description: "Three letter team code", Required: true},
			{Name: "season", Description: "Season as YYYY-YYYY"},
		},
	}
}

func HandleTeamReport(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	team, season, err := args(req, "team_code", "season")
	if err != nil {
		return nil, err
	}
	scope := "across every stored season"
	if season != "" {
		scope = "in the " + season + " season"
	}
	text := fmt.Sprintf(`Write a short report on %[1]s %[2]s.
Use team_stats with team_code %[1]s to get their record, good wins and bad wins.
Use team_trend with metric period_win_pct and then good_wins to say whether they are improving.
Use two_plus_games to find their most convincing wins.
Point out which period they tend to win or lose, and keep any numbers exactly as the tools return them.`, team, scope)
	return result("Team report for "+team, text), nil
}

// MatchupPreviewPrompt asks for a preview of a game between two teams
func MatchupPreviewPrompt() *mcp.Prompt {
	return &mcp.Prompt{
		Name:        "matchup_preview",
		Description: "Preview a game between two teams from their head to head record and current form",
		Arguments: []*mcp.PromptArgument{
			{Name: "team_a", Description: "Three letter code of the first team", Required: true},
			{Name: "team_b", Description: "Three letter code of the second team", Required: true},
		},
	}
}

func HandleMatchupPreview(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	a, b, err := args(req, "team_a", "team_b")
	if err != nil {
		return nil, err
	}
	if b == "" {
		return nil, fmt.Errorf("team_b is required")
	}
	text := fmt.Sprintf(`Preview the next game between %[1]s and %[2]s.
Call head_to_head with team_a %[1]s and team_b %[2]s for the series so far and which team owns each period.
Call team_trend for both teams with window rolling10 to compare recent form.
Finish with the period you expect to decide the game and why the numbers point that way.`, a, b)
	return result(fmt.Sprintf("Matchup preview %s v %s", a, b), text), nil
}

// args returns the first argument, which must be present, and the second, which may be
// empty. Team codes are upper cased.
func args(req *mcp.GetPromptRequest, first, second string) (string, string, error) {
	var m map[string]string
	if req != nil && req.Params != nil {
		m = req.Params.Arguments
	}
	v1 := strings.TrimSpace(m[first])
	if v1 == "" {
		return "", "", fmt.Errorf("%s is required", first)
	}
	v2 := strings.TrimSpace(m[second])
	if strings.HasPrefix(first, "team") {
		v1 = strings.ToUpper(v1)
	}
	if strings.HasPrefix(second, "team") {
		v2 = strings.ToUpper(v2)
	}
	logger.Info("Building prompt with", first, v1, second, v2)
	return v1, v2, nil
}

func result(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}
