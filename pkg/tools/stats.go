package tools

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/richard-senior/hockey/pkg/hockey"
)

type TeamStatsArgs struct {
	TeamCode   string `json:"team_code,omitempty" jsonschema:"Three letter team code such as TOR. Omit for every team"`
	Season     string `json:"season,omitempty" jsonschema:"Season as YYYY-YYYY, e.g. 2023-2024"`
	From       string `json:"from,omitempty" jsonschema:"First game date to include, YYYY-MM-DD"`
	To         string `json:"to,omitempty" jsonschema:"Last game date to include, YYYY-MM-DD"`
	Conference string `json:"conference,omitempty" jsonschema:"Eastern or Western"`
	Division   string `json:"division,omitempty" jsonschema:"Division name such as Atlantic"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Keep only the top N teams"`
}

func (a TeamStatsArgs) scope() hockey.Scope {
	return hockey.Scope{
		TeamCode:   strings.ToUpper(a.TeamCode),
		Season:     a.Season,
		From:       a.From,
		To:         a.To,
		Conference: hockey.Conference(a.Conference),
		Division:   a.Division,
	}
}

func TeamStatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "team_stats",
		Description: `Ranked team table built from period outcomes.
		Good wins are wins where the team won at least two of the three regulation periods, bad wins are the rest.
		Teams are ordered by good wins, then by a rank score mixing points (60%) and good minus bad wins (40%).`,
	}
}

func (h *Handlers) HandleTeamStats(ctx context.Context, _ *mcp.CallToolRequest, args TeamStatsArgs) (*mcp.CallToolResult, any, error) {
	res, err := h.Processor.TeamStats(ctx, args.scope(), args.Limit)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(res)
}

type HeadToHeadArgs struct {
	TeamA  string `json:"team_a" jsonschema:"Three letter code of the first team"`
	TeamB  string `json:"team_b" jsonschema:"Three letter code of the second team"`
	Season string `json:"season,omitempty" jsonschema:"Season as YYYY-YYYY. Omit for every meeting on record"`
}

func HeadToHeadTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "head_to_head",
		Description: "Compares two teams over the games they played against each other: wins, good wins and which team dominates each regulation period.",
	}
}

func (h *Handlers) HandleHeadToHead(ctx context.Context, _ *mcp.CallToolRequest, args HeadToHeadArgs) (*mcp.CallToolResult, any, error) {
	res, err := h.Processor.HeadToHead(ctx, hockey.HeadToHeadQuery{
		TeamA:  strings.ToUpper(args.TeamA),
		TeamB:  strings.ToUpper(args.TeamB),
		Season: args.Season,
	})
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(res)
}

type TrendArgs struct {
	TeamCode string `json:"team_code" jsonschema:"Three letter team code"`
	Metric   string `json:"metric,omitempty" jsonschema:"periods_won, good_wins, win_pct, goals_per_game or period_win_pct (default period_win_pct)"`
	Window   string `json:"window,omitempty" jsonschema:"weekly, monthly or rolling10 (default monthly)"`
	Season   string `json:"season,omitempty" jsonschema:"Season as YYYY-YYYY"`
}

func TrendTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "team_trend",
		Description: `Splits a team's games into windows and says whether a metric is improving, stable or declining.
		The mean of the last three windows is compared with the first three; a change beyond 10% either way is a trend.`,
	}
}

func (h *Handlers) HandleTrend(ctx context.Context, _ *mcp.CallToolRequest, args TrendArgs) (*mcp.CallToolResult, any, error) {
	cfg := hockey.TrendConfig{
		TeamCode: strings.ToUpper(args.TeamCode),
		Metric:   hockey.TrendMetric(args.Metric),
		Window:   hockey.TrendWindow(args.Window),
		Season:   args.Season,
	}
	if cfg.Metric == "" {
		cfg.Metric = hockey.MetricPeriodWinPct
	}
	if cfg.Window == "" {
		cfg.Window = hockey.WindowMonthly
	}
	res, err := h.Processor.Trend(ctx, cfg)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(res)
}

type PeriodRankingsArgs struct {
	Outcome        string `json:"outcome,omitempty" jsonschema:"WIN, LOSS or TIE (default WIN)"`
	From           string `json:"from,omitempty" jsonschema:"First game date, YYYY-MM-DD"`
	To             string `json:"to,omitempty" jsonschema:"Last game date, YYYY-MM-DD"`
	RegulationOnly bool   `json:"regulation_only,omitempty" jsonschema:"Count only periods 1 to 3"`
}

func PeriodRankingsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "period_rankings",
		Description: "Ranks teams by how many periods they won, lost or tied in a date range.",
	}
}

func (h *Handlers) HandlePeriodRankings(ctx context.Context, _ *mcp.CallToolRequest, args PeriodRankingsArgs) (*mcp.CallToolResult, any, error) {
	q := hockey.PeriodRankingQuery{From: args.From, To: args.To, RegulationOnly: args.RegulationOnly, Outcome: hockey.Win}
	if args.Outcome != "" {
		q.Outcome = hockey.Outcome(strings.ToUpper(strings.TrimSpace(args.Outcome)))
	}
	res, err := h.Processor.PeriodRankings(ctx, q)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(res)
}

type TwoPlusGamesArgs struct {
	TeamCode string `json:"team_code" jsonschema:"Three letter team code"`
	Season   string `json:"season,omitempty" jsonschema:"Season as YYYY-YYYY"`
}

func TwoPlusGamesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "two_plus_games",
		Description: "Lists the games in which a team won at least two regulation periods, most recent first.",
	}
}

func (h *Handlers) HandleTwoPlusGames(ctx context.Context, _ *mcp.CallToolRequest, args TwoPlusGamesArgs) (*mcp.CallToolResult, any, error) {
	res, err := h.Processor.TwoPlusGames(ctx, strings.ToUpper(args.TeamCode), args.Season)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(res)
}

type PeriodPerformanceArgs struct {
	TeamCode string `json:"team_code" jsonschema:"Three letter team code"`
	From     string `json:"from,omitempty" jsonschema:"First game date, YYYY-MM-DD"`
	To       string `json:"to,omitempty" jsonschema:"Last game date, YYYY-MM-DD"`
}

func PeriodPerformanceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "period_performance",
		Description: "Every period a team played in a date range with goals for, against, empty net goals and the outcome.",
	}
}

func (h *Handlers) HandlePeriodPerformance(ctx context.Context, _ *mcp.CallToolRequest, args PeriodPerformanceArgs) (*mcp.CallToolResult, any, error) {
	res, err := h.Processor.PeriodPerformance(ctx, hockey.PerformanceQuery{
		TeamCode: strings.ToUpper(args.TeamCode),
		From:     args.From,
		To:       args.To,
	})
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(res)
}

type DataHealthArgs struct {
	Season string `json:"season,omitempty" jsonschema:"Season as YYYY-YYYY. Omit to check everything"`
}

func DataHealthTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "data_health",
		Description: "Checks the stored games for missing or incomplete periods, unknown teams, orphaned rows and schedule gaps, and scores the data out of 100.",
	}
}

func (h *Handlers) HandleDataHealth(ctx context.Context, _ *mcp.CallToolRequest, args DataHealthArgs) (*mcp.CallToolResult, any, error) {
	res, err := h.Processor.Health(ctx, args.Season)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(res)
}
