package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/pkg/hockey"
)

// Reader is the read side of the store
type Reader interface {
	Teams(ctx context.Context) ([]hockey.Team, error)
	Query(ctx context.Context, scope hockey.Scope) ([]hockey.Game, []hockey.PeriodResult, error)
	Corpus(ctx context.Context) ([]hockey.Team, []hockey.Game, []hockey.PeriodResult, error)
}

// Processor answers statistics queries against the stored corpus. The MCP tools, the
// HTTP API and the query command all go through it.
type Processor struct {
	store Reader
}

func New(store Reader) *Processor {
	return &Processor{store: store}
}

// TeamStats ranks every team matching the scope over the games matching it. A limit
// above zero keeps only the top of the table.
func (p *Processor) TeamStats(ctx context.Context, scope hockey.Scope, limit int) (hockey.TeamStatsResult, error) {
	if err := scope.Validate(); err != nil {
		return hockey.TeamStatsResult{}, err
	}
	all, err := p.store.Teams(ctx)
	if err != nil {
		return hockey.TeamStatsResult{}, err
	}
	teams := hockey.FilterTeams(all, scope)
	if len(teams) == 0 {
		return hockey.TeamStatsResult{}, &hockey.EmptyResultError{What: "teams", Scope: scope.String()}
	}
	games, rows, err := p.store.Query(ctx, scope)
	if err != nil {
		return hockey.TeamStatsResult{}, err
	}
	res := hockey.AggregateTeamStats(teams, games, rows)
	if limit > 0 && len(res.Teams) > limit {
		res.Teams = res.Teams[:limit]
	}
	return res, nil
}

func (p *Processor) HeadToHead(ctx context.Context, q hockey.HeadToHeadQuery) (hockey.HeadToHeadResult, error) {
	if err := q.Validate(); err != nil {
		return hockey.HeadToHeadResult{}, err
	}
	games, rows, err := p.store.Query(ctx, hockey.Scope{TeamCode: q.TeamA, Season: q.Season})
	if err != nil {
		return hockey.HeadToHeadResult{}, err
	}
	return hockey.HeadToHead(q, games, rows)
}

func (p *Processor) Trend(ctx context.Context, cfg hockey.TrendConfig) (hockey.TrendResult, error) {
	if err := cfg.Validate(); err != nil {
		return hockey.TrendResult{}, err
	}
	games, rows, err := p.store.Query(ctx, hockey.Scope{TeamCode: cfg.TeamCode, Season: cfg.Season})
	if err != nil {
		return hockey.TrendResult{}, err
	}
	return hockey.AnalyzeTrend(cfg, games, rows)
}

func (p *Processor) PeriodRankings(ctx context.Context, q hockey.PeriodRankingQuery) ([]hockey.PeriodRanking, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	games, rows, err := p.store.Query(ctx, hockey.Scope{From: q.From, To: q.To})
	if err != nil {
		return nil, err
	}
	return hockey.PeriodWinRankings(q, games, rows)
}

// TwoPlusGames lists a team's games with two or more regulation periods won, optionally
// within one season
func (p *Processor) TwoPlusGames(ctx context.Context, team, season string) ([]hockey.TwoPlusGame, error) {
	scope := hockey.Scope{TeamCode: team, Season: season}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	games, rows, err := p.store.Query(ctx, scope)
	if err != nil {
		return nil, err
	}
	return hockey.TwoPlusGames(team, games, rows)
}

func (p *Processor) PeriodPerformance(ctx context.Context, q hockey.PerformanceQuery) ([]hockey.PeriodPerformance, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	games, rows, err := p.store.Query(ctx, hockey.Scope{TeamCode: q.TeamCode, From: q.From, To: q.To})
	if err != nil {
		return nil, err
	}
	return hockey.TeamPeriodPerformance(q, games, rows)
}

// Health runs the health checker over the whole corpus, or one season of it
func (p *Processor) Health(ctx context.Context, season string) (hockey.HealthReport, error) {
	if season != "" {
		if err := (hockey.Scope{Season: season}).Validate(); err != nil {
			return hockey.HealthReport{}, err
		}
	}
	teams, games, rows, err := p.store.Corpus(ctx)
	if err != nil {
		return hockey.HealthReport{}, err
	}
	rep := hockey.CheckHealth(teams, games, rows, season)
	logger.Info("Health check", season, "score", rep.HealthScore, "issues", len(rep.Issues))
	return rep, nil
}

// Request is a named query with its arguments as JSON
type Request struct {
	Query     string          `json:"query"`
	RequestID string          `json:"requestId,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
}

// Response carries either a result or an error for one Request
type Response struct {
	RequestID string         `json:"requestId,omitempty"`
	Query     string         `json:"query"`
	Result    any            `json:"result,omitempty"`
	Error     *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse classifies a failed query so callers can tell bad input from an empty
// result or a store failure
type ErrorResponse struct {
	Code       string             `json:"code"`
	Message    string             `json:"message"`
	Violations []hockey.Violation `json:"violations,omitempty"`
}

// Error codes returned in ErrorResponse.Code
const (
	CodeInvalidRequest = "invalid_request"
	CodeValidation     = "validation_error"
	CodeEmptyResult    = "empty_result"
	CodeInternal       = "internal_error"
)

// Classify maps an error from the core or the store to an ErrorResponse
func Classify(err error) *ErrorResponse {
	var verr *hockey.ValidationError
	var empty *hockey.EmptyResultError
	switch {
	case errors.As(err, &verr):
		return &ErrorResponse{Code: CodeValidation, Message: err.Error(), Violations: verr.Violations}
	case errors.As(err, &empty):
		return &ErrorResponse{Code: CodeEmptyResult, Message: err.Error()}
	default:
		return &ErrorResponse{Code: CodeInternal, Message: err.Error()}
	}
}

// Queries lists the names ProcessRequest understands
var Queries = []string{"team_stats", "head_to_head", "team_trend", "period_rankings", "two_plus_games", "period_performance", "data_health"}

// ProcessRequest decodes a Request, runs it and encodes the Response. Only a failure to
// encode the response is returned as an error; query failures are reported inside it.
func (p *Processor) ProcessRequest(ctx context.Context, input []byte) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(input, &req); err != nil {
		logger.Error("Failed to parse input JSON", err)
		return encode(Response{Error: &ErrorResponse{Code: CodeInvalidRequest, Message: fmt.Sprintf("Invalid JSON: %v", err)}})
	}
	logger.Info("Processing request", req.Query, req.RequestID)

	resp := Response{RequestID: req.RequestID, Query: req.Query}
	result, err := p.dispatch(ctx, req)
	if err != nil {
		var bad *badRequest
		if errors.As(err, &bad) {
			resp.Error = &ErrorResponse{Code: CodeInvalidRequest, Message: err.Error()}
		} else {
			resp.Error = Classify(err)
		}
	} else {
		resp.Result = result
	}
	return encode(resp)
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func (p *Processor) dispatch(ctx context.Context, req Request) (any, error) {
	switch req.Query {
	case "team_stats":
		var a struct {
			hockey.Scope
			Limit int `json:"limit"`
		}
		if err := decodeArgs(req.Args, &a); err != nil {
			return nil, err
		}
		return p.TeamStats(ctx, a.Scope, a.Limit)
	case "head_to_head":
		var q hockey.HeadToHeadQuery
		if err := decodeArgs(req.Args, &q); err != nil {
			return nil, err
		}
		return p.HeadToHead(ctx, q)
	case "team_trend":
		var cfg hockey.TrendConfig
		if err := decodeArgs(req.Args, &cfg); err != nil {
			return nil, err
		}
		return p.Trend(ctx, cfg)
	case "period_rankings":
		var q hockey.PeriodRankingQuery
		if err := decodeArgs(req.Args, &q); err != nil {
			return nil, err
		}
		return p.PeriodRankings(ctx, q)
	case "two_plus_games":
		var a struct {
			TeamCode string `json:"team_code"`
			Season   string `json:"season"`
		}
		if err := decodeArgs(req.Args, &a); err != nil {
			return nil, err
		}
		return p.TwoPlusGames(ctx, a.TeamCode, a.Season)
	case "period_performance":
		var q hockey.PerformanceQuery
		if err := decodeArgs(req.Args, &q); err != nil {
			return nil, err
		}
		return p.PeriodPerformance(ctx, q)
	case "data_health":
		var a struct {
			Season string `json:"season"`
		}
		if err := decodeArgs(req.Args, &a); err != nil {
			return nil, err
		}
		return p.Health(ctx, a.Season)
	}
	return nil, &badRequest{fmt.Sprintf("unknown query %q, expected one of %s", req.Query, strings.Join(Queries, ", "))}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &badRequest{fmt.Sprintf("invalid args: %v", err)}
	}
	return nil
}

func encode(resp Response) ([]byte, error) {
	return json.MarshalIndent(resp, "", "  ")
}
