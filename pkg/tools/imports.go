package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/richard-senior/hockey/pkg/hockey"
	"github.com/richard-senior/hockey/pkg/ingest"
)

type ImportGamesArgs struct {
	Games   []hockey.RawGame `json:"games,omitempty" jsonschema:"Raw games to import, each with id, date, season, home_team, away_team and periods"`
	GameIDs []string         `json:"game_ids,omitempty" jsonschema:"NHL game ids such as 2023020001 to fetch from the feed instead"`
	Replace bool             `json:"replace,omitempty" jsonschema:"Re-import games that are already stored"`
	Source  string           `json:"source,omitempty" jsonschema:"Label recorded against the import run"`
}

// ImportResult is either a finished summary or a pending approval
type ImportResult struct {
	Status   string                        `json:"status"`
	Summary  *ingest.Summary               `json:"summary,omitempty"`
	Approval *ingest.ApprovalRequiredError `json:"approval,omitempty"`
	Message  string                        `json:"message,omitempty"`
}

const (
	StatusImported         = "imported"
	StatusApprovalRequired = "approval_required"
)

func ImportGamesTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "import_games",
		Description: `Validates and stores games, either passed in directly or fetched from the NHL feed by id.
		Bad games are reported and skipped, the rest are stored. Large batches are held until approve_import is called with the returned pending_id.`,
	}
}

func (h *Handlers) HandleImportGames(ctx context.Context, _ *mcp.CallToolRequest, args ImportGamesArgs) (*mcp.CallToolResult, any, error) {
	if h.Importer == nil {
		return toolError(errors.New("imports are disabled on this server")), nil, nil
	}
	if len(args.Games) > 0 && len(args.GameIDs) > 0 {
		return toolError(errors.New("pass either games or game_ids, not both")), nil, nil
	}
	if len(args.Games) == 0 && len(args.GameIDs) == 0 {
		return toolError(errors.New("nothing to import, pass games or game_ids")), nil, nil
	}
	opts := ingest.Options{Replace: args.Replace, Source: args.Source}

	var sum ingest.Summary
	var err error
	if len(args.GameIDs) > 0 {
		if opts.Source == "" {
			opts.Source = "feed"
		}
		sum, err = h.Importer.FetchAndImport(ctx, args.GameIDs, opts)
	} else {
		if opts.Source == "" {
			opts.Source = "mcp"
		}
		sum, err = h.Importer.Import(ctx, args.Games, opts)
	}
	return importResult(sum, err)
}

type ApproveImportArgs struct {
	PendingID string `json:"pending_id" jsonschema:"The pending_id returned by import_games"`
}

func ApproveImportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "approve_import",
		Description: "Runs an import that import_games held back for approval. Pending imports expire after a while and can only be approved once.",
	}
}

func (h *Handlers) HandleApproveImport(ctx context.Context, _ *mcp.CallToolRequest, args ApproveImportArgs) (*mcp.CallToolResult, any, error) {
	if h.Importer == nil {
		return toolError(errors.New("imports are disabled on this server")), nil, nil
	}
	if args.PendingID == "" {
		return toolError(errors.New("pending_id is required")), nil, nil
	}
	sum, err := h.Importer.Approve(ctx, args.PendingID)
	return importResult(sum, err)
}

func importResult(sum ingest.Summary, err error) (*mcp.CallToolResult, any, error) {
	var approval *ingest.ApprovalRequiredError
	switch {
	case errors.As(err, &approval):
		return toolJSON(ImportResult{
			Status:   StatusApprovalRequired,
			Approval: approval,
			Message:  fmt.Sprintf("%d games exceed the approval threshold, call approve_import with pending_id %s", approval.Games, approval.PendingID),
		})
	case err != nil:
		return toolError(err), nil, nil
	}
	return toolJSON(ImportResult{Status: StatusImported, Summary: &sum})
}
