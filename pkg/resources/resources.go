package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/pkg/hockey"
	"github.com/richard-senior/hockey/pkg/store"
)

const (
	TeamsURI = "hockey://teams"
	RunsURI  = "hockey://imports"
)

// recentRuns is how many import runs the imports resource lists
const recentRuns = 20

// Source is what the resources read from
type Source interface {
	Teams(ctx context.Context) ([]hockey.Team, error)
	Runs(ctx context.Context, limit int) ([]store.ImportRun, error)
}

// TeamsResource lists the known teams with their codes, conference and division
func TeamsResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         TeamsURI,
		Name:        "teams",
		Description: "Every known team with its three letter code, conference and division",
		MIMEType:    "application/json",
	}
}

func TeamsResourceHandler(src Source) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		logger.Info("Handling resource query for:", TeamsURI)
		teams, err := src.Teams(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load teams: %w", err)
		}
		return jsonContents(TeamsURI, teams)
	}
}

// ImportRunsResource lists the most recent import runs
func ImportRunsResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         RunsURI,
		Name:        "imports",
		Description: "The most recent import runs with how many games each inserted, skipped or rejected",
		MIMEType:    "application/json",
	}
}

func ImportRunsResourceHandler(src Source) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		logger.Info("Handling resource query for:", RunsURI)
		runs, err := src.Runs(ctx, recentRuns)
		if err != nil {
			return nil, fmt.Errorf("failed to load import runs: %w", err)
		}
		return jsonContents(RunsURI, runs)
	}
}

func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
