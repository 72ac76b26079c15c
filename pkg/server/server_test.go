package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/richard-senior/hockey/internal/processor"
	"github.com/richard-senior/hockey/pkg/hockey"
	"github.com/richard-senior/hockey/pkg/ingest"
	"github.com/richard-senior/hockey/pkg/resources"
	"github.com/richard-senior/hockey/pkg/store"
	"github.com/richard-senior/hockey/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connect starts a server on an in-memory transport and returns a client session to it
func connect(t *testing.T, withImporter bool) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.SaveTeams(ctx, []hockey.Team{
		{Code: "TOR", Name: "Toronto Maple Leafs", Conference: hockey.Eastern, Division: "Atlantic"},
		{Code: "MTL", Name: "Montreal Canadiens", Conference: hockey.Eastern, Division: "Atlantic"},
	}))

	h := &tools.Handlers{Processor: processor.New(s)}
	if withImporter {
		h.Importer = ingest.NewImporter(ingest.Config{Store: s, Threshold: 10})
	}
	srv := New(h, s)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := srv.MCP().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callText(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text, res.IsError
}

func TestListTools(t *testing.T) {
	session := connect(t, true)
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"team_stats", "head_to_head", "team_trend", "period_rankings", "two_plus_games",
		"period_performance", "data_health", "import_games", "approve_import",
	}, names)
}

func TestReadOnlyServerHasNoImportTools(t *testing.T) {
	session := connect(t, false)
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	for _, tool := range res.Tools {
		assert.NotEqual(t, "import_games", tool.Name)
	}
}

func TestImportAndQueryOverMCP(t *testing.T) {
	session := connect(t, true)

	out, isErr := callText(t, session, "import_games", map[string]any{
		"games": []map[string]any{{
			"id": "g1", "date": "2023-10-10", "season": "2023-2024", "home_team": "TOR", "away_team": "MTL",
			"periods": []map[string]any{
				{"number": 1, "home_goals": 1, "away_goals": 0},
				{"number": 2, "home_goals": 0, "away_goals": 0},
				{"number": 3, "home_goals": 2, "away_goals": 1},
			},
		}},
	})
	require.False(t, isErr, out)
	var imported tools.ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, 1, imported.Summary.Inserted)

	out, isErr = callText(t, session, "head_to_head", map[string]any{"team_a": "TOR", "team_b": "MTL"})
	require.False(t, isErr, out)
	var h2h hockey.HeadToHeadResult
	require.NoError(t, json.Unmarshal([]byte(out), &h2h))
	assert.Equal(t, "TOR", h2h.SeriesLeader)
	assert.Equal(t, 1, h2h.TeamA.GoodWins)

	out, isErr = callText(t, session, "data_health", map[string]any{})
	require.False(t, isErr, out)
	var rep hockey.HealthReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 1, rep.TotalGames)
}

func TestResourcesAndPrompts(t *testing.T) {
	ctx := context.Background()
	session := connect(t, true)

	res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: resources.TeamsURI})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	var teams []hockey.Team
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &teams))
	assert.Len(t, teams, 2)

	prompt, err := session.GetPrompt(ctx, &mcp.GetPromptParams{Name: "team_report", Arguments: map[string]string{"team_code": "tor"}})
	require.NoError(t, err)
	require.Len(t, prompt.Messages, 1)
	tc, ok := prompt.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, tc.Text, "team_stats with team_code TOR")

	_, err = session.GetPrompt(ctx, &mcp.GetPromptParams{Name: "matchup_preview", Arguments: map[string]string{"team_a": "TOR"}})
	assert.Error(t, err)
}
