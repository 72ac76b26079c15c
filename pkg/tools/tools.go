package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/internal/processor"
	"github.com/richard-senior/hockey/pkg/ingest"
)

// Handlers holds what the tool handlers need. Importer may be nil for a read-only server,
// in which case the import tools answer with an error.
type Handlers struct {
	Processor *processor.Processor
	Importer  *ingest.Importer
}

// toolJSON renders v as indented JSON text content
func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(fmt.Errorf("failed to encode result: %w", err)), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

// toolError reports a failed call as a tool result rather than a protocol error, with the
// violations spelled out so the caller can correct its arguments
func toolError(err error) *mcp.CallToolResult {
	logger.Warn("Tool call failed", err)
	text := fmt.Sprintf("error: %v", err)
	if b, merr := json.MarshalIndent(processor.Classify(err), "", "  "); merr == nil {
		text = string(b)
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
