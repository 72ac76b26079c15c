package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/pkg/prompts"
	"github.com/richard-senior/hockey/pkg/resources"
	"github.com/richard-senior/hockey/pkg/tools"
)

const (
	Name    = "hockey-mcp"
	Version = "0.3.0"
)

// ToolInfo is the name and description of a registered tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Server is the MCP server exposing the hockey tools, resources and prompts
type Server struct {
	mcp      *mcp.Server
	handlers *tools.Handlers
	source   resources.Source
	tools    []ToolInfo
}

// Singleton instance
var (
	instance *Server
	once     sync.Once
	mu       sync.Mutex
)

// GetInstance returns the singleton instance of the Server, nil until InitInstance ran
func GetInstance() *Server {
	if instance == nil {
		logger.Warn("Server instance requested but not initialized. Use InitInstance first.")
	}
	return instance
}

// InitInstance initializes the singleton instance of the Server
func InitInstance(h *tools.Handlers, src resources.Source) *Server {
	once.Do(func() {
		instance = New(h, src)
	})
	return instance
}

// New builds a server with every default tool, resource and prompt registered
func New(h *tools.Handlers, src resources.Source) *Server {
	s := &Server{
		mcp:      mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil),
		handlers: h,
		source:   src,
	}
	s.RegisterDefaultTools()
	s.RegisterDefaultResources()
	s.RegisterDefaultPrompts()
	return s
}

func addTool[In any](s *Server, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, any, error)) {
	mu.Lock()
	defer mu.Unlock()
	s.tools = append(s.tools, ToolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(s.mcp, tool, handler)
	logger.Info("Registered tool:", tool.Name)
}

// RegisterDefaultTools registers all the default tools with the server
func (s *Server) RegisterDefaultTools() {
	logger.Info("Registering default tools...")
	h := s.handlers

	addTool(s, tools.TeamStatsTool(), h.HandleTeamStats)
	addTool(s, tools.HeadToHeadTool(), h.HandleHeadToHead)
	addTool(s, tools.TrendTool(), h.HandleTrend)
	addTool(s, tools.PeriodRankingsTool(), h.HandlePeriodRankings)
	addTool(s, tools.TwoPlusGamesTool(), h.HandleTwoPlusGames)
	addTool(s, tools.PeriodPerformanceTool(), h.HandlePeriodPerformance)
	addTool(s, tools.DataHealthTool(), h.HandleDataHealth)

	if h.Importer == nil {
		logger.Info("No importer configured, import tools not registered")
		return
	}
	addTool(s, tools.ImportGamesTool(), h.HandleImportGames)
	addTool(s, tools.ApproveImportTool(), h.HandleApproveImport)
}

// RegisterDefaultResources registers all the default resources with the server
func (s *Server) RegisterDefaultResources() {
	if s.source == nil {
		return
	}
	logger.Info("Registering default resources...")
	s.mcp.AddResource(resources.TeamsResource(), resources.TeamsResourceHandler(s.source))
	s.mcp.AddResource(resources.ImportRunsResource(), resources.ImportRunsResourceHandler(s.source))
}

// RegisterDefaultPrompts registers all the default prompts with the server
func (s *Server) RegisterDefaultPrompts() {
	logger.Info("Registering default prompts...")
	s.mcp.AddPrompt(prompts.TeamReportPrompt(), prompts.HandleTeamReport)
	s.mcp.AddPrompt(prompts.MatchupPreviewPrompt(), prompts.HandleMatchupPreview)
}

// GetTools returns the list of registered tools
func (s *Server) GetTools() []ToolInfo {
	mu.Lock()
	defer mu.Unlock()
	out := make([]ToolInfo, len(s.tools))
	copy(out, s.tools)
	return out
}

// MCP exposes the underlying server, e.g. to connect it to an in-memory transport
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// HTTPHandler serves the same server over streamable HTTP
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

// Start serves MCP on stdin/stdout until the client goes away, the context is cancelled
// or the process receives SIGINT or SIGTERM
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting MCP server")
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		logger.Info("MCP server stopped by signal")
		return nil
	}
	return err
}
