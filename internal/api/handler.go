package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/internal/processor"
	"github.com/richard-senior/hockey/pkg/hockey"
	"github.com/richard-senior/hockey/pkg/store"
)

// Store is the part of the store the API reads directly
type Store interface {
	Ping(ctx context.Context) error
	Teams(ctx context.Context) ([]hockey.Team, error)
	Runs(ctx context.Context, limit int) ([]store.ImportRun, error)
}

// Handler serves the read only JSON API
type Handler struct {
	proc  *processor.Processor
	store Store
}

func NewHandler(proc *processor.Processor, st Store) *Handler {
	return &Handler{proc: proc, store: st}
}

// NewRouter registers every route under /api/v1. A non-nil mcpHandler is also mounted
// at /mcp.
func NewRouter(h *Handler, mcpHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	v1 := r.Group("/api/v1")
	v1.GET("/ping", h.Ping)
	v1.GET("/teams", h.ListTeams)
	v1.GET("/teams/:code/trend", h.Trend)
	v1.GET("/teams/:code/two-plus", h.TwoPlusGames)
	v1.GET("/teams/:code/periods", h.PeriodPerformance)
	v1.GET("/stats/teams", h.TeamStats)
	v1.GET("/stats/periods", h.PeriodRankings)
	v1.GET("/head-to-head/:a/:b", h.HeadToHead)
	v1.GET("/health", h.DataHealth)
	v1.GET("/imports", h.ListImports)

	if mcpHandler != nil {
		r.Any("/mcp", gin.WrapH(mcpHandler))
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug(c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}

// fail maps core errors to status codes: bad input 400, nothing matched 404, the rest 500
func fail(c *gin.Context, err error) {
	resp := processor.Classify(err)
	status := http.StatusInternalServerError
	switch resp.Code {
	case processor.CodeValidation:
		status = http.StatusBadRequest
	case processor.CodeEmptyResult:
		status = http.StatusNotFound
	default:
		logger.Error("Request failed", c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": resp})
}

func code(c *gin.Context, param string) string {
	return strings.ToUpper(c.Param(param))
}

// GET /api/v1/ping
func (h *Handler) Ping(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /api/v1/teams
func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.store.Teams(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// GET /api/v1/stats/teams?season=2023-2024&from=&to=&team=&conference=&division=&limit=
func (h *Handler) TeamStats(c *gin.Context) {
	scope := hockey.Scope{
		TeamCode:   strings.ToUpper(c.Query("team")),
		Season:     c.Query("season"),
		From:       c.Query("from"),
		To:         c.Query("to"),
		Conference: hockey.Conference(c.Query("conference")),
		Division:   c.Query("division"),
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	res, err := h.proc.TeamStats(c.Request.Context(), scope, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/head-to-head/:a/:b?season=
func (h *Handler) HeadToHead(c *gin.Context) {
	res, err := h.proc.HeadToHead(c.Request.Context(), hockey.HeadToHeadQuery{
		TeamA:  code(c, "a"),
		TeamB:  code(c, "b"),
		Season: c.Query("season"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/teams/:code/trend?metric=period_win_pct&window=monthly&season=
func (h *Handler) Trend(c *gin.Context) {
	res, err := h.proc.Trend(c.Request.Context(), hockey.TrendConfig{
		TeamCode: code(c, "code"),
		Metric:   hockey.TrendMetric(c.DefaultQuery("metric", string(hockey.MetricPeriodWinPct))),
		Window:   hockey.TrendWindow(c.DefaultQuery("window", string(hockey.WindowMonthly))),
		Season:   c.Query("season"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/stats/periods?outcome=WIN&from=&to=&regulation_only=true
func (h *Handler) PeriodRankings(c *gin.Context) {
	outcome, err := hockey.ParseOutcome(c.DefaultQuery("outcome", string(hockey.Win)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": processor.CodeValidation, "message": err.Error()}})
		return
	}
	regOnly, _ := strconv.ParseBool(c.DefaultQuery("regulation_only", "false"))
	res, err := h.proc.PeriodRankings(c.Request.Context(), hockey.PeriodRankingQuery{
		Outcome:        outcome,
		From:           c.Query("from"),
		To:             c.Query("to"),
		RegulationOnly: regOnly,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/teams/:code/two-plus?season=
func (h *Handler) TwoPlusGames(c *gin.Context) {
	res, err := h.proc.TwoPlusGames(c.Request.Context(), code(c, "code"), c.Query("season"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/teams/:code/periods?from=&to=
func (h *Handler) PeriodPerformance(c *gin.Context) {
	res, err := h.proc.PeriodPerformance(c.Request.Context(), hockey.PerformanceQuery{
		TeamCode: code(c, "code"),
		From:     c.Query("from"),
		To:       c.Query("to"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/v1/health?season=
func (h *Handler) DataHealth(c *gin.Context) {
	rep, err := h.proc.Health(c.Request.Context(), c.Query("season"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GET /api/v1/imports?limit=20
func (h *Handler) ListImports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.store.Runs(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}
