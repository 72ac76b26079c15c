package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richard-senior/hockey/internal/api"
	"github.com/richard-senior/hockey/internal/config"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/internal/schedule"
	"github.com/richard-senior/hockey/pkg/feed"
	"github.com/richard-senior/hockey/pkg/hockey"
	"github.com/richard-senior/hockey/pkg/ingest"
	"github.com/richard-senior/hockey/pkg/server"
)

const usage = `usage: hockey [command] [args]

commands:
  serve                 run the MCP server on stdio (default)
  http                  run the JSON API and MCP over HTTP
  seed                  store the built in team list
  import <file>         import games from a JSON array or a boxscore HTML page
  fetch <id>...         fetch games from the feed and import them
  approve <pending id>  run an import that was held for approval
  backfill              fill in derived columns on stored rows
  health [season]       print the data health report
  runs                  list recent import runs
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.SetShowDateTime(true)
	logger.SetLogFile(cfg.LogFile)
	logger.SetLogOutput(cfg.LogOutputRune())
	if lvl, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warn("Unknown log level, keeping default:", cfg.LogLevel)
	}

	cmd, args := "serve", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Print(usage)
		return
	}
	logger.Info("Starting hockey", cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logger.Error("Startup failed", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := run(ctx, a, cmd, args); err != nil {
		logger.Error(cmd, "failed:", err)
		fmt.Fprintln(os.Stderr, err)
		a.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app, cmd string, args []string) error {
	switch cmd {
	case "serve":
		return serve(ctx, a)
	case "http":
		return serveHTTP(ctx, a)
	case "seed":
		return seed(ctx, a)
	case "import":
		if len(args) != 1 {
			return errors.New("import needs exactly one file")
		}
		return importFile(ctx, a, args[0])
	case "fetch":
		if len(args) == 0 {
			return errors.New("fetch needs at least one game id")
		}
		return printImport(a.importer.FetchAndImport(ctx, args, ingest.Options{Source: "feed", Approved: true}))
	case "approve":
		if len(args) != 1 {
			return errors.New("approve needs a pending id")
		}
		return printImport(a.importer.Approve(ctx, args[0]))
	case "backfill":
		n, err := a.store.Backfill(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("backfilled %d rows\n", n)
		return nil
	case "health":
		season := ""
		if len(args) > 0 {
			season = args[0]
		}
		rep, err := a.proc.Health(ctx, season)
		if err != nil {
			return err
		}
		return printJSON(rep)
	case "runs":
		runs, err := a.store.Runs(ctx, 20)
		if err != nil {
			return err
		}
		return printJSON(runs)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// serve runs MCP on stdio with the health check and pending sweep on a schedule
func serve(ctx context.Context, a *app) error {
	jobs := schedule.New(ctx)
	if err := jobs.Add("health", a.cfg.HealthCron, a.healthCheck); err != nil {
		return fmt.Errorf("bad HOCKEY_HEALTH_CRON: %w", err)
	}
	if err := jobs.Add("pending-sweep", "@every 5m", a.sweepPending); err != nil {
		return err
	}
	jobs.Start()
	defer jobs.Stop()

	return server.InitInstance(a.handlers(), a.store).Start(ctx)
}

func serveHTTP(ctx context.Context, a *app) error {
	gin.SetMode(gin.ReleaseMode)
	srv := server.InitInstance(a.handlers(), a.store)
	router := api.NewRouter(api.NewHandler(a.proc, a.store), srv.HTTPHandler())

	hs := &http.Server{Addr: a.cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on", a.cfg.HTTPAddr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

func seed(ctx context.Context, a *app) error {
	teams := feed.Teams()
	if err := a.store.SaveTeams(ctx, teams); err != nil {
		return err
	}
	fmt.Printf("saved %d teams\n", len(teams))
	return nil
}

// importFile loads a JSON array of raw games, or a single game from a saved boxscore
// page. Running it is an explicit operator action so the approval gate is skipped.
func importFile(ctx context.Context, a *app, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var raws []hockey.RawGame
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		g, err := feed.ParseBoxscoreHTML(f)
		if err != nil {
			return err
		}
		if g.ID == "" {
			g.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		raws = []hockey.RawGame{g}
	default:
		if raws, err = feed.ReadRawGames(f); err != nil {
			return err
		}
	}
	return printImport(a.importer.Import(ctx, raws, ingest.Options{Source: filepath.Base(path), Approved: true}))
}

func printImport(sum ingest.Summary, err error) error {
	var approval *ingest.ApprovalRequiredError
	if errors.As(err, &approval) {
		return printJSON(approval)
	}
	if err != nil {
		return err
	}
	return printJSON(sum)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
