package main

import (
	"context"
	"fmt"
	"io"

	"github.com/richard-senior/hockey/internal/config"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/internal/processor"
	"github.com/richard-senior/hockey/pkg/feed"
	"github.com/richard-senior/hockey/pkg/ingest"
	"github.com/richard-senior/hockey/pkg/store"
	"github.com/richard-senior/hockey/pkg/tools"
	"github.com/richard-senior/hockey/pkg/transport"
)

// app holds everything a command needs, built once from the config
type app struct {
	cfg      *config.Config
	store    *store.Store
	proc     *processor.Processor
	importer *ingest.Importer
	closers  []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.DbPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, store: st, proc: processor.New(st), closers: []io.Closer{st}}

	var pending ingest.PendingStore
	if cfg.RedisURL != "" {
		rp, err := ingest.NewRedisPending(cfg.RedisURL, cfg.PendingTTL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rp)
		pending = rp
		logger.Info("Pending imports are kept in redis")
	} else {
		pending = ingest.NewMemoryPending(cfg.PendingTTL)
	}

	opts := feed.Options{
		BaseURL:  cfg.FeedBaseURL,
		RecapURL: cfg.FeedRecapURL,
		Retries:  cfg.FeedRetries,
	}
	if cfg.FeedCacheGames {
		opts.CacheDir = cfg.CacheDir
	}
	getter := transport.NewClient(transport.Options{Timeout: cfg.FeedTimeout, CABundle: cfg.CABundle})

	a.importer = ingest.NewImporter(ingest.Config{
		Store:     st,
		Pending:   pending,
		Fetcher:   feed.NewClient(getter, opts),
		Threshold: cfg.ApprovalThreshold,
		Parallel:  cfg.FeedParallel,
		TTL:       cfg.PendingTTL,
	})
	return a, nil
}

func (a *app) handlers() *tools.Handlers {
	return &tools.Handlers{Processor: a.proc, Importer: a.importer}
}

// healthCheck logs the current data health score
func (a *app) healthCheck(ctx context.Context) error {
	rep, err := a.proc.Health(ctx, "")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if rep.HealthScore < 100 {
		logger.Warn("Data health degraded", rep.HealthScore, len(rep.Issues), "issues")
	} else {
		logger.Info("Data health", rep.HealthScore)
	}
	return nil
}

func (a *app) sweepPending(ctx context.Context) error {
	n, err := a.importer.SweepPending(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("Expired pending imports removed:", n)
	}
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn("Close failed", err)
		}
	}
}
