package schedule

import (
	"context"
	"time"

	"github.com/richard-senior/hockey/internal/logger"
	"github.com/robfig/cron/v3"
)

// Runner runs background jobs on cron specs such as "@every 6h" or "0 3 * * *"
type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
}

func New(baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		baseCtx: baseCtx,
	}
}

// Add schedules job under name. A job that is still running when its next turn comes is
// skipped for that turn.
func (r *Runner) Add(name, spec string, job func(context.Context) error) error {
	_, err := r.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job(r.baseCtx); err != nil {
			logger.Error("Scheduled job failed", name, err)
			return
		}
		logger.Debug("Scheduled job finished", name, time.Since(start).String())
	})
	if err != nil {
		return err
	}
	logger.Info("Scheduled", name, spec)
	return nil
}

func (r *Runner) Start() {
	logger.Info("cron started")
	r.cron.Start()
}

// Stop waits for running jobs to finish
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	logger.Info("cron stopped")
}
