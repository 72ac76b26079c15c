package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/pkg/hockey"
	"github.com/richard-senior/hockey/pkg/store"
	"golang.org/x/sync/errgroup"
)

// ErrApprovalRequired is matched by *ApprovalRequiredError
var ErrApprovalRequired = errors.New("import needs approval")

// ApprovalRequiredError is returned instead of importing a batch larger than the
// approval threshold. The batch is parked under PendingID.
type ApprovalRequiredError struct {
	PendingID string    `json:"pending_id"`
	Games     int       `json:"games"`
	Threshold int       `json:"threshold"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e *ApprovalRequiredError) Error() string {
	return fmt.Sprintf("import of %d games exceeds the approval threshold of %d, approve pending import %s to continue",
		e.Games, e.Threshold, e.PendingID)
}

func (e *ApprovalRequiredError) Is(target error) bool {
	return target == ErrApprovalRequired
}

// Store is what the importer needs from persistence
type Store interface {
	GameExists(ctx context.Context, id string) (bool, error)
	ReplaceGame(ctx context.Context, game hockey.Game, rows []hockey.PeriodResult) error
	RecordRun(ctx context.Context, run store.ImportRun) error
}

// Fetcher fetches one raw game by id
type Fetcher interface {
	FetchGame(ctx context.Context, id string) (hockey.RawGame, error)
}

// Options control one import
type Options struct {
	// Replace re-imports games that are already stored instead of skipping them
	Replace bool `json:"replace,omitempty"`
	// Source labels the run, e.g. a file name or "feed"
	Source string `json:"source,omitempty"`
	// Approved bypasses the approval threshold
	Approved bool `json:"approved,omitempty"`
}

// Failure is one game that could not be imported
type Failure struct {
	ID         string             `json:"id"`
	Error      string             `json:"error"`
	Violations []hockey.Violation `json:"violations,omitempty"`
}

// Summary reports what an import run did
type Summary struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Processed int       `json:"processed"`
	Inserted  int       `json:"inserted"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}

func (s *Summary) fail(id string, err error) {
	s.Failed++
	f := Failure{ID: id, Error: err.Error()}
	var verr *hockey.ValidationError
	if errors.As(err, &verr) {
		f.Violations = verr.Violations
	}
	s.Failures = append(s.Failures, f)
}

// Importer validates and stores raw games one at a time, carrying on past bad games
type Importer struct {
	store     Store
	pending   PendingStore
	fetcher   Fetcher
	threshold int
	parallel  int
	ttl       time.Duration
	now       func() time.Time
}

// Config for NewImporter. Fetcher may be nil when only local batches are imported.
type Config struct {
	Store     Store
	Pending   PendingStore
	Fetcher   Fetcher
	Threshold int
	Parallel  int
	TTL       time.Duration
}

func NewImporter(cfg Config) *Importer {
	if cfg.Pending == nil {
		cfg.Pending = NewMemoryPending(cfg.TTL)
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	return &Importer{
		store:     cfg.Store,
		pending:   cfg.Pending,
		fetcher:   cfg.Fetcher,
		threshold: cfg.Threshold,
		parallel:  cfg.Parallel,
		ttl:       cfg.TTL,
		now:       time.Now,
	}
}

// Import transforms, validates and stores each raw game. A batch above the approval
// threshold is parked and *ApprovalRequiredError returned. Per game failures are
// collected in the summary; only a cancelled context stops the run early.
func (im *Importer) Import(ctx context.Context, raws []hockey.RawGame, opts Options) (Summary, error) {
	if err := im.gate(ctx, PendingBatch{Games: raws, Options: opts}); err != nil {
		return Summary{}, err
	}
	sum := im.newSummary()
	err := im.importAll(ctx, raws, opts, &sum)
	im.record(ctx, sum, opts)
	return sum, err
}

// FetchAndImport fetches the given game ids from the feed, several at a time, and
// imports whatever came back. Fetch failures are reported per game like any other.
func (im *Importer) FetchAndImport(ctx context.Context, ids []string, opts Options) (Summary, error) {
	if im.fetcher == nil {
		return Summary{}, errors.New("no feed configured")
	}
	if err := im.gate(ctx, PendingBatch{GameIDs: ids, Options: opts}); err != nil {
		return Summary{}, err
	}
	sum := im.newSummary()
	raws, err := im.fetchAll(ctx, ids, &sum)
	if err == nil {
		err = im.importAll(ctx, raws, opts, &sum)
	}
	im.record(ctx, sum, opts)
	return sum, err
}

// Approve runs a parked batch
func (im *Importer) Approve(ctx context.Context, pendingID string) (Summary, error) {
	batch, err := im.pending.Take(ctx, pendingID)
	if err != nil {
		return Summary{}, err
	}
	opts := batch.Options
	opts.Approved = true
	logger.Inform("Running approved import", pendingID, batch.Size(), "games")
	if len(batch.GameIDs) > 0 {
		return im.FetchAndImport(ctx, batch.GameIDs, opts)
	}
	return im.Import(ctx, batch.Games, opts)
}

// SweepPending drops expired pending batches
func (im *Importer) SweepPending(ctx context.Context) (int, error) {
	return im.pending.Sweep(ctx)
}

func (im *Importer) gate(ctx context.Context, batch PendingBatch) error {
	if batch.Options.Approved || im.threshold <= 0 || batch.Size() <= im.threshold {
		return nil
	}
	batch.ID = uuid.NewString()
	batch.CreatedAt = im.now()
	if err := im.pending.Put(ctx, batch); err != nil {
		return fmt.Errorf("failed to park import for approval: %w", err)
	}
	logger.Highlight("Import held for approval", batch.ID, batch.Size(), "games")
	aerr := &ApprovalRequiredError{PendingID: batch.ID, Games: batch.Size(), Threshold: im.threshold}
	if im.ttl > 0 {
		aerr.ExpiresAt = batch.CreatedAt.Add(im.ttl)
	}
	return aerr
}

func (im *Importer) newSummary() Summary {
	return Summary{RunID: uuid.NewString(), StartedAt: im.now().UTC()}
}

func (im *Importer) importAll(ctx context.Context, raws []hockey.RawGame, opts Options, sum *Summary) error {
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			logger.Warn("Import cancelled after", sum.Processed, "games")
			return err
		}
		sum.Processed++

		game, rows, err := hockey.TransformGame(raw)
		if err != nil {
			logger.Warn("Rejected game", raw.ID, err)
			sum.fail(raw.ID, err)
			continue
		}
		exists, err := im.store.GameExists(ctx, game.ID)
		if err != nil {
			sum.fail(game.ID, err)
			continue
		}
		if exists && !opts.Replace {
			logger.Debug("Skipping stored game", game.ID)
			sum.Skipped++
			continue
		}
		if err := im.store.ReplaceGame(ctx, game, rows); err != nil {
			logger.Error("Failed to store game", game.ID, err)
			sum.fail(game.ID, err)
			continue
		}
		sum.Inserted++
	}
	logger.Info("Import finished", sum.RunID, "inserted", sum.Inserted, "skipped", sum.Skipped, "failed", sum.Failed)
	return nil
}

// fetchAll returns the fetched games in the order of ids, leaving out failures
func (im *Importer) fetchAll(ctx context.Context, ids []string, sum *Summary) ([]hockey.RawGame, error) {
	results := make([]*hockey.RawGame, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.parallel)
	for i, id := range ids {
		g.Go(func() error {
			raw, err := im.fetcher.FetchGame(gctx, id)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = &raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raws := make([]hockey.RawGame, 0, len(ids))
	for i, id := range ids {
		if errs[i] != nil {
			logger.Warn("Failed to fetch game", id, errs[i])
			sum.Processed++
			sum.fail(id, errs[i])
			continue
		}
		raws = append(raws, *results[i])
	}
	return raws, nil
}

func (im *Importer) record(ctx context.Context, sum Summary, opts Options) {
	if sum.Processed == 0 {
		return
	}
	run := store.ImportRun{
		ID:        sum.RunID,
		StartedAt: sum.StartedAt.Format(time.RFC3339),
		Source:    opts.Source,
		Processed: sum.Processed,
		Inserted:  sum.Inserted,
		Skipped:   sum.Skipped,
		Failed:    sum.Failed,
	}
	if err := im.store.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("Failed to record import run", sum.RunID, err)
	}
}
