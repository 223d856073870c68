package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ytdb/internal/contentid"
	"ytdb/internal/failure"
	"ytdb/internal/journal"
	"ytdb/internal/ledger"
	"ytdb/internal/logging"
	"ytdb/internal/services"
	"ytdb/internal/services/ytdlp"
	"ytdb/internal/store"
)

// Fetcher downloads one asset and its sidecar into req.DestDir. A non-zero
// tool exit must be reported as *ytdlp.ToolError.
type Fetcher interface {
	Fetch(ctx context.Context, req ytdlp.Request) error
}

// Recorder receives every attempt outcome.
type Recorder interface {
	RecordAttempt(ctx context.Context, attempt journal.Attempt) error
}

// Options configures an Orchestrator.
type Options struct {
	Store   *store.Store
	Ledger  *ledger.Ledger
	Fetcher Fetcher
	Target  store.TargetType
	// SkipKinds selects ledger kinds that are not retried. Nil means
	// failure.DefaultSkipKinds.
	SkipKinds     failure.KindSet
	CookiesFile   string
	SleepRequests int
	SleepInterval int
	// TempRoot is the parent of per-item scratch directories. Empty means
	// the system temporary directory.
	TempRoot string
	Recorder Recorder
	Logger   *slog.Logger
	RunID    string
}

// Orchestrator runs a batch. It is single-use per run and not safe for
// concurrent use.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// New validates opts and returns an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, errors.New("ingest: store is required")
	}
	if opts.Ledger == nil {
		return nil, errors.New("ingest: ledger is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("ingest: fetcher is required")
	}
	if _, err := store.ParseTargetType(string(opts.Target)); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	if opts.SkipKinds == nil {
		opts.SkipKinds = failure.DefaultSkipKinds()
	}
	if strings.TrimSpace(opts.RunID) == "" {
		opts.RunID = uuid.NewString()
	}
	return &Orchestrator{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "ingest"),
	}, nil
}

// RunID returns the identifier attached to logs and journal rows.
func (o *Orchestrator) RunID() string {
	return o.opts.RunID
}

// Run processes ids in order. Per-item failures are reflected in the
// summary; a non-nil error means the run stopped early, in which case the
// summary covers the ids processed so far.
func (o *Orchestrator) Run(ctx context.Context, ids []contentid.ID) (Summary, error) {
	ctx = services.WithRunID(ctx, o.opts.RunID)
	ctx = services.WithTarget(ctx, string(o.opts.Target))
	summary := newSummary(o.opts.RunID)
	summary.Total = len(ids)

	logger := logging.WithContext(ctx, o.logger)
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.Int("id_count", len(ids)),
		logging.String("skip_kinds", o.opts.SkipKinds.String()))

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			summary.Finished = time.Now()
			return summary, err
		}
		itemCtx := services.WithContentID(ctx, string(id))
		started := time.Now()
		result, err := o.process(itemCtx, id)
		summary.add(id, result)
		o.report(itemCtx, id, result, started, i+1, len(ids))
		if err != nil {
			summary.Finished = time.Now()
			return summary, err
		}
	}

	summary.Finished = time.Now()
	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_finished"),
		logging.Int("success", summary.Count(OutcomeSuccess)),
		logging.Int("exist", summary.Count(OutcomeExist)),
		logging.Int("skipped", summary.Count(OutcomeSkipped)),
		logging.Int("failed", summary.Count(OutcomeFailed)),
		logging.Int("errors", summary.Count(OutcomeError)),
		logging.Duration("elapsed", summary.Finished.Sub(summary.Started)))
	return summary, nil
}

// process handles one id. A non-nil error aborts the run.
func (o *Orchestrator) process(ctx context.Context, id contentid.ID) (Result, error) {
	if !id.Valid() {
		return Result{Outcome: OutcomeInvalidID, Kind: failure.KindInvalidID}, nil
	}
	if o.opts.Ledger.Skip(id, o.opts.SkipKinds) {
		kind, _ := o.opts.Ledger.Lookup(id)
		return Result{Outcome: OutcomeSkipped, Kind: kind}, nil
	}

	manifest, err := o.opts.Store.Load(id)
	if err != nil {
		return Result{Outcome: OutcomeError, Err: err}, nil
	}
	if manifest.Has(o.opts.Target) {
		return Result{Outcome: OutcomeExist}, nil
	}

	manifest, err = o.opts.Store.Reconcile(id)
	if err != nil {
		return Result{Outcome: OutcomeError, Err: fmt.Errorf("reconcile item directory: %w", err)}, nil
	}

	workDir, err := os.MkdirTemp(o.opts.TempRoot, "ytdb-item-")
	if err != nil {
		return Result{Outcome: OutcomeError, Err: err}, fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	logging.WithContext(ctx, o.logger).Debug("fetching",
		logging.String("work_dir", workDir))
	fetchErr := o.opts.Fetcher.Fetch(ctx, ytdlp.Request{
		ID:            id,
		Target:        o.opts.Target,
		DestDir:       workDir,
		CookiesFile:   o.opts.CookiesFile,
		SleepRequests: o.opts.SleepRequests,
		SleepInterval: o.opts.SleepInterval,
	})
	if fetchErr != nil {
		o.cleanup(ctx, id, manifest)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Outcome: OutcomeError, Err: ctxErr}, ctxErr
		}
		var toolErr *ytdlp.ToolError
		if !errors.As(fetchErr, &toolErr) {
			return Result{Outcome: OutcomeError, Err: fetchErr}, fetchErr
		}
		kind := failure.Classify(toolErr.Stderr)
		if err := o.opts.Ledger.Record(id, kind); err != nil {
			return Result{Outcome: OutcomeFailed, Kind: kind, Err: fetchErr}, fmt.Errorf("record failure: %w", err)
		}
		return Result{Outcome: OutcomeFailed, Kind: kind, Err: fetchErr}, nil
	}

	media, sidecar, err := collectOutputs(workDir)
	if err != nil {
		o.cleanup(ctx, id, manifest)
		return Result{Outcome: OutcomeError, Err: err}, nil
	}
	if err := o.opts.Store.Commit(id, o.opts.Target, media, sidecar, manifest); err != nil {
		o.cleanup(ctx, id, manifest)
		return Result{Outcome: OutcomeError, Err: fmt.Errorf("commit: %w", err)}, nil
	}
	return Result{Outcome: OutcomeSuccess}, nil
}

func (o *Orchestrator) cleanup(ctx context.Context, id contentid.ID, manifest *store.Manifest) {
	if err := o.opts.Store.Cleanup(id, manifest); err != nil {
		logging.WarnWithContext(ctx, o.logger, "item cleanup failed", "cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run sanity_check on the output directory"),
			logging.String(logging.FieldImpact, "item directory may hold unreferenced files until the next run"))
	}
}

// collectOutputs returns the media and sidecar paths left by a fetch.
func collectOutputs(dir string) (string, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("list fetch output: %w", err)
	}
	if len(entries) != 2 {
		return "", "", fmt.Errorf("%w: expected 2 files, found %d", ErrUnexpectedOutput, len(entries))
	}
	var media, sidecar string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			return "", "", fmt.Errorf("%w: %s is not a regular file", ErrUnexpectedOutput, entry.Name())
		}
		path := filepath.Join(dir, entry.Name())
		if strings.HasSuffix(entry.Name(), "info.json") {
			sidecar = path
		} else {
			media = path
		}
	}
	if media == "" || sidecar == "" {
		return "", "", fmt.Errorf("%w: need one media file and one info.json", ErrUnexpectedOutput)
	}
	return media, sidecar, nil
}

func (o *Orchestrator) report(ctx context.Context, id contentid.ID, result Result, started time.Time, position, total int) {
	logger := logging.WithContext(ctx, o.logger)
	attrs := []logging.Attr{
		logging.String("outcome", string(result.Outcome)),
		logging.String(logging.FieldProgress, fmt.Sprintf("%d/%d", position, total)),
	}
	if result.Kind != "" {
		attrs = append(attrs, logging.String("kind", string(result.Kind)))
	}
	switch result.Outcome {
	case OutcomeSuccess:
		logger.Info("downloaded", logging.Args(append(attrs, logging.Duration("elapsed", time.Since(started)))...)...)
	case OutcomeFailed:
		logger.Info("fetch failed", logging.Args(append(attrs, logging.Error(result.Err))...)...)
	case OutcomeError:
		if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
			logging.ErrorWithContext(ctx, o.logger, "item error", "item_error",
				append(attrs, logging.Error(result.Err),
					logging.String(logging.FieldErrorHint, "run sanity_check or inspect the item directory"))...)
		}
	default:
		logger.Debug("not fetched", logging.Args(attrs...)...)
	}

	if o.opts.Recorder == nil {
		return
	}
	attempt := journal.Attempt{
		RunID:      o.opts.RunID,
		ContentID:  string(id),
		Target:     string(o.opts.Target),
		Outcome:    string(result.Outcome),
		Kind:       string(result.Kind),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if result.Err != nil {
		attempt.Detail = result.Err.Error()
	}
	// Journal writes must survive a cancelled run context.
	if err := o.opts.Recorder.RecordAttempt(context.WithoutCancel(ctx), attempt); err != nil {
		logging.WarnWithContext(ctx, o.logger, "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "attempt is missing from history"))
	}
}
