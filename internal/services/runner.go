package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	apperrors "exif-fixer/internal/errors"
	"exif-fixer/internal/models"
	"exif-fixer/internal/reconcile"
	"exif-fixer/internal/utils"
)

// FileHeader introduces a file to the operator.
type FileHeader struct {
	Index   int // 1-based
	Total   int
	Path    string
	ModTime time.Time
}

// Reporter shows run progress to the operator.
type Reporter interface {
	Begin(h FileHeader)
	Done(stats models.RunStats)
}

// Operator is the full interactive surface the runner drives.
type Operator interface {
	reconcile.Operator
	Reporter
}

// RunnerOptions carries the run-level switches.
type RunnerOptions struct {
	StartIndex       int // 0-based
	SyncModifiedDate bool
}

// Runner processes candidate files one at a time, in order.
type Runner struct {
	metadata *MetadataService
	policy   *reconcile.Policy
	operator Operator
	opts     RunnerOptions
	logger   zerolog.Logger
}

func NewRunner(
	metadata *MetadataService,
	policy *reconcile.Policy,
	operator Operator,
	opts RunnerOptions,
	logger zerolog.Logger,
) *Runner {
	return &Runner{
		metadata: metadata,
		policy:   policy,
		operator: operator,
		opts:     opts,
		logger:   logger,
	}
}

// Run reconciles paths starting at the configured index. Cancelling ctx stops
// the run before the next file or before a pending write, returning
// ErrInterrupted; files already written stay written.
func (r *Runner) Run(ctx context.Context, paths []string) (models.RunStats, error) {
	var stats models.RunStats
	if len(paths) == 0 {
		return stats, apperrors.ErrNoCandidateFiles
	}

	for i := r.opts.StartIndex; i < len(paths); i++ {
		if ctx.Err() != nil {
			return stats, apperrors.ErrInterrupted
		}

		if err := r.processFile(ctx, i, paths, &stats); err != nil {
			return stats, err
		}
	}

	r.logger.Info().
		Int("total", stats.Total).
		Int("auto", stats.Auto).
		Int("manual", stats.Manual).
		Int("skipped", stats.Skipped).
		Int("unchanged", stats.Unchanged).
		Int("synced", stats.Synced).
		Msg("run complete")
	r.operator.Done(stats)
	return stats, nil
}

func (r *Runner) processFile(ctx context.Context, i int, paths []string, stats *models.RunStats) error {
	path := paths[i]
	logger := r.logger.With().Str("file", path).Int("index", i+1).Logger()

	rec, err := r.metadata.Load(ctx, path)
	if err != nil {
		return err
	}

	r.operator.Begin(FileHeader{
		Index:   i + 1,
		Total:   len(paths),
		Path:    path,
		ModTime: rec.Stat.ModTime,
	})

	hadCaptureTime := rec.View.CaptureTime != nil
	outcome, err := r.policy.Reconcile(ctx, r.operator, rec)
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.ErrInterrupted
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug().Stringer("outcome", outcome).Msg("reconciled")

	switch {
	case outcome.Wrote():
		if ctx.Err() != nil {
			return apperrors.ErrInterrupted
		}
		if err := r.metadata.Persist(ctx, rec, r.opts.SyncModifiedDate); err != nil {
			return err
		}
		logger.Info().
			Stringer("outcome", outcome).
			Str("capture_time", utils.FormatExifTime(*rec.View.CaptureTime)).
			Msg("metadata written")
		if r.opts.SyncModifiedDate {
			stats.Synced++
			r.operator.Notify(reconcile.Event{Kind: reconcile.EventModTimeSynced})
		}
	case r.opts.SyncModifiedDate && hadCaptureTime:
		synced, err := r.metadata.SyncModTime(rec)
		if err != nil {
			return err
		}
		if synced {
			stats.Synced++
			logger.Info().Msg("modified time synced to capture time")
			r.operator.Notify(reconcile.Event{Kind: reconcile.EventModTimeSynced})
		}
	}

	stats.Total++
	stats.Record(outcome)
	return nil
}
