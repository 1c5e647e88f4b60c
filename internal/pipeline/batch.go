package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/tanmayk15/AutoTranscriber/internal/logging"
	"github.com/tanmayk15/AutoTranscriber/internal/runlog"
	"github.com/tanmayk15/AutoTranscriber/internal/services"
)

// LockFileName is created in the output directory while a batch runs.
const LockFileName = ".autosub.lock"

// ErrBatchLocked means another batch holds the output directory.
var ErrBatchLocked = errors.New("another autosub batch is writing to this output directory")

// Ledger records run outcomes. *runlog.Store satisfies it.
type Ledger interface {
	BeginRun(ctx context.Context, run runlog.Run) error
	RecordVideo(ctx context.Context, v runlog.Video) (int64, error)
	FinishRun(ctx context.Context, id string, status runlog.RunStatus, failures int, finishedAt time.Time) error
}

// Batch processes videos one at a time under an output-directory lock.
type Batch struct {
	driver *Driver
	ledger Ledger
	logger *slog.Logger
}

// NewBatch wraps driver. ledger may be nil.
func NewBatch(driver *Driver, ledger Ledger, logger *slog.Logger) *Batch {
	return &Batch{driver: driver, ledger: ledger, logger: logging.NewComponentLogger(logger, "batch")}
}

// Run processes videos sequentially. Cancelling ctx lets the current video
// finish and skips the rest. The returned error covers only batch setup;
// per-video failures are in the Summary.
func (b *Batch) Run(ctx context.Context, videos []string) (Summary, error) {
	opts := b.driver.Options()
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("ensure output dir: %w", err)
	}
	lock := flock.New(filepath.Join(opts.OutputDir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Summary{}, ErrBatchLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			b.logger.Warn("failed to release batch lock", logging.Error(err))
		}
	}()

	summary := Summary{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, b.logger)
	b.beginRun(ctx, logger, summary.RunID, len(videos))
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("videos", len(videos)),
		logging.String("output_dir", opts.OutputDir),
	)

	// In-flight videos are not interrupted by cancellation.
	videoCtx := context.WithoutCancel(ctx)
	for i, video := range videos {
		if ctx.Err() != nil {
			summary.Skipped = append(summary.Skipped, videos[i:]...)
			logging.WarnWithContext(logger, "batch cancelled; remaining videos skipped",
				"batch_cancelled",
				logging.Int("skipped", len(videos)-i),
				logging.String(logging.FieldImpact, "remaining videos were not processed"),
			)
			break
		}
		report := b.driver.Process(videoCtx, video)
		summary.Reports = append(summary.Reports, report)
		b.recordVideo(videoCtx, logger, summary.RunID, report)
	}

	status := runlog.RunCompleted
	switch {
	case len(summary.Skipped) > 0:
		status = runlog.RunAborted
	case summary.Failures() > 0:
		status = runlog.RunPartial
	}
	b.finishRun(videoCtx, logger, summary.RunID, status, summary.Failures())
	logger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.String("status", string(status)),
		logging.Int("processed", len(summary.Reports)),
		logging.Int("failures", summary.Failures()),
	)
	return summary, nil
}

func (b *Batch) beginRun(ctx context.Context, logger *slog.Logger, id string, count int) {
	if b.ledger == nil {
		return
	}
	opts := b.driver.Options()
	if err := b.ledger.BeginRun(ctx, runlog.Run{
		ID:             id,
		StartedAt:      time.Now(),
		VideoCount:     count,
		TargetLanguage: opts.TargetLanguage,
		TTSEnabled:     opts.TTS,
	}); err != nil {
		ledgerWarning(logger, "begin run", err)
	}
}

func (b *Batch) recordVideo(ctx context.Context, logger *slog.Logger, runID string, r Report) {
	if b.ledger == nil {
		return
	}
	v := runlog.Video{
		RunID:          runID,
		SourcePath:     r.Video,
		Status:         runlog.VideoDone,
		SourceLanguage: r.SourceLanguage,
		Translated:     r.Translated,
		SegmentCount:   r.Segments,
		ArtifactCount:  r.Artifacts,
		Outputs:        r.Outputs,
		StartedAt:      r.Started,
		FinishedAt:     r.Finished,
	}
	for _, d := range r.Degradations {
		v.Degradations = append(v.Degradations, d.String())
	}
	if r.State == StatePartialFailure {
		v.Status = runlog.VideoPartialFailure
		if r.Err != nil {
			v.ErrorMessage = fmt.Sprintf("%s: %v", r.FailedStage, r.Err)
		}
	}
	if _, err := b.ledger.RecordVideo(ctx, v); err != nil {
		ledgerWarning(logger, "record video", err)
	}
}

func (b *Batch) finishRun(ctx context.Context, logger *slog.Logger, id string, status runlog.RunStatus, failures int) {
	if b.ledger == nil {
		return
	}
	if err := b.ledger.FinishRun(ctx, id, status, failures, time.Now()); err != nil {
		ledgerWarning(logger, "finish run", err)
	}
}

func ledgerWarning(logger *slog.Logger, op string, err error) {
	logging.WarnWithContext(logger, "run ledger write failed",
		"ledger_write_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check state_dir permissions"),
		logging.String(logging.FieldImpact, "run missing from autosub history"),
	)
}
