package pipeline

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

	"github.com/tanmayk15/AutoTranscriber/internal/dubbing"
	"github.com/tanmayk15/AutoTranscriber/internal/language"
	"github.com/tanmayk15/AutoTranscriber/internal/logging"
	"github.com/tanmayk15/AutoTranscriber/internal/scratch"
	"github.com/tanmayk15/AutoTranscriber/internal/services"
	"github.com/tanmayk15/AutoTranscriber/internal/subtitles"
)

var (
	errTranslatorMissing = errors.Join(errors.New("translator not configured"), services.ErrDegraded)
	errTTSMissing        = errors.Join(errors.New("tts not configured"), services.ErrDegraded)
)

// Driver runs the per-video state machine.
type Driver struct {
	deps   Collaborators
	opts   Options
	logger *slog.Logger
}

// NewDriver validates deps and returns a Driver.
func NewDriver(deps Collaborators, opts Options, logger *slog.Logger) (*Driver, error) {
	if deps.Extractor == nil || deps.Transcriber == nil {
		return nil, errors.New("pipeline requires an audio extractor and a transcriber")
	}
	if !opts.SRTOnly && deps.Burner == nil {
		return nil, errors.New("pipeline requires a subtitle burner unless srt_only is set")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		opts.OutputDir = "."
	}
	if strings.TrimSpace(opts.WorkDir) == "" {
		opts.WorkDir = os.TempDir()
	}
	return &Driver{deps: deps, opts: opts, logger: logging.NewComponentLogger(logger, "pipeline")}, nil
}

// Options returns the driver settings.
func (d *Driver) Options() Options {
	return d.opts
}

// Process runs every applicable stage for video and never panics on stage
// failure; the outcome is carried by the Report.
func (d *Driver) Process(ctx context.Context, video string) (report Report) {
	report = Report{
		Video:          video,
		State:          StateDone,
		TargetLanguage: d.opts.TargetLanguage,
		Started:        time.Now(),
	}
	defer func() { report.Finished = time.Now() }()

	ctx = services.WithVideo(ctx, filepath.Base(video))
	logger := logging.WithContext(ctx, d.logger)
	logger.Info("video processing started", logging.String(logging.FieldEventType, "video_start"), logging.String("source_file", video))

	scratchDir, err := scratch.Create(d.opts.WorkDir, baseName(video))
	if err != nil {
		return d.abort(ctx, report, StageExtractAudio, fmt.Errorf("create scratch dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			logger.Debug("scratch cleanup failed", logging.Error(err))
		}
	}()

	transcript, err := d.transcribe(ctx, video, scratchDir)
	if err != nil {
		var stageErr *stageError
		if errors.As(err, &stageErr) {
			return d.abort(ctx, report, stageErr.stage, stageErr.err)
		}
		return d.abort(ctx, report, StageTranscribe, err)
	}
	source := transcript.Language
	if d.opts.SpeechToEnglish {
		source = "en"
	}
	report.SourceLanguage = source
	report.Segments = transcript.Len()
	original := transcript.Segments
	segments := original

	if d.translationRequested(source) {
		stageCtx, stageLogger := d.stage(ctx, StageTranslate)
		if d.deps.Translator == nil {
			d.degrade(stageLogger, &report, StageTranslate, errTranslatorMissing, "translation requested but no translator configured",
				logging.String(logging.FieldErrorHint, "check [translation] settings"))
		} else {
			result := d.deps.Translator.Translate(stageCtx, original, source, d.opts.TargetLanguage)
			if result.Err != nil {
				d.degrade(stageLogger, &report, StageTranslate, result.Err, "translation failed; using source-language subtitles")
			}
			segments = result.Segments
			report.Translated = result.Translated
			if result.Translated {
				report.TargetLanguage = result.Target
			}
		}
	}

	primarySRT, err := d.writeSubtitles(ctx, &report, video, scratchDir, original, segments)
	if err != nil {
		return d.abort(ctx, report, StageWriteSubtitles, err)
	}
	if d.opts.SRTOnly {
		d.finish(ctx, report)
		return report
	}

	if d.opts.TTS {
		d.dub(ctx, &report, video, scratchDir, segments)
	}

	stageCtx, stageLogger := d.stage(ctx, StageBurnSubtitles)
	dest := SubtitledVideoPath(video, d.opts.OutputDir)
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"), logging.String("output", dest))
	if err := d.deps.Burner.BurnSubtitles(stageCtx, video, primarySRT, dest, d.opts.BurnStyle); err != nil {
		return d.abort(ctx, report, StageBurnSubtitles, err)
	}
	report.Outputs = append(report.Outputs, dest)
	d.finish(ctx, report)
	return report
}

type stageError struct {
	stage Stage
	err   error
}

func (e *stageError) Error() string { return string(e.stage) + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func (d *Driver) transcribe(ctx context.Context, video, scratchDir string) (subtitles.Transcript, error) {
	audio := filepath.Join(scratchDir, baseName(video)+".wav")
	stageCtx, stageLogger := d.stage(ctx, StageExtractAudio)
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	if err := d.deps.Extractor.ExtractAudio(stageCtx, video, audio); err != nil {
		return subtitles.Transcript{}, &stageError{stage: StageExtractAudio, err: err}
	}
	defer func() { _ = os.Remove(audio) }()

	stageCtx, stageLogger = d.stage(ctx, StageTranscribe)
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"), logging.String("language_hint", d.opts.SourceLanguage))
	transcript, err := d.deps.Transcriber.Transcribe(stageCtx, audio, scratchDir, d.opts.SourceLanguage)
	if err != nil {
		return subtitles.Transcript{}, &stageError{stage: StageTranscribe, err: err}
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("detected_language", transcript.Language),
		logging.Int("segments", transcript.Len()),
	)
	return transcript, nil
}

func (d *Driver) translationRequested(source string) bool {
	target := d.opts.TargetLanguage
	return target != "" && !language.Equal(source, target)
}

// writeSubtitles writes the burn-in sidecar and, when requested, the
// source-language sidecar. It returns the path of the burn-in sidecar.
func (d *Driver) writeSubtitles(ctx context.Context, report *Report, video, scratchDir string, original, segments []subtitles.Segment) (string, error) {
	_, stageLogger := d.stage(ctx, StageWriteSubtitles)
	dir := scratchDir
	persist := d.opts.OutputSRT || d.opts.SRTOnly
	if persist {
		dir = d.opts.OutputDir
	}

	primary := filepath.Join(dir, SubtitleName(video, ""))
	if report.Translated {
		primary = filepath.Join(dir, SubtitleName(video, report.TargetLanguage))
	}
	if err := subtitles.WriteSRTFile(primary, segments); err != nil {
		return "", err
	}
	if persist {
		report.Outputs = append(report.Outputs, primary)
	}
	if report.Translated && d.opts.KeepOriginal {
		originalPath := filepath.Join(dir, SubtitleName(video, ""))
		if err := subtitles.WriteSRTFile(originalPath, original); err != nil {
			return "", err
		}
		if persist {
			report.Outputs = append(report.Outputs, originalPath)
		}
	}
	if issues := subtitles.ValidateSRTContent(primary, 0); len(issues) > 0 {
		logging.WarnWithContext(stageLogger, "subtitle file has issues",
			"subtitle_validation",
			logging.String("path", primary),
			logging.String("issues", strings.Join(issues, "; ")),
			logging.String(logging.FieldImpact, "burned subtitles may be empty or mistimed"),
		)
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("subtitle_path", primary),
		logging.Int("entries", len(segments)),
	)
	return primary, nil
}

// dub runs TTS and compositing. Every failure here only degrades.
func (d *Driver) dub(ctx context.Context, report *Report, video, scratchDir string, segments []subtitles.Segment) {
	stageCtx, stageLogger := d.stage(ctx, StageSynthesizeTTS)
	if !report.Translated {
		stageLogger.Info("dubbing skipped; transcript was not translated",
			logging.String(logging.FieldEventType, "stage_skipped"))
		return
	}
	if d.deps.Synthesizer == nil || d.deps.Dubber == nil {
		d.degrade(stageLogger, report, StageSynthesizeTTS, errTTSMissing, "dubbing requested but tts is not configured",
			logging.String(logging.FieldErrorHint, "check [tts] settings"))
		return
	}

	clipDir := filepath.Join(scratchDir, "tts_segments")
	defer func() { _ = os.RemoveAll(clipDir) }()
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"), logging.Int("segments", len(segments)))
	artifacts, err := d.deps.Synthesizer.Synthesize(stageCtx, segments, report.TargetLanguage, d.opts.Voice, clipDir)
	report.Artifacts = len(artifacts)
	if err != nil {
		d.degrade(stageLogger, report, StageSynthesizeTTS, err, "tts stage failed; skipping dubbed output")
		return
	}

	stageCtx, stageLogger = d.stage(ctx, StageCompositeAudio)
	if len(artifacts) == 0 {
		d.degrade(stageLogger, report, StageCompositeAudio, dubbing.ErrNoAudioToComposite, "no clips were synthesized; skipping dubbed output",
			logging.String(logging.FieldErrorHint, "inspect tts_segment_failed warnings"))
		return
	}
	dest := DubbedVideoPath(video, d.opts.OutputDir)
	if err := d.deps.Dubber.Dub(stageCtx, dubbing.Request{
		Video:     video,
		Output:    dest,
		Segments:  segments,
		Artifacts: artifacts,
	}); err != nil {
		_ = os.Remove(dest)
		d.degrade(stageLogger, report, StageCompositeAudio, err, "dubbed output failed",
			logging.String(logging.FieldErrorHint, "check ffmpeg output and clip files"))
		return
	}
	report.Outputs = append(report.Outputs, dest)
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("clips", len(artifacts)),
		logging.String("output", dest),
	)
}

// degrade records a failed optional stage; the video still goes on to
// burn-in. Soft errors are expected outcomes and log at warn. Anything else
// logs at error and is recorded with services.ErrDegraded joined, so every
// Degradation classifies as soft.
func (d *Driver) degrade(logger *slog.Logger, report *Report, stage Stage, err error, msg string, attrs ...logging.Attr) {
	attrs = append(attrs,
		logging.Error(err),
		logging.String(logging.FieldImpact, impactFor(stage)),
	)
	if services.IsSoft(err) {
		report.degrade(stage, err)
		logging.WarnWithContext(logger, msg, string(stage)+"_degraded", attrs...)
		return
	}
	report.degrade(stage, errors.Join(err, services.ErrDegraded))
	logging.ErrorWithContext(logger, msg, string(stage)+"_failed", attrs...)
}

func (d *Driver) stage(ctx context.Context, stage Stage) (context.Context, *slog.Logger) {
	stageCtx := services.WithRequestID(services.WithStage(ctx, string(stage)), uuid.NewString())
	return stageCtx, logging.WithContext(stageCtx, d.logger)
}

func (d *Driver) abort(ctx context.Context, report Report, stage Stage, err error) Report {
	report.fail(stage, err)
	_, logger := d.stage(ctx, stage)
	logging.ErrorWithContext(logger, "video failed",
		"video_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(stage)),
		logging.Int("outputs", len(report.Outputs)),
	)
	return report
}

func (d *Driver) finish(ctx context.Context, report Report) {
	logger := logging.WithContext(ctx, d.logger)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "video_complete"),
		logging.String("source_language", report.SourceLanguage),
		logging.Bool("translated", report.Translated),
		logging.Int("segments", report.Segments),
		logging.Int("outputs", len(report.Outputs)),
		logging.Duration("elapsed", time.Since(report.Started)),
	}
	if len(report.Degradations) > 0 {
		attrs = append(attrs, logging.Int("degradations", len(report.Degradations)))
	}
	logger.Info("video processing completed", logging.Args(attrs...)...)
}

func impactFor(stage Stage) string {
	if stage == StageTranslate {
		return "subtitles stay in the source language"
	}
	return "no dubbed video for this input"
}

func hintFor(stage Stage) string {
	switch stage {
	case StageExtractAudio:
		return "confirm the input has an audio stream and ffmpeg is installed"
	case StageTranscribe:
		return "run `autosub deps` and check whisperx output"
	case StageWriteSubtitles:
		return "check output_dir permissions"
	case StageBurnSubtitles:
		return "check ffmpeg output; subtitle files were still written"
	default:
		return "check logs for details"
	}
}
