package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/wav"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/logging"
	"github.com/tanmayk15/AutoTranscriber/internal/services"
	"github.com/tanmayk15/AutoTranscriber/internal/subtitles"
)

const (
	// DefaultTimeout bounds each synthesis call.
	DefaultTimeout = 60 * time.Second
	// DefaultEmotion is forwarded to the synthesis process.
	DefaultEmotion = "happy"
)

// Artifact is one synthesized clip.
type Artifact struct {
	SegmentIndex int
	AudioPath    string
	// Duration is measured from the WAV header; zero when unreadable.
	Duration float64
}

// ClipName returns the deterministic filename for segment index.
func ClipName(index int) string {
	return fmt.Sprintf("segment_%04d.wav", index)
}

// Orchestrator synthesizes every non-empty segment independently.
type Orchestrator struct {
	synth   Synthesizer
	voices  *VoiceResolver
	timeout time.Duration
	emotion string
	logger  *slog.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithEmotion overrides DefaultEmotion.
func WithEmotion(emotion string) Option {
	return func(o *Orchestrator) {
		if strings.TrimSpace(emotion) != "" {
			o.emotion = strings.TrimSpace(emotion)
		}
	}
}

// WithVoiceResolver sets where voice references are looked up.
func WithVoiceResolver(r *VoiceResolver) Option {
	return func(o *Orchestrator) {
		o.voices = r
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator wraps synth.
func NewOrchestrator(synth Synthesizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		synth:   synth,
		timeout: DefaultTimeout,
		emotion: DefaultEmotion,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "tts")
	return o
}

// NewFromConfig builds an Orchestrator driving the configured TTS command.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Orchestrator {
	return NewOrchestrator(
		NewProcessSynthesizer(cfg.TTS.Command, cfg.TTS.Args),
		WithTimeout(time.Duration(cfg.TTS.TimeoutSeconds)*time.Second),
		WithEmotion(cfg.TTS.Emotion),
		WithVoiceResolver(NewVoiceResolver(cfg.TTS.VoicesDir)),
		WithLogger(logger),
	)
}

// Synthesize produces clips for segments in targetLang under outputDir.
// Segments with empty text are skipped silently. Per-segment failures are
// logged and omitted. The returned error is non-nil only when outputDir
// cannot be created or ctx is cancelled; artifacts gathered so far are
// still returned in that case.
func (o *Orchestrator) Synthesize(ctx context.Context, segments []subtitles.Segment, targetLang, voice, outputDir string) ([]Artifact, error) {
	logger := logging.WithContext(ctx, o.logger)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "tts", "prepare", outputDir, err)
	}

	voicePath, ok := o.voices.Resolve(voice, targetLang)
	if !ok {
		logging.WarnWithContext(logger, "no voice reference found; synthesizing without one",
			"tts_voice_missing",
			logging.String("voice", voice),
			logging.String("language", targetLang),
			logging.String(logging.FieldErrorHint, "set tts.voice to a WAV file or populate tts.voices_dir"),
			logging.String(logging.FieldImpact, "synthesis may fail or use the engine default voice"),
		)
	} else {
		logger.Debug("voice reference resolved", logging.String("voice_path", voicePath))
	}

	pending := 0
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) != "" {
			pending++
		}
	}
	sampler := logging.NewProgressSampler(10)
	artifacts := make([]Artifact, 0, pending)
	attempted, failed := 0, 0
	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}
		attempted++
		req := Request{
			Text:       text,
			OutputPath: filepath.Join(outputDir, ClipName(i)),
			Language:   targetLang,
			VoicePath:  voicePath,
			Emotion:    o.emotion,
		}
		if err := o.synthesizeOne(ctx, req); err != nil {
			if ctx.Err() != nil {
				return artifacts, ctx.Err()
			}
			failed++
			logging.WarnWithContext(logger, "segment synthesis failed; skipping clip",
				"tts_segment_failed",
				logging.SegmentIndex(i),
				logging.String("text_preview", preview(text)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect the tts command output"),
				logging.String(logging.FieldImpact, "segment is silent in the dubbed track"),
			)
		} else {
			artifacts = append(artifacts, Artifact{
				SegmentIndex: i,
				AudioPath:    req.OutputPath,
				Duration:     clipDuration(req.OutputPath),
			})
		}
		if sampler.ShouldLog(attempted, pending) {
			logger.Info("tts progress",
				logging.Int("done", attempted),
				logging.Int("total", pending),
				logging.Int("failed", failed),
			)
		}
	}
	logger.Info("tts completed",
		logging.String(logging.FieldEventType, "tts_completed"),
		logging.Int("artifacts", len(artifacts)),
		logging.Int("failed", failed),
		logging.Int("segments", len(segments)),
	)
	return artifacts, nil
}

func (o *Orchestrator) synthesizeOne(ctx context.Context, req Request) error {
	if o.synth == nil {
		return fmt.Errorf("%w: no synthesizer", ErrSegmentFailure)
	}
	segCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	err := o.synth.Synthesize(segCtx, req)
	if err == nil {
		if !isFile(req.OutputPath) {
			return fmt.Errorf("%w: %s not written", ErrSegmentFailure, req.OutputPath)
		}
		return nil
	}
	_ = os.Remove(req.OutputPath)
	if errors.Is(segCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %w after %s: %w", ErrSegmentFailure, services.ErrTimeout, o.timeout, err)
	}
	return fmt.Errorf("%w: %w", ErrSegmentFailure, err)
}

func clipDuration(path string) float64 {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	streamer, format, err := wav.Decode(f)
	if err != nil {
		return 0
	}
	return format.SampleRate.D(streamer.Len()).Seconds()
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return text
}
