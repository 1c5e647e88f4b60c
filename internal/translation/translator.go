package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tanmayk15/AutoTranscriber/internal/language"
	"github.com/tanmayk15/AutoTranscriber/internal/logging"
	"github.com/tanmayk15/AutoTranscriber/internal/services"
	"github.com/tanmayk15/AutoTranscriber/internal/subtitles"
)

// DefaultBatchSize bounds how many segments are sent per backend call.
const DefaultBatchSize = 8

// ErrTranslationUnavailable reports that translation was skipped and the
// original text returned. It always matches services.ErrDegraded.
var ErrTranslationUnavailable = errors.Join(errors.New("translation unavailable"), services.ErrDegraded)

// Backend translates texts from source to target, returning exactly one
// string per input in the same order.
type Backend interface {
	TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error)
}

// Result is the outcome of one Translate call.
type Result struct {
	Segments []subtitles.Segment
	// Translated is false when the identity path ran or the call degraded.
	Translated bool
	Source     string
	Target     string
	// Err is non-nil only when the call degraded; Segments then holds the input.
	Err error
}

// Translator batches transcript segments through a cached Backend.
type Translator struct {
	cache     *ModelCache
	modelKey  string
	factory   Factory
	batchSize int
	fallback  string
	logger    *slog.Logger
}

// Option customizes a Translator.
type Option func(*Translator)

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(t *Translator) {
		if size > 0 {
			t.batchSize = size
		}
	}
}

// WithFallbackLanguage sets the code unsupported languages remap to.
func WithFallbackLanguage(code string) Option {
	return func(t *Translator) {
		if strings.TrimSpace(code) != "" {
			t.fallback = code
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) {
		t.logger = logger
	}
}

// NewTranslator constructs a Translator whose backend is resolved through
// cache under modelKey. A nil cache gets a private one.
func NewTranslator(cache *ModelCache, modelKey string, factory Factory, opts ...Option) *Translator {
	if cache == nil {
		cache = NewModelCache()
	}
	t := &Translator{
		cache:     cache,
		modelKey:  modelKey,
		factory:   factory,
		batchSize: DefaultBatchSize,
		fallback:  DefaultFallback,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.NewComponentLogger(t.logger, "translator")
	return t
}

// Translate returns segments rewritten into target. Output length and every
// start/end always match the input. Equal languages short-circuit without
// touching the backend. Backend failure at any point returns the untouched
// input and a Result.Err matching ErrTranslationUnavailable.
func (t *Translator) Translate(ctx context.Context, segments []subtitles.Segment, source, target string) Result {
	result := Result{Segments: segments, Source: source, Target: target}
	if language.Equal(source, target) {
		return result
	}
	logger := logging.WithContext(ctx, t.logger)

	src, srcRemapped := Resolve(source, t.fallback)
	tgt, tgtRemapped := Resolve(target, t.fallback)
	if srcRemapped || tgtRemapped {
		logging.WarnWithContext(logger, "language not supported by translator; remapped",
			"translation_language_remapped",
			logging.String("source", source),
			logging.String("target", target),
			logging.String("resolved_source", src),
			logging.String("resolved_target", tgt),
			logging.String(logging.FieldErrorHint, "choose a supported target_language"),
			logging.String(logging.FieldImpact, "translation uses the fallback language"),
		)
	}
	result.Source, result.Target = src, tgt
	if src == tgt {
		return result
	}

	translated, err := t.run(ctx, segments, src, tgt)
	if err != nil {
		result.Err = fmt.Errorf("%w: %s -> %s: %w", ErrTranslationUnavailable, src, tgt, err)
		logging.WarnWithContext(logger, "translation failed; keeping original text",
			"translation_unavailable",
			logging.String("source", src),
			logging.String("target", tgt),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check translation backend configuration"),
			logging.String(logging.FieldImpact, "subtitles stay in the source language"),
		)
		return result
	}
	result.Segments = translated
	result.Translated = true
	logger.Info("translation completed",
		logging.String(logging.FieldEventType, "translation_completed"),
		logging.String("source", src),
		logging.String("target", tgt),
		logging.Int("segments", len(segments)),
	)
	return result
}

func (t *Translator) run(ctx context.Context, segments []subtitles.Segment, src, tgt string) ([]subtitles.Segment, error) {
	backend, err := t.cache.GetOrCreate(t.modelKey, t.factory)
	if err != nil {
		return nil, fmt.Errorf("load backend %q: %w", t.modelKey, err)
	}
	out := make([]subtitles.Segment, len(segments))
	copy(out, segments)

	for start := 0; start < len(out); start += t.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+t.batchSize, len(out))
		batch := out[start:end]
		texts := make([]string, len(batch))
		empty := true
		for i, seg := range batch {
			texts[i] = strings.TrimSpace(seg.Text)
			if texts[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		translated, err := backend.TranslateBatch(ctx, texts, src, tgt)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end-1, err)
		}
		if len(translated) != len(texts) {
			return nil, fmt.Errorf("batch %d-%d: backend returned %d texts for %d inputs", start, end-1, len(translated), len(texts))
		}
		for i := range batch {
			if text := strings.TrimSpace(translated[i]); text != "" {
				batch[i].Text = text
			}
		}
	}
	return out, nil
}
