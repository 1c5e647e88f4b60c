package dubbing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/logging"
	"github.com/tanmayk15/AutoTranscriber/internal/subtitles"
	"github.com/tanmayk15/AutoTranscriber/internal/tts"
)

// Mix policies for overlapping clips.
const (
	MixSum      = config.MixPolicySum
	MixLastWins = config.MixPolicyLastWins
)

const (
	defaultSampleRate    = 16000
	defaultDecodeWorkers = 4
)

// Compositor places clips on a silent track of fixed duration.
type Compositor struct {
	sampleRate int
	policy     string
	normalize  bool
	workers    int
	logger     *slog.Logger
}

// CompositorOption customizes a Compositor.
type CompositorOption func(*Compositor)

// WithSampleRate sets the track sample rate in Hz.
func WithSampleRate(rate int) CompositorOption {
	return func(c *Compositor) {
		if rate > 0 {
			c.sampleRate = rate
		}
	}
}

// WithMixPolicy selects MixSum or MixLastWins.
func WithMixPolicy(policy string) CompositorOption {
	return func(c *Compositor) {
		if policy == MixSum || policy == MixLastWins {
			c.policy = policy
		}
	}
}

// WithNormalize peak-normalizes tracks whose peak exceeds 1.0.
func WithNormalize(enabled bool) CompositorOption {
	return func(c *Compositor) {
		c.normalize = enabled
	}
}

// WithDecodeWorkers bounds concurrent clip decoding.
func WithDecodeWorkers(n int) CompositorOption {
	return func(c *Compositor) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithCompositorLogger attaches a logger.
func WithCompositorLogger(logger *slog.Logger) CompositorOption {
	return func(c *Compositor) {
		c.logger = logger
	}
}

// NewCompositor constructs a Compositor.
func NewCompositor(opts ...CompositorOption) *Compositor {
	c := &Compositor{
		sampleRate: defaultSampleRate,
		policy:     MixSum,
		workers:    defaultDecodeWorkers,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "compositor")
	return c
}

// Build returns a track exactly duration seconds long with each artifact
// starting at its segment's start time.
func (c *Compositor) Build(ctx context.Context, segments []subtitles.Segment, artifacts []tts.Artifact, duration float64) (*Track, error) {
	if len(artifacts) == 0 {
		return nil, ErrNoAudioToComposite
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMediaDuration, duration)
	}
	logger := logging.WithContext(ctx, c.logger)

	ordered := make([]tts.Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		if a.SegmentIndex < 0 || a.SegmentIndex >= len(segments) {
			logging.WarnWithContext(logger, "artifact references unknown segment; skipping",
				"composite_artifact_orphaned",
				logging.SegmentIndex(a.SegmentIndex),
				logging.Int("segments", len(segments)),
				logging.Alert("orphaned_artifact"),
			)
			continue
		}
		ordered = append(ordered, a)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SegmentIndex < ordered[j].SegmentIndex })

	clips, err := c.decodeAll(ctx, ordered)
	if err != nil {
		return nil, err
	}

	track := &Track{
		Samples:    make([]float64, int(math.Round(duration*float64(c.sampleRate)))),
		SampleRate: c.sampleRate,
	}
	placed := 0
	for i, a := range ordered {
		if clips[i] == nil {
			continue
		}
		offset := int(math.Round(math.Max(segments[a.SegmentIndex].Start, 0) * float64(c.sampleRate)))
		if c.place(track.Samples, clips[i], offset) {
			placed++
		} else {
			logger.Debug("clip starts after end of track", logging.SegmentIndex(a.SegmentIndex))
		}
	}
	if placed == 0 {
		return nil, ErrNoAudioToComposite
	}
	if c.normalize {
		if peak := track.Peak(); peak > 1 {
			for i := range track.Samples {
				track.Samples[i] /= peak
			}
		}
	}
	logger.Info("composite track built",
		logging.String(logging.FieldEventType, "composite_built"),
		logging.Int("clips", placed),
		logging.Float64("duration_seconds", duration),
		logging.String("mix_policy", c.policy),
	)
	return track, nil
}

// place mixes clip into samples at offset and reports whether any of it fit.
func (c *Compositor) place(samples, clip []float64, offset int) bool {
	if offset >= len(samples) {
		return false
	}
	end := min(offset+len(clip), len(samples))
	for i := offset; i < end; i++ {
		if c.policy == MixLastWins {
			samples[i] = clip[i-offset]
		} else {
			samples[i] += clip[i-offset]
		}
	}
	return end > offset
}

func (c *Compositor) decodeAll(ctx context.Context, artifacts []tts.Artifact) ([][]float64, error) {
	logger := logging.WithContext(ctx, c.logger)
	clips := make([][]float64, len(artifacts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, a := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			samples, err := decodeClip(a.AudioPath, c.sampleRate)
			if err != nil {
				logging.WarnWithContext(logger, "clip could not be decoded; leaving gap",
					"composite_clip_unreadable",
					logging.SegmentIndex(a.SegmentIndex),
					logging.Error(err),
					logging.String(logging.FieldImpact, "segment is silent in the dubbed track"),
				)
				return nil
			}
			clips[i] = samples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clips, nil
}
