package dubbing

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/logging"
	"github.com/tanmayk15/AutoTranscriber/internal/media/ffmpeg"
	"github.com/tanmayk15/AutoTranscriber/internal/media/ffprobe"
	"github.com/tanmayk15/AutoTranscriber/internal/services"
	"github.com/tanmayk15/AutoTranscriber/internal/subtitles"
	"github.com/tanmayk15/AutoTranscriber/internal/tts"
)

// Prober inspects the source video.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Muxer writes the dubbed container.
type Muxer interface {
	MuxDub(ctx context.Context, req ffmpeg.DubRequest) error
}

// Request describes one dub.
type Request struct {
	Video     string
	Output    string
	Segments  []subtitles.Segment
	Artifacts []tts.Artifact
}

// Dubber builds the composite track and muxes it with the source video.
type Dubber struct {
	compositor   *Compositor
	probe        Prober
	mux          Muxer
	workDir      string
	replaceAudio bool
	logger       *slog.Logger
}

// NewDubber constructs a Dubber. Temporary tracks are written to workDir.
func NewDubber(compositor *Compositor, probe Prober, mux Muxer, workDir string, replaceAudio bool, logger *slog.Logger) *Dubber {
	if compositor == nil {
		compositor = NewCompositor(WithCompositorLogger(logger))
	}
	return &Dubber{
		compositor:   compositor,
		probe:        probe,
		mux:          mux,
		workDir:      workDir,
		replaceAudio: replaceAudio,
		logger:       logging.NewComponentLogger(logger, "dubber"),
	}
}

// NewFromConfig wires a Dubber from cfg.
func NewFromConfig(cfg *config.Config, probe Prober, mux Muxer, logger *slog.Logger) *Dubber {
	comp := NewCompositor(
		WithSampleRate(cfg.Dubbing.SampleRate),
		WithMixPolicy(cfg.Dubbing.MixPolicy),
		WithNormalize(cfg.Dubbing.Normalize),
		WithDecodeWorkers(cfg.Dubbing.DecodeWorkers),
		WithCompositorLogger(logger),
	)
	return NewDubber(comp, probe, mux, cfg.Paths.WorkDir, cfg.Dubbing.ReplaceAudio, logger)
}

// Dub writes req.Output. The intermediate track is removed on every path.
func (d *Dubber) Dub(ctx context.Context, req Request) error {
	if len(req.Artifacts) == 0 {
		return ErrNoAudioToComposite
	}
	probe, err := d.probe.Inspect(ctx, req.Video)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "dub", "probe", req.Video, err)
	}
	track, err := d.compositor.Build(ctx, req.Segments, req.Artifacts, probe.MediaDuration())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(d.workDir, 0o755); err != nil {
		return fmt.Errorf("ensure work dir: %w", err)
	}
	tmp, err := os.CreateTemp(d.workDir, "composite-*.wav")
	if err != nil {
		return fmt.Errorf("create composite track: %w", err)
	}
	trackPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if err := os.Remove(trackPath); err != nil && !os.IsNotExist(err) {
			d.logger.Debug("composite track cleanup failed", logging.Error(err))
		}
	}()

	if err := track.WriteWAV(trackPath); err != nil {
		return err
	}
	return d.mux.MuxDub(ctx, ffmpeg.DubRequest{
		Video:            req.Video,
		Track:            trackPath,
		Output:           req.Output,
		ReplaceAudio:     d.replaceAudio,
		OriginalHasAudio: probe.AudioStreamCount() > 0,
	})
}
