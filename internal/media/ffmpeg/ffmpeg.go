package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tanmayk15/AutoTranscriber/internal/services"
)

// ErrMuxFailure marks a failed write of an output video. It matches
// services.ErrExternalTool as well.
var ErrMuxFailure = fmt.Errorf("mux failure: %w", services.ErrExternalTool)

// DefaultBurnStyle is the ASS force_style applied to burned-in subtitles.
const DefaultBurnStyle = "OutlineColour=&H40000000,BorderStyle=3"

// CommandRunner executes name with args, returning an error that includes
// tool output on failure.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Runner issues ffmpeg commands.
type Runner struct {
	binary string
	run    CommandRunner
}

// Option customizes a Runner.
type Option func(*Runner)

// WithCommandRunner overrides command execution, primarily for tests.
func WithCommandRunner(run CommandRunner) Option {
	return func(r *Runner) {
		if run != nil {
			r.run = run
		}
	}
}

// New returns a Runner for binary (default "ffmpeg").
func New(binary string, opts ...Option) *Runner {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	r := &Runner{binary: binary, run: runCommand}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(strings.TrimSpace(string(output)), 2000))
	}
	return nil
}

func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}

func baseArgs() []string {
	return []string{"-y", "-hide_banner", "-loglevel", "error"}
}

// ExtractAudio writes the first audio stream of source to dest as mono 16 kHz
// signed 16-bit PCM WAV, the input format WhisperX expects.
func (r *Runner) ExtractAudio(ctx context.Context, source, dest string) error {
	if err := ensureParent(dest); err != nil {
		return err
	}
	args := append(baseArgs(),
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	)
	if err := r.run(ctx, r.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "extract audio", err)
	}
	return nil
}

// BurnSubtitles renders srtPath into the video pixels of source, writing dest.
// An empty style uses DefaultBurnStyle.
func (r *Runner) BurnSubtitles(ctx context.Context, source, srtPath, dest, style string) error {
	if strings.TrimSpace(style) == "" {
		style = DefaultBurnStyle
	}
	if err := ensureParent(dest); err != nil {
		return err
	}
	args := append(baseArgs(),
		"-i", source,
		"-map", "0:v:0",
		"-map", "0:a?",
		"-vf", SubtitleFilter(srtPath, style),
		"-c:a", "aac",
		dest,
	)
	if err := r.run(ctx, r.binary, args...); err != nil {
		return services.Wrap(ErrMuxFailure, "burn", "ffmpeg", "burn subtitles into "+filepath.Base(dest), err)
	}
	return nil
}

// DubRequest describes a dub mux.
type DubRequest struct {
	Video  string
	Track  string
	Output string
	// ReplaceAudio drops the original audio; otherwise the track is summed
	// at unit gain with the first original audio stream using the longest
	// duration.
	ReplaceAudio bool
	// OriginalHasAudio must be true for mixing; without an original audio
	// stream the track replaces it.
	OriginalHasAudio bool
}

// MuxDub combines the composite track with the video stream of req.Video.
// The video stream is copied, never re-encoded.
func (r *Runner) MuxDub(ctx context.Context, req DubRequest) error {
	if err := ensureParent(req.Output); err != nil {
		return err
	}
	args := append(baseArgs(), "-i", req.Video, "-i", req.Track)
	if req.ReplaceAudio || !req.OriginalHasAudio {
		args = append(args,
			"-map", "0:v:0",
			"-map", "1:a:0",
		)
	} else {
		args = append(args,
			"-filter_complex", "[0:a:0][1:a:0]amix=inputs=2:duration=longest:normalize=0[aout]",
			"-map", "0:v:0",
			"-map", "[aout]",
		)
	}
	args = append(args,
		"-c:v", "copy",
		"-c:a", "aac",
		req.Output,
	)
	if err := r.run(ctx, r.binary, args...); err != nil {
		return services.Wrap(ErrMuxFailure, "dub", "ffmpeg", "mux dub track into "+filepath.Base(req.Output), err)
	}
	return nil
}

func ensureParent(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure output dir: %w", err)
		}
	}
	return nil
}
