package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tanmayk15/AutoTranscriber/internal/services"
)

// ErrSegmentFailure marks a single clip that could not be synthesized.
// It matches services.ErrDegraded.
var ErrSegmentFailure = errors.Join(errors.New("tts segment failure"), services.ErrDegraded)

// Request is the input schema of one synthesis call.
type Request struct {
	Text       string
	OutputPath string
	Language   string
	VoicePath  string
	Emotion    string
}

// Synthesizer produces Request.OutputPath or returns an error.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) error
}

type commandRunner func(ctx context.Context, name string, args ...string) error

// ProcessSynthesizer runs an external command per request, for example
// `python indextts_wrapper.py --text ... --output ...`.
type ProcessSynthesizer struct {
	command string
	args    []string
	run     commandRunner
}

// ProcessOption customizes a ProcessSynthesizer.
type ProcessOption func(*ProcessSynthesizer)

// WithCommandRunner overrides process execution.
func WithCommandRunner(r func(ctx context.Context, name string, args ...string) error) ProcessOption {
	return func(p *ProcessSynthesizer) {
		if r != nil {
			p.run = r
		}
	}
}

// NewProcessSynthesizer builds a synthesizer for command with leading args.
func NewProcessSynthesizer(command string, args []string, opts ...ProcessOption) *ProcessSynthesizer {
	p := &ProcessSynthesizer{
		command: strings.TrimSpace(command),
		args:    append([]string(nil), args...),
		run:     defaultCommandRunner,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Args renders the full argument list for req.
func (p *ProcessSynthesizer) Args(req Request) []string {
	args := append([]string(nil), p.args...)
	args = append(args,
		"--text", req.Text,
		"--output", req.OutputPath,
		"--language", req.Language,
		"--voice", req.VoicePath,
		"--emotion", req.Emotion,
	)
	return args
}

// Synthesize implements Synthesizer.
func (p *ProcessSynthesizer) Synthesize(ctx context.Context, req Request) error {
	if p.command == "" {
		return services.Wrap(services.ErrConfiguration, "tts", "synthesize", "tts command not configured", nil)
	}
	if err := p.run(ctx, p.command, p.Args(req)...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "tts", "synthesize", "", err)
		}
		return services.Wrap(services.ErrExternalTool, "tts", "synthesize", "", err)
	}
	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "synthesize", "output missing after exit 0", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrExternalTool, "tts", "synthesize", fmt.Sprintf("output %q is a directory", req.OutputPath), nil)
	}
	return nil
}

// commandWaitDelay bounds how long a cancelled command may keep its output
// pipes open before Wait gives up on them.
const commandWaitDelay = 2 * time.Second

// defaultCommandRunner starts the command in its own process group so a
// cancelled or timed-out segment kills every helper the wrapper spawned,
// not just the direct child.
func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	cmd.WaitDelay = commandWaitDelay
	output, err := cmd.CombinedOutput()
	if err != nil {
		if trimmed := strings.TrimSpace(string(output)); trimmed != "" {
			if len(trimmed) > 400 {
				trimmed = trimmed[len(trimmed)-400:]
			}
			return fmt.Errorf("%w: %s", err, trimmed)
		}
		return err
	}
	return nil
}
