package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tanmayk15/AutoTranscriber/internal/services"
)

// PipeRunner executes name with args, feeding stdin and returning stdout.
type PipeRunner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// CommandBackend runs an external translator process per batch. The process
// receives {"source","target","texts"} on stdin and must print
// {"translations":[...]} on stdout.
type CommandBackend struct {
	argv []string
	run  PipeRunner
}

// CommandOption customizes a CommandBackend.
type CommandOption func(*CommandBackend)

// WithPipeRunner overrides process execution.
func WithPipeRunner(r PipeRunner) CommandOption {
	return func(b *CommandBackend) {
		if r != nil {
			b.run = r
		}
	}
}

// NewCommandBackend builds a backend for argv (executable first).
func NewCommandBackend(argv []string, opts ...CommandOption) (*CommandBackend, error) {
	cleaned := make([]string, 0, len(argv))
	for _, part := range argv {
		if part = strings.TrimSpace(part); part != "" {
			cleaned = append(cleaned, part)
		}
	}
	if len(cleaned) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "translation", "command backend", "translation.command is empty", nil)
	}
	b := &CommandBackend{argv: cleaned, run: defaultPipeRunner}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type commandRequest struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Texts  []string `json:"texts"`
}

type commandResponse struct {
	Translations []string `json:"translations"`
}

// TranslateBatch implements Backend.
func (b *CommandBackend) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	payload, err := json.Marshal(commandRequest{Source: source, Target: target, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	out, err := b.run(ctx, payload, b.argv[0], b.argv[1:]...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "translation", "run "+b.argv[0], "", err)
	}
	var resp commandResponse
	if err := json.Unmarshal(bytes.TrimSpace(out), &resp); err != nil {
		return nil, services.Wrap(services.ErrValidation, "translation", "decode "+b.argv[0], "", err)
	}
	if len(resp.Translations) != len(texts) {
		return nil, fmt.Errorf("translator returned %d translations for %d texts", len(resp.Translations), len(texts))
	}
	return resp.Translations, nil
}

func defaultPipeRunner(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}
