package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/deps"
	"github.com/tanmayk15/AutoTranscriber/internal/services/llm"
)

// CheckLLM verifies that the translation endpoint is reachable and the key
// is valid. One attempt, 30 second timeout.
func CheckLLM(ctx context.Context, cfg config.LLM) Result {
	const name = "Translation LLM"
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetry(1, 0, 0))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckVoicesDir reports whether any reference voices are installed. A
// missing directory only warns: synthesis can still run without a reference.
func CheckVoicesDir(dir string) Result {
	const name = "Voice references"
	matches, err := filepath.Glob(filepath.Join(dir, "*.wav"))
	if err != nil || len(matches) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (warning: no .wav references)", dir)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d references)", dir, len(matches))}
}

// CheckSystemDeps evaluates the programs needed for cfg.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "uvx",
			Command:     cfg.UVXBinary(),
			Description: "Required for WhisperX transcription",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction and subtitle burn-in",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for dubbing duration probes",
			Optional:    !cfg.TTS.Enabled,
		},
	}
	if cfg.TTS.Enabled {
		requirements = append(requirements, deps.Requirement{
			Name:        "TTS command",
			Command:     cfg.TTS.Command,
			Description: "Required for speech synthesis",
		})
	}
	if cfg.TranslationEnabled() && cfg.Translation.Backend == config.BackendCommand && len(cfg.Translation.Command) > 0 {
		requirements = append(requirements, deps.Requirement{
			Name:        "Translator command",
			Command:     cfg.Translation.Command[0],
			Description: "Required for command-backend translation",
		})
	}
	return deps.CheckBinaries(requirements)
}

func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
