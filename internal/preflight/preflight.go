package preflight

import (
	"context"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks that gate a batch. Program
// availability is covered separately by CheckSystemDeps.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}
	if cfg.TTS.Enabled && cfg.TTS.VoicesDir != "" && (cfg.TTS.Voice == "" || cfg.TTS.Voice == "default") {
		results = append(results, CheckVoicesDir(cfg.TTS.VoicesDir))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
