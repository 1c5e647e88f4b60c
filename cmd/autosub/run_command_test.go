package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tanmayk15/AutoTranscriber/internal/dubbing"
	"github.com/tanmayk15/AutoTranscriber/internal/language"
	"github.com/tanmayk15/AutoTranscriber/internal/pipeline"
	"github.com/tanmayk15/AutoTranscriber/internal/testsupport"
)

func newTestRunFlags() (*cobra.Command, *runFlags) {
	cmd := &cobra.Command{Use: "run"}
	flags := &runFlags{}
	flags.register(cmd.Flags())
	return cmd, flags
}

func TestRunFlagsOverrideConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Dubbing.ReplaceAudio = true
	outDir := filepath.Join(t.TempDir(), "custom")

	cmd, flags := newTestRunFlags()
	err := cmd.ParseFlags([]string{
		"--output-dir", outDir,
		"--model", "medium",
		"--language", "AUTO",
		"--target-language", "ES",
		"--keep-original",
		"--tts",
		"--voice", "narrator",
		"--replace-audio=false",
		"--srt-only",
		"--no-output-srt",
	})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if err := flags.apply(cmd, cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Paths.OutputDir != outDir {
		t.Fatalf("output dir = %q, want %q", cfg.Paths.OutputDir, outDir)
	}
	if cfg.Transcription.Model != "medium" || cfg.Transcription.Language != language.Auto {
		t.Fatalf("unexpected transcription settings: %+v", cfg.Transcription)
	}
	if cfg.Translation.TargetLanguage != "es" || !cfg.Translation.KeepOriginal {
		t.Fatalf("unexpected translation settings: %+v", cfg.Translation)
	}
	if !cfg.TTS.Enabled || cfg.TTS.Voice != "narrator" {
		t.Fatalf("unexpected tts settings: %+v", cfg.TTS)
	}
	if cfg.Dubbing.ReplaceAudio {
		t.Fatal("expected replace_audio to be overridden to false")
	}
	if !cfg.Output.SRTOnly || cfg.Output.OutputSRT {
		t.Fatalf("unexpected output settings: %+v", cfg.Output)
	}
}

func TestRunFlagsLeaveUnsetValues(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTargetLanguage("fr", true))
	cfg.Dubbing.ReplaceAudio = false

	cmd, flags := newTestRunFlags()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if err := flags.apply(cmd, cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Translation.TargetLanguage != "fr" || !cfg.Translation.KeepOriginal {
		t.Fatalf("config translation overwritten: %+v", cfg.Translation)
	}
	if cfg.Dubbing.ReplaceAudio {
		t.Fatal("unset --replace-audio must not restore its default")
	}
}

func TestRunFlagsRejectBadTask(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cmd, flags := newTestRunFlags()
	if err := cmd.ParseFlags([]string{"--task", "summarize"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	err := flags.apply(cmd, cfg)
	if err == nil || !strings.Contains(err.Error(), "transcription.task") {
		t.Fatalf("expected task validation error, got %v", err)
	}
	if cfg.Transcription.Task != "summarize" {
		t.Fatalf("task = %q", cfg.Transcription.Task)
	}
}

func TestRenderSummary(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	summary := pipeline.Summary{
		RunID: "0123456789abcdef",
		Reports: []pipeline.Report{
			{
				Video:          "/in/talk.mp4",
				State:          pipeline.StateDone,
				SourceLanguage: "en",
				TargetLanguage: "es",
				Translated:     true,
				Segments:       12,
				Artifacts:      11,
				Outputs:        []string{"/out/talk.es.srt", "/out/talk.mp4"},
				Degradations: []pipeline.Degradation{
					{Stage: pipeline.StageCompositeAudio, Err: dubbing.ErrNoAudioToComposite},
				},
				Started:  start,
				Finished: start.Add(90 * time.Second),
			},
			{
				Video:       "/in/demo.mp4",
				State:       pipeline.StatePartialFailure,
				FailedStage: pipeline.StageBurnSubtitles,
				Err:         errors.New("ffmpeg exited 1"),
				Started:     start,
				Finished:    start.Add(time.Second),
			},
		},
		Skipped: []string{"/in/late.mp4"},
	}

	out := renderSummary(summary, false)
	for _, want := range []string{
		"talk.mp4", "talk.es.srt", "en -> es", "1m30s",
		"degraded composite_audio",
		"partial_failure", "failed at burn_subtitles: ffmpeg exited 1",
		"late.mp4", "skipped", "batch interrupted",
	} {
		requireContains(t, out, want)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no ANSI colour codes without a terminal:\n%s", out)
	}
}

func TestColorStatus(t *testing.T) {
	if got := colorStatus("done", statusOK, false); got != "done" {
		t.Fatalf("colorStatus without colour = %q", got)
	}
	text.EnableColors()
	got := colorStatus("done", statusOK, true)
	if !strings.Contains(got, "done") || !strings.HasPrefix(got, "\x1b[") {
		t.Fatalf("expected coloured label, got %q", got)
	}
}
