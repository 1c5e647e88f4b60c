package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/language"
	"github.com/tanmayk15/AutoTranscriber/internal/logging"
	"github.com/tanmayk15/AutoTranscriber/internal/pipeline"
	"github.com/tanmayk15/AutoTranscriber/internal/preflight"
	"github.com/tanmayk15/AutoTranscriber/internal/runlog"
	"github.com/tanmayk15/AutoTranscriber/internal/scratch"
	"github.com/tanmayk15/AutoTranscriber/internal/translation"
)

// runFlags are per-invocation overrides of the loaded configuration.
type runFlags struct {
	outputDir      string
	model          string
	task           string
	language       string
	targetLanguage string
	keepOriginal   bool
	tts            bool
	voice          string
	replaceAudio   bool
	srtOnly        bool
	noOutputSRT    bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <video>...",
		Short: "Subtitle (and optionally translate and dub) one or more videos",
		Long: "Process each video in order: extract audio, transcribe, optionally translate,\n" +
			"write subtitles, optionally synthesize a dubbed track, and burn subtitles in.\n" +
			"A failure on one video does not stop the rest of the batch.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			videos, err := resolveVideos(args)
			if err != nil {
				return err
			}
			return runBatch(cmd, cfg, videos)
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "Directory for subtitled videos and subtitle files")
	fs.StringVar(&f.model, "model", "", "WhisperX model name (e.g. small, medium, large-v3, small.en)")
	fs.StringVar(&f.task, "task", "", "Speech task: transcribe, or translate to render English directly")
	fs.StringVar(&f.language, "language", "", "Source language code, or auto to detect")
	fs.StringVarP(&f.targetLanguage, "target-language", "t", "", "Translate subtitles into this language code")
	fs.BoolVar(&f.keepOriginal, "keep-original", false, "Also keep original-language subtitles when translating")
	fs.BoolVar(&f.tts, "tts", false, "Synthesize dubbed speech from the translated subtitles")
	fs.StringVar(&f.voice, "voice", "", "Reference voice file or name for speech synthesis")
	fs.BoolVar(&f.replaceAudio, "replace-audio", true, "Replace the original audio with the dub instead of adding a second track")
	fs.BoolVar(&f.srtOnly, "srt-only", false, "Write subtitle files only; skip dubbing and burn-in")
	fs.BoolVar(&f.noOutputSRT, "no-output-srt", false, "Do not keep subtitle files next to the output videos")
}

// apply copies explicitly set flags onto cfg and revalidates it.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	set := cmd.Flags().Changed
	if set("output-dir") {
		dir, err := config.ExpandPath(strings.TrimSpace(f.outputDir))
		if err != nil {
			return fmt.Errorf("resolve output dir: %w", err)
		}
		cfg.Paths.OutputDir = dir
	}
	if set("model") {
		cfg.Transcription.Model = strings.TrimSpace(f.model)
	}
	if set("task") {
		cfg.Transcription.Task = strings.ToLower(strings.TrimSpace(f.task))
	}
	if set("language") {
		cfg.Transcription.Language = normalizeFlagLanguage(f.language, true)
	}
	if set("target-language") {
		cfg.Translation.TargetLanguage = normalizeFlagLanguage(f.targetLanguage, false)
	}
	if set("keep-original") {
		cfg.Translation.KeepOriginal = f.keepOriginal
	}
	if set("tts") {
		cfg.TTS.Enabled = f.tts
	}
	if set("voice") {
		cfg.TTS.Voice = strings.TrimSpace(f.voice)
	}
	if set("replace-audio") {
		cfg.Dubbing.ReplaceAudio = f.replaceAudio
	}
	if set("srt-only") {
		cfg.Output.SRTOnly = f.srtOnly
	}
	if set("no-output-srt") {
		cfg.Output.OutputSRT = !f.noOutputSRT
	}
	if strings.TrimSpace(cfg.Transcription.Model) == "" {
		return errors.New("--model must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// normalizeFlagLanguage keeps unparseable input verbatim so validation can
// name it.
func normalizeFlagLanguage(value string, allowAuto bool) string {
	value = strings.TrimSpace(value)
	if allowAuto && (value == "" || strings.EqualFold(value, language.Auto)) {
		return language.Auto
	}
	if normalized := language.Normalize(value); normalized != "" {
		return normalized
	}
	return value
}

// resolveVideos expands and checks the input paths, dropping duplicates.
func resolveVideos(args []string) ([]string, error) {
	seen := make(map[string]struct{}, len(args))
	videos := make([]string, 0, len(args))
	var missing []string
	for _, arg := range args {
		path, err := config.ExpandPath(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", arg, err)
		}
		info, err := os.Stat(path)
		switch {
		case err != nil:
			missing = append(missing, arg)
			continue
		case info.IsDir():
			return nil, fmt.Errorf("%s is a directory; pass video files", arg)
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		videos = append(videos, path)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("video not found: %s", strings.Join(missing, ", "))
	}
	return videos, nil
}

func runBatch(cmd *cobra.Command, cfg *config.Config, videos []string) error {
	stderr := cmd.ErrOrStderr()
	if err := checkRunPrerequisites(cmd.Context(), cfg); err != nil {
		return err
	}

	logPath := logging.RunLogPath(cfg.Paths.LogDir, time.Now())
	logger, err := logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Console:  stderr,
		FilePath: logPath,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
	scratch.CleanStale(cmd.Context(), cfg.Paths.WorkDir, scratch.DefaultMaxAge, logger)
	if cfg.TranslationEnabled() && cfg.Translation.Backend == config.BackendLLM && cfg.LLM.APIKey == "" {
		logging.WarnWithContext(logger, "no LLM API key configured; subtitles will stay in the source language",
			"translation_unconfigured",
			logging.String(logging.FieldErrorHint, "set llm.api_key or AUTOSUB_LLM_API_KEY"),
			logging.String(logging.FieldImpact, "translation and dubbing are skipped"),
		)
	}

	store, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer store.Close()

	driver, err := pipeline.NewFromConfig(cfg, translation.NewModelCache(), logger)
	if err != nil {
		return fmt.Errorf("configure pipeline: %w", err)
	}

	runCtx, stop := interruptContext(cmd.Context(), stderr)
	defer stop()

	summary, err := pipeline.NewBatch(driver, store, logger).Run(runCtx, videos)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", summary.RunID)
	fmt.Fprintln(out, renderSummary(summary, shouldColorize(out)))

	switch {
	case len(summary.Skipped) > 0:
		return fmt.Errorf("run interrupted: %d video(s) not processed", len(summary.Skipped))
	case summary.Failures() > 0:
		return fmt.Errorf("%d of %d video(s) failed; see `autosub history %s`", summary.Failures(), len(summary.Reports), shortID(summary.RunID))
	}
	return nil
}

// checkRunPrerequisites fails fast when a directory or required program is
// unusable.
func checkRunPrerequisites(ctx context.Context, cfg *config.Config) error {
	var problems []string
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		problems = append(problems, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if status.Missing() {
			problems = append(problems, fmt.Sprintf("%s: %s", status.Name, status.Detail))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("preflight failed (run `autosub deps` for details):\n  %s", strings.Join(problems, "\n  "))
}

// interruptContext cancels on the first SIGINT/SIGTERM so the batch stops
// after the current video. A second signal exits immediately.
func interruptContext(parent context.Context, stderr io.Writer) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-signals:
		case <-done:
			return
		}
		fmt.Fprintln(stderr, "Interrupt received; finishing the current video. Interrupt again to exit now.")
		cancel()
		select {
		case <-signals:
			os.Exit(130)
		case <-done:
		}
	}()
	return ctx, func() {
		signal.Stop(signals)
		close(done)
		cancel()
	}
}

func renderSummary(summary pipeline.Summary, colorize bool) string {
	headers := []string{"Video", "State", "Language", "Segments", "Clips", "Outputs", "Elapsed", "Notes"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft}
	rows := make([][]string, 0, len(summary.Reports)+len(summary.Skipped))
	for _, r := range summary.Reports {
		kind := statusOK
		switch {
		case r.State == pipeline.StatePartialFailure:
			kind = statusError
		case len(r.Degradations) > 0:
			kind = statusWarn
		}
		rows = append(rows, []string{
			filepath.Base(r.Video),
			colorStatus(string(r.State), kind, colorize),
			languagePair(r),
			fmt.Sprintf("%d", r.Segments),
			fmt.Sprintf("%d", r.Artifacts),
			baseNames(r.Outputs),
			r.Elapsed().Round(time.Second).String(),
			reportNotes(r),
		})
	}
	for _, video := range summary.Skipped {
		rows = append(rows, []string{
			filepath.Base(video),
			colorStatus("skipped", statusInfo, colorize),
			"", "", "", "", "",
			"batch interrupted",
		})
	}
	return renderTable(headers, rows, aligns)
}

func languagePair(r pipeline.Report) string {
	if r.SourceLanguage == "" {
		return ""
	}
	if r.Translated {
		return r.SourceLanguage + " -> " + r.TargetLanguage
	}
	return r.SourceLanguage
}

func baseNames(paths []string) string {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return strings.Join(names, "\n")
}

func reportNotes(r pipeline.Report) string {
	var notes []string
	if r.State == pipeline.StatePartialFailure && r.Err != nil {
		notes = append(notes, fmt.Sprintf("failed at %s: %v", r.FailedStage, r.Err))
	}
	for _, d := range r.Degradations {
		notes = append(notes, "degraded "+d.String())
	}
	return strings.Join(notes, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
