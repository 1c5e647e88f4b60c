package pipeline

import (
	"log/slog"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/dubbing"
	"github.com/tanmayk15/AutoTranscriber/internal/logging"
	"github.com/tanmayk15/AutoTranscriber/internal/media/ffmpeg"
	"github.com/tanmayk15/AutoTranscriber/internal/media/ffprobe"
	"github.com/tanmayk15/AutoTranscriber/internal/services/whisperx"
	"github.com/tanmayk15/AutoTranscriber/internal/translation"
	"github.com/tanmayk15/AutoTranscriber/internal/tts"
)

// NewFromConfig wires the production collaborators for cfg. cache is
// shared across every video of the process; nil creates a private one.
func NewFromConfig(cfg *config.Config, cache *translation.ModelCache, logger *slog.Logger) (*Driver, error) {
	runner := ffmpeg.New(cfg.FFmpegBinary())
	transcriber := whisperx.NewService(whisperx.Config{
		Model:       cfg.Transcription.Model,
		Task:        cfg.Transcription.Task,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		VADMethod:   cfg.Transcription.VADMethod,
		HFToken:     cfg.Transcription.HFToken,
	}, cfg.UVXBinary())
	if transcriber.EnglishOnlyModel() {
		logging.WarnWithContext(logging.NewComponentLogger(logger, "pipeline"),
			"english-only model selected; forcing english transcription",
			"transcription_language_forced",
			logging.String("model", transcriber.Model()),
			logging.String("requested_language", cfg.Transcription.Language),
			logging.String(logging.FieldErrorHint, "drop the .en suffix to transcribe other languages"),
			logging.String(logging.FieldImpact, "source language treated as english"),
		)
	}
	deps := Collaborators{
		Extractor:   runner,
		Transcriber: transcriber,
		Burner:      runner,
	}
	if cfg.TranslationEnabled() {
		deps.Translator = translation.NewFromConfig(cfg, cache, logger)
	}
	if cfg.TTS.Enabled {
		deps.Synthesizer = tts.NewFromConfig(cfg, logger)
		deps.Dubber = dubbing.NewFromConfig(cfg, ffprobe.NewProber(cfg.FFprobeBinary()), runner, logger)
	}
	return NewDriver(deps, OptionsFromConfig(cfg), logger)
}
