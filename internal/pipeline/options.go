package pipeline

import (
	"context"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/dubbing"
	"github.com/tanmayk15/AutoTranscriber/internal/language"
	"github.com/tanmayk15/AutoTranscriber/internal/subtitles"
	"github.com/tanmayk15/AutoTranscriber/internal/translation"
	"github.com/tanmayk15/AutoTranscriber/internal/tts"
)

// AudioExtractor pulls a mono 16 kHz PCM track out of a video.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, source, dest string) error
}

// Transcriber produces a validated transcript from extracted audio.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, outputDir, languageHint string) (subtitles.Transcript, error)
}

// SegmentTranslator rewrites segment text; it never fails hard.
type SegmentTranslator interface {
	Translate(ctx context.Context, segments []subtitles.Segment, source, target string) translation.Result
}

// SpeechSynthesizer produces sparse per-segment clips.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, segments []subtitles.Segment, targetLang, voice, outputDir string) ([]tts.Artifact, error)
}

// Dubber composites clips and muxes the dubbed video.
type Dubber interface {
	Dub(ctx context.Context, req dubbing.Request) error
}

// SubtitleBurner renders subtitles into the video frames.
type SubtitleBurner interface {
	BurnSubtitles(ctx context.Context, source, srtPath, dest, style string) error
}

// Collaborators bundles the capabilities a Driver calls. Translator,
// Synthesizer, and Dubber may be nil when their features are disabled.
type Collaborators struct {
	Extractor   AudioExtractor
	Transcriber Transcriber
	Translator  SegmentTranslator
	Synthesizer SpeechSynthesizer
	Dubber      Dubber
	Burner      SubtitleBurner
}

// Options are the per-invocation settings of a Driver.
type Options struct {
	OutputDir string
	WorkDir   string
	// SourceLanguage is a hint; "auto" or empty lets the transcriber detect.
	SourceLanguage string
	// SpeechToEnglish marks transcripts already rendered in English.
	SpeechToEnglish bool
	TargetLanguage  string
	KeepOriginal    bool
	TTS             bool
	Voice           string
	SRTOnly         bool
	OutputSRT       bool
	BurnStyle       string
}

// OptionsFromConfig derives Options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:       cfg.Paths.OutputDir,
		WorkDir:         cfg.Paths.WorkDir,
		SourceLanguage:  cfg.Transcription.Language,
		SpeechToEnglish: cfg.Transcription.Task == config.TaskTranslate,
		TargetLanguage:  language.Normalize(cfg.Translation.TargetLanguage),
		KeepOriginal:    cfg.Translation.KeepOriginal,
		TTS:             cfg.TTS.Enabled,
		Voice:           cfg.TTS.Voice,
		SRTOnly:         cfg.Output.SRTOnly,
		OutputSRT:       cfg.Output.OutputSRT,
		BurnStyle:       cfg.Output.BurnStyle,
	}
}
