package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/tanmayk15/AutoTranscriber/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeTranslation()
	c.normalizeLLM()
	if err := c.normalizeTTS(); err != nil {
		return err
	}
	c.normalizeDubbing()
	c.normalizeOutput()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir()
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultWhisperModel
	}
	c.Transcription.Task = strings.ToLower(strings.TrimSpace(c.Transcription.Task))
	if c.Transcription.Task == "" {
		c.Transcription.Task = defaultWhisperTask
	}
	lang := strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	switch {
	case lang == "" || lang == language.Auto:
		c.Transcription.Language = language.Auto
	case language.IsValid(lang):
		c.Transcription.Language = language.Normalize(lang)
	default:
		c.Transcription.Language = lang
	}
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultVADMethod
	}
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTranslation() {
	target := strings.TrimSpace(c.Translation.TargetLanguage)
	if normalized := language.Normalize(target); normalized != "" {
		target = normalized
	}
	c.Translation.TargetLanguage = strings.ToLower(target)
	c.Translation.Backend = strings.ToLower(strings.TrimSpace(c.Translation.Backend))
	if c.Translation.Backend == "" {
		c.Translation.Backend = defaultTranslationBackend
	}
	if c.Translation.BatchSize <= 0 {
		c.Translation.BatchSize = defaultTranslationBatch
	}
	c.Translation.FallbackLanguage = language.Normalize(c.Translation.FallbackLanguage)
	if c.Translation.FallbackLanguage == "" {
		c.Translation.FallbackLanguage = defaultFallbackLanguage
	}
	c.Translation.Command = trimArgs(c.Translation.Command)
	if c.Translation.RequestsPerMinute < 0 {
		c.Translation.RequestsPerMinute = 0
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, key := range []string{"AUTOSUB_LLM_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
}

func (c *Config) normalizeTTS() error {
	c.TTS.Command = strings.TrimSpace(c.TTS.Command)
	c.TTS.Args = trimArgs(c.TTS.Args)
	c.TTS.Voice = strings.TrimSpace(c.TTS.Voice)
	if c.TTS.Voice == "" {
		c.TTS.Voice = defaultTTSVoice
	}
	if strings.TrimSpace(c.TTS.VoicesDir) == "" {
		c.TTS.VoicesDir = defaultVoicesDir
	}
	var err error
	if c.TTS.VoicesDir, err = expandPath(c.TTS.VoicesDir); err != nil {
		return fmt.Errorf("tts.voices_dir: %w", err)
	}
	c.TTS.Emotion = strings.TrimSpace(c.TTS.Emotion)
	if c.TTS.Emotion == "" {
		c.TTS.Emotion = defaultTTSEmotion
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeDubbing() {
	c.Dubbing.MixPolicy = strings.ToLower(strings.TrimSpace(c.Dubbing.MixPolicy))
	if c.Dubbing.MixPolicy == "" {
		c.Dubbing.MixPolicy = defaultMixPolicy
	}
	if c.Dubbing.SampleRate <= 0 {
		c.Dubbing.SampleRate = defaultSampleRate
	}
	if c.Dubbing.DecodeWorkers <= 0 {
		c.Dubbing.DecodeWorkers = defaultDecodeWorkers
	}
}

func (c *Config) normalizeOutput() {
	c.Output.BurnStyle = strings.TrimSpace(c.Output.BurnStyle)
	if c.Output.BurnStyle == "" {
		c.Output.BurnStyle = defaultBurnStyle
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func trimArgs(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
