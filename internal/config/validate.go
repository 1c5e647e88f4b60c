package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tanmayk15/AutoTranscriber/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateDubbing(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Task {
	case TaskTranscribe, TaskTranslate:
	default:
		return fmt.Errorf("transcription.task must be %q or %q, got %q", TaskTranscribe, TaskTranslate, c.Transcription.Task)
	}
	if c.Transcription.Language != language.Auto && !language.IsValid(c.Transcription.Language) {
		return fmt.Errorf("transcription.language %q is not a recognised language code", c.Transcription.Language)
	}
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.vad_method must be silero or pyannote, got %q", c.Transcription.VADMethod)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.TargetLanguage != "" && !language.IsValid(c.Translation.TargetLanguage) {
		return fmt.Errorf("translation.target_language %q is not a recognised language code", c.Translation.TargetLanguage)
	}
	switch c.Translation.Backend {
	case BackendLLM:
	case BackendCommand:
		if c.TranslationEnabled() && len(c.Translation.Command) == 0 {
			return errors.New("translation.command must be set when translation.backend is \"command\"")
		}
	default:
		return fmt.Errorf("translation.backend must be %q or %q, got %q", BackendLLM, BackendCommand, c.Translation.Backend)
	}
	return nil
}

func (c *Config) validateTTS() error {
	if c.TTS.Enabled && c.TTS.Command == "" {
		return errors.New("tts.command must be set when tts.enabled is true")
	}
	return nil
}

func (c *Config) validateDubbing() error {
	switch c.Dubbing.MixPolicy {
	case MixPolicySum, MixPolicyLastWins:
	default:
		return fmt.Errorf("dubbing.mix_policy must be %q or %q, got %q", MixPolicySum, MixPolicyLastWins, c.Dubbing.MixPolicy)
	}
	if c.Dubbing.SampleRate < 8000 {
		return fmt.Errorf("dubbing.sample_rate must be at least 8000, got %d", c.Dubbing.SampleRate)
	}
	return nil
}
