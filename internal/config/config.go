package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
}

// Transcription contains speech-to-text settings passed to WhisperX.
type Transcription struct {
	Model       string `toml:"model"`
	Task        string `toml:"task"`
	Language    string `toml:"language"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
}

// Translation controls subtitle translation.
type Translation struct {
	TargetLanguage    string   `toml:"target_language"`
	KeepOriginal      bool     `toml:"keep_original"`
	Backend           string   `toml:"backend"`
	BatchSize         int      `toml:"batch_size"`
	FallbackLanguage  string   `toml:"fallback_language"`
	Command           []string `toml:"command"`
	RequestsPerMinute int      `toml:"requests_per_minute"`
}

// LLM contains OpenAI-compatible connection settings used by the llm
// translation backend.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TTS contains speech synthesis settings. Command is the executable and Args
// are prepended to the per-segment request flags.
type TTS struct {
	Enabled        bool     `toml:"enabled"`
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	Voice          string   `toml:"voice"`
	VoicesDir      string   `toml:"voices_dir"`
	Emotion        string   `toml:"emotion"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Dubbing controls how synthesized clips are composited and muxed.
type Dubbing struct {
	ReplaceAudio  bool   `toml:"replace_audio"`
	MixPolicy     string `toml:"mix_policy"`
	Normalize     bool   `toml:"normalize"`
	SampleRate    int    `toml:"sample_rate"`
	DecodeWorkers int    `toml:"decode_workers"`
}

// Output controls which artifacts are written.
type Output struct {
	SRTOnly   bool   `toml:"srt_only"`
	OutputSRT bool   `toml:"output_srt"`
	BurnStyle string `toml:"burn_style"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for AutoTranscriber.
//
// Configuration sections by subsystem:
//   - Paths: output, scratch, log, and state directories
//   - Transcription: WhisperX model and language detection
//   - Translation: target language and backend selection
//   - LLM: chat-completions connection used by the llm backend
//   - TTS: external synthesis command and voice references
//   - Dubbing: compositor mix policy and mux behaviour
//   - Output: subtitle sidecars and burn-in style
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	LLM           LLM           `toml:"llm"`
	TTS           TTS           `toml:"tts"`
	Dubbing       Dubbing       `toml:"dubbing"`
	Output        Output        `toml:"output"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/autosub/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autosub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a batch writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration probes.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// UVXBinary returns the launcher used to run WhisperX.
func (c *Config) UVXBinary() string {
	return "uvx"
}

// RunLogPath is the SQLite ledger location inside the state directory.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// TranslationEnabled reports whether a target language was requested.
func (c *Config) TranslationEnabled() bool {
	return strings.TrimSpace(c.Translation.TargetLanguage) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultWorkDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "autosub", "work")
	}
	return "~/.cache/autosub/work"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	if redacted.LLM.APIKey != "" {
		redacted.LLM.APIKey = "********"
	}
	if redacted.Transcription.HFToken != "" {
		redacted.Transcription.HFToken = "********"
	}
	data, err := toml.Marshal(redacted)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
