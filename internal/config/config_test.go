package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AUTOSUB_LLM_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY", "HF_TOKEN", "HUGGING_FACE_HUB_TOKEN", "XDG_CACHE_HOME"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".cache", "autosub", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, ".local", "share", "autosub") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) {
		t.Fatalf("expected absolute output dir, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Transcription.Model != "small" || cfg.Transcription.Task != config.TaskTranscribe {
		t.Fatalf("unexpected transcription defaults: %+v", cfg.Transcription)
	}
	if cfg.Transcription.Language != "auto" {
		t.Fatalf("expected auto language detection, got %q", cfg.Transcription.Language)
	}
	if cfg.TranslationEnabled() {
		t.Fatal("expected translation disabled by default")
	}
	if cfg.Translation.BatchSize != 8 {
		t.Fatalf("expected batch size 8, got %d", cfg.Translation.BatchSize)
	}
	if cfg.Translation.FallbackLanguage != "en" {
		t.Fatalf("expected fallback language en, got %q", cfg.Translation.FallbackLanguage)
	}
	if cfg.TTS.Enabled {
		t.Fatal("expected TTS disabled by default")
	}
	if cfg.TTS.TimeoutSeconds != 60 || cfg.TTS.Emotion != "happy" {
		t.Fatalf("unexpected tts defaults: %+v", cfg.TTS)
	}
	if !cfg.Dubbing.ReplaceAudio {
		t.Fatal("expected replace_audio default true")
	}
	if cfg.Dubbing.MixPolicy != config.MixPolicySum || cfg.Dubbing.SampleRate != 16000 {
		t.Fatalf("unexpected dubbing defaults: %+v", cfg.Dubbing)
	}
	if !cfg.Output.OutputSRT || cfg.Output.SRTOnly {
		t.Fatalf("unexpected output defaults: %+v", cfg.Output)
	}
	if !strings.Contains(cfg.Output.BurnStyle, "BorderStyle=3") {
		t.Fatalf("unexpected burn style: %q", cfg.Output.BurnStyle)
	}
	if cfg.LLM.APIKey != "" {
		t.Fatalf("expected empty api key, got %q", cfg.LLM.APIKey)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "autosub.toml")

	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Translation struct {
			TargetLanguage string `toml:"target_language"`
			KeepOriginal   bool   `toml:"keep_original"`
			BatchSize      int    `toml:"batch_size"`
		} `toml:"translation"`
		Dubbing struct {
			MixPolicy    string `toml:"mix_policy"`
			ReplaceAudio bool   `toml:"replace_audio"`
		} `toml:"dubbing"`
	}
	custom := payload{}
	custom.Paths.OutputDir = filepath.Join(tempDir, "out")
	custom.Translation.TargetLanguage = "ES"
	custom.Translation.KeepOriginal = true
	custom.Translation.BatchSize = 4
	custom.Dubbing.MixPolicy = "LAST_WINS"
	custom.Dubbing.ReplaceAudio = false

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config %q to be found, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempDir, "out") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Translation.TargetLanguage != "es" || !cfg.Translation.KeepOriginal || cfg.Translation.BatchSize != 4 {
		t.Fatalf("unexpected translation config: %+v", cfg.Translation)
	}
	if cfg.Dubbing.MixPolicy != config.MixPolicyLastWins || cfg.Dubbing.ReplaceAudio {
		t.Fatalf("unexpected dubbing config: %+v", cfg.Dubbing)
	}
}

func TestLoadUsesEnvFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", " router-key ")
	t.Setenv("HF_TOKEN", "hf-token")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "router-key" {
		t.Fatalf("expected api key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Transcription.HFToken != "hf-token" {
		t.Fatalf("expected hf token from env, got %q", cfg.Transcription.HFToken)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"task", func(c *config.Config) { c.Transcription.Task = "summarize" }, "transcription.task"},
		{"target", func(c *config.Config) { c.Translation.TargetLanguage = "zz-not-a-code" }, "translation.target_language"},
		{"backend", func(c *config.Config) { c.Translation.Backend = "carrier-pigeon" }, "translation.backend"},
		{"command backend", func(c *config.Config) {
			c.Translation.Backend = config.BackendCommand
			c.Translation.TargetLanguage = "es"
		}, "translation.command"},
		{"tts command", func(c *config.Config) {
			c.TTS.Enabled = true
			c.TTS.Command = ""
		}, "tts.command"},
		{"mix policy", func(c *config.Config) { c.Dubbing.MixPolicy = "crossfade" }, "dubbing.mix_policy"},
		{"sample rate", func(c *config.Config) { c.Dubbing.SampleRate = 100 }, "dubbing.sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Translation.BatchSize != 8 {
		t.Fatalf("unexpected batch size from sample: %d", cfg.Translation.BatchSize)
	}
}

func TestEncodeRedactsSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "secret"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Fatalf("expected api key to be redacted:\n%s", data)
	}
	if !strings.Contains(string(data), "[dubbing]") {
		t.Fatalf("expected dubbing section in output:\n%s", data)
	}
}
