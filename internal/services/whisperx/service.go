package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tanmayk15/AutoTranscriber/internal/language"
	"github.com/tanmayk15/AutoTranscriber/internal/services"
	"github.com/tanmayk15/AutoTranscriber/internal/subtitles"
)

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	uvxBinary     string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, uvxBinary string) *Service {
	if uvxBinary == "" {
		uvxBinary = UVXCommand
	}
	return &Service{cfg: cfg, uvxBinary: uvxBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// EnglishOnlyModel reports whether the model only understands English.
func (s *Service) EnglishOnlyModel() bool {
	return strings.HasSuffix(s.Model(), ".en")
}

// EffectiveLanguage resolves the source-language hint passed to WhisperX.
// English-only models force "en"; "auto" or an empty value returns "".
func (s *Service) EffectiveLanguage(requested string) string {
	if s.EnglishOnlyModel() {
		return "en"
	}
	requested = strings.TrimSpace(requested)
	if requested == "" || strings.EqualFold(requested, language.Auto) {
		return ""
	}
	return language.Normalize(requested)
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe runs WhisperX on a mono 16 kHz WAV and returns the validated
// transcript. languageHint is a language code or "auto". outputDir receives
// WhisperX's JSON output.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir, languageHint string) (subtitles.Transcript, error) {
	if audioPath == "" {
		return subtitles.Transcript{}, services.Wrap(services.ErrValidation, "transcribe", "whisperx", "source path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return subtitles.Transcript{}, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	lang := s.EffectiveLanguage(languageHint)
	args := s.buildArgs(audioPath, outputDir, lang)
	if err := s.run(ctx, s.uvxBinary, args...); err != nil {
		return subtitles.Transcript{}, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "transcription failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	transcript, err := LoadTranscript(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return subtitles.Transcript{}, err
	}
	if transcript.Language == "" {
		transcript.Language = lang
	}
	return transcript, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, lang string) []string {
	args := make([]string, 0, 40)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	task := s.cfg.Task
	if task == "" {
		task = DefaultTask
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--task", task,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// whisperXPayload is the JSON structure from WhisperX output.
type whisperXPayload struct {
	Language string                 `json:"language"`
	Segments []subtitles.RawSegment `json:"segments"`
}

// LoadTranscript loads and validates a WhisperX JSON file. Segments missing
// start, end, or text fail with subtitles.ErrMalformedSegment.
func LoadTranscript(jsonPath string) (subtitles.Transcript, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return subtitles.Transcript{}, services.Wrap(services.ErrNotFound, "transcribe", "load output", filepath.Base(jsonPath), err)
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return subtitles.Transcript{}, services.Wrap(services.ErrValidation, "transcribe", "parse output", "invalid whisperx json", err)
	}
	transcript, err := subtitles.NewTranscript(language.Normalize(payload.Language), payload.Segments)
	if err != nil {
		return subtitles.Transcript{}, services.Wrap(services.ErrValidation, "transcribe", "validate segments", "", err)
	}
	return transcript, nil
}
