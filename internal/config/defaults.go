package config

const (
	defaultOutputDir          = "."
	defaultLogDir             = "~/.local/share/autosub/logs"
	defaultStateDir           = "~/.local/share/autosub"
	defaultVoicesDir          = "~/.local/share/autosub/voices"
	defaultLogRetentionDays   = 30
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultWhisperModel       = "small"
	defaultWhisperTask        = "transcribe"
	defaultWhisperLanguage    = "auto"
	defaultVADMethod          = "silero"
	defaultTranslationBackend = "llm"
	defaultTranslationBatch   = 8
	defaultFallbackLanguage   = "en"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMReferer         = "https://github.com/tanmayk15/AutoTranscriber"
	defaultLLMTitle           = "AutoTranscriber Subtitle Translator"
	defaultLLMTimeoutSeconds  = 60
	defaultTTSCommand         = "python"
	defaultTTSVoice           = "default"
	defaultTTSEmotion         = "happy"
	defaultTTSTimeoutSeconds  = 60
	defaultMixPolicy          = MixPolicySum
	defaultSampleRate         = 16000
	defaultDecodeWorkers      = 4
	defaultBurnStyle          = "OutlineColour=&H40000000,BorderStyle=3"
)

// Mix policies for overlapping synthesized clips.
const (
	MixPolicySum      = "sum"
	MixPolicyLastWins = "last_wins"
)

// Translation backends.
const (
	BackendLLM     = "llm"
	BackendCommand = "command"
)

// Whisper tasks.
const (
	TaskTranscribe = "transcribe"
	TaskTranslate  = "translate"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir(),
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Transcription: Transcription{
			Model:     defaultWhisperModel,
			Task:      defaultWhisperTask,
			Language:  defaultWhisperLanguage,
			VADMethod: defaultVADMethod,
		},
		Translation: Translation{
			Backend:          defaultTranslationBackend,
			BatchSize:        defaultTranslationBatch,
			FallbackLanguage: defaultFallbackLanguage,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			Command:        defaultTTSCommand,
			Args:           []string{"indextts_wrapper.py"},
			Voice:          defaultTTSVoice,
			VoicesDir:      defaultVoicesDir,
			Emotion:        defaultTTSEmotion,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Dubbing: Dubbing{
			ReplaceAudio:  true,
			MixPolicy:     defaultMixPolicy,
			SampleRate:    defaultSampleRate,
			DecodeWorkers: defaultDecodeWorkers,
		},
		Output: Output{
			OutputSRT: true,
			BurnStyle: defaultBurnStyle,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
