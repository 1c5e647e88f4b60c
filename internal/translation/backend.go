package translation

import (
	"log/slog"
	"strings"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/services/llm"
)

// BackendFromConfig returns the cache key and lazy factory for the backend
// selected in cfg.
func BackendFromConfig(cfg *config.Config) (string, Factory) {
	if cfg.Translation.Backend == config.BackendCommand {
		argv := cfg.Translation.Command
		return "command:" + strings.Join(argv, " "), func() (Backend, error) {
			return NewCommandBackend(argv)
		}
	}
	llmCfg := llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	}
	rpm := cfg.Translation.RequestsPerMinute
	return "llm:" + llmCfg.BaseURL + "#" + llmCfg.Model, func() (Backend, error) {
		return NewLLMBackend(llm.NewClient(llmCfg, llm.WithRequestsPerMinute(rpm))), nil
	}
}

// NewFromConfig builds a Translator for cfg that shares cache.
func NewFromConfig(cfg *config.Config, cache *ModelCache, logger *slog.Logger) *Translator {
	key, factory := BackendFromConfig(cfg)
	return NewTranslator(cache, key, factory,
		WithBatchSize(cfg.Translation.BatchSize),
		WithFallbackLanguage(cfg.Translation.FallbackLanguage),
		WithLogger(logger),
	)
}
