package translation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tanmayk15/AutoTranscriber/internal/language"
	"github.com/tanmayk15/AutoTranscriber/internal/services/llm"
)

// Completer is the subset of the llm client used for translation.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMBackend translates through a chat-completions model.
type LLMBackend struct {
	client Completer
}

// NewLLMBackend wraps client.
func NewLLMBackend(client Completer) *LLMBackend {
	return &LLMBackend{client: client}
}

const llmSystemPrompt = `You translate subtitle lines for video captions.
Translate each input line from %s to %s. Keep meaning and tone, keep each line short enough to read on screen, and never merge or split lines.
Empty input lines stay empty.
Respond with JSON only: {"translations": ["..."]} containing exactly %d strings in input order.`

type llmRequest struct {
	Lines []string `json:"lines"`
}

type llmResponse struct {
	Translations []string `json:"translations"`
}

// TranslateBatch implements Backend.
func (b *LLMBackend) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if b == nil || b.client == nil {
		return nil, fmt.Errorf("llm backend not configured")
	}
	payload, err := json.Marshal(llmRequest{Lines: texts})
	if err != nil {
		return nil, fmt.Errorf("encode lines: %w", err)
	}
	system := fmt.Sprintf(llmSystemPrompt, language.DisplayName(source), language.DisplayName(target), len(texts))
	content, err := b.client.CompleteJSON(ctx, system, string(payload))
	if err != nil {
		return nil, err
	}
	var resp llmResponse
	if err := llm.DecodeLLMJSON(content, &resp); err != nil {
		return nil, fmt.Errorf("decode translations: %w", err)
	}
	if len(resp.Translations) != len(texts) {
		return nil, fmt.Errorf("model returned %d translations for %d lines", len(resp.Translations), len(texts))
	}
	return resp.Translations, nil
}
