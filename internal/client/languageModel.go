package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"tafaseel/internal/config"
)

type CompletionRequest struct {
	Prompt    string
	MaxTokens int
}

type Completion struct {
	Text        string
	TotalTokens int
	Raw         json.RawMessage
}

// LanguageModel generates product copy from a rendered prompt.
type LanguageModel interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

func NewLanguageModel(ctx context.Context, llmCfg *config.LLM, log *slog.Logger) (LanguageModel, error) {
	switch llmCfg.Provider {
	case "openai":
		return NewOpenAIClient(llmCfg, log), nil
	case "gemini":
		return NewGenAIClient(ctx, llmCfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", llmCfg.Provider)
	}
}
