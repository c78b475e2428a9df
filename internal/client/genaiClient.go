package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"tafaseel/internal/config"

	"google.golang.org/genai"
)

type genaiClientImpl struct {
	client *genai.Client
	model  string
}

func NewGenAIClient(ctx context.Context, llmCfg *config.LLM) (LanguageModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  llmCfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("new genai client: %w", err)
	}
	return &genaiClientImpl{client: client, model: llmCfg.Model}, nil
}

func (c *genaiClientImpl) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	result, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(req.Prompt),
		&genai.GenerateContentConfig{
			MaxOutputTokens: int32(req.MaxTokens),
			Temperature:     genai.Ptr[float32](0),
			TopP:            genai.Ptr[float32](1),
			ThinkingConfig: &genai.ThinkingConfig{
				ThinkingBudget: genai.Ptr[int32](0),
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	completion := &Completion{Text: strings.TrimSpace(result.Text())}
	if usage := result.UsageMetadata; usage != nil {
		completion.TotalTokens = int(usage.TotalTokenCount)
	}
	if raw, err := json.Marshal(result); err == nil {
		completion.Raw = raw
	}
	return completion, nil
}
