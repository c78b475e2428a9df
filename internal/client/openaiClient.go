package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"tafaseel/internal/config"
	"time"
)

type openaiClientImpl struct {
	httpClient *http.Client
	log        *slog.Logger
	baseApiURL string
	apiKey     string
	model      string
}

func NewOpenAIClient(llmCfg *config.LLM, log *slog.Logger) LanguageModel {
	return &openaiClientImpl{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log:        log,
		baseApiURL: strings.TrimRight(llmCfg.BaseURL, "/"),
		apiKey:     llmCfg.APIKey,
		model:      llmCfg.Model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *openaiClientImpl) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	payload := chatCompletionRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: 0,
		MaxTokens:   req.MaxTokens,
		TopP:        1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Error("openai completion failed", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("openai returned %d", resp.StatusCode)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return &Completion{
		Text:        strings.TrimSpace(result.Choices[0].Message.Content),
		TotalTokens: result.Usage.TotalTokens,
		Raw:         respBody,
	}, nil
}
