package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
	defaultAnthropicModel   = "claude-haiku-4-5-20251001"
)

type anthropicProvider struct {
	apiKey  string
	model   string
	baseURL string
	opts    Options
	client  *http.Client
}

func newAnthropicProvider(opts Options) *anthropicProvider {
	model := opts.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &anthropicProvider{
		apiKey:  opts.APIKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    opts,
		client:  &http.Client{},
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *anthropicProvider) Name() string { return ProviderSecondary }

func (a *anthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, a.opts.Timeout)
	defer cancel()

	maxTokens := a.opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	body := anthropicRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      a.opts.SystemPrompt,
		Temperature: a.opts.Temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: a.Name(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: a.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ProviderError{
			Provider:   a.Name(),
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        fmt.Errorf("anthropic API returned %d", resp.StatusCode),
		}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &ProviderError{Provider: a.Name(), StatusCode: resp.StatusCode, Body: string(respBody), Err: fmt.Errorf("decode response: %w", err)}
	}

	for _, block := range apiResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", &ProviderError{Provider: a.Name(), StatusCode: resp.StatusCode, Body: string(respBody), Err: errors.New("empty response from anthropic")}
}
