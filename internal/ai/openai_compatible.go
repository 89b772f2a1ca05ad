package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// ChatResult is everything the rest of the service needs from one completion.
// Model is empty and Usage fields are nil when the provider did not report them.
type ChatResult struct {
	Text  string
	Model string
	Usage TokenUsage
}

// ChatClient talks to an OpenAI-compatible /chat/completions endpoint.
type ChatClient struct {
	cfg        ChatConfig
	httpClient *http.Client
	usage      UsageExtractor
}

func NewChatClient(cfg ChatConfig, extractor UsageExtractor) *ChatClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if extractor == nil {
		extractor = DefaultUsageExtractor()
	}
	return &ChatClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		usage:      extractor,
	}
}

func (c *ChatClient) Complete(ctx context.Context, messages []ChatMessage) (*ChatResult, error) {
	reqBody := map[string]interface{}{
		"model":       c.cfg.Model,
		"messages":    messages,
		"stream":      false,
		"temperature": c.cfg.Temperature,
	}

	raw, err := postJSON(ctx, c.httpClient, c.cfg.BaseURL, "/chat/completions", c.cfg.APIKey, reqBody)
	if err != nil {
		return nil, fmt.Errorf("llm %w", err)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse llm json failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("empty llm choices")
	}

	usage := c.usage.Extract(raw)
	if usage.Model == "" {
		usage.Model = c.cfg.Model
	}
	return &ChatResult{
		Text:  parsed.Choices[0].Message.Content,
		Model: usage.Model,
		Usage: usage.TokenUsage,
	}, nil
}

// postJSON sends body as JSON and returns the raw response for 2xx statuses.
func postJSON(ctx context.Context, client *http.Client, baseURL, path, apiKey string, body interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	url := strings.TrimRight(baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("response status %d: %s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
