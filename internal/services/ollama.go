package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chat-relay-backend/internal/models"
)

// OllamaOptions are the sampling options sent with every request.
type OllamaOptions struct {
	Temperature   float64 `json:"temperature"`
	TopK          int     `json:"top_k"`
	TopP          float64 `json:"top_p"`
	NumPredict    int     `json:"num_predict"`
	RepeatPenalty float64 `json:"repeat_penalty"`
	NumCtx        int     `json:"num_ctx"`
	NumThread     int     `json:"num_thread"`
}

// DefaultOllamaOptions keep replies short and the context window small.
var DefaultOllamaOptions = OllamaOptions{
	Temperature:   0.7,
	TopK:          40,
	TopP:          0.9,
	NumPredict:    100,
	RepeatPenalty: 1.1,
	NumCtx:        512,
	NumThread:     4,
}

// OllamaClient calls a local Ollama server's /api/chat endpoint without streaming.
type OllamaClient struct {
	endpoint   string
	model      string
	options    OllamaOptions
	httpClient *http.Client
}

func NewOllamaClient(baseURL, model string, timeout time.Duration, options OllamaOptions) *OllamaClient {
	return &OllamaClient{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/chat",
		model:    model,
		options:  options,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type ollamaChatRequest struct {
	Model    string               `json:"model"`
	Messages []models.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
	Options  OllamaOptions        `json:"options"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

func (c *OllamaClient) Generate(ctx context.Context, messages []models.ChatMessage) (string, error) {
	payload, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options:  c.options,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTimeout(fmt.Errorf("ollama request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTimeout(fmt.Errorf("failed to read ollama response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama error: %s", parsed.Error)
	}

	return parsed.Message.Content, nil
}
