package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"chat-relay-backend/internal/models"
)

// ErrTimeout marks a model call that ran out of time. Only these are retried.
var ErrTimeout = errors.New("model request timed out")

// Generator produces one assistant reply for a prepared conversation.
type Generator interface {
	Generate(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// GeneratorConfig selects and configures the inference backend.
type GeneratorConfig struct {
	Provider     string
	OllamaURL    string
	Model        string
	GeminiAPIKey string
	GeminiModel  string
	Timeout      time.Duration
}

// NewGenerator builds the Generator named by cfg.Provider. The returned
// close function releases provider resources and is never nil.
func NewGenerator(ctx context.Context, cfg GeneratorConfig) (Generator, func(), error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaClient(cfg.OllamaURL, cfg.Model, cfg.Timeout, DefaultOllamaOptions), func() {}, nil
	case "gemini":
		g, err := NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// classifyTimeout wraps deadline and network timeout errors with ErrTimeout.
func classifyTimeout(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
