package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"chat-relay-backend/internal/models"
)

// GeminiGenerator is the hosted alternative to a local Ollama model.
type GeminiGenerator struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
	rateChan  chan struct{} // Token bucket
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	const concurrentReqs = 4
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiGenerator{
		client:    client,
		modelName: modelName,
		timeout:   timeout,
		rateChan:  rateChan,
	}, nil
}

func (g *GeminiGenerator) Close() {
	g.client.Close()
}

func (g *GeminiGenerator) Generate(ctx context.Context, messages []models.ChatMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	select {
	case <-g.rateChan:
	case <-ctx.Done():
		return "", classifyTimeout(ctx.Err())
	}
	defer func() { g.rateChan <- struct{}{} }()

	// Models are cheap value holders; a fresh one per call keeps the system
	// instruction from leaking between users.
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(float32(DefaultOllamaOptions.Temperature))
	model.SetTopP(float32(DefaultOllamaOptions.TopP))
	model.SetTopK(int32(DefaultOllamaOptions.TopK))
	model.SetMaxOutputTokens(int32(DefaultOllamaOptions.NumPredict))

	system, history, last := splitForGemini(messages)
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", classifyTimeout(fmt.Errorf("Gemini API error: %w", err))
	}

	return extractText(resp), nil
}

// splitForGemini maps chat messages onto Gemini's system instruction,
// prior turns and the final user turn.
func splitForGemini(messages []models.ChatMessage) (system string, history []*genai.Content, last string) {
	var systemParts []string
	for i, m := range messages {
		switch {
		case m.Role == models.RoleSystem:
			systemParts = append(systemParts, m.Content)
		case m.Role == models.RoleAssistant && len(history) == 0:
			// Chat history must open with a user turn.
			systemParts = append(systemParts, m.Content)
		case i == len(messages)-1 && m.Role == models.RoleUser:
			last = m.Content
		case m.Role == models.RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	return strings.Join(systemParts, "\n\n"), history, last
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
