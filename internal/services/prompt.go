package services

import (
	"fmt"
	"strings"

	"chat-relay-backend/internal/models"
)

const systemPromptTemplate = `You are a real person with the following personality: %s
Your communication style is %s. 
Important guidelines:
- Respond naturally like a real person, not an AI assistant
- Use casual language and contractions (I'm, you're, etc.)
- Show personality and emotion in your responses
- Keep responses concise but friendly
- Use appropriate emojis occasionally
- Don't use formal language or AI-like phrases
- If you're being friendly, use exclamation marks naturally
- Don't mention being an AI or assistant
- Don't use phrases like "I understand" or "I can help you with that"
- Be conversational and engaging`

func buildSystemPrompt(tone, persona string) string {
	return fmt.Sprintf(systemPromptTemplate, persona, tone)
}

// BuildPrompt assembles the system prompt, the prior conversation (framed as
// one assistant message, only when there is any) and the new user message.
func BuildPrompt(tone, persona string, history []string, message string) []models.ChatMessage {
	messages := make([]models.ChatMessage, 0, 3)
	messages = append(messages, models.ChatMessage{Role: models.RoleSystem, Content: buildSystemPrompt(tone, persona)})

	if context := strings.Join(history, "\n"); context != "" {
		messages = append(messages, models.ChatMessage{
			Role:    models.RoleAssistant,
			Content: "Previous conversation:\n" + context,
		})
	}

	return append(messages, models.ChatMessage{Role: models.RoleUser, Content: message})
}
