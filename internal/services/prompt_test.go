package services

import (
	"strings"
	"testing"

	"chat-relay-backend/internal/models"
)

func TestBuildPrompt_WithoutHistory(t *testing.T) {
	msgs := BuildPrompt("playful", "A pirate.", nil, "ahoy")

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != models.RoleSystem || msgs[1].Role != models.RoleUser {
		t.Fatalf("unexpected roles %q, %q", msgs[0].Role, msgs[1].Role)
	}
	if !strings.HasPrefix(msgs[0].Content, "You are a real person with the following personality: A pirate.\nYour communication style is playful.") {
		t.Errorf("system prompt does not embed persona and tone: %q", msgs[0].Content)
	}
	if !strings.HasSuffix(msgs[0].Content, "- Be conversational and engaging") {
		t.Errorf("system prompt is missing the guidelines")
	}
	if msgs[1].Content != "ahoy" {
		t.Errorf("unexpected user content %q", msgs[1].Content)
	}
}

func TestBuildPrompt_WithHistory(t *testing.T) {
	msgs := BuildPrompt("neutral", "p", []string{"hi", "hello! 👋", "how are you?"}, "good thanks")

	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[1].Role != models.RoleAssistant {
		t.Fatalf("expected context as assistant message, got %q", msgs[1].Role)
	}
	want := "Previous conversation:\nhi\nhello! 👋\nhow are you?"
	if msgs[1].Content != want {
		t.Errorf("expected %q, got %q", want, msgs[1].Content)
	}
	if msgs[2].Role != models.RoleUser || msgs[2].Content != "good thanks" {
		t.Errorf("unexpected final message %+v", msgs[2])
	}
}
