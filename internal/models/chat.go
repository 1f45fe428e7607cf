package models

// ChatMessage represents a single message in a model conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Phone   string `json:"phone" validate:"required,max=32"`
	Message string `json:"message" validate:"required"`
}

// ChatResponse is the reply returned by the chat endpoint.
type ChatResponse struct {
	Response string `json:"response"`
}

// SyncHistoryRequest carries externally collected history for one phone.
// Entries are loosely typed; see HistoryEntry for the accepted keys.
type SyncHistoryRequest struct {
	Phone    string         `json:"phone" validate:"required,max=32"`
	Messages []HistoryEntry `json:"messages"`
}

type HistoryResponse struct {
	Phone    string     `json:"phone"`
	Messages []*Message `json:"messages"`
}
