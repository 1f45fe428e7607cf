package models

// UserSettings is one entry of the users list in the settings file.
type UserSettings struct {
	Phone          string `json:"phone" mapstructure:"phone" validate:"required"`
	Tone           string `json:"tone" mapstructure:"tone"`
	Persona        string `json:"persona" mapstructure:"persona"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty" mapstructure:"telegram_chat_id"`
}

const (
	DefaultTone    = "neutral"
	DefaultPersona = "You are a helpful assistant."
)
