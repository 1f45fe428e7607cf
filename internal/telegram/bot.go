// Package telegram relays Telegram text messages from configured users
// through the chat service.
package telegram

import (
	"context"
	"fmt"
	"log"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"chat-relay-backend/internal/models"
)

// FallbackReply is sent when the relay produced nothing to say.
const FallbackReply = "Sorry, I'm having trouble generating a response right now."

type chatRelay interface {
	Chat(ctx context.Context, phone, message string) (string, error)
}

type userDirectory interface {
	ByTelegramChat(chatID int64) (models.UserSettings, bool)
}

type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

type Bot struct {
	bot    *bot.Bot
	sender sender
	chat   chatRelay
	users  userDirectory
}

func New(token string, chat chatRelay, users userDirectory) (*Bot, error) {
	b := &Bot{chat: chat, users: users}

	tg, err := bot.New(token, bot.WithDefaultHandler(func(ctx context.Context, _ *bot.Bot, update *tgmodels.Update) {
		b.handleUpdate(ctx, update)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	b.bot = tg
	b.sender = tg
	return b, nil
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	log.Println("Telegram front end polling for updates")
	b.bot.Start(ctx)
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgmodels.Update) {
	if update == nil || update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	user, ok := b.users.ByTelegramChat(chatID)
	if !ok {
		return
	}

	reply, err := b.chat.Chat(ctx, user.Phone, update.Message.Text)
	if err != nil {
		log.Printf("telegram: relay failed for chat %d: %v", chatID, err)
		reply = ""
	}
	if reply == "" {
		reply = FallbackReply
	}

	if _, err := b.sender.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: reply}); err != nil {
		log.Printf("telegram: failed to reply to chat %d: %v", chatID, err)
	}
}

// Notify implements services.Notifier. Users without a linked chat are skipped.
func (b *Bot) Notify(ctx context.Context, user models.UserSettings, text string) error {
	if user.TelegramChatID == 0 {
		return nil
	}
	_, err := b.sender.SendMessage(ctx, &bot.SendMessageParams{ChatID: user.TelegramChatID, Text: text})
	return err
}
