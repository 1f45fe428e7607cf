package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"chat-relay-backend/internal/models"
)

const (
	defaultHistoryLimit = 3
	maxHistoryPage      = 500
)

type messageStore interface {
	SaveBatch(ctx context.Context, msgs []*models.Message) error
	Recent(ctx context.Context, phone string, limit int) ([]*models.Message, error)
}

type settingsLookup interface {
	Lookup(phone string) (tone, persona string)
}

// ExchangePublisher is told about every persisted exchange.
type ExchangePublisher interface {
	PublishExchange(ctx context.Context, event models.ExchangeEvent)
}

// ChatService relays one user message to the model and records the exchange.
type ChatService struct {
	messages     messageStore
	settings     settingsLookup
	model        Generator
	publisher    ExchangePublisher
	historyLimit int
	validate     *validator.Validate
	now          func() time.Time
}

func NewChatService(messages messageStore, settings settingsLookup, model Generator, publisher ExchangePublisher, historyLimit int) *ChatService {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &ChatService{
		messages:     messages,
		settings:     settings,
		model:        model,
		publisher:    publisher,
		historyLimit: historyLimit,
		validate:     validator.New(),
		now:          time.Now,
	}
}

// Chat returns the model's reply to message. Model failures are logged and
// yield an empty reply with a nil error; only persistence problems are errors.
// The user message and the reply are stored together or not at all.
func (s *ChatService) Chat(ctx context.Context, phone, message string) (string, error) {
	req := models.ChatRequest{Phone: strings.TrimSpace(phone), Message: message}
	if err := s.validateStruct(req); err != nil {
		return "", err
	}
	if strings.TrimSpace(message) == "" {
		return "", &ValidationError{Fields: map[string]string{"message": "required"}}
	}
	phone = req.Phone

	recent, err := s.messages.Recent(ctx, phone, s.historyLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}
	history := make([]string, 0, len(recent))
	for _, m := range recent {
		history = append(history, m.Text)
	}

	tone, persona := s.settings.Lookup(phone)
	prompt := BuildPrompt(tone, persona, history, message)

	reply, err := s.model.Generate(ctx, prompt)
	if errors.Is(err, ErrTimeout) {
		log.Printf("chat: model timed out for %s, retrying once", phone)
		reply, err = s.model.Generate(ctx, prompt)
	}
	if err != nil {
		log.Printf("chat: model call failed for %s: %v", phone, err)
		return "", nil
	}

	if !IsSafeResponse(reply) {
		log.Printf("chat: blocked unsafe reply for %s", phone)
		return RefusalMessage, nil
	}

	now := s.now()
	exchange := []*models.Message{
		{Phone: phone, Text: message, Timestamp: now},
		{Phone: phone, Text: reply, Timestamp: now},
	}
	if err := s.messages.SaveBatch(ctx, exchange); err != nil {
		return "", fmt.Errorf("failed to save exchange: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishExchange(ctx, models.ExchangeEvent{
			Phone:     phone,
			Message:   message,
			Response:  reply,
			Timestamp: now.UTC(),
		})
	}

	return reply, nil
}

// SyncHistory appends externally collected messages for phone in one batch.
// Entries without text are skipped; entries without a timestamp get the
// time of the sync.
func (s *ChatService) SyncHistory(ctx context.Context, phone string, entries []models.HistoryEntry) (int, error) {
	req := models.SyncHistoryRequest{Phone: strings.TrimSpace(phone), Messages: entries}
	if err := s.validateStruct(req); err != nil {
		return 0, err
	}

	now := s.now()
	batch := make([]*models.Message, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		ts := now
		if e.Timestamp != nil {
			ts = *e.Timestamp
		}
		batch = append(batch, &models.Message{Phone: req.Phone, Text: e.Text, Timestamp: ts})
	}

	if len(batch) == 0 {
		return 0, nil
	}
	if err := s.messages.SaveBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("failed to sync history: %w", err)
	}
	return len(batch), nil
}

// History returns up to limit of the most recent messages, oldest first.
func (s *ChatService) History(ctx context.Context, phone string, limit int) ([]*models.Message, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, &ValidationError{Fields: map[string]string{"phone": "required"}}
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > maxHistoryPage {
		limit = maxHistoryPage
	}
	msgs, err := s.messages.Recent(ctx, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return msgs, nil
}

func (s *ChatService) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}
