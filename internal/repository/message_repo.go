package repository

import (
	"context"
	"time"

	"chat-relay-backend/internal/models"
)

// MessageRepo is the append-only history store shared by both backends.
type MessageRepo interface {
	SaveBatch(ctx context.Context, msgs []*models.Message) error
	Recent(ctx context.Context, phone string, limit int) ([]*models.Message, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// reverse flips newest-first query results into chronological order.
func reverse(msgs []*models.Message) []*models.Message {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs
}
