package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chat-relay-backend/internal/models"
)

type PostgresMessageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepo(pool *pgxpool.Pool) *PostgresMessageRepo {
	return &PostgresMessageRepo{pool: pool}
}

func (r *PostgresMessageRepo) SaveBatch(ctx context.Context, msgs []*models.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, m := range msgs {
		batch.Queue("INSERT INTO messages (phone, message, timestamp) VALUES ($1, $2, $3) RETURNING id",
			m.Phone, m.Text, m.Timestamp.UTC())
	}

	results := tx.SendBatch(ctx, batch)
	for _, m := range msgs {
		if err := results.QueryRow().Scan(&m.ID); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresMessageRepo) Recent(ctx context.Context, phone string, limit int) ([]*models.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, phone, message, timestamp FROM messages
		WHERE phone = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2`, phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.Phone, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Timestamp = m.Timestamp.UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reverse(msgs), nil
}

func (r *PostgresMessageRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM messages WHERE timestamp < $1", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
