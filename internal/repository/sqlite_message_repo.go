package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-relay-backend/internal/database"
	"chat-relay-backend/internal/models"
)

type SQLiteMessageRepo struct {
	db *sqlx.DB
}

func NewSQLiteMessageRepo(db *sqlx.DB) *SQLiteMessageRepo {
	return &SQLiteMessageRepo{db: db}
}

type messageRow struct {
	ID        int64  `db:"id"`
	Phone     string `db:"phone"`
	Message   string `db:"message"`
	Timestamp string `db:"timestamp"`
}

func (r messageRow) toModel() (*models.Message, error) {
	ts, err := database.ParseTimestamp(r.Timestamp)
	if err != nil {
		return nil, err
	}
	return &models.Message{ID: r.ID, Phone: r.Phone, Text: r.Message, Timestamp: ts}, nil
}

func (r *SQLiteMessageRepo) SaveBatch(ctx context.Context, msgs []*models.Message) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, "INSERT INTO messages (phone, message, timestamp) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		res, err := stmt.ExecContext(ctx, m.Phone, m.Text, database.FormatTimestamp(m.Timestamp))
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			m.ID = id
		}
	}

	return tx.Commit()
}

func (r *SQLiteMessageRepo) Recent(ctx context.Context, phone string, limit int) ([]*models.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, phone, message, timestamp FROM messages
		WHERE phone = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, phone, limit)
	if err != nil {
		return nil, err
	}

	msgs := make([]*models.Message, 0, len(rows))
	for _, row := range rows {
		m, err := row.toModel()
		if err != nil {
			log.Printf("history: skipping message %d for %s: %v", row.ID, phone, err)
			continue
		}
		msgs = append(msgs, m)
	}
	return reverse(msgs), nil
}

func (r *SQLiteMessageRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM messages WHERE timestamp < ?", database.FormatTimestamp(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
