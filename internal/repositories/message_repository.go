package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, content string, receiverIDs []int) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	ListMessages(ctx context.Context, chatID int, page int, pageSize int) ([]models.Message, error)
	LastMessage(ctx context.Context, chatID int) (models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores the message and one status row per receiver in a
// single transaction, so a reader never observes a message without its
// full status fan-out.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, content string, receiverIDs []int) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	var msg models.Message
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3)
         RETURNING id, chat_id, sender_id, content, status, sent_at`,
		chatID, senderID, content).StructScan(&msg); err != nil {
		return models.Message{}, err
	}

	for _, receiverID := range receiverIDs {
		if receiverID == senderID {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO message_statuses (message_id, receiver_id) VALUES ($1, $2)
             ON CONFLICT (message_id, receiver_id) DO NOTHING`,
			msg.ID, receiverID); err != nil {
			return models.Message{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT id, chat_id, sender_id, content, status, sent_at FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListMessages returns one page of chat messages, newest first. Ties on
// sent_at break by id so pagination is stable.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int, page int, pageSize int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	query := `SELECT id, chat_id, sender_id, content, status, sent_at FROM messages
        WHERE chat_id=$1
        ORDER BY sent_at DESC, id DESC
        LIMIT $2 OFFSET $3`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, chatID, pageSize, (page-1)*pageSize)
	return msgs, err
}

// LastMessage returns the most recent message in the chat.
func (r *MessageRepo) LastMessage(ctx context.Context, chatID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT id, chat_id, sender_id, content, status, sent_at FROM messages
         WHERE chat_id=$1 ORDER BY sent_at DESC, id DESC LIMIT 1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}
