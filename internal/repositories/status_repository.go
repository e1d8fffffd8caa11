package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

// StatusRepository owns the per-recipient message status rows. Only the
// messaging engine writes through it.
type StatusRepository interface {
	MarkDelivered(ctx context.Context, chatID int, receiverID int) ([]models.StatusChange, error)
	MarkRead(ctx context.Context, chatID int, receiverID int) ([]models.StatusChange, error)
	UpsertStatus(ctx context.Context, messageID int, receiverID int, status models.Status) (models.StatusChange, bool, error)
	AggregateStatus(ctx context.Context, messageID int) (models.Status, error)
}

// StatusRepo is a sqlx implementation of StatusRepository.
type StatusRepo struct {
	db *sqlx.DB
}

// NewStatusRepo constructs a StatusRepo.
func NewStatusRepo(db *sqlx.DB) *StatusRepo {
	return &StatusRepo{db: db}
}

// MarkDelivered transitions all of the receiver's sent rows in the chat to
// delivered. Idempotent: with no eligible rows it returns an empty slice.
func (r *StatusRepo) MarkDelivered(ctx context.Context, chatID int, receiverID int) ([]models.StatusChange, error) {
	query := `UPDATE message_statuses ms SET status='delivered', updated_at=NOW()
        FROM messages m
        WHERE ms.message_id = m.id AND m.chat_id=$1 AND ms.receiver_id=$2 AND ms.status='sent'
        RETURNING ms.id, ms.message_id, ms.receiver_id, ms.status, ms.updated_at, m.chat_id, m.sender_id`
	return r.sweep(ctx, query, chatID, receiverID)
}

// MarkRead transitions all of the receiver's sent or delivered rows in the
// chat to read. Idempotent.
func (r *StatusRepo) MarkRead(ctx context.Context, chatID int, receiverID int) ([]models.StatusChange, error) {
	query := `UPDATE message_statuses ms SET status='read', updated_at=NOW()
        FROM messages m
        WHERE ms.message_id = m.id AND m.chat_id=$1 AND ms.receiver_id=$2 AND ms.status IN ('sent','delivered')
        RETURNING ms.id, ms.message_id, ms.receiver_id, ms.status, ms.updated_at, m.chat_id, m.sender_id`
	return r.sweep(ctx, query, chatID, receiverID)
}

func (r *StatusRepo) sweep(ctx context.Context, query string, chatID int, receiverID int) ([]models.StatusChange, error) {
	rows, err := r.db.QueryxContext(ctx, query, chatID, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []models.StatusChange
	for rows.Next() {
		var change models.StatusChange
		if err := rows.StructScan(&change); err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

// UpsertStatus moves a single (message, receiver) row forward. Backward
// transitions are no-ops: the conditional update only fires when the new
// status outranks the stored one. The bool reports whether a row changed.
func (r *StatusRepo) UpsertStatus(ctx context.Context, messageID int, receiverID int, status models.Status) (models.StatusChange, bool, error) {
	query := `INSERT INTO message_statuses (message_id, receiver_id, status) VALUES ($1, $2, $3)
        ON CONFLICT (message_id, receiver_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
        WHERE CASE message_statuses.status WHEN 'read' THEN 3 WHEN 'delivered' THEN 2 ELSE 1 END
            < CASE EXCLUDED.status WHEN 'read' THEN 3 WHEN 'delivered' THEN 2 ELSE 1 END
        RETURNING id, message_id, receiver_id, status, updated_at`
	var st models.MessageStatus
	err := r.db.QueryRowxContext(ctx, query, messageID, receiverID, status).StructScan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StatusChange{}, false, nil
	}
	if err != nil {
		return models.StatusChange{}, false, err
	}

	var owner struct {
		ChatID   int `db:"chat_id"`
		SenderID int `db:"sender_id"`
	}
	if err := r.db.GetContext(ctx, &owner,
		`SELECT chat_id, sender_id FROM messages WHERE id=$1`, messageID); err != nil {
		return models.StatusChange{}, false, err
	}
	return models.StatusChange{MessageStatus: st, ChatID: owner.ChatID, SenderID: owner.SenderID}, true, nil
}

// AggregateStatus derives the overall message status: read when every
// receiver row is read, delivered when all are at least delivered, else sent.
// A message with no receivers reports its creation-time sent.
func (r *StatusRepo) AggregateStatus(ctx context.Context, messageID int) (models.Status, error) {
	var agg struct {
		Count   int `db:"count"`
		MinRank int `db:"min_rank"`
	}
	query := `SELECT COUNT(*) AS count,
        COALESCE(MIN(CASE status WHEN 'read' THEN 3 WHEN 'delivered' THEN 2 ELSE 1 END), 0) AS min_rank
        FROM message_statuses WHERE message_id=$1`
	if err := r.db.GetContext(ctx, &agg, query, messageID); err != nil {
		return models.StatusSent, err
	}
	if agg.Count == 0 {
		return models.StatusSent, nil
	}
	switch agg.MinRank {
	case 3:
		return models.StatusRead, nil
	case 2:
		return models.StatusDelivered, nil
	}
	return models.StatusSent, nil
}
