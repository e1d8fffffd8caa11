package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

// ReactionRepository owns reaction rows, unique per (message, user).
type ReactionRepository interface {
	Toggle(ctx context.Context, messageID int, userID int, reactionType models.ReactionType) (*models.Reaction, bool, error)
	ListByMessage(ctx context.Context, messageID int) ([]models.Reaction, error)
}

// ReactionRepo is a sqlx implementation of ReactionRepository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// Toggle applies create-if-absent, remove-if-same, replace-if-different
// semantics. The existing row is locked inside the transaction so concurrent
// double-submission cannot produce duplicate rows. The bool reports removal.
func (r *ReactionRepo) Toggle(ctx context.Context, messageID int, userID int, reactionType models.ReactionType) (*models.Reaction, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var existing models.Reaction
	err = tx.QueryRowxContext(ctx,
		`SELECT id, message_id, user_id, type, reacted_at FROM reactions
         WHERE message_id=$1 AND user_id=$2 FOR UPDATE`, messageID, userID).
		StructScan(&existing)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		var created models.Reaction
		if err := tx.QueryRowxContext(ctx,
			`INSERT INTO reactions (message_id, user_id, type) VALUES ($1, $2, $3)
             ON CONFLICT (message_id, user_id) DO UPDATE SET type = EXCLUDED.type, reacted_at = NOW()
             RETURNING id, message_id, user_id, type, reacted_at`,
			messageID, userID, reactionType).StructScan(&created); err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		return &created, false, nil

	case err != nil:
		return nil, false, err

	case existing.Type == reactionType:
		if _, err := tx.ExecContext(ctx, `DELETE FROM reactions WHERE id=$1`, existing.ID); err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		return nil, true, nil

	default:
		var updated models.Reaction
		if err := tx.QueryRowxContext(ctx,
			`UPDATE reactions SET type=$1, reacted_at=NOW() WHERE id=$2
             RETURNING id, message_id, user_id, type, reacted_at`,
			reactionType, existing.ID).StructScan(&updated); err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		return &updated, false, nil
	}
}

// ListByMessage returns all reactions on a message.
func (r *ReactionRepo) ListByMessage(ctx context.Context, messageID int) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions,
		`SELECT id, message_id, user_id, type, reacted_at FROM reactions WHERE message_id=$1 ORDER BY reacted_at, id`,
		messageID)
	return reactions, err
}
