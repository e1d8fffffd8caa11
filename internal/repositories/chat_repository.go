package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var (
	ErrChatNotFound       = errors.New("chat not found")
	ErrAlreadyParticipant = errors.New("user is already a participant")
)

// ChatRepository abstracts chat and participant persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, name string, participantIDs []int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	ListChats(ctx context.Context, userID int, search string) ([]models.Chat, error)
	IsParticipant(ctx context.Context, chatID int, userID int) (bool, error)
	AddParticipant(ctx context.Context, chatID int, userID int) (models.Participant, error)
	Participants(ctx context.Context, chatID int) ([]models.Participant, error)
	DeactivateChat(ctx context.Context, chatID int) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateChat inserts the chat and its initial participants in one transaction.
func (r *ChatRepo) CreateChat(ctx context.Context, name string, participantIDs []int) (models.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer tx.Rollback()

	var chat models.Chat
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO chats (name) VALUES ($1) RETURNING id, name, created_at, active`, name).
		StructScan(&chat); err != nil {
		return models.Chat{}, err
	}

	seen := make(map[int]struct{}, len(participantIDs))
	for _, userID := range participantIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2) ON CONFLICT (chat_id, user_id) DO NOTHING`,
			chat.ID, userID); err != nil {
			return models.Chat{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT id, name, created_at, active FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// ListChats returns active chats the user participates in, newest first,
// optionally filtered by a case-insensitive name substring.
func (r *ChatRepo) ListChats(ctx context.Context, userID int, search string) ([]models.Chat, error) {
	query := `SELECT c.id, c.name, c.created_at, c.active FROM chats c
        JOIN chat_participants cp ON cp.chat_id = c.id
        WHERE cp.user_id=$1 AND c.active = TRUE`
	args := []interface{}{userID}
	if search != "" {
		query += ` AND c.name ILIKE '%' || $2 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY c.created_at DESC`

	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats, query, args...)
	return chats, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// AddParticipant inserts the membership row. Concurrent duplicate adds
// resolve through the unique constraint; the loser gets ErrAlreadyParticipant.
func (r *ChatRepo) AddParticipant(ctx context.Context, chatID int, userID int) (models.Participant, error) {
	var p models.Participant
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)
         ON CONFLICT (chat_id, user_id) DO NOTHING
         RETURNING id, chat_id, user_id, joined_at`, chatID, userID).
		StructScan(&p)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participant{}, ErrAlreadyParticipant
	}
	return p, err
}

// Participants lists the chat membership in join order.
func (r *ChatRepo) Participants(ctx context.Context, chatID int) ([]models.Participant, error) {
	var parts []models.Participant
	err := r.db.SelectContext(ctx, &parts,
		`SELECT id, chat_id, user_id, joined_at FROM chat_participants WHERE chat_id=$1 ORDER BY joined_at, id`, chatID)
	return parts, err
}

// DeactivateChat soft-deletes the chat.
func (r *ChatRepo) DeactivateChat(ctx context.Context, chatID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chats SET active = FALSE WHERE id=$1`, chatID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}
