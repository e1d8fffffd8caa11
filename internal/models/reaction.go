package models

import "time"

// ReactionType enumerates the supported reactions.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

var reactionTypes = []ReactionType{
	ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry,
}

// ReactionTypes lists the supported reaction types in catalog order.
func ReactionTypes() []ReactionType {
	return append([]ReactionType(nil), reactionTypes...)
}

// Valid reports whether t is a known reaction type.
func (t ReactionType) Valid() bool {
	for _, known := range reactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Reaction is a user's reaction to a message, unique per (message, user).
type Reaction struct {
	ID        int          `db:"id" json:"id"`
	MessageID int          `db:"message_id" json:"message_id"`
	UserID    int          `db:"user_id" json:"user_id"`
	Type      ReactionType `db:"type" json:"type"`
	ReactedAt time.Time    `db:"reacted_at" json:"reacted_at"`
}
