package models

import "time"

// Chat represents a multi-participant conversation. Chats are never hard
// deleted; Active is flipped off instead.
type Chat struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Active    bool      `db:"active" json:"active"`
}

// Participant links a user to a chat. The (chat, user) pair is unique.
type Participant struct {
	ID       int       `db:"id" json:"id"`
	ChatID   int       `db:"chat_id" json:"chat_id"`
	UserID   int       `db:"user_id" json:"user_id"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// ParticipantView is a participant with the user's public profile attached.
type ParticipantView struct {
	Participant
	Username   string `json:"username"`
	ProfileImg string `json:"profile_img,omitempty"`
}

// ChatSummary is the per-user listing view of a chat.
type ChatSummary struct {
	Chat
	Participants []ParticipantView `json:"participants"`
	LastMessage  *MessageView      `json:"last_message,omitempty"`
}
