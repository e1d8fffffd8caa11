package models

import "time"

// Status is the delivery state of a message for one receiver.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// Valid reports whether s is one of the three delivery states.
func (s Status) Valid() bool {
	return s == StatusSent || s == StatusDelivered || s == StatusRead
}

// Rank orders statuses so transitions can be kept monotonic.
// sent < delivered < read; unknown values rank below sent.
func (s Status) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// Message is a chat message. Immutable once created except for the derived
// aggregate status. Ordered within a chat by sent_at, ties broken by id.
type Message struct {
	ID       int       `db:"id" json:"id"`
	ChatID   int       `db:"chat_id" json:"chat_id"`
	SenderID int       `db:"sender_id" json:"sender_id"`
	Content  string    `db:"content" json:"content"`
	Status   Status    `db:"status" json:"status"`
	SentAt   time.Time `db:"sent_at" json:"sent_at"`
}

// MessageStatus tracks delivery state per (message, receiver). One row exists
// for every participant except the sender, created together with the message.
type MessageStatus struct {
	ID         int       `db:"id" json:"id"`
	MessageID  int       `db:"message_id" json:"message_id"`
	ReceiverID int       `db:"receiver_id" json:"receiver_id"`
	Status     Status    `db:"status" json:"status"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StatusChange is a transitioned status row joined with the owning message,
// so notifications can target both the chat group and the sender.
type StatusChange struct {
	MessageStatus
	ChatID   int `db:"chat_id" json:"chat_id"`
	SenderID int `db:"sender_id" json:"sender_id"`
}

// MessageView is the wire shape pushed to websocket clients and returned by
// the history endpoint.
type MessageView struct {
	ID               int       `json:"id"`
	Content          string    `json:"content"`
	SenderID         int       `json:"sender_id"`
	SenderUsername   string    `json:"sender_username,omitempty"`
	SenderProfileImg string    `json:"sender_profile_img,omitempty"`
	SentAt           time.Time `json:"sent_at"`
	Status           Status    `json:"status"`
	ChatID           int       `json:"chat_id"`
}
