package models

// Event type discriminators on the websocket wire.
const (
	FrameChatMessage        = "chat_message"
	FrameTyping             = "typing"
	FrameReadMessages       = "read_messages"
	FrameDeliveredMessages  = "delivered_messages"
	TypeChatEvent           = "chat.event"
	TypeConnectionEstablish = "connection_established"
)

// Event names carried inside chat.event envelopes.
const (
	EventStatusChanged       = "mensaje_estado"
	EventMessagesRead        = "mensajes_leidos"
	EventMessagesDelivered   = "mensajes_entregados"
	EventUserOnline          = "user_online"
	EventUserOffline         = "user_offline"
	EventTyping              = "typing"
	EventNewChat             = "nuevo_chat"
	EventParticipantsUpdated = "participantes_actualizados"
)

// MessagePush wraps a new message broadcast to a chat group.
type MessagePush struct {
	Type    string      `json:"type"`
	Message MessageView `json:"message"`
}

// ChatEvent is the envelope for everything that is not a message push.
// Fields are omitted when empty so each event carries only its own payload.
type ChatEvent struct {
	Type         string            `json:"type"`
	Event        string            `json:"event"`
	ChatID       int               `json:"chat_id,omitempty"`
	MessageID    int               `json:"message_id,omitempty"`
	UserID       int               `json:"user_id,omitempty"`
	Username     string            `json:"username,omitempty"`
	Status       Status            `json:"status,omitempty"`
	Chat         *ChatSummary      `json:"chat,omitempty"`
	Participants []ParticipantView `json:"participants,omitempty"`
}

// ConnectionEstablished greets a client on the personal notification channel.
type ConnectionEstablished struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
