package engine

import (
	"context"
	"errors"
	"log"

	"messaging-service/internal/bus"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

var (
	ErrNotParticipant   = errors.New("user is not a chat participant")
	ErrOwnMessageStatus = errors.New("sender cannot update own message status")
	ErrInvalidStatus    = errors.New("invalid status value")
	ErrInvalidReaction  = errors.New("invalid reaction type")
	ErrEmptyContent     = errors.New("message content is empty")
)

// Engine is the message lifecycle state machine. It is the only writer of
// message status rows, and every mutation, whether REST or socket triggered,
// emits its notifications from here, so both surfaces stay consistent.
type Engine struct {
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	statuses  repositories.StatusRepository
	reactions repositories.ReactionRepository
	users     repositories.UserRepository
	bus       bus.Bus
}

// New constructs the engine.
func New(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	statuses repositories.StatusRepository,
	reactions repositories.ReactionRepository,
	users repositories.UserRepository,
	eventBus bus.Bus,
) *Engine {
	return &Engine{
		chats:     chats,
		messages:  messages,
		statuses:  statuses,
		reactions: reactions,
		users:     users,
		bus:       eventBus,
	}
}

// publish is fire and forget: fan-out failure never rolls back or fails the
// operation that triggered it.
func (e *Engine) publish(ctx context.Context, group string, event any) {
	if err := e.bus.Publish(ctx, group, event); err != nil {
		log.Printf("event publish failed group=%s: %v", group, err)
	}
}

// CreateChat creates the chat with its initial participants (the creator is
// always one) and notifies every participant's personal group.
func (e *Engine) CreateChat(ctx context.Context, creatorID int, name string, participantIDs []int) (models.ChatSummary, error) {
	ids := append([]int{creatorID}, participantIDs...)
	chat, err := e.chats.CreateChat(ctx, name, ids)
	if err != nil {
		return models.ChatSummary{}, err
	}

	participants, err := e.participantViews(ctx, chat.ID)
	if err != nil {
		return models.ChatSummary{}, err
	}
	summary := models.ChatSummary{Chat: chat, Participants: participants}

	for _, p := range participants {
		e.publish(ctx, bus.UserGroup(p.UserID), models.ChatEvent{
			Type:  models.TypeChatEvent,
			Event: models.EventNewChat,
			Chat:  &summary,
		})
	}
	return summary, nil
}

// AddParticipant adds a user to the chat. The actor must already be a
// participant; the (chat, user) uniqueness invariant is enforced by the
// repository.
func (e *Engine) AddParticipant(ctx context.Context, chatID int, actorID int, userID int) (models.ParticipantView, error) {
	chat, err := e.chats.GetChat(ctx, chatID)
	if err != nil {
		return models.ParticipantView{}, err
	}
	if err := e.requireParticipant(ctx, chatID, actorID); err != nil {
		return models.ParticipantView{}, err
	}

	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return models.ParticipantView{}, err
	}

	added, err := e.chats.AddParticipant(ctx, chatID, userID)
	if err != nil {
		return models.ParticipantView{}, err
	}
	view := models.ParticipantView{Participant: added, Username: user.Username, ProfileImg: user.ProfileImg}

	participants, err := e.participantViews(ctx, chatID)
	if err != nil {
		return models.ParticipantView{}, err
	}
	e.publish(ctx, bus.ChatGroup(chatID), models.ChatEvent{
		Type:         models.TypeChatEvent,
		Event:        models.EventParticipantsUpdated,
		ChatID:       chatID,
		Participants: participants,
	})
	summary := models.ChatSummary{Chat: chat, Participants: participants}
	e.publish(ctx, bus.UserGroup(userID), models.ChatEvent{
		Type:  models.TypeChatEvent,
		Event: models.EventNewChat,
		Chat:  &summary,
	})
	return view, nil
}

// DeactivateChat soft-deletes the chat for everyone. It drops out of chat
// listings but its history stays queryable.
func (e *Engine) DeactivateChat(ctx context.Context, chatID int, actorID int) error {
	if _, err := e.chats.GetChat(ctx, chatID); err != nil {
		return err
	}
	if err := e.requireParticipant(ctx, chatID, actorID); err != nil {
		return err
	}
	return e.chats.DeactivateChat(ctx, chatID)
}

// ListChats returns the user's active chats with participants and the last
// message, newest chat first. A non-empty search filters by chat name.
func (e *Engine) ListChats(ctx context.Context, userID int, search string) ([]models.ChatSummary, error) {
	chats, err := e.chats.ListChats(ctx, userID, search)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		participants, err := e.participantViews(ctx, chat.ID)
		if err != nil {
			return nil, err
		}
		summary := models.ChatSummary{Chat: chat, Participants: participants}

		last, err := e.messages.LastMessage(ctx, chat.ID)
		switch {
		case errors.Is(err, repositories.ErrMessageNotFound):
			// empty chat
		case err != nil:
			return nil, err
		default:
			view, err := e.messageView(ctx, last)
			if err != nil {
				return nil, err
			}
			summary.LastMessage = &view
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// SendMessage persists the message together with one sent status row per
// non-sender participant, then pushes it to the chat group.
func (e *Engine) SendMessage(ctx context.Context, chatID int, senderID int, content string) (models.MessageView, error) {
	if content == "" {
		return models.MessageView{}, ErrEmptyContent
	}
	if _, err := e.chats.GetChat(ctx, chatID); err != nil {
		return models.MessageView{}, err
	}
	if err := e.requireParticipant(ctx, chatID, senderID); err != nil {
		return models.MessageView{}, err
	}

	participants, err := e.chats.Participants(ctx, chatID)
	if err != nil {
		return models.MessageView{}, err
	}
	receiverIDs := make([]int, 0, len(participants))
	for _, p := range participants {
		if p.UserID != senderID {
			receiverIDs = append(receiverIDs, p.UserID)
		}
	}

	msg, err := e.messages.CreateMessage(ctx, chatID, senderID, content, receiverIDs)
	if err != nil {
		return models.MessageView{}, err
	}

	view := models.MessageView{
		ID:       msg.ID,
		Content:  msg.Content,
		SenderID: msg.SenderID,
		SentAt:   msg.SentAt,
		Status:   models.StatusSent,
		ChatID:   msg.ChatID,
	}
	if sender, err := e.users.GetUser(ctx, senderID); err == nil {
		view.SenderUsername = sender.Username
		view.SenderProfileImg = sender.ProfileImg
	}

	e.publish(ctx, bus.ChatGroup(chatID), models.MessagePush{Type: models.FrameChatMessage, Message: view})
	return view, nil
}

// History returns one page of messages, newest first, and marks everything
// the reader had pending as read: fetching history is a read receipt.
func (e *Engine) History(ctx context.Context, chatID int, userID int, page int, pageSize int) ([]models.MessageView, error) {
	if _, err := e.chats.GetChat(ctx, chatID); err != nil {
		return nil, err
	}
	if err := e.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	msgs, err := e.messages.ListMessages(ctx, chatID, page, pageSize)
	if err != nil {
		return nil, err
	}

	if _, err := e.MarkRead(ctx, chatID, userID); err != nil {
		log.Printf("history read sweep failed chat=%d user=%d: %v", chatID, userID, err)
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, msg := range msgs {
		view, err := e.messageView(ctx, msg)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// MarkDelivered transitions the receiver's pending sent rows to delivered and
// notifies both the chat group and each message's sender. Idempotent.
func (e *Engine) MarkDelivered(ctx context.Context, chatID int, receiverID int) (int, error) {
	if err := e.requireParticipant(ctx, chatID, receiverID); err != nil {
		return 0, err
	}
	changes, err := e.statuses.MarkDelivered(ctx, chatID, receiverID)
	if err != nil {
		return 0, err
	}
	e.notifySweep(ctx, chatID, receiverID, changes, models.EventMessagesDelivered)
	return len(changes), nil
}

// MarkRead transitions the receiver's sent and delivered rows to read with
// the same dual notification. Idempotent.
func (e *Engine) MarkRead(ctx context.Context, chatID int, receiverID int) (int, error) {
	if err := e.requireParticipant(ctx, chatID, receiverID); err != nil {
		return 0, err
	}
	changes, err := e.statuses.MarkRead(ctx, chatID, receiverID)
	if err != nil {
		return 0, err
	}
	e.notifySweep(ctx, chatID, receiverID, changes, models.EventMessagesRead)
	return len(changes), nil
}

func (e *Engine) notifySweep(ctx context.Context, chatID int, receiverID int, changes []models.StatusChange, summaryEvent string) {
	for _, change := range changes {
		e.notifyStatusChange(ctx, change)
	}
	if len(changes) == 0 {
		return
	}
	e.publish(ctx, bus.ChatGroup(chatID), models.ChatEvent{
		Type:   models.TypeChatEvent,
		Event:  summaryEvent,
		ChatID: chatID,
		UserID: receiverID,
	})
}

// notifyStatusChange is the deliberate dual fan-out: the chat group sees the
// transition, and the sender's personal group sees it too so delivery ticks
// show up even when the sender is not viewing the chat.
func (e *Engine) notifyStatusChange(ctx context.Context, change models.StatusChange) {
	e.publish(ctx, bus.ChatGroup(change.ChatID), models.ChatEvent{
		Type:      models.TypeChatEvent,
		Event:     models.EventStatusChanged,
		MessageID: change.MessageID,
		UserID:    change.ReceiverID,
		Status:    change.Status,
	})
	e.publish(ctx, bus.UserGroup(change.SenderID), models.ChatEvent{
		Type:      models.TypeChatEvent,
		Event:     models.EventStatusChanged,
		ChatID:    change.ChatID,
		MessageID: change.MessageID,
		UserID:    change.ReceiverID,
		Status:    change.Status,
	})
}

// UpdateStatus sets the status of a single message for the calling receiver.
// The sender may never set its own message's status, and backward
// transitions are no-ops.
func (e *Engine) UpdateStatus(ctx context.Context, messageID int, userID int, status models.Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	msg, err := e.messages.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID == userID {
		return ErrOwnMessageStatus
	}
	if err := e.requireParticipant(ctx, msg.ChatID, userID); err != nil {
		return err
	}

	change, changed, err := e.statuses.UpsertStatus(ctx, messageID, userID, status)
	if err != nil {
		return err
	}
	if changed {
		e.notifyStatusChange(ctx, change)
	}
	return nil
}

// ToggleReaction applies toggle semantics: create if absent, remove if the
// same type exists, replace if a different type exists. Returns the resulting
// reaction (nil when removed) and whether a removal happened.
func (e *Engine) ToggleReaction(ctx context.Context, messageID int, userID int, reactionType models.ReactionType) (*models.Reaction, bool, error) {
	if !reactionType.Valid() {
		return nil, false, ErrInvalidReaction
	}
	msg, err := e.messages.GetMessage(ctx, messageID)
	if err != nil {
		return nil, false, err
	}
	if err := e.requireParticipant(ctx, msg.ChatID, userID); err != nil {
		return nil, false, err
	}
	return e.reactions.Toggle(ctx, messageID, userID, reactionType)
}

// ListReactions returns the reactions on a message.
func (e *Engine) ListReactions(ctx context.Context, messageID int) ([]models.Reaction, error) {
	if _, err := e.messages.GetMessage(ctx, messageID); err != nil {
		return nil, err
	}
	return e.reactions.ListByMessage(ctx, messageID)
}

// IsParticipant exposes the membership check for the connection gateway.
func (e *Engine) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	return e.chats.IsParticipant(ctx, chatID, userID)
}

func (e *Engine) requireParticipant(ctx context.Context, chatID int, userID int) error {
	member, err := e.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotParticipant
	}
	return nil
}

func (e *Engine) participantViews(ctx context.Context, chatID int) ([]models.ParticipantView, error) {
	participants, err := e.chats.Participants(ctx, chatID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	users, err := e.users.BulkUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]models.ParticipantView, 0, len(participants))
	for _, p := range participants {
		views = append(views, models.ParticipantView{
			Participant: p,
			Username:    byID[p.UserID].Username,
			ProfileImg:  byID[p.UserID].ProfileImg,
		})
	}
	return views, nil
}

// messageView attaches the sender profile and the derived aggregate status.
func (e *Engine) messageView(ctx context.Context, msg models.Message) (models.MessageView, error) {
	agg, err := e.statuses.AggregateStatus(ctx, msg.ID)
	if err != nil {
		return models.MessageView{}, err
	}
	view := models.MessageView{
		ID:       msg.ID,
		Content:  msg.Content,
		SenderID: msg.SenderID,
		SentAt:   msg.SentAt,
		Status:   agg,
		ChatID:   msg.ChatID,
	}
	if sender, err := e.users.GetUser(ctx, msg.SenderID); err == nil {
		view.SenderUsername = sender.Username
		view.SenderProfileImg = sender.ProfileImg
	}
	return view, nil
}
