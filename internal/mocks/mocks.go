package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/auth"
	"messaging-service/internal/bus"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, name string, participantIDs []int) (models.Chat, error) {
	args := m.Called(ctx, name, participantIDs)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID int, search string) ([]models.Chat, error) {
	args := m.Called(ctx, userID, search)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) AddParticipant(ctx context.Context, chatID int, userID int) (models.Participant, error) {
	args := m.Called(ctx, chatID, userID)
	var p models.Participant
	if val := args.Get(0); val != nil {
		p = val.(models.Participant)
	}
	return p, args.Error(1)
}

func (m *ChatRepositoryMock) Participants(ctx context.Context, chatID int) ([]models.Participant, error) {
	args := m.Called(ctx, chatID)
	var parts []models.Participant
	if val := args.Get(0); val != nil {
		parts = val.([]models.Participant)
	}
	return parts, args.Error(1)
}

func (m *ChatRepositoryMock) DeactivateChat(ctx context.Context, chatID int) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, senderID int, content string, receiverIDs []int) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, content, receiverIDs)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int, page int, pageSize int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, page, pageSize)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) LastMessage(ctx context.Context, chatID int) (models.Message, error) {
	args := m.Called(ctx, chatID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type StatusRepositoryMock struct {
	mock.Mock
}

func (m *StatusRepositoryMock) MarkDelivered(ctx context.Context, chatID int, receiverID int) ([]models.StatusChange, error) {
	args := m.Called(ctx, chatID, receiverID)
	var changes []models.StatusChange
	if val := args.Get(0); val != nil {
		changes = val.([]models.StatusChange)
	}
	return changes, args.Error(1)
}

func (m *StatusRepositoryMock) MarkRead(ctx context.Context, chatID int, receiverID int) ([]models.StatusChange, error) {
	args := m.Called(ctx, chatID, receiverID)
	var changes []models.StatusChange
	if val := args.Get(0); val != nil {
		changes = val.([]models.StatusChange)
	}
	return changes, args.Error(1)
}

func (m *StatusRepositoryMock) UpsertStatus(ctx context.Context, messageID int, receiverID int, status models.Status) (models.StatusChange, bool, error) {
	args := m.Called(ctx, messageID, receiverID, status)
	var change models.StatusChange
	if val := args.Get(0); val != nil {
		change = val.(models.StatusChange)
	}
	return change, args.Bool(1), args.Error(2)
}

func (m *StatusRepositoryMock) AggregateStatus(ctx context.Context, messageID int) (models.Status, error) {
	args := m.Called(ctx, messageID)
	var status models.Status
	if val := args.Get(0); val != nil {
		status = val.(models.Status)
	}
	return status, args.Error(1)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) Toggle(ctx context.Context, messageID int, userID int, reactionType models.ReactionType) (*models.Reaction, bool, error) {
	args := m.Called(ctx, messageID, userID, reactionType)
	var reaction *models.Reaction
	if val := args.Get(0); val != nil {
		reaction = val.(*models.Reaction)
	}
	return reaction, args.Bool(1), args.Error(2)
}

func (m *ReactionRepositoryMock) ListByMessage(ctx context.Context, messageID int) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID)
	var reactions []models.Reaction
	if val := args.Get(0); val != nil {
		reactions = val.([]models.Reaction)
	}
	return reactions, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type BusMock struct {
	mock.Mock
}

func (m *BusMock) Publish(ctx context.Context, group string, event any) error {
	args := m.Called(ctx, group, event)
	return args.Error(0)
}

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) Resolve(ctx context.Context, token string) (auth.Principal, error) {
	args := m.Called(ctx, token)
	var principal auth.Principal
	if val := args.Get(0); val != nil {
		principal = val.(auth.Principal)
	}
	return principal, args.Error(1)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.StatusRepository = (*StatusRepositoryMock)(nil)
var _ repositories.ReactionRepository = (*ReactionRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ bus.Bus = (*BusMock)(nil)
var _ auth.Resolver = (*ResolverMock)(nil)
