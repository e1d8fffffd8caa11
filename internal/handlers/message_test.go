package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/models"
)

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	return setupRouter(func(r *gin.Engine) {
		r.GET("/chats/:chat_id/messages", handler.GetChatMessages)
		r.POST("/chats/:chat_id/messages", handler.PostChatMessage)
		r.PUT("/messages/read/:chat_id", handler.MarkChatRead)
		r.PUT("/messages/:message_id/status", handler.UpdateMessageStatus)
	})
}

func TestPostChatMessageSuccess(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(NewMessageHandler(f.engine))

	f.chats.On("GetChat", mock.Anything, 5).Return(models.Chat{ID: 5, Active: true}, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	f.chats.On("Participants", mock.Anything, 5).Return([]models.Participant{
		{ChatID: 5, UserID: 1},
		{ChatID: 5, UserID: 2},
	}, nil).Once()
	f.messages.On("CreateMessage", mock.Anything, 5, 1, "hola", []int{2}).
		Return(models.Message{ID: 9, ChatID: 5, SenderID: 1, Content: "hola", Status: models.StatusSent}, nil).Once()
	f.users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "ana"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/5/messages", bytes.NewBufferString(`{"content":"hola"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.MessageView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 9, resp.ID)
	assert.Equal(t, models.StatusSent, resp.Status)
	f.chats.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestPostChatMessageMissingContent(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(NewMessageHandler(f.engine))

	req := httptest.NewRequest(http.MethodPost, "/chats/5/messages", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.messages.AssertExpectations(t)
}

func TestGetChatMessagesMarksRead(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(NewMessageHandler(f.engine))

	f.chats.On("GetChat", mock.Anything, 5).Return(models.Chat{ID: 5, Active: true}, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Twice()
	f.messages.On("ListMessages", mock.Anything, 5, 2, 10).Return([]models.Message{
		{ID: 9, ChatID: 5, SenderID: 2, Content: "hola"},
	}, nil).Once()
	f.statuses.On("MarkRead", mock.Anything, 5, 1).Return([]models.StatusChange{}, nil).Once()
	f.statuses.On("AggregateStatus", mock.Anything, 9).Return(models.StatusRead, nil).Once()
	f.users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bob"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats/5/messages?page=2&page_size=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	f.statuses.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestMarkChatReadReturnsCount(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(NewMessageHandler(f.engine))

	changes := []models.StatusChange{
		{MessageStatus: models.MessageStatus{MessageID: 9, ReceiverID: 1, Status: models.StatusRead}, ChatID: 5, SenderID: 2},
	}
	f.chats.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	f.statuses.On("MarkRead", mock.Anything, 5, 1).Return(changes, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/read/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, float64(1), resp["updated"])
	f.statuses.AssertExpectations(t)
}

func TestUpdateMessageStatusOwnMessage(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(NewMessageHandler(f.engine))

	f.messages.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, ChatID: 5, SenderID: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/9/status", bytes.NewBufferString(`{"status":"read"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	f.messages.AssertExpectations(t)
}

func TestUpdateMessageStatusInvalidValue(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(NewMessageHandler(f.engine))

	req := httptest.NewRequest(http.MethodPut, "/messages/9/status", bytes.NewBufferString(`{"status":"archived"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMessageStatusSuccess(t *testing.T) {
	f := newHandlerFixture()
	router := setupMessageRouter(NewMessageHandler(f.engine))

	f.messages.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, ChatID: 5, SenderID: 2}, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	change := models.StatusChange{
		MessageStatus: models.MessageStatus{MessageID: 9, ReceiverID: 1, Status: models.StatusDelivered},
		ChatID:        5,
		SenderID:      2,
	}
	f.statuses.On("UpsertStatus", mock.Anything, 9, 1, models.StatusDelivered).
		Return(change, true, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/9/status", bytes.NewBufferString(`{"status":"delivered"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	f.statuses.AssertExpectations(t)
}
