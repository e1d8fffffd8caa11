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

	"messaging-service/internal/engine"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

type handlerFixture struct {
	chats     *mocks.ChatRepositoryMock
	messages  *mocks.MessageRepositoryMock
	statuses  *mocks.StatusRepositoryMock
	reactions *mocks.ReactionRepositoryMock
	users     *mocks.UserRepositoryMock
	bus       *mocks.BusMock
	engine    *engine.Engine
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		chats:     new(mocks.ChatRepositoryMock),
		messages:  new(mocks.MessageRepositoryMock),
		statuses:  new(mocks.StatusRepositoryMock),
		reactions: new(mocks.ReactionRepositoryMock),
		users:     new(mocks.UserRepositoryMock),
		bus:       new(mocks.BusMock),
	}
	f.bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.engine = engine.New(f.chats, f.messages, f.statuses, f.reactions, f.users, f.bus)
	return f
}

func setupRouter(register func(r *gin.Engine)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	register(r)
	return r
}

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	return setupRouter(func(r *gin.Engine) {
		r.POST("/chats", handler.CreateChat)
		r.GET("/chats", handler.ListChats)
		r.POST("/chats/:chat_id/participants", handler.AddParticipant)
		r.DELETE("/chats/:chat_id", handler.DeactivateChat)
	})
}

func TestDeactivateChatSuccess(t *testing.T) {
	f := newHandlerFixture()
	router := setupChatRouter(NewChatHandler(f.engine))

	f.chats.On("GetChat", mock.Anything, 5).Return(models.Chat{ID: 5, Active: true}, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	f.chats.On("DeactivateChat", mock.Anything, 5).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/chats/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	f.chats.AssertExpectations(t)
}

func TestCreateChatSuccess(t *testing.T) {
	f := newHandlerFixture()
	router := setupChatRouter(NewChatHandler(f.engine))

	f.chats.On("CreateChat", mock.Anything, "equipo", []int{1, 2}).
		Return(models.Chat{ID: 5, Name: "equipo", Active: true}, nil).Once()
	f.chats.On("Participants", mock.Anything, 5).Return([]models.Participant{
		{ChatID: 5, UserID: 1},
		{ChatID: 5, UserID: 2},
	}, nil).Once()
	f.users.On("BulkUsers", mock.Anything, []int{1, 2}).Return([]models.User{
		{ID: 1, Username: "ana"},
		{ID: 2, Username: "bob"},
	}, nil).Once()

	body := bytes.NewBufferString(`{"name":"equipo","participant_ids":[2]}`)
	req := httptest.NewRequest(http.MethodPost, "/chats", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.ChatSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 5, resp.ID)
	assert.Len(t, resp.Participants, 2)
	f.chats.AssertExpectations(t)
	f.users.AssertExpectations(t)
}

func TestCreateChatMissingName(t *testing.T) {
	f := newHandlerFixture()
	router := setupChatRouter(NewChatHandler(f.engine))

	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.chats.AssertExpectations(t)
}

func TestListChatsRepoError(t *testing.T) {
	f := newHandlerFixture()
	router := setupChatRouter(NewChatHandler(f.engine))

	f.chats.On("ListChats", mock.Anything, 1, "").Return(([]models.Chat)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	f.chats.AssertExpectations(t)
}

func TestListChatsSearchFilter(t *testing.T) {
	f := newHandlerFixture()
	router := setupChatRouter(NewChatHandler(f.engine))

	f.chats.On("ListChats", mock.Anything, 1, "equipo").
		Return([]models.Chat{{ID: 5, Name: "equipo", Active: true}}, nil).Once()
	f.chats.On("Participants", mock.Anything, 5).
		Return([]models.Participant{{ChatID: 5, UserID: 1}}, nil).Once()
	f.users.On("BulkUsers", mock.Anything, []int{1}).
		Return([]models.User{{ID: 1, Username: "ana"}}, nil).Once()
	f.messages.On("LastMessage", mock.Anything, 5).
		Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/chats?search=equipo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	f.chats.AssertExpectations(t)
}

func TestAddParticipantForbiddenForNonMember(t *testing.T) {
	f := newHandlerFixture()
	router := setupChatRouter(NewChatHandler(f.engine))

	f.chats.On("GetChat", mock.Anything, 5).Return(models.Chat{ID: 5, Active: true}, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, 5, 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/5/participants", bytes.NewBufferString(`{"user_id":4}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	f.chats.AssertExpectations(t)
}

func TestAddParticipantChatNotFound(t *testing.T) {
	f := newHandlerFixture()
	router := setupChatRouter(NewChatHandler(f.engine))

	f.chats.On("GetChat", mock.Anything, 99).
		Return(models.Chat{}, repositories.ErrChatNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/chats/99/participants", bytes.NewBufferString(`{"user_id":4}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	f.chats.AssertExpectations(t)
}

func TestAddParticipantInvalidChatID(t *testing.T) {
	f := newHandlerFixture()
	router := setupChatRouter(NewChatHandler(f.engine))

	req := httptest.NewRequest(http.MethodPost, "/chats/abc/participants", bytes.NewBufferString(`{"user_id":4}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
