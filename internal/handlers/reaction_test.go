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

func setupReactionRouter(handler *ReactionHandler) *gin.Engine {
	return setupRouter(func(r *gin.Engine) {
		r.POST("/reactions", handler.React)
		r.GET("/reactions", handler.ListReactions)
		r.GET("/reactions/types", handler.ListReactionTypes)
	})
}

func TestListReactionTypes(t *testing.T) {
	f := newHandlerFixture()
	router := setupReactionRouter(NewReactionHandler(f.engine))

	req := httptest.NewRequest(http.MethodGet, "/reactions/types", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Types []models.ReactionType `json:"types"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.ReactionTypes(), resp.Types)
}

func TestReactCreates(t *testing.T) {
	f := newHandlerFixture()
	router := setupReactionRouter(NewReactionHandler(f.engine))

	f.messages.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, ChatID: 5, SenderID: 2}, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	f.reactions.On("Toggle", mock.Anything, 9, 1, models.ReactionLove).
		Return(&models.Reaction{ID: 3, MessageID: 9, UserID: 1, Type: models.ReactionLove}, false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/reactions", bytes.NewBufferString(`{"message":9,"type":"love"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.Reaction
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, models.ReactionLove, resp.Type)
	f.reactions.AssertExpectations(t)
}

func TestReactDefaultsToLike(t *testing.T) {
	f := newHandlerFixture()
	router := setupReactionRouter(NewReactionHandler(f.engine))

	f.messages.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, ChatID: 5, SenderID: 2}, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	f.reactions.On("Toggle", mock.Anything, 9, 1, models.ReactionLike).
		Return(&models.Reaction{ID: 3, MessageID: 9, UserID: 1, Type: models.ReactionLike}, false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/reactions", bytes.NewBufferString(`{"message":9}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	f.reactions.AssertExpectations(t)
}

func TestReactRemovalReturnsNoContent(t *testing.T) {
	f := newHandlerFixture()
	router := setupReactionRouter(NewReactionHandler(f.engine))

	f.messages.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, ChatID: 5, SenderID: 2}, nil).Once()
	f.chats.On("IsParticipant", mock.Anything, 5, 1).Return(true, nil).Once()
	f.reactions.On("Toggle", mock.Anything, 9, 1, models.ReactionLike).
		Return((*models.Reaction)(nil), true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/reactions", bytes.NewBufferString(`{"message":9,"type":"like"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	f.reactions.AssertExpectations(t)
}

func TestReactInvalidType(t *testing.T) {
	f := newHandlerFixture()
	router := setupReactionRouter(NewReactionHandler(f.engine))

	req := httptest.NewRequest(http.MethodPost, "/reactions", bytes.NewBufferString(`{"message":9,"type":"meh"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReactionsSuccess(t *testing.T) {
	f := newHandlerFixture()
	router := setupReactionRouter(NewReactionHandler(f.engine))

	f.messages.On("GetMessage", mock.Anything, 9).
		Return(models.Message{ID: 9, ChatID: 5, SenderID: 2}, nil).Once()
	f.reactions.On("ListByMessage", mock.Anything, 9).Return([]models.Reaction{
		{ID: 3, MessageID: 9, UserID: 1, Type: models.ReactionLike},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/reactions?message_id=9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	f.reactions.AssertExpectations(t)
}

func TestListReactionsMissingMessageID(t *testing.T) {
	f := newHandlerFixture()
	router := setupReactionRouter(NewReactionHandler(f.engine))

	req := httptest.NewRequest(http.MethodGet, "/reactions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
