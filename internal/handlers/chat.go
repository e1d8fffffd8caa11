package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/engine"
)

// ChatHandler manages chat endpoints.
type ChatHandler struct {
	engine *engine.Engine
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(eng *engine.Engine) *ChatHandler {
	return &ChatHandler{engine: eng}
}

// CreateChat creates a chat with an initial participant list. The caller is
// always included.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		Name           string `json:"name" binding:"required"`
		ParticipantIDs []int  `json:"participant_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	chat, err := h.engine.CreateChat(c.Request.Context(), userID, req.Name, req.ParticipantIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// ListChats returns the chats visible to the authenticated user, optionally
// filtered by name.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	chats, err := h.engine.ListChats(c.Request.Context(), userID, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// DeactivateChat soft-deletes a chat the caller participates in.
func (h *ChatHandler) DeactivateChat(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.engine.DeactivateChat(c.Request.Context(), chatID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "chat deactivated"})
}

// AddParticipant adds a user to an existing chat.
func (h *ChatHandler) AddParticipant(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		UserID int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actorID := c.GetInt("userID")
	participant, err := h.engine.AddParticipant(c.Request.Context(), chatID, actorID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "participant added", "participant": participant})
}
