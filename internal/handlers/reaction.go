package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/engine"
	"messaging-service/internal/models"
)

// ReactionHandler manages reaction endpoints.
type ReactionHandler struct {
	engine *engine.Engine
}

// NewReactionHandler builds a ReactionHandler.
func NewReactionHandler(eng *engine.Engine) *ReactionHandler {
	return &ReactionHandler{engine: eng}
}

// React toggles the caller's reaction on a message: created when absent,
// removed when the same type repeats, replaced when the type differs.
func (h *ReactionHandler) React(c *gin.Context) {
	var req struct {
		MessageID int    `json:"message" binding:"required"`
		Type      string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = string(models.ReactionLike)
	}

	userID := c.GetInt("userID")
	reaction, removed, err := h.engine.ToggleReaction(c.Request.Context(), req.MessageID, userID, models.ReactionType(req.Type))
	if err != nil {
		respondError(c, err)
		return
	}
	if removed {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, reaction)
}

// ListReactionTypes returns the catalog of supported reaction types.
func (h *ReactionHandler) ListReactionTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": models.ReactionTypes()})
}

// ListReactions returns all reactions on a message.
func (h *ReactionHandler) ListReactions(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Query("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	reactions, err := h.engine.ListReactions(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}
