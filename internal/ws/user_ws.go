package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/auth"
	"messaging-service/internal/bus"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

// UserWebSocketHandler serves the personal notification channel: it joins
// only the user's own group so cross-chat events (new chats, delivery ticks)
// reach the client without any chat membership.
type UserWebSocketHandler struct {
	hub      *Hub
	resolver auth.Resolver
}

// NewUserWebSocketHandler constructs a UserWebSocketHandler.
func NewUserWebSocketHandler(hub *Hub, resolver auth.Resolver) *UserWebSocketHandler {
	return &UserWebSocketHandler{hub: hub, resolver: resolver}
}

// Handle upgrades the connection and subscribes it to the user group.
func (h *UserWebSocketHandler) Handle(c *gin.Context) {
	principal, err := h.resolver.Resolve(c.Request.Context(), bearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      principal.ID,
		Username:    principal.Username,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		ConnectedAt: time.Now(),
	}
	h.hub.Join(bus.UserGroup(principal.ID), conn, info)
	observability.IncWSActive("user")
	observability.IncWSEvent("user", "ws_connect")

	greeting, _ := json.Marshal(models.ConnectionEstablished{
		Type:    models.TypeConnectionEstablish,
		Message: "Connected to personal notification channel",
	})
	h.hub.Send(conn, greeting)

	go func() {
		defer func() {
			h.hub.Unregister(conn)
			conn.Close()
			observability.DecWSActive("user")
			observability.IncWSEvent("user", "ws_disconnect")
		}()
		for {
			// This channel is push only; inbound frames are drained and
			// ignored until the peer goes away.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
