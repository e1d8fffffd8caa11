package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messaging-service/internal/auth"
	"messaging-service/internal/bus"
	"messaging-service/internal/engine"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

// ChatWebSocketHandler handles chat websocket connections.
type ChatWebSocketHandler struct {
	hub      *Hub
	engine   *engine.Engine
	resolver auth.Resolver
	bus      bus.Bus
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, eng *engine.Engine, resolver auth.Resolver, eventBus bus.Bus) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, engine: eng, resolver: resolver, bus: eventBus}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is the closed set of frames clients may send. Unknown types
// and malformed payloads are dropped, never fatal.
type clientFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Handle authenticates the handshake, verifies chat membership, joins the
// chat and personal groups, sweeps pending deliveries and hands the
// connection to the frame loop.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	ctx, span := otel.Tracer("messaging-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	principal, err := h.resolver.Resolve(ctx, bearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.engine.IsParticipant(ctx, chatID, principal.ID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat"})
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
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	h.hub.Join(bus.ChatGroup(chatID), conn, info)
	h.hub.Join(bus.UserGroup(principal.ID), conn, info)
	observability.IncWSActive("chat")
	observability.IncWSEvent("chat", "ws_connect")

	// Everything still pending for this user becomes delivered on connect.
	if _, err := h.engine.MarkDelivered(context.Background(), chatID, principal.ID); err != nil {
		log.Printf("delivered sweep on connect failed chat=%d user=%d: %v", chatID, principal.ID, err)
	}

	h.publishPresence(context.Background(), chatID, principal, models.EventUserOnline)

	go h.readLoop(conn, chatID, principal)
}

func (h *ChatWebSocketHandler) readLoop(conn *websocket.Conn, chatID int, principal auth.Principal) {
	ctx := context.Background()
	defer func() {
		h.hub.Unregister(conn)
		conn.Close()
		observability.DecWSActive("chat")
		observability.IncWSEvent("chat", "ws_disconnect")
		h.publishPresence(ctx, chatID, principal, models.EventUserOffline)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("chat", "ws_error")
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case models.FrameChatMessage:
			if frame.Message == "" {
				continue
			}
			if _, err := h.engine.SendMessage(ctx, chatID, principal.ID, frame.Message); err != nil {
				log.Printf("socket send message failed chat=%d user=%d: %v", chatID, principal.ID, err)
			}

		case models.FrameTyping:
			h.publishEvent(ctx, bus.ChatGroup(chatID), models.ChatEvent{
				Type:     models.TypeChatEvent,
				Event:    models.EventTyping,
				ChatID:   chatID,
				UserID:   principal.ID,
				Username: principal.Username,
			})

		case models.FrameReadMessages:
			if _, err := h.engine.MarkRead(ctx, chatID, principal.ID); err != nil {
				log.Printf("socket read sweep failed chat=%d user=%d: %v", chatID, principal.ID, err)
			}

		case models.FrameDeliveredMessages:
			if _, err := h.engine.MarkDelivered(ctx, chatID, principal.ID); err != nil {
				log.Printf("socket delivered sweep failed chat=%d user=%d: %v", chatID, principal.ID, err)
			}

		default:
			// unknown frame type, drop
		}
	}
}

func (h *ChatWebSocketHandler) publishPresence(ctx context.Context, chatID int, principal auth.Principal, event string) {
	h.publishEvent(ctx, bus.ChatGroup(chatID), models.ChatEvent{
		Type:     models.TypeChatEvent,
		Event:    event,
		ChatID:   chatID,
		UserID:   principal.ID,
		Username: principal.Username,
	})
}

func (h *ChatWebSocketHandler) publishEvent(ctx context.Context, group string, event models.ChatEvent) {
	if err := h.bus.Publish(ctx, group, event); err != nil {
		log.Printf("presence publish failed group=%s: %v", group, err)
	}
}

// bearerToken extracts the credential from the query string, where socket
// clients have to put it, falling back to the Authorization header.
func bearerToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return ""
}
