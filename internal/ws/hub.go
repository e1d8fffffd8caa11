package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messaging-service/internal/observability"
)

// writeWait bounds a single write so one stalled connection cannot hold up
// its writer for long.
const writeWait = 10 * time.Second

// sendBuffer is the per-connection outbound queue depth. A connection whose
// buffer fills up is dropped rather than letting it stall publishers.
const sendBuffer = 64

type connEntry struct {
	info   ConnInfo
	groups map[string]bool
	send   chan []byte
}

// Hub is the connection registry: it maps group names to live websocket
// connections and owns the per-user active connection counts. All writes go
// through a per-connection send channel drained by a single writer goroutine,
// since gorilla connections do not allow concurrent writers.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*websocket.Conn]bool
	conns  map[*websocket.Conn]*connEntry
	active map[int]int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[*websocket.Conn]bool),
		conns:  make(map[*websocket.Conn]*connEntry),
		active: make(map[int]int),
	}
}

// Join subscribes a connection to a group. The first join of a connection
// counts it as an active connection for its user and starts its writer.
func (h *Hub) Join(group string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.conns[conn]
	if !ok {
		entry = &connEntry{
			info:   info,
			groups: make(map[string]bool),
			send:   make(chan []byte, sendBuffer),
		}
		h.conns[conn] = entry
		h.active[info.UserID]++
		go h.writeLoop(conn, entry.send)
	}
	entry.groups[group] = true

	if _, ok := h.groups[group]; !ok {
		h.groups[group] = make(map[*websocket.Conn]bool)
	}
	h.groups[group][conn] = true
}

// Leave unsubscribes a connection from one group. Leaving the last group
// removes the connection from the registry and decrements its user's count.
func (h *Hub) Leave(group string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(group, conn)
}

// Unregister removes the connection from every group it joined. Called on
// disconnect so no group keeps a reference to a dead connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.conns[conn]
	if !ok {
		return
	}
	for group := range entry.groups {
		h.leaveLocked(group, conn)
	}
}

func (h *Hub) leaveLocked(group string, conn *websocket.Conn) {
	if members, ok := h.groups[group]; ok {
		delete(members, conn)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}

	entry, ok := h.conns[conn]
	if !ok {
		return
	}
	delete(entry.groups, group)
	if len(entry.groups) == 0 {
		delete(h.conns, conn)
		close(entry.send)
		h.active[entry.info.UserID]--
		if h.active[entry.info.UserID] <= 0 {
			delete(h.active, entry.info.UserID)
		}
	}
}

// Members returns a snapshot of the connections currently in the group.
func (h *Hub) Members(group string) []*websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.groups[group]
	snapshot := make([]*websocket.Conn, 0, len(members))
	for conn := range members {
		snapshot = append(snapshot, conn)
	}
	return snapshot
}

// ActiveConnections reports how many live connections a user has.
func (h *Hub) ActiveConnections(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active[userID]
}

// Broadcast queues a payload for every connection in the group, best effort.
// Enqueueing happens under the read lock so a channel can never be closed
// mid-send; a connection with a full buffer is dropped after the lock is
// released so delivery to the rest of the group is never blocked.
func (h *Hub) Broadcast(group string, payload []byte) {
	var stalled []*websocket.Conn

	h.mu.RLock()
	for conn := range h.groups[group] {
		entry := h.conns[conn]
		if entry == nil {
			continue
		}
		select {
		case entry.send <- payload:
		default:
			stalled = append(stalled, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range stalled {
		log.Printf("websocket send buffer full group=%s, dropping connection", group)
		conn.Close()
		h.Unregister(conn)
		observability.IncWSEvent("hub", "ws_error")
	}
}

// Send queues a payload for one registered connection, same drop semantics
// as Broadcast.
func (h *Hub) Send(conn *websocket.Conn, payload []byte) {
	var stalled bool

	h.mu.RLock()
	if entry := h.conns[conn]; entry != nil {
		select {
		case entry.send <- payload:
		default:
			stalled = true
		}
	}
	h.mu.RUnlock()

	if stalled {
		conn.Close()
		h.Unregister(conn)
		observability.IncWSEvent("hub", "ws_error")
	}
}

// writeLoop is the connection's single writer. It exits when the send channel
// closes on unregister, or when a write fails.
func (h *Hub) writeLoop(conn *websocket.Conn, send <-chan []byte) {
	for payload := range send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.Unregister(conn)
			observability.IncWSEvent("hub", "ws_error")
			for range send {
				// drain until unregister closes the channel
			}
			return
		}
	}
}
