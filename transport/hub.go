package transport

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	sendBufferSize = 64
	writeDeadline  = 10 * time.Second
	pongDeadline   = time.Minute
	pingInterval   = 30 * time.Second
)

// connection is one websocket client: its socket, its outbound queue and
// its inbound rate limiter.
type connection struct {
	id      string
	socket  *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	closed  chan struct{}
}

// Hub is the connection registry and room-group fanout. It implements
// game.Transport.
type Hub struct {
	log    zerolog.Logger
	mu     sync.RWMutex
	conns  map[string]*connection
	groups map[string]map[string]struct{} // room id -> conn ids
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:    log,
		conns:  make(map[string]*connection),
		groups: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) register(id string, socket *websocket.Conn) *connection {
	conn := &connection{
		id:      id,
		socket:  socket,
		send:    make(chan []byte, sendBufferSize),
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		closed:  make(chan struct{}),
	}
	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()
	return conn
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[id]
	if !ok {
		return
	}
	delete(h.conns, id)
	for _, members := range h.groups {
		delete(members, id)
	}
	close(conn.closed)
}

// JoinRoom adds a connection to a room group.
func (h *Hub) JoinRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.groups[roomID] = members
	}
	members[connID] = struct{}{}
}

// LeaveRoom removes a connection from a room group.
func (h *Hub) LeaveRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, roomID)
		}
	}
}

// Emit sends a named event to one connection. Unknown connections and
// full send buffers drop the frame rather than block.
func (h *Hub) Emit(connID, event string, payload any) {
	frame, err := h.encode(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	conn.enqueue(frame, h.log)
}

// Broadcast sends a named event to every connection in a room group.
func (h *Hub) Broadcast(roomID, event string, payload any) {
	frame, err := h.encode(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make([]*connection, 0)
	for id := range h.groups[roomID] {
		if conn, ok := h.conns[id]; ok {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()
	for _, conn := range targets {
		conn.enqueue(frame, h.log)
	}
}

// BroadcastAll sends a named event to every connection on the server.
func (h *Hub) BroadcastAll(event string, payload any) {
	frame, err := h.encode(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make([]*connection, 0, len(h.conns))
	for _, conn := range h.conns {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()
	for _, conn := range targets {
		conn.enqueue(frame, h.log)
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			h.log.Error().Err(err).Str("event", event).Msg("could not marshal payload")
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

func (c *connection) enqueue(frame []byte, log zerolog.Logger) {
	select {
	case c.send <- frame:
	default:
		log.Warn().Str("conn", c.id).Msg("send buffer full, dropping frame")
	}
}

// writePump drains the send queue onto the socket and keeps the
// connection alive with periodic pings.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			c.socket.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.socket.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
