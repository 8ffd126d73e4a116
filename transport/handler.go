package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/pablojokanovich/mafiaonline/domain"
	"github.com/pablojokanovich/mafiaonline/game"
)

// Engine is the intent surface the handler dispatches into.
type Engine interface {
	CreateRoom(ctx context.Context, connID, playerID, name string) error
	JoinRoom(ctx context.Context, connID, roomID, playerID, name string) error
	StartGame(ctx context.Context, connID, roomID, playerID string) error
	SubmitAction(ctx context.Context, connID, roomID, playerID, targetID string) error
	Disconnect(ctx context.Context, connID string)
	ResetServer(ctx context.Context, connID, token string) error
}

// Handler upgrades HTTP requests to websockets and runs the per-connection
// read loop, translating inbound envelopes into engine intents.
type Handler struct {
	hub      *Hub
	engine   Engine
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, engine Engine, log zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		engine: engine,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the router's allow-list.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS is the gin endpoint for client connections.
func (h *Handler) ServeWS(c *gin.Context) {
	socket, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Str("ip", c.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	conn := h.hub.register(connID, socket)
	socket.SetReadDeadline(time.Now().Add(pongDeadline))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongDeadline))
	})

	go conn.writePump()
	h.readPump(conn)
}

func (h *Handler) readPump(conn *connection) {
	defer func() {
		h.hub.unregister(conn.id)
		conn.socket.Close()
		h.engine.Disconnect(context.Background(), conn.id)
	}()

	for {
		_, data, err := conn.socket.ReadMessage()
		if err != nil {
			return
		}
		if !conn.limiter.Allow() {
			h.log.Warn().Str("conn", conn.id).Msg("rate limit exceeded, dropping message")
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.hub.Emit(conn.id, game.EventError, "Malformed message")
			continue
		}
		h.dispatch(conn.id, env)
	}
}

func (h *Handler) dispatch(connID string, env Envelope) {
	ctx := context.Background()
	var err error

	// Clients may omit data entirely for intents without parameters.
	if len(env.Data) == 0 {
		env.Data = json.RawMessage("{}")
	}

	switch env.Event {
	case "create_room":
		var p createRoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = h.engine.CreateRoom(ctx, connID, p.PlayerID, p.PlayerName)
		}
	case "join_room":
		var p joinRoomPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = h.engine.JoinRoom(ctx, connID, p.RoomID, p.PlayerID, p.PlayerName)
		}
	case "start_game":
		var p startGamePayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = h.engine.StartGame(ctx, connID, p.RoomID, p.PlayerID)
		}
	case "action":
		var p actionPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = h.engine.SubmitAction(ctx, connID, p.RoomID, p.PlayerID, p.TargetID)
		}
	case "reset_server":
		var p resetPayload
		if err = json.Unmarshal(env.Data, &p); err == nil {
			err = h.engine.ResetServer(ctx, connID, p.Token)
		}
	default:
		h.log.Debug().Str("event", env.Event).Msg("unknown event")
		return
	}

	if err != nil {
		h.hub.Emit(connID, game.EventError, errorMessage(env.Event, err))
		if errors.Is(err, domain.StoreError) {
			h.log.Error().Err(err).Str("event", env.Event).Msg("store failure, intent dropped")
		}
	}
}

// errorMessage turns engine errors into the short human-readable strings
// sent back to the originating connection.
func errorMessage(event string, err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, domain.ErrGameAlreadyStarted):
		return "Game already started"
	case errors.Is(err, domain.ErrDuplicateInvestigation):
		return "You have already chosen a suspect this round"
	case errors.Is(err, domain.ErrNotHost):
		return "Only the host can start the game"
	case errors.Is(err, domain.ErrPlayerNotFound):
		return "Player not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Not allowed"
	case event == "create_room":
		return "Could not create room"
	case event == "join_room":
		return "Could not join room"
	default:
		return "Something went wrong, please try again"
	}
}
