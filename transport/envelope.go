package transport

import "encoding/json"

// Envelope is the wire frame for both directions: a named event plus its
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type createRoomPayload struct {
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId"`
}

type joinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId"`
}

type startGamePayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type actionPayload struct {
	RoomID   string `json:"roomId"`
	TargetID string `json:"targetId"`
	PlayerID string `json:"playerId"`
}

type resetPayload struct {
	Token string `json:"token"`
}
