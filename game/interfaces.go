package game

import (
	"context"

	"github.com/pablojokanovich/mafiaonline/domain"
)

// Store is the narrow keyed-record surface the engine needs. No
// transactional isolation is assumed; the engine serializes access per
// room itself.
type Store interface {
	GetRoom(ctx context.Context, id string) (domain.Room, error)
	SaveRoom(ctx context.Context, room domain.Room) error
	GetPlayer(ctx context.Context, id string) (domain.Player, error)
	GetPlayerByConn(ctx context.Context, connID string) (domain.Player, error)
	ListPlayersByRoom(ctx context.Context, roomID string) ([]domain.Player, error)
	SavePlayer(ctx context.Context, player domain.Player) error
	ResetRoundActions(ctx context.Context, roomID string) error
	DeleteAll(ctx context.Context) error
}

// Transport delivers named events to one connection, to a room group, or
// to everyone. Delivery is best effort; a slow or gone connection must not
// block the engine.
type Transport interface {
	Emit(connID, event string, payload any)
	Broadcast(roomID, event string, payload any)
	BroadcastAll(event string, payload any)
	JoinRoom(connID, roomID string)
	LeaveRoom(connID, roomID string)
}
