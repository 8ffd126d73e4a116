package storage

import (
	"context"
	"sync"

	"github.com/pablojokanovich/mafiaonline/domain"
	"github.com/pablojokanovich/mafiaonline/game"
)

// MemoryStore is an in-process game.Store. It backs the server when no
// database is configured and the engine tests. Insertion order of players
// is preserved, matching the row order a database would return.
type MemoryStore struct {
	mu      sync.RWMutex
	rooms   map[string]domain.Room
	players map[string]domain.Player
	order   []string // player ids in insertion order
}

var _ game.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[string]domain.Room),
		players: make(map[string]domain.Player),
	}
}

func (s *MemoryStore) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return room, nil
}

func (s *MemoryStore) SaveRoom(ctx context.Context, room domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return nil
}

func (s *MemoryStore) GetPlayer(ctx context.Context, id string) (domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return player, nil
}

func (s *MemoryStore) GetPlayerByConn(ctx context.Context, connID string) (domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if p := s.players[id]; p.ConnID == connID {
			return p, nil
		}
	}
	return domain.Player{}, domain.ErrPlayerNotFound
}

func (s *MemoryStore) ListPlayersByRoom(ctx context.Context, roomID string) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var players []domain.Player
	for _, id := range s.order {
		if p := s.players[id]; p.RoomID == roomID {
			players = append(players, p)
		}
	}
	return players, nil
}

func (s *MemoryStore) SavePlayer(ctx context.Context, player domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[player.ID]; !ok {
		s.order = append(s.order, player.ID)
	}
	s.players[player.ID] = player
	return nil
}

func (s *MemoryStore) ResetRoundActions(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.players {
		if p.RoomID != roomID {
			continue
		}
		p.ActionTarget = ""
		p.Acted = false
		s.players[id] = p
	}
	return nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = make(map[string]domain.Room)
	s.players = make(map[string]domain.Player)
	s.order = nil
	return nil
}
