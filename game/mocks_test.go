package game

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/pablojokanovich/mafiaonline/domain"
)

// --- fakeStore: an ordered in-memory Store for engine scenarios ---

type fakeStore struct {
	mu      sync.Mutex
	rooms   map[string]domain.Room
	players map[string]domain.Player
	order   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:   make(map[string]domain.Room),
		players: make(map[string]domain.Player),
	}
}

func (s *fakeStore) GetRoom(_ context.Context, id string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return room, nil
}

func (s *fakeStore) SaveRoom(_ context.Context, room domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return nil
}

func (s *fakeStore) GetPlayer(_ context.Context, id string) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return p, nil
}

func (s *fakeStore) GetPlayerByConn(_ context.Context, connID string) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		if p := s.players[id]; p.ConnID == connID {
			return p, nil
		}
	}
	return domain.Player{}, domain.ErrPlayerNotFound
}

func (s *fakeStore) ListPlayersByRoom(_ context.Context, roomID string) ([]domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var players []domain.Player
	for _, id := range s.order {
		if p := s.players[id]; p.RoomID == roomID {
			players = append(players, p)
		}
	}
	return players, nil
}

func (s *fakeStore) SavePlayer(_ context.Context, player domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[player.ID]; !ok {
		s.order = append(s.order, player.ID)
	}
	s.players[player.ID] = player
	return nil
}

func (s *fakeStore) ResetRoundActions(_ context.Context, roomID string) error {
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

func (s *fakeStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = make(map[string]domain.Room)
	s.players = make(map[string]domain.Player)
	s.order = nil
	return nil
}

// --- recordingTransport: captures everything the engine emits ---

type sentEvent struct {
	ConnID  string // empty for broadcasts
	RoomID  string // empty for per-connection emits
	Event   string
	Payload any
}

type recordingTransport struct {
	mu     sync.Mutex
	events []sentEvent
	joins  []string
	leaves []string
}

func (t *recordingTransport) Emit(connID, event string, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, sentEvent{ConnID: connID, Event: event, Payload: payload})
}

func (t *recordingTransport) Broadcast(roomID, event string, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, sentEvent{RoomID: roomID, Event: event, Payload: payload})
}

func (t *recordingTransport) BroadcastAll(event string, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, sentEvent{Event: event, Payload: payload})
}

func (t *recordingTransport) JoinRoom(connID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.joins = append(t.joins, connID+"@"+roomID)
}

func (t *recordingTransport) LeaveRoom(connID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leaves = append(t.leaves, connID+"@"+roomID)
}

func (t *recordingTransport) eventsNamed(name string) []sentEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []sentEvent
	for _, e := range t.events {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

// --- MockStore: testify mock for failure paths ---

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockStore) SaveRoom(ctx context.Context, room domain.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *MockStore) GetPlayer(ctx context.Context, id string) (domain.Player, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Player), args.Error(1)
}

func (m *MockStore) GetPlayerByConn(ctx context.Context, connID string) (domain.Player, error) {
	args := m.Called(ctx, connID)
	return args.Get(0).(domain.Player), args.Error(1)
}

func (m *MockStore) ListPlayersByRoom(ctx context.Context, roomID string) ([]domain.Player, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).([]domain.Player), args.Error(1)
}

func (m *MockStore) SavePlayer(ctx context.Context, player domain.Player) error {
	return m.Called(ctx, player).Error(0)
}

func (m *MockStore) ResetRoundActions(ctx context.Context, roomID string) error {
	return m.Called(ctx, roomID).Error(0)
}

func (m *MockStore) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
