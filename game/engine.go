package game

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pablojokanovich/mafiaonline/domain"
)

const (
	EventRoomUpdate  = "room_update"
	EventError       = "error"
	EventServerReset = "server_reset"
)

// Options tunes an Engine. Zero values fall back to the standard phase
// lengths (30s night, 120s day) and a one second reset grace.
type Options struct {
	NightDuration time.Duration
	DayDuration   time.Duration
	ResetGrace    time.Duration
	OperatorToken string
	Logger        zerolog.Logger
	Exit          func(code int) // overridable for tests
}

// Engine owns the authoritative state machine of every active room. All
// reads, mutations and timer firings for one room run under that room's
// lock, so concurrent intents can never double-trigger a transition.
type Engine struct {
	store     Store
	transport Transport
	resolver  Resolver

	resetGrace    time.Duration
	operatorToken string
	log           zerolog.Logger
	exit          func(int)

	mu    sync.Mutex
	rooms map[string]*roomState
}

// roomState is the in-process, per-room side of the engine: the lock that
// serializes the room and the clock that drives its phases. The clock
// lives here rather than in a global timer map so its lifecycle is owned
// by exactly one room.
type roomState struct {
	mu    sync.Mutex
	clock *Clock
}

func NewEngine(store Store, transport Transport, opts Options) *Engine {
	if opts.NightDuration == 0 {
		opts.NightDuration = 30 * time.Second
	}
	if opts.DayDuration == 0 {
		opts.DayDuration = 120 * time.Second
	}
	if opts.ResetGrace == 0 {
		opts.ResetGrace = time.Second
	}
	if opts.Exit == nil {
		opts.Exit = os.Exit
	}
	return &Engine{
		store:     store,
		transport: transport,
		resolver: Resolver{
			NightDuration: opts.NightDuration,
			DayDuration:   opts.DayDuration,
		},
		resetGrace:    opts.ResetGrace,
		operatorToken: opts.OperatorToken,
		log:           opts.Logger,
		exit:          opts.Exit,
		rooms:         make(map[string]*roomState),
	}
}

func (e *Engine) room(id string) *roomState {
	e.mu.Lock()
	defer e.mu.Unlock()
	rs, ok := e.rooms[id]
	if !ok {
		rs = &roomState{clock: NewClock()}
		e.rooms[id] = rs
	}
	return rs
}

// dropRoom releases a room's lock-and-clock entry once it can never
// transition again. A latecomer blocked on the old entry's mutex finds
// only an absorbing GAME_OVER room behind it.
func (e *Engine) dropRoom(id string) {
	e.mu.Lock()
	delete(e.rooms, id)
	e.mu.Unlock()
}

// CreateRoom opens a fresh LOBBY room with the caller as host. Any earlier
// row under the same player id is overwritten wholesale.
func (e *Engine) CreateRoom(ctx context.Context, connID, playerID, name string) error {
	var code string
	for {
		code = NewRoomCode()
		_, err := e.store.GetRoom(ctx, code)
		if errors.Is(err, domain.ErrRoomNotFound) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %w", domain.StoreError, err)
		}
	}

	rs := e.room(code)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if err := e.store.SaveRoom(ctx, domain.Room{ID: code, Phase: domain.PhaseLobby}); err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	host := domain.Player{
		ID:     playerID,
		RoomID: code,
		Name:   name,
		Alive:  true,
		Host:   true,
		Online: true,
		ConnID: connID,
	}
	if err := e.store.SavePlayer(ctx, host); err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}

	e.transport.JoinRoom(connID, code)
	e.broadcastRoom(ctx, code)
	e.log.Info().Str("room", code).Str("player", playerID).Msg("room created")
	return nil
}

// JoinRoom adds a player to a LOBBY room, or rebinds an existing identity
// to its new connection on reconnect.
func (e *Engine) JoinRoom(ctx context.Context, connID, roomID, playerID, name string) error {
	rs := e.room(roomID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return domain.ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	if room.Phase != domain.PhaseLobby {
		return domain.ErrGameAlreadyStarted
	}

	player, err := e.store.GetPlayer(ctx, playerID)
	switch {
	case err == nil:
		// Reconnect: role, life and action state stay untouched.
		player.ConnID = connID
		player.RoomID = roomID
		player.Name = name
		player.Online = true
	case errors.Is(err, domain.ErrPlayerNotFound):
		player = domain.Player{
			ID:     playerID,
			RoomID: roomID,
			Name:   name,
			Alive:  true,
			Online: true,
			ConnID: connID,
		}
	default:
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	if err := e.store.SavePlayer(ctx, player); err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}

	e.transport.JoinRoom(connID, roomID)
	e.broadcastRoom(ctx, roomID)
	return nil
}

// StartGame deals roles and opens the first night. Only the host may start.
func (e *Engine) StartGame(ctx context.Context, connID, roomID, playerID string) error {
	rs := e.room(roomID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return domain.ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	if room.Phase != domain.PhaseLobby {
		return domain.ErrGameAlreadyStarted
	}

	caller, err := e.store.GetPlayer(ctx, playerID)
	if errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.ErrPlayerNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	if !caller.Host {
		return domain.ErrNotHost
	}

	players, err := e.store.ListPlayersByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}

	roles := AssignRoles(len(players))
	for i, p := range players {
		p.Role = roles[i]
		p.ActionTarget = ""
		p.Acted = false
		if err := e.store.SavePlayer(ctx, p); err != nil {
			return fmt.Errorf("%w: %w", domain.StoreError, err)
		}
	}

	room.Phase = domain.PhaseNight
	room.PhaseEnds = time.Now().Add(e.resolver.NightDuration)
	if err := e.store.SaveRoom(ctx, room); err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}

	e.broadcastRoom(ctx, roomID)
	rs.clock.Schedule(e.resolver.NightDuration, func(gen uint64) { e.timerFired(roomID, gen) })
	e.log.Info().Str("room", roomID).Int("players", len(players)).Msg("game started")
	return nil
}

// SubmitAction records the actor's chosen target: a role power by night, a
// lynch vote by day. In DAY it also checks whether everyone has voted and,
// if so, ends the phase immediately.
func (e *Engine) SubmitAction(ctx context.Context, connID, roomID, playerID, targetID string) error {
	rs := e.room(roomID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	room, err := e.store.GetRoom(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return domain.ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}
	if room.Phase == domain.PhaseGameOver {
		return nil
	}

	player, err := e.store.GetPlayer(ctx, playerID)
	if errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.ErrPlayerNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}

	// One investigation per night.
	if player.Role == domain.RolePolice && room.Phase == domain.PhaseNight {
		if player.Acted {
			e.log.Warn().Str("room", roomID).Str("player", playerID).
				Msg("police attempted a second investigation")
			return domain.ErrDuplicateInvestigation
		}
		player.Acted = true
		e.log.Info().Str("room", roomID).Str("player", playerID).
			Str("target", targetID).Msg("police investigation")
	}

	player.ActionTarget = targetID
	if err := e.store.SavePlayer(ctx, player); err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}

	e.broadcastRoom(ctx, roomID)

	if room.Phase == domain.PhaseDay {
		e.checkEarlyCompletion(ctx, roomID, room, rs)
	}
	return nil
}

// Disconnect marks the connection's player offline. Losing a voter can
// complete the day ballot, so DAY rooms re-check early completion.
func (e *Engine) Disconnect(ctx context.Context, connID string) {
	player, err := e.store.GetPlayerByConn(ctx, connID)
	if err != nil {
		return
	}

	rs := e.room(player.RoomID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	// Re-read under the lock: a reconnect may have rebound the player to a
	// new connection between the lookup and here. The old socket's
	// disconnect must not clobber the fresh binding.
	player, err = e.store.GetPlayer(ctx, player.ID)
	if err != nil || player.ConnID != connID {
		return
	}

	player.Online = false
	if err := e.store.SavePlayer(ctx, player); err != nil {
		e.log.Error().Err(err).Str("player", player.ID).Msg("could not mark player offline")
		return
	}
	e.transport.LeaveRoom(connID, player.RoomID)
	e.broadcastRoom(ctx, player.RoomID)

	room, err := e.store.GetRoom(ctx, player.RoomID)
	if err == nil && room.Phase == domain.PhaseDay {
		e.checkEarlyCompletion(ctx, player.RoomID, room, rs)
	}
}

// ResetServer wipes every room and player, tells all clients, and exits
// after a short grace so the supervisor restarts the process clean.
func (e *Engine) ResetServer(ctx context.Context, connID, token string) error {
	if subtle.ConstantTimeCompare([]byte(token), []byte(e.operatorToken)) != 1 {
		return domain.ErrUnauthorized
	}

	e.mu.Lock()
	for _, rs := range e.rooms {
		rs.clock.Stop()
	}
	e.rooms = make(map[string]*roomState)
	e.mu.Unlock()

	if err := e.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.StoreError, err)
	}

	e.transport.BroadcastAll(EventServerReset, nil)
	e.log.Warn().Msg("server reset requested, exiting shortly")
	time.AfterFunc(e.resetGrace, func() { e.exit(0) })
	return nil
}

// timerFired is the phase clock callback. A firing that was superseded
// while it waited for the room lock (early completion stopped the clock,
// or a newer phase rearmed it) carries a stale generation and must not
// touch the room, which by then is in a different phase.
func (e *Engine) timerFired(roomID string, gen uint64) {
	ctx := context.Background()
	rs := e.room(roomID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.clock.Current(gen) {
		return
	}

	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		e.log.Error().Err(err).Str("room", roomID).Msg("timer fired for unloadable room")
		return
	}
	players, err := e.store.ListPlayersByRoom(ctx, roomID)
	if err != nil {
		e.log.Error().Err(err).Str("room", roomID).Msg("could not list players")
		return
	}

	var out Outcome
	switch room.Phase {
	case domain.PhaseNight:
		out = e.resolver.ResolveNight(room, players, time.Now())
	case domain.PhaseDay:
		out = e.resolver.ResolveDay(room, players, time.Now())
	default:
		// LOBBY or GAME_OVER: stale firing, nothing to do.
		return
	}
	e.applyOutcome(ctx, roomID, out, rs)
}

func (e *Engine) checkEarlyCompletion(ctx context.Context, roomID string, room domain.Room, rs *roomState) {
	players, err := e.store.ListPlayersByRoom(ctx, roomID)
	if err != nil {
		e.log.Error().Err(err).Str("room", roomID).Msg("could not list players")
		return
	}
	if !AllVoted(players) {
		return
	}
	e.log.Info().Str("room", roomID).Msg("all living online players voted, ending day early")
	rs.clock.Stop()
	out := e.resolver.ResolveDay(room, players, time.Now())
	e.applyOutcome(ctx, roomID, out, rs)
}

// applyOutcome persists a resolver result and drives the side effects:
// elimination, action resets, broadcast, next timer. Caller holds the
// room lock.
func (e *Engine) applyOutcome(ctx context.Context, roomID string, out Outcome, rs *roomState) {
	if out.Eliminated != "" {
		victim, err := e.store.GetPlayer(ctx, out.Eliminated)
		if err == nil {
			victim.Alive = false
			if err := e.store.SavePlayer(ctx, victim); err != nil {
				e.log.Error().Err(err).Str("player", victim.ID).Msg("could not persist elimination")
			}
		}
	}
	if out.ResetActions {
		if err := e.store.ResetRoundActions(ctx, roomID); err != nil {
			e.log.Error().Err(err).Str("room", roomID).Msg("could not reset round actions")
		}
	}
	if err := e.store.SaveRoom(ctx, out.Room); err != nil {
		e.log.Error().Err(err).Str("room", roomID).Msg("could not persist room")
		return
	}

	e.broadcastRoom(ctx, roomID)

	if out.Wait > 0 {
		rs.clock.Schedule(out.Wait, func(gen uint64) { e.timerFired(roomID, gen) })
	} else {
		rs.clock.Stop()
		if out.Room.Phase == domain.PhaseGameOver {
			e.dropRoom(roomID)
		}
	}
	e.log.Info().Str("room", roomID).Str("phase", string(out.Room.Phase)).
		Str("eliminated", out.Eliminated).Msg("phase resolved")
}

// broadcastRoom fans the current snapshot out to the room. Each member
// gets a view filtered for their own eyes; once the game is over the
// unfiltered snapshot goes to the whole group at once.
func (e *Engine) broadcastRoom(ctx context.Context, roomID string) {
	room, err := e.store.GetRoom(ctx, roomID)
	if err != nil {
		e.log.Error().Err(err).Str("room", roomID).Msg("could not load room for broadcast")
		return
	}
	players, err := e.store.ListPlayersByRoom(ctx, roomID)
	if err != nil {
		e.log.Error().Err(err).Str("room", roomID).Msg("could not list players for broadcast")
		return
	}

	if room.Phase == domain.PhaseGameOver {
		e.transport.Broadcast(roomID, EventRoomUpdate, SnapshotFor(room, players, ""))
		return
	}
	for _, p := range players {
		if p.ConnID == "" || !p.Online {
			continue
		}
		e.transport.Emit(p.ConnID, EventRoomUpdate, SnapshotFor(room, players, p.ID))
	}
}
