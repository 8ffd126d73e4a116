package domain

import "time"

type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhaseNight    Phase = "NIGHT"
	PhaseDay      Phase = "DAY"
	PhaseGameOver Phase = "GAME_OVER"
)

type Faction string

const (
	FactionVillage Faction = "VILLAGE"
	FactionMafia   Faction = "MAFIA"
)

// Room is one independent game instance, identified by its short join code.
// Phase only ever moves forward: LOBBY → NIGHT → DAY → NIGHT → … → GAME_OVER,
// and GAME_OVER is absorbing.
type Room struct {
	ID        string
	Phase     Phase
	PhaseEnds time.Time // zero outside NIGHT/DAY
	Winner    Faction   // empty until GAME_OVER
	Narrative string    // last night's result, shown during DAY
}
