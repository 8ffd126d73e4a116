package game

import (
	"github.com/pablojokanovich/mafiaonline/domain"
)

// PlayerSnapshot is one player's row as a given viewer is allowed to see
// it. Role and ActionTarget are blanked unless the viewer may know them.
type PlayerSnapshot struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role,omitempty"`
	Alive        bool   `json:"isAlive"`
	Host         bool   `json:"isHost"`
	Online       bool   `json:"isOnline"`
	Acted        bool   `json:"hasActedThisRound"`
	ActionTarget string `json:"actionTarget,omitempty"`
}

// RoomSnapshot is the full broadcast state of a room.
type RoomSnapshot struct {
	ID        string                    `json:"id"`
	Phase     domain.Phase              `json:"status"`
	PhaseEnds int64                     `json:"phaseEndTime,omitempty"` // unix millis
	Narrative string                    `json:"lastNightResult,omitempty"`
	Winner    domain.Faction            `json:"winner,omitempty"`
	Players   map[string]PlayerSnapshot `json:"players"`
}

// SnapshotFor renders the room as seen by viewerID. Roles are visible to
// their owner, between mafia members, and to everyone once the game is
// over. Night targets stay private the same way; day votes are public.
func SnapshotFor(room domain.Room, players []domain.Player, viewerID string) RoomSnapshot {
	over := room.Phase == domain.PhaseGameOver

	viewerMafia := false
	for _, p := range players {
		if p.ID == viewerID && p.Mafia() {
			viewerMafia = true
		}
	}

	snap := RoomSnapshot{
		ID:        room.ID,
		Phase:     room.Phase,
		Narrative: room.Narrative,
		Winner:    room.Winner,
		Players:   make(map[string]PlayerSnapshot, len(players)),
	}
	if !room.PhaseEnds.IsZero() {
		snap.PhaseEnds = room.PhaseEnds.UnixMilli()
	}

	for _, p := range players {
		ps := PlayerSnapshot{
			ID:     p.ID,
			Name:   p.Name,
			Alive:  p.Alive,
			Host:   p.Host,
			Online: p.Online,
			Acted:  p.Acted,
		}

		own := p.ID == viewerID
		peerMafia := viewerMafia && p.Mafia()
		if own || peerMafia || over {
			ps.Role = string(p.Role)
		}
		if own || peerMafia || room.Phase == domain.PhaseDay {
			ps.ActionTarget = p.ActionTarget
		}

		snap.Players[p.ID] = ps
	}
	return snap
}
