package game

import (
	"fmt"
	"time"

	"github.com/pablojokanovich/mafiaonline/domain"
)

const quietNightNarrative = "A quiet night. Nobody died."

// Outcome is the result of resolving a phase: the room as it should be
// persisted, which player (if any) was eliminated, and how long the next
// phase runs. Wait is zero when no timer should be scheduled.
type Outcome struct {
	Room         domain.Room
	Eliminated   string
	ResetActions bool
	Wait         time.Duration
}

// Resolver computes phase transitions from a snapshot of room and players.
// It never touches the store or the transport; the engine applies what it
// returns under the room's lock.
type Resolver struct {
	NightDuration time.Duration
	DayDuration   time.Duration
}

// ResolveNight ends NIGHT: the mafia consensus target dies unless a living
// doctor protected them, and the room moves to DAY.
func (r Resolver) ResolveNight(room domain.Room, players []domain.Player, now time.Time) Outcome {
	var mafiaTargets []string
	doctorTarget := ""
	for _, p := range players {
		if !p.Alive {
			continue
		}
		switch p.Role {
		case domain.RoleMafia:
			mafiaTargets = append(mafiaTargets, p.ActionTarget)
		case domain.RoleDoctor:
			doctorTarget = p.ActionTarget
		}
	}

	victim := ""
	if target, ok := ConsensusTarget(mafiaTargets); ok && target != doctorTarget {
		victim = target
	}

	narrative := quietNightNarrative
	if victim != "" {
		name := victim
		for _, p := range players {
			if p.ID == victim {
				name = p.Name
				break
			}
		}
		narrative = fmt.Sprintf("%s was killed in the night.", name)
	}

	room.Phase = domain.PhaseDay
	room.PhaseEnds = now.Add(r.DayDuration)
	room.Narrative = narrative

	return Outcome{
		Room:         room,
		Eliminated:   victim,
		ResetActions: true,
		Wait:         r.DayDuration,
	}
}

// ResolveDay ends DAY: a unique plurality of living players' votes lynches
// its target, then the win conditions are checked. Without a winner the
// room heads into the next NIGHT.
func (r Resolver) ResolveDay(room domain.Room, players []domain.Player, now time.Time) Outcome {
	var votes []Vote
	for _, p := range players {
		if p.Alive {
			votes = append(votes, Vote{Voter: p.ID, Target: p.ActionTarget})
		}
	}

	eliminated, _ := PluralityWinner(votes)

	livingMafia, livingOthers := 0, 0
	for _, p := range players {
		if !p.Alive || p.ID == eliminated {
			continue
		}
		if p.Mafia() {
			livingMafia++
		} else {
			livingOthers++
		}
	}

	switch {
	case livingMafia == 0:
		room.Phase = domain.PhaseGameOver
		room.Winner = domain.FactionVillage
		room.PhaseEnds = time.Time{}
		return Outcome{Room: room, Eliminated: eliminated}
	case livingMafia >= livingOthers:
		room.Phase = domain.PhaseGameOver
		room.Winner = domain.FactionMafia
		room.PhaseEnds = time.Time{}
		return Outcome{Room: room, Eliminated: eliminated}
	default:
		room.Phase = domain.PhaseNight
		room.PhaseEnds = now.Add(r.NightDuration)
		return Outcome{
			Room:         room,
			Eliminated:   eliminated,
			ResetActions: true,
			Wait:         r.NightDuration,
		}
	}
}

// AllVoted reports whether every living, online player has chosen a target.
// An empty electorate never completes early.
func AllVoted(players []domain.Player) bool {
	eligible := 0
	for _, p := range players {
		if !p.Alive || !p.Online {
			continue
		}
		eligible++
		if p.ActionTarget == "" {
			return false
		}
	}
	return eligible > 0
}
