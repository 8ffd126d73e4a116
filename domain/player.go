package domain

type Role string

const (
	RoleUnassigned Role = ""
	RoleMafia      Role = "MAFIA"
	RoleDoctor     Role = "DOCTOR"
	RolePolice     Role = "POLICE"
	RoleVillager   Role = "VILLAGER"
)

// Player rows are keyed by a client-supplied opaque token that survives
// reconnects; ConnID is the transient websocket connection currently bound
// to it.
type Player struct {
	ID           string
	RoomID       string
	Name         string
	Role         Role
	Alive        bool
	Host         bool
	Online       bool
	ConnID       string
	ActionTarget string // player id, empty when no target chosen
	Acted        bool   // set when a once-per-round power was spent
}

// Mafia reports whether the player belongs to the mafia faction.
func (p Player) Mafia() bool {
	return p.Role == RoleMafia
}
