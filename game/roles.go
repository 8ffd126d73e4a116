package game

import (
	"math/rand/v2"

	"github.com/pablojokanovich/mafiaonline/domain"
)

// AssignRoles returns a uniformly shuffled multiset of n roles.
// Two mafia from nine players up, otherwise one; one doctor and one police
// whenever the table is big enough to afford them.
func AssignRoles(n int) []domain.Role {
	mafia, doctor, police := 1, 1, 1
	if n >= 9 {
		mafia = 2
	}

	villagers := n - mafia - doctor - police
	if villagers < 0 {
		mafia, doctor, police = 1, 0, 0
		villagers = n - 1
	}

	roles := make([]domain.Role, 0, n)
	for range mafia {
		roles = append(roles, domain.RoleMafia)
	}
	for range doctor {
		roles = append(roles, domain.RoleDoctor)
	}
	for range police {
		roles = append(roles, domain.RolePolice)
	}
	for range villagers {
		roles = append(roles, domain.RoleVillager)
	}

	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
	return roles
}
