package game

import (
	"fmt"
	"math/rand"

	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

// catalog lists the roles dealt to a shuffled roster, in order.
var catalog = [CatalogSize]models.RoleKind{
	models.RoleMafia,
	models.RoleMayor,
	models.RoleExecutioner,
	models.RoleTown,
	models.RoleTown,
}

// RoleAssigner deals the fixed role catalog over a roster
type RoleAssigner struct {
	rng *rand.Rand
}

// NewRoleAssigner creates an assigner drawing from src. Pass a seeded source
// for deterministic assignments.
func NewRoleAssigner(src rand.Source) *RoleAssigner {
	return &RoleAssigner{rng: rand.New(src)}
}

// Assign returns a role for every player id. The Executioner's target is
// picked among the other non-Mafia players.
func (a *RoleAssigner) Assign(playerIDs []string) (map[string]models.Role, error) {
	if len(playerIDs) != CatalogSize {
		return nil, fmt.Errorf("%w: got %d players, need %d", ErrRosterSize, len(playerIDs), CatalogSize)
	}
	seen := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		if id == "" || seen[id] {
			return nil, fmt.Errorf("%w: bad or duplicate player id %q", ErrValidation, id)
		}
		seen[id] = true
	}

	shuffled := make([]string, len(playerIDs))
	copy(shuffled, playerIDs)
	a.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	roles := make(map[string]models.Role, len(shuffled))
	var executioner string
	for i, id := range shuffled {
		roles[id] = models.Role{Kind: catalog[i]}
		if catalog[i] == models.RoleExecutioner {
			executioner = id
		}
	}

	// Candidates follow input order so a seeded source stays deterministic.
	candidates := make([]string, 0, len(playerIDs))
	for _, id := range playerIDs {
		if id != executioner && roles[id].Kind != models.RoleMafia {
			candidates = append(candidates, id)
		}
	}
	roles[executioner] = models.Role{
		Kind:   models.RoleExecutioner,
		Target: candidates[a.rng.Intn(len(candidates))],
	}
	return roles, nil
}

// validateAssignment checks that roles covers exactly the given roster and
// deals exactly the catalog.
func validateAssignment(roster []string, roles map[string]models.Role) error {
	if len(roles) != len(roster) {
		return fmt.Errorf("%w: assignment covers %d players, roster has %d", ErrValidation, len(roles), len(roster))
	}
	counts := make(map[models.RoleKind]int)
	for _, id := range roster {
		role, ok := roles[id]
		if !ok {
			return fmt.Errorf("%w: no role for player %q", ErrValidation, id)
		}
		counts[role.Kind]++
	}
	for _, kind := range catalog {
		counts[kind]--
	}
	for kind, n := range counts {
		if n != 0 {
			return fmt.Errorf("%w: role %s dealt %+d times off catalog", ErrValidation, kind, n)
		}
	}
	for id, role := range roles {
		if role.Kind != models.RoleExecutioner {
			continue
		}
		target, ok := roles[role.Target]
		if !ok || role.Target == id || target.Kind == models.RoleMafia {
			return fmt.Errorf("%w: executioner target %q", ErrValidation, role.Target)
		}
	}
	return nil
}
