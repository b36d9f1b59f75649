package models

// RoleKind identifies a role from the fixed catalog
type RoleKind string

const (
	RoleMafia       RoleKind = "mafia"
	RoleMayor       RoleKind = "mayor"
	RoleExecutioner RoleKind = "executioner"
	RoleTown        RoleKind = "town"
	RoleJester      RoleKind = "jester"
)

// Alignment is the faction a role counts towards when checking wins
type Alignment string

const (
	AlignmentMafia Alignment = "mafia"
	AlignmentTown  Alignment = "town"
)

// Role is a player's assigned role. Target is only set for the Executioner
// and is never reassigned; it survives a conversion to Jester.
type Role struct {
	Kind   RoleKind `json:"kind"`
	Target string   `json:"target,omitempty"`
}

// Alignment returns the faction of the role
func (r Role) Alignment() Alignment {
	if r.Kind == RoleMafia {
		return AlignmentMafia
	}
	return AlignmentTown
}

// Player represents a seat in a game session
type Player struct {
	ID    string
	Name  string
	Role  Role
	Alive bool
}

// IsMafia reports whether the player holds the Mafia role
func (p *Player) IsMafia() bool {
	return p.Role.Kind == RoleMafia
}
