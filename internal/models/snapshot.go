package models

// PlayerState is the public view of a player inside a Snapshot. Role is
// empty unless it has been revealed (death, mayor reveal or game end).
type PlayerState struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Alive      bool     `json:"alive"`
	Role       RoleKind `json:"role,omitempty"`
	VoteTarget string   `json:"voteTarget,omitempty"`
	Skipped    bool     `json:"skipped"`
	IsHost     bool     `json:"isHost"`
}

// Snapshot is the outbound state of a session consumed by adapters
type Snapshot struct {
	RoomID          string             `json:"roomId"`
	HostID          string             `json:"hostId"`
	Phase           Phase              `json:"phase"`
	Day             int                `json:"day"`
	MayorRevealed   bool               `json:"mayorRevealed"`
	MayorID         string             `json:"mayorId,omitempty"`
	Players         []PlayerState      `json:"players"`
	Tally           map[string]int     `json:"tally"`
	LastElimination *EliminationResult `json:"lastElimination,omitempty"`
	LastNight       *NightResult       `json:"lastNight,omitempty"`
	Winners         []Winner           `json:"winners,omitempty"`
	// Roles holds every player's role once the game has ended
	Roles map[string]Role `json:"roles,omitempty"`
}
