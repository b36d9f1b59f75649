package models

import "time"

// WinnerType identifies who won
type WinnerType string

const (
	WinnerMafia       WinnerType = "mafia"
	WinnerTown        WinnerType = "town"
	WinnerExecutioner WinnerType = "executioner"
	WinnerJester      WinnerType = "jester"
)

// Winner is one entry of a game's winners list
type Winner struct {
	Type     WinnerType `json:"type"`
	PlayerID string     `json:"playerId,omitempty"`
	Reason   string     `json:"reason"`
}

// EliminationReason explains the outcome of a day vote
type EliminationReason string

const (
	ReasonEliminated EliminationReason = "eliminated"
	ReasonNoVotes    EliminationReason = "no_votes"
	ReasonTie        EliminationReason = "tie"
)

// Conversion records an Executioner turning into a Jester
type Conversion struct {
	PlayerID string   `json:"playerId"`
	From     RoleKind `json:"from"`
	To       RoleKind `json:"to"`
}

// EliminationResult is the outcome of a day vote
type EliminationResult struct {
	Day         int               `json:"day"`
	Reason      EliminationReason `json:"reason"`
	Eliminated  string            `json:"eliminated,omitempty"`
	Role        RoleKind          `json:"role,omitempty"`
	Alignment   Alignment         `json:"alignment,omitempty"`
	Tied        []string          `json:"tied,omitempty"`
	Tally       map[string]int    `json:"tally"`
	SideWinners []Winner          `json:"sideWinners,omitempty"`
	Conversions []Conversion      `json:"conversions,omitempty"`
	GameOver    bool              `json:"gameOver"`
	Winners     []Winner          `json:"winners,omitempty"`
}

// NightResult is the outcome of a night
type NightResult struct {
	Night       int          `json:"night"`
	Target      string       `json:"target,omitempty"`
	Immune      bool         `json:"immune,omitempty"`
	Eliminated  string       `json:"eliminated,omitempty"`
	Role        RoleKind     `json:"role,omitempty"`
	Alignment   Alignment    `json:"alignment,omitempty"`
	Conversions []Conversion `json:"conversions,omitempty"`
	GameOver    bool         `json:"gameOver"`
	Winners     []Winner     `json:"winners,omitempty"`
}

// Public returns the part of the result every player may see. The target and
// whether it was immune stay with the Mafia, since only the Executioner
// survives a kill.
func (r *NightResult) Public() *NightResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Target = ""
	out.Immune = false
	return &out
}

// GameRecord is the archived summary of a finished game
type GameRecord struct {
	RoomID  string            `json:"roomId"`
	HostID  string            `json:"hostId"`
	Days    int               `json:"days"`
	Winners []Winner          `json:"winners"`
	Roles   map[string]Role   `json:"roles"`
	Names   map[string]string `json:"names"`
	EndedAt time.Time         `json:"endedAt"`
}
