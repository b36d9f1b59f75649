package models

// Phase represents the current state of a game session
type Phase string

const (
	PhaseLobby          Phase = "lobby"
	PhaseRoleAssignment Phase = "role_assignment"
	PhaseDay            Phase = "day"
	PhaseNight          Phase = "night"
	PhaseEnded          Phase = "ended"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseLobby:          {PhaseRoleAssignment},
	PhaseRoleAssignment: {PhaseDay},
	PhaseDay:            {PhaseNight, PhaseEnded},
	PhaseNight:          {PhaseDay, PhaseEnded},
}

// CanTransitionTo reports whether moving from p to target is a legal transition
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range phaseTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// InGame reports whether roles have been dealt and the game has not ended
func (p Phase) InGame() bool {
	return p == PhaseDay || p == PhaseNight
}
