package game

import "time"

const (
	// CatalogSize is the number of seats the fixed role catalog fills
	CatalogSize = 5

	// MayorVoteMultiplier is the weight of a revealed Mayor's vote
	MayorVoteMultiplier = 4

	// DefaultDayDuration is how long a day lasts before it ends on its own
	DefaultDayDuration = 3 * time.Minute

	// DefaultNightDuration is how long the Mafia has to pick a target
	DefaultNightDuration = time.Minute

	// DefaultEndCleanupDelay is the grace period before a finished session is retired
	DefaultEndCleanupDelay = 2 * time.Minute

	// Town win justification
	ReasonMafiaEliminated = "Mafia eliminated"

	// Mafia win justification under MafiaWinParity
	ReasonMafiaParity = "Mafia can no longer be out-voted"

	// Mafia win justification under MafiaWinElimination
	ReasonTownEliminated = "Town eliminated"
)

// MafiaWinPolicy selects the threshold at which the Mafia wins
type MafiaWinPolicy string

const (
	// MafiaWinParity: Mafia wins once alive Mafia >= alive non-Mafia
	MafiaWinParity MafiaWinPolicy = "parity"

	// MafiaWinElimination: Mafia wins once no non-Mafia player is alive
	MafiaWinElimination MafiaWinPolicy = "elimination"
)

// DefaultMafiaWinPolicy is the policy used when none is configured
const DefaultMafiaWinPolicy = MafiaWinParity
