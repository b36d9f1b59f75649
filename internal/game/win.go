package game

import (
	"github.com/rs/zerolog"

	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

// WinEvaluator decides whether a faction has won
type WinEvaluator struct {
	logger zerolog.Logger
	policy MafiaWinPolicy
}

// NewWinEvaluator creates an evaluator for the given Mafia threshold
func NewWinEvaluator(logger zerolog.Logger, policy MafiaWinPolicy) *WinEvaluator {
	return &WinEvaluator{
		logger: logger.With().Str("component", "WinEvaluator").Logger(),
		policy: policy,
	}
}

// Evaluate returns the game-ending winners, or nil while the game goes on.
// Town wins as soon as no Mafia is alive; that check runs first, so an
// empty table counts as a Town win.
func (e *WinEvaluator) Evaluate(players []*models.Player) []models.Winner {
	mafiaAlive, othersAlive := 0, 0
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if p.IsMafia() {
			mafiaAlive++
		} else {
			othersAlive++
		}
	}

	e.logger.Debug().Int("mafia_alive", mafiaAlive).Int("others_alive", othersAlive).Msg("checking win conditions")

	if mafiaAlive == 0 {
		return []models.Winner{{Type: models.WinnerTown, Reason: ReasonMafiaEliminated}}
	}
	switch e.policy {
	case MafiaWinElimination:
		if othersAlive == 0 {
			return []models.Winner{{Type: models.WinnerMafia, Reason: ReasonTownEliminated}}
		}
	default:
		if mafiaAlive >= othersAlive {
			return []models.Winner{{Type: models.WinnerMafia, Reason: ReasonMafiaParity}}
		}
	}
	return nil
}

// DeathCause is how a player was eliminated
type DeathCause string

const (
	CauseVote  DeathCause = "vote"
	CauseNight DeathCause = "night"
)

// Death describes one elimination
type Death struct {
	Victim string
	Cause  DeathCause
}

// JesterPolicy names the predicate that turns an Executioner into a Jester
type JesterPolicy string

const (
	// JesterOnTargetNightDeath converts the Executioner once its target dies
	// by any means other than a day vote.
	JesterOnTargetNightDeath JesterPolicy = "target_killed_at_night"

	// JesterNever disables the conversion
	JesterNever JesterPolicy = "never"
)

// DefaultJesterPolicy is the policy used when none is configured
const DefaultJesterPolicy = JesterOnTargetNightDeath

// JesterPredicate reports whether exec must become a Jester after death
type JesterPredicate func(death Death, exec *models.Player) bool

var jesterPredicates = map[JesterPolicy]JesterPredicate{
	JesterOnTargetNightDeath: func(death Death, exec *models.Player) bool {
		return exec.Alive &&
			exec.Role.Kind == models.RoleExecutioner &&
			death.Victim == exec.Role.Target &&
			death.Cause != CauseVote
	},
	JesterNever: func(Death, *models.Player) bool { return false },
}

// JesterPredicateFor returns the predicate registered for policy
func JesterPredicateFor(policy JesterPolicy) (JesterPredicate, bool) {
	p, ok := jesterPredicates[policy]
	return p, ok
}
