package game

import (
	"fmt"
	"time"
)

// Settings is the plain configuration a session is created with
type Settings struct {
	MinPlayers             int
	MaxPlayers             int
	DayDuration            time.Duration
	NightDuration          time.Duration
	MayorMultiplier        int
	ExecutionerNightImmune bool
	EndCleanupDelay        time.Duration
	MafiaWinPolicy         MafiaWinPolicy
	JesterPolicy           JesterPolicy
}

// DefaultSettings returns the reference five-player configuration
func DefaultSettings() Settings {
	return Settings{
		MinPlayers:             CatalogSize,
		MaxPlayers:             CatalogSize,
		DayDuration:            DefaultDayDuration,
		NightDuration:          DefaultNightDuration,
		MayorMultiplier:        MayorVoteMultiplier,
		ExecutionerNightImmune: true,
		EndCleanupDelay:        DefaultEndCleanupDelay,
		MafiaWinPolicy:         DefaultMafiaWinPolicy,
		JesterPolicy:           DefaultJesterPolicy,
	}
}

// Validate checks that the settings describe a playable game
func (s Settings) Validate() error {
	switch {
	case s.MinPlayers < 1 || s.MaxPlayers < s.MinPlayers:
		return fmt.Errorf("%w: player bounds %d..%d", ErrValidation, s.MinPlayers, s.MaxPlayers)
	case s.MinPlayers != CatalogSize:
		return fmt.Errorf("%w: role catalog needs exactly %d players, start threshold is %d", ErrValidation, CatalogSize, s.MinPlayers)
	case s.MayorMultiplier < 1:
		return fmt.Errorf("%w: mayor multiplier %d", ErrValidation, s.MayorMultiplier)
	case s.DayDuration < 0 || s.NightDuration < 0 || s.EndCleanupDelay < 0:
		return fmt.Errorf("%w: negative duration", ErrValidation)
	}
	switch s.MafiaWinPolicy {
	case MafiaWinParity, MafiaWinElimination:
	default:
		return fmt.Errorf("%w: unknown mafia win policy %q", ErrValidation, s.MafiaWinPolicy)
	}
	if _, ok := jesterPredicates[s.JesterPolicy]; !ok {
		return fmt.Errorf("%w: unknown jester policy %q", ErrValidation, s.JesterPolicy)
	}
	return nil
}
