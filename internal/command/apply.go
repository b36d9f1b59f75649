package command

import (
	"fmt"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

// Outcome is what applying a command produced
type Outcome struct {
	Accepted    bool
	Elimination *models.EliminationResult
	Night       *models.NightResult
}

// Apply runs cmd on behalf of actorID. Rejected votes and skips are reported
// through Outcome.Accepted; everything else fails with a typed error. Must be
// called on the session's event loop.
func Apply(s *game.Session, actorID string, cmd Command) (Outcome, error) {
	if !s.IsMember(actorID) {
		return Outcome{}, fmt.Errorf("%w: %s is not in room %s", game.ErrNotFound, actorID, s.RoomID())
	}
	switch cmd.Kind {
	case Vote:
		return Outcome{Accepted: s.CastVote(actorID, cmd.Target)}, nil
	case Skip:
		return Outcome{Accepted: s.AddSkipVote(actorID)}, nil
	case RevealMayor:
		if err := s.RevealMayor(actorID); err != nil {
			return Outcome{}, err
		}
		return Outcome{Accepted: true}, nil
	case EndDay:
		if actorID != s.HostID() {
			return Outcome{}, fmt.Errorf("%w: only the host can end the day", game.ErrPermission)
		}
		return dayOutcome(s, s.EndDay(s.Day())), nil
	case NightKill, NightSkip:
		var err error
		if cmd.Kind == NightKill {
			err = s.SetNightKillTarget(actorID, cmd.Target)
		} else {
			err = s.SkipNightKill(actorID)
		}
		if err != nil {
			return Outcome{}, err
		}
		// The single Mafia has chosen, so the night resolves right away.
		return nightOutcome(s, s.EndNight(s.Day())), nil
	case EndNight:
		if actorID != s.HostID() {
			return Outcome{}, fmt.Errorf("%w: only the host can end the night", game.ErrPermission)
		}
		return nightOutcome(s, s.EndNight(s.Day())), nil
	case Start:
		if err := s.Start(actorID); err != nil {
			return Outcome{}, err
		}
		return Outcome{Accepted: true}, nil
	case Leave:
		if err := s.RemovePlayer(actorID); err != nil {
			return Outcome{}, err
		}
		return Outcome{Accepted: true}, nil
	}
	return Outcome{}, fmt.Errorf("%w: unsupported command %s", game.ErrValidation, cmd.Kind)
}

// Absorbed triggers report nothing, not an earlier round's result.
func dayOutcome(s *game.Session, ok bool) Outcome {
	if !ok {
		return Outcome{}
	}
	return Outcome{Accepted: true, Elimination: s.Snapshot().LastElimination}
}

// nightOutcome carries the public night result only; the Mafia reads the
// full report from its own view.
func nightOutcome(s *game.Session, ok bool) Outcome {
	if !ok {
		return Outcome{}
	}
	return Outcome{Accepted: true, Night: s.Snapshot().LastNight}
}
