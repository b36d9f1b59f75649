package handlers

import (
	"fmt"
	"net/http"

	"github.com/aaronzipp/you-are-officially-mafia/internal/command"
	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
	"github.com/aaronzipp/you-are-officially-mafia/internal/render"
	"github.com/aaronzipp/you-are-officially-mafia/internal/sse"
)

type actionResponse struct {
	Accepted    bool                      `json:"accepted"`
	Elimination *models.EliminationResult `json:"elimination,omitempty"`
	Night       *models.NightResult       `json:"night,omitempty"`
}

// HandleAction applies one in-game command, e.g. action=vote_<id>
func (ctx *Context) HandleAction(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(r)
	if !ok {
		ctx.writeError(w, r, fmt.Errorf("%w: no player cookie", game.ErrPermission))
		return
	}
	cmd, err := command.Parse(r.FormValue("action"))
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}

	var outcome command.Outcome
	err = ctx.inRoom(r.Context(), roomCode(r), func(s *game.Session) error {
		var err error
		outcome, err = ctx.apply(s, id, cmd)
		return err
	})
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if !outcome.Accepted {
		status = http.StatusConflict
	}
	writeJSON(w, status, actionResponse{
		Accepted:    outcome.Accepted,
		Elimination: outcome.Elimination,
		Night:       outcome.Night,
	})
}

// apply runs cmd and fans the result out. Must run on the event loop.
func (ctx *Context) apply(s *game.Session, actorID string, cmd command.Command) (command.Outcome, error) {
	outcome, err := command.Apply(s, actorID, cmd)
	if err != nil {
		return outcome, err
	}
	ctx.Logger.Debug().
		Str("room", s.RoomID()).
		Str("player", actorID).
		Stringer("command", cmd.Kind).
		Bool("accepted", outcome.Accepted).
		Msg("command applied")
	if !outcome.Accepted {
		return outcome, nil
	}
	switch cmd.Kind {
	case command.EndDay:
		if outcome.Elimination != nil {
			ctx.Hub.Broadcast(s.RoomID(), sse.EventElimination, render.Marshal(outcome.Elimination))
		}
	case command.NightKill, command.NightSkip, command.EndNight:
		if outcome.Night != nil {
			ctx.Hub.Broadcast(s.RoomID(), sse.EventNight, render.Marshal(outcome.Night))
		}
	}
	ctx.Publish(s)
	return outcome, nil
}

// Publish pushes every subscriber its own view of s, plus the winners once
// the game is over. Must run on the event loop.
func (ctx *Context) Publish(s *game.Session) {
	ctx.Hub.BroadcastPersonalized(s.RoomID(), func(playerID string) string {
		return render.JSON(s, playerID)
	}, sse.EventState)
	if s.Phase() == models.PhaseEnded {
		ctx.Hub.Broadcast(s.RoomID(), sse.EventGameOver, render.Marshal(s.Winners()))
	}
}
