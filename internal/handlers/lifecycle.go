package handlers

import (
	"fmt"
	"net/http"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
	"github.com/aaronzipp/you-are-officially-mafia/internal/sse"
)

// HandleStartGame deals roles and opens day 1 (host only)
func (ctx *Context) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(r)
	if !ok {
		ctx.writeError(w, r, fmt.Errorf("%w: no player cookie", game.ErrPermission))
		return
	}
	roomCode := roomCode(r)
	err := ctx.inRoom(r.Context(), roomCode, func(s *game.Session) error {
		if err := s.Start(id); err != nil {
			return err
		}
		ctx.Publish(s)
		return nil
	})
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.Logger.Info().Str("room", roomCode).Msg("game started")
	w.WriteHeader(http.StatusNoContent)
}

// HandleCloseLobby tears the room down (host only)
func (ctx *Context) HandleCloseLobby(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(r)
	if !ok {
		ctx.writeError(w, r, fmt.Errorf("%w: no player cookie", game.ErrPermission))
		return
	}
	roomCode := roomCode(r)
	err := ctx.inRoom(r.Context(), roomCode, func(s *game.Session) error {
		if s.HostID() != id {
			return fmt.Errorf("%w: only the host can close the room", game.ErrPermission)
		}
		ctx.Hub.Broadcast(roomCode, sse.EventClosed, "{}")
		ctx.Registry.Remove(roomCode)
		return nil
	})
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.Logger.Info().Str("room", roomCode).Msg("room closed by host")
	w.WriteHeader(http.StatusNoContent)
}
