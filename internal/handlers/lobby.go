package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
	"github.com/aaronzipp/you-are-officially-mafia/internal/render"
)

type joinResponse struct {
	Room     string `json:"room"`
	PlayerID string `json:"playerId"`
}

// HandleCreateLobby creates a new room with the caller as host
func (ctx *Context) HandleCreateLobby(w http.ResponseWriter, r *http.Request) {
	hostName := strings.TrimSpace(r.FormValue("name"))
	if hostName == "" {
		ctx.writeError(w, r, fmt.Errorf("%w: name is required", game.ErrValidation))
		return
	}

	playerID := uuid.New().String()
	var roomCode string
	err := ctx.Loop.Call(r.Context(), func() error {
		roomCode = ctx.Registry.UniqueRoomCode()
		_, err := ctx.Registry.Create(roomCode, playerID, hostName)
		return err
	})
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}

	ctx.Logger.Info().Str("room", roomCode).Str("host", playerID).Msg("created lobby")
	setPlayerCookie(w, playerID)
	writeJSON(w, http.StatusCreated, joinResponse{Room: roomCode, PlayerID: playerID})
}

// HandleJoinLobby seats the caller in an existing lobby
func (ctx *Context) HandleJoinLobby(w http.ResponseWriter, r *http.Request) {
	roomCode := roomCode(r)
	playerName := strings.TrimSpace(r.FormValue("name"))
	if playerName == "" {
		ctx.writeError(w, r, fmt.Errorf("%w: name is required", game.ErrValidation))
		return
	}

	// Rejoining with a cookie that is already seated is a no-op.
	if id, ok := playerID(r); ok {
		var seated bool
		_ = ctx.inRoom(r.Context(), roomCode, func(s *game.Session) error {
			seated = s.IsMember(id)
			return nil
		})
		if seated {
			writeJSON(w, http.StatusOK, joinResponse{Room: roomCode, PlayerID: id})
			return
		}
	}

	id := uuid.New().String()
	err := ctx.inRoom(r.Context(), roomCode, func(s *game.Session) error {
		if err := s.AddPlayer(id, playerName); err != nil {
			return err
		}
		ctx.Publish(s)
		return nil
	})
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}

	ctx.Logger.Info().Str("room", roomCode).Str("player", id).Msg("player joined")
	setPlayerCookie(w, id)
	writeJSON(w, http.StatusOK, joinResponse{Room: roomCode, PlayerID: id})
}

// HandleLeaveLobby removes the caller from a lobby. The host closes the room
// instead.
func (ctx *Context) HandleLeaveLobby(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(r)
	if !ok {
		ctx.writeError(w, r, fmt.Errorf("%w: no player cookie", game.ErrPermission))
		return
	}
	roomCode := roomCode(r)
	err := ctx.inRoom(r.Context(), roomCode, func(s *game.Session) error {
		if err := s.RemovePlayer(id); err != nil {
			return err
		}
		ctx.Publish(s)
		return nil
	})
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	ctx.Logger.Info().Str("room", roomCode).Str("player", id).Msg("player left")
	w.WriteHeader(http.StatusNoContent)
}

// HandleState returns the room as the caller is allowed to see it
func (ctx *Context) HandleState(w http.ResponseWriter, r *http.Request) {
	id, _ := playerID(r)
	var view render.View
	err := ctx.inRoom(r.Context(), roomCode(r), func(s *game.Session) error {
		view = render.PlayerView(s, id)
		return nil
	})
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// inRoom runs fn on the event loop against the session for roomCode
func (ctx *Context) inRoom(c context.Context, roomCode string, fn func(s *game.Session) error) error {
	return ctx.Loop.Call(c, func() error {
		s, ok := ctx.Registry.Get(roomCode)
		if !ok {
			return fmt.Errorf("%w: room %s", game.ErrNotFound, roomCode)
		}
		return fn(s)
	})
}
