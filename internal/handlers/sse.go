package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
	"github.com/aaronzipp/you-are-officially-mafia/internal/render"
	"github.com/aaronzipp/you-are-officially-mafia/internal/sse"
)

const keepAliveInterval = 25 * time.Second

// subscribe attaches a subscriber for playerID to the room and hands it to
// the session, so closing the room also disconnects it. The returned release
// func detaches it again.
func (ctx *Context) subscribe(c context.Context, roomCode, playerID string) (*sse.Subscription, func(), string, error) {
	var (
		sub     *sse.Subscription
		owned   game.Handle
		initial string
	)
	err := ctx.inRoom(c, roomCode, func(s *game.Session) error {
		sub = ctx.Hub.Subscribe(roomCode, playerID)
		owned = s.Register(sub)
		initial = render.JSON(s, playerID)
		return nil
	})
	if err != nil {
		return nil, nil, "", err
	}
	release := func() {
		if !ctx.Loop.Post(func() { owned.Stop() }) {
			sub.Stop()
		}
	}
	return sub, release, initial, nil
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

// HandleSSE streams room events as Server-Sent Events
func (ctx *Context) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	id, _ := playerID(r)
	roomCode := roomCode(r)

	sub, release, initial, err := ctx.subscribe(r.Context(), roomCode, id)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	defer release()

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering in nginx/proxies
	w.WriteHeader(http.StatusOK)

	ctx.Logger.Debug().Str("room", roomCode).Str("player", id).Int("clients", ctx.Hub.Clients(roomCode)).Msg("sse client connected")
	writeEvent(w, flusher, sse.EventState, initial)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	reqCtx := r.Context()
	for {
		select {
		case <-reqCtx.Done():
			ctx.Logger.Debug().Str("room", roomCode).Str("player", id).Msg("sse client disconnected")
			return
		case msg, ok := <-sub.C:
			if !ok {
				writeEvent(w, flusher, sse.EventClosed, "{}")
				return
			}
			writeEvent(w, flusher, msg.Event, msg.Data)
		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
