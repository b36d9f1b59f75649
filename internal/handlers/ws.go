package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aaronzipp/you-are-officially-mafia/internal/command"
	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
	"github.com/aaronzipp/you-are-officially-mafia/internal/render"
	"github.com/aaronzipp/you-are-officially-mafia/internal/sse"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	maxFrameSize = 4096
)

// HandleWebSocket is a two-way alternative to SSE: room events go out and
// JSON commands such as {"type":"vote","target":"<id>"} come in.
func (ctx *Context) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := playerID(r)
	roomCode := roomCode(r)
	if !ok || !ctx.Registry.Exists(roomCode) {
		http.Error(w, "unknown room or player", http.StatusNotFound)
		return
	}
	conn, err := ctx.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ctx.Logger.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	sub, release, initial, err := ctx.subscribe(r.Context(), roomCode, id)
	if err != nil {
		_ = conn.WriteJSON(sse.Message{Event: sse.EventError, Data: err.Error()})
		return
	}
	defer release()

	direct := make(chan sse.Message, sse.BufferSize)
	direct <- sse.Message{Event: sse.EventState, Data: initial}
	done := make(chan struct{})
	go ctx.wsReadLoop(conn, roomCode, id, direct, done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		var msg sse.Message
		select {
		case <-done:
			return
		case m, ok := <-sub.C:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteJSON(sse.Message{Event: sse.EventClosed, Data: "{}"})
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			msg = m
		case m := <-direct:
			msg = m
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			ctx.Logger.Debug().Err(err).Str("player", id).Msg("write json")
			return
		}
	}
}

func (ctx *Context) wsReadLoop(conn *websocket.Conn, roomCode, id string, direct chan<- sse.Message, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	reply := func(msg sse.Message) {
		select {
		case direct <- msg:
		default:
		}
	}
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			ctx.Logger.Debug().Err(err).Str("player", id).Msg("read message")
			return
		}
		cmd, err := command.Decode(payload)
		if err != nil {
			reply(sse.Message{Event: sse.EventError, Data: err.Error()})
			continue
		}
		var outcome command.Outcome
		err = ctx.inRoom(context.Background(), roomCode, func(s *game.Session) error {
			var err error
			outcome, err = ctx.apply(s, id, cmd)
			return err
		})
		if err != nil {
			reply(sse.Message{Event: sse.EventError, Data: err.Error()})
			continue
		}
		if !outcome.Accepted {
			reply(sse.Message{Event: sse.EventError, Data: render.Marshal(actionResponse{Accepted: false})})
		}
	}
}
