package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aaronzipp/you-are-officially-mafia/internal/archive"
	"github.com/aaronzipp/you-are-officially-mafia/internal/loop"
	"github.com/aaronzipp/you-are-officially-mafia/internal/sse"
	"github.com/aaronzipp/you-are-officially-mafia/internal/store"
)

// Context holds shared application dependencies
type Context struct {
	Registry *store.SessionRegistry
	Loop     *loop.Loop
	Hub      *sse.Hub
	Archive  *archive.Store
	BaseURL  string
	Logger   zerolog.Logger

	upgrader websocket.Upgrader
}

// Routes wires every endpoint onto a chi router
func (ctx *Context) Routes() http.Handler {
	ctx.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(ctx.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", ctx.HandleHealth)
	r.Get("/history", ctx.HandleHistory)
	r.Post("/rooms", ctx.HandleCreateLobby)
	r.Route("/rooms/{code}", func(r chi.Router) {
		r.Get("/", ctx.HandleState)
		r.Post("/join", ctx.HandleJoinLobby)
		r.Post("/leave", ctx.HandleLeaveLobby)
		r.Post("/start", ctx.HandleStartGame)
		r.Post("/actions", ctx.HandleAction)
		r.Post("/close", ctx.HandleCloseLobby)
		r.Get("/events", ctx.HandleSSE)
		r.Get("/ws", ctx.HandleWebSocket)
		r.Get("/qr", ctx.HandleJoinQR)
	})
	return r
}

// HandleHealth reports liveness
func (ctx *Context) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rooms": ctx.Registry.Len()})
}
