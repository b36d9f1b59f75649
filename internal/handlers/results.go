package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/skip2/go-qrcode"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	qrSize              = 256
)

// HandleHistory lists the most recently finished games
func (ctx *Context) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ctx.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", game.ErrValidation))
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	records, err := ctx.Archive.Recent(limit)
	if err != nil {
		ctx.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []models.GameRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleJoinQR renders a QR code pointing at the room's join link
func (ctx *Context) HandleJoinQR(w http.ResponseWriter, r *http.Request) {
	roomCode := roomCode(r)
	if !ctx.Registry.Exists(roomCode) {
		ctx.writeError(w, r, fmt.Errorf("%w: room %s", game.ErrNotFound, roomCode))
		return
	}
	png, err := qrcode.Encode(ctx.joinURL(roomCode), qrcode.Medium, qrSize)
	if err != nil {
		ctx.writeError(w, r, fmt.Errorf("encoding qr code: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(png)
}

func (ctx *Context) joinURL(roomCode string) string {
	return fmt.Sprintf("%s/rooms/%s/join", ctx.BaseURL, roomCode)
}
