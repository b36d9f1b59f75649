package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
	"github.com/aaronzipp/you-are-officially-mafia/internal/loop"
	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
	"github.com/aaronzipp/you-are-officially-mafia/internal/render"
	"github.com/aaronzipp/you-are-officially-mafia/internal/sse"
	"github.com/aaronzipp/you-are-officially-mafia/internal/store"
)

type harness struct {
	t       *testing.T
	app     *Context
	handler http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zerolog.Nop()
	events := loop.New(64, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = events.Run(ctx) }()
	t.Cleanup(cancel)

	app := &Context{
		Loop:    events,
		Hub:     sse.NewHub(logger),
		BaseURL: "http://mafia.test",
		Logger:  logger,
	}
	app.Registry = store.NewSessionRegistry(game.DefaultSettings(), events, logger,
		store.WithOnChange(func(s *game.Session) { app.Publish(s) }))
	return &harness{t: t, app: app, handler: app.Routes()}
}

func (h *harness) do(method, path, playerID string, form url.Values) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if playerID != "" {
		req.AddCookie(&http.Cookie{Name: playerCookie, Value: playerID})
	}
	res := httptest.NewRecorder()
	h.handler.ServeHTTP(res, req)
	return res
}

func (h *harness) join(path, name string) joinResponse {
	h.t.Helper()
	res := h.do(http.MethodPost, path, "", url.Values{"name": {name}})
	require.Contains(h.t, []int{http.StatusOK, http.StatusCreated}, res.Code, res.Body.String())
	var out joinResponse
	require.NoError(h.t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func (h *harness) view(room, playerID string) render.View {
	h.t.Helper()
	res := h.do(http.MethodGet, "/rooms/"+room, playerID, nil)
	require.Equal(h.t, http.StatusOK, res.Code, res.Body.String())
	var v render.View
	require.NoError(h.t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func (h *harness) act(room, playerID, action string) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.do(http.MethodPost, "/rooms/"+room+"/actions", playerID, url.Values{"action": {action}})
}

// fullRoom creates a room and seats four more players; ids[0] is the host
func (h *harness) fullRoom() (string, []string) {
	h.t.Helper()
	host := h.join("/rooms", "Alice")
	ids := []string{host.PlayerID}
	for _, name := range []string{"Bob", "Carol", "Dave", "Eve"} {
		ids = append(ids, h.join("/rooms/"+host.Room+"/join", name).PlayerID)
	}
	return host.Room, ids
}

func TestHealthAndHistory(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)

	res = h.do(http.MethodGet, "/history", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `[]`, res.Body.String())

	res = h.do(http.MethodGet, "/history?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCreateAndJoin(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodPost, "/rooms", "", url.Values{})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	host := h.join("/rooms", "Alice")
	assert.Len(t, host.Room, store.RoomCodeLength)

	bob := h.join("/rooms/"+strings.ToLower(host.Room)+"/join", "Bob")
	assert.Equal(t, host.Room, bob.Room)

	// Rejoining with the same cookie keeps the seat.
	res = h.do(http.MethodPost, "/rooms/"+host.Room+"/join", bob.PlayerID, url.Values{"name": {"Bob"}})
	assert.Equal(t, http.StatusOK, res.Code)

	v := h.view(host.Room, host.PlayerID)
	assert.Equal(t, models.PhaseLobby, v.Phase)
	assert.Len(t, v.Players, 2)
	require.NotNil(t, v.You)
	assert.True(t, v.You.IsHost)

	res = h.do(http.MethodPost, "/rooms/NOPE99/join", "", url.Values{"name": {"Zed"}})
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestLeaveLobby(t *testing.T) {
	h := newHarness(t)
	host := h.join("/rooms", "Alice")
	bob := h.join("/rooms/"+host.Room+"/join", "Bob")

	res := h.do(http.MethodPost, "/rooms/"+host.Room+"/leave", host.PlayerID, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = h.do(http.MethodPost, "/rooms/"+host.Room+"/leave", bob.PlayerID, nil)
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Len(t, h.view(host.Room, host.PlayerID).Players, 1)
}

func TestStartRequiresHostAndFullRoom(t *testing.T) {
	h := newHarness(t)
	host := h.join("/rooms", "Alice")
	bob := h.join("/rooms/"+host.Room+"/join", "Bob")

	res := h.do(http.MethodPost, "/rooms/"+host.Room+"/start", host.PlayerID, nil)
	assert.Equal(t, http.StatusPreconditionFailed, res.Code)

	res = h.do(http.MethodPost, "/rooms/"+host.Room+"/start", bob.PlayerID, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = h.do(http.MethodPost, "/rooms/"+host.Room+"/start", "", nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestGameToTownWin(t *testing.T) {
	h := newHarness(t)
	room, ids := h.fullRoom()

	res := h.do(http.MethodPost, "/rooms/"+room+"/start", ids[0], nil)
	require.Equal(t, http.StatusNoContent, res.Code, res.Body.String())

	var mafia string
	for _, id := range ids {
		v := h.view(room, id)
		require.NotNil(t, v.You)
		require.NotEmpty(t, v.You.Role)
		if v.You.Role == models.RoleMafia {
			mafia = id
		}
	}
	require.NotEmpty(t, mafia)
	assert.Equal(t, models.PhaseDay, h.view(room, ids[0]).Phase)

	res = h.act(room, ids[0], "dance")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	res = h.act(room, ids[0], "vote_nobody")
	assert.Equal(t, http.StatusConflict, res.Code)
	res = h.act(room, "stranger", "skip")
	assert.Equal(t, http.StatusNotFound, res.Code)

	for _, id := range ids {
		if id == mafia {
			continue
		}
		res = h.act(room, id, "vote_"+mafia)
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	}

	res = h.act(room, ids[1], "end_day")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = h.act(room, ids[0], "end_day")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var out actionResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.True(t, out.Accepted)
	require.NotNil(t, out.Elimination)
	assert.Equal(t, mafia, out.Elimination.Eliminated)

	v := h.view(room, ids[0])
	assert.Equal(t, models.PhaseEnded, v.Phase)
	require.NotEmpty(t, v.Winners)
	assert.Equal(t, models.WinnerTown, v.Winners[0].Type)
	assert.Len(t, v.Roles, 5)
}

func TestFailedNightKillIsOnlyShownToMafia(t *testing.T) {
	h := newHarness(t)
	room, ids := h.fullRoom()
	res := h.do(http.MethodPost, "/rooms/"+room+"/start", ids[0], nil)
	require.Equal(t, http.StatusNoContent, res.Code, res.Body.String())

	var mafia, executioner string
	for _, id := range ids {
		switch h.view(room, id).You.Role {
		case models.RoleMafia:
			mafia = id
		case models.RoleExecutioner:
			executioner = id
		}
	}
	require.NotEmpty(t, mafia)
	require.NotEmpty(t, executioner)

	res = h.act(room, ids[0], "end_day")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Equal(t, models.PhaseNight, h.view(room, ids[0]).Phase)

	res = h.act(room, mafia, "night_kill_"+executioner)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.NotContains(t, res.Body.String(), executioner)

	for _, id := range ids {
		v := h.view(room, id)
		require.NotNil(t, v.LastNight)
		assert.Empty(t, v.LastNight.Eliminated)
		assert.Empty(t, v.LastNight.Target)
		assert.False(t, v.LastNight.Immune)
		if id == mafia {
			require.NotNil(t, v.You.NightReport)
			assert.Equal(t, executioner, v.You.NightReport.Target)
			assert.True(t, v.You.NightReport.Immune)
		} else {
			assert.Nil(t, v.You.NightReport)
		}
	}
}

func TestCloseRoom(t *testing.T) {
	h := newHarness(t)
	host := h.join("/rooms", "Alice")
	bob := h.join("/rooms/"+host.Room+"/join", "Bob")

	res := h.do(http.MethodPost, "/rooms/"+host.Room+"/close", bob.PlayerID, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = h.do(http.MethodPost, "/rooms/"+host.Room+"/close", host.PlayerID, nil)
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = h.do(http.MethodGet, "/rooms/"+host.Room, host.PlayerID, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestJoinQR(t *testing.T) {
	h := newHarness(t)
	host := h.join("/rooms", "Alice")

	res := h.do(http.MethodGet, "/rooms/"+host.Room+"/qr", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "image/png", res.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(res.Body.String(), "\x89PNG"))

	res = h.do(http.MethodGet, "/rooms/NOPE99/qr", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestEventStream(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.handler)
	defer srv.Close()
	host := h.join("/rooms", "Alice")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/rooms/"+host.Room+"/events", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: playerCookie, Value: host.PlayerID})
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() (string, string) {
		var event, data string
		for lines.Scan() {
			line := lines.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && event != "":
				return event, data
			}
		}
		return event, data
	}

	event, data := next()
	assert.Equal(t, sse.EventState, event)
	assert.Contains(t, data, host.PlayerID)

	h.join("/rooms/"+host.Room+"/join", "Bob")
	event, data = next()
	assert.Equal(t, sse.EventState, event)
	assert.Contains(t, data, "Bob")

	res := h.do(http.MethodPost, "/rooms/"+host.Room+"/close", host.PlayerID, nil)
	require.Equal(t, http.StatusNoContent, res.Code)
	event, _ = next()
	assert.Equal(t, sse.EventClosed, event)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(game.ErrRosterSize))
	assert.Equal(t, http.StatusForbidden, statusFor(game.ErrHostCannotLeave))
	assert.Equal(t, http.StatusConflict, statusFor(game.ErrSessionClosed))
	assert.Equal(t, http.StatusConflict, statusFor(game.ErrDuplicatePlayer))
	assert.Equal(t, http.StatusNotFound, statusFor(game.ErrNotFound))
	assert.Equal(t, http.StatusPreconditionFailed, statusFor(game.ErrNotReady))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(loop.ErrStopped))
}
