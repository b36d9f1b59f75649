package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

// fakeTimer fires only when the test says so
type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (f *fakeScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	t := &fakeTimer{d: d, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// pending returns the timers that have neither fired nor been stopped
func (f *fakeScheduler) pending() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireNext fires the oldest pending timer
func (f *fakeScheduler) fireNext(t *testing.T) *fakeTimer {
	t.Helper()
	p := f.pending()
	require.NotEmpty(t, p, "no pending timer")
	p[0].fired = true
	p[0].fn()
	return p[0]
}

var roster = []string{"A", "B", "C", "D", "E"}

var names = map[string]string{"A": "Alice", "B": "Bob", "C": "Carol", "D": "Dave", "E": "Eve"}

// fixedRoles is A=Mafia, B=Mayor, C=Executioner targeting D, D and E Town
func fixedRoles() map[string]models.Role {
	return map[string]models.Role{
		"A": {Kind: models.RoleMafia},
		"B": {Kind: models.RoleMayor},
		"C": {Kind: models.RoleExecutioner, Target: "D"},
		"D": {Kind: models.RoleTown},
		"E": {Kind: models.RoleTown},
	}
}

func newLobby(t *testing.T, sched *fakeScheduler, mutate func(*Options)) *Session {
	t.Helper()
	opts := Options{
		Settings:  DefaultSettings(),
		Scheduler: sched,
		Assigner:  NewRoleAssigner(rand.NewSource(7)),
		Logger:    zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := NewSession("ROOM", "A", names["A"], opts)
	require.NoError(t, err)
	for _, id := range roster[1:] {
		require.NoError(t, s.AddPlayer(id, names[id]))
	}
	return s
}

// newDay returns a session on day 1 with fixedRoles dealt
func newDay(t *testing.T, sched *fakeScheduler, mutate func(*Options)) *Session {
	t.Helper()
	s := newLobby(t, sched, mutate)
	require.NoError(t, s.StartGame("A"))
	require.NoError(t, s.AssignRoles(fixedRoles()))
	require.NoError(t, s.StartDayPhase())
	require.Equal(t, models.PhaseDay, s.Phase())
	require.Equal(t, 1, s.Day())
	return s
}
