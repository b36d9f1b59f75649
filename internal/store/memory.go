package store

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aaronzipp/you-are-officially-mafia/internal/game"
	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

// Archiver receives the record of every retired game that reached an end
type Archiver interface {
	Record(rec models.GameRecord) error
}

// SessionRegistry maps a room code to at most one active session
type SessionRegistry struct {
	sessions  map[string]*game.Session
	mu        sync.RWMutex
	settings  game.Settings
	scheduler game.Scheduler
	archive   Archiver
	logger    zerolog.Logger
	newAssign func() *game.RoleAssigner
	onChange  func(*game.Session)
}

// Option customizes a SessionRegistry
type Option func(*SessionRegistry)

// WithArchive records finished games in a
func WithArchive(a Archiver) Option {
	return func(r *SessionRegistry) { r.archive = a }
}

// WithAssigner overrides how each new session gets its role assigner
func WithAssigner(fn func() *game.RoleAssigner) Option {
	return func(r *SessionRegistry) { r.newAssign = fn }
}

// WithOnChange is told whenever a phase timer moves a session along
func WithOnChange(fn func(*game.Session)) Option {
	return func(r *SessionRegistry) { r.onChange = fn }
}

// NewSessionRegistry creates an empty registry. Sessions it creates use
// settings and schedule their timers through scheduler.
func NewSessionRegistry(settings game.Settings, scheduler game.Scheduler, logger zerolog.Logger, opts ...Option) *SessionRegistry {
	r := &SessionRegistry{
		sessions:  make(map[string]*game.Session),
		settings:  settings,
		scheduler: scheduler,
		logger:    logger.With().Str("component", "SessionRegistry").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a session in the lobby for roomID with the host seated
func (r *SessionRegistry) Create(roomID, hostID, hostName string) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[roomID]; exists {
		return nil, fmt.Errorf("%w: room %s", game.ErrAlreadyActive, roomID)
	}

	opts := game.Options{
		Settings:  r.settings,
		Scheduler: r.scheduler,
		Logger:    r.logger,
		OnRetire:  r.retire,
		OnChange:  r.onChange,
	}
	if r.newAssign != nil {
		opts.Assigner = r.newAssign()
	}
	session, err := game.NewSession(roomID, hostID, hostName, opts)
	if err != nil {
		return nil, err
	}
	r.sessions[roomID] = session
	r.logger.Info().Str("room", roomID).Str("host", hostID).Msg("session created")
	return session, nil
}

// Get retrieves the session for roomID
func (r *SessionRegistry) Get(roomID string) (*game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, exists := r.sessions[roomID]
	return session, exists
}

// Exists checks if a session is active for roomID
func (r *SessionRegistry) Exists(roomID string) bool {
	_, exists := r.Get(roomID)
	return exists
}

// Remove cleans up and forgets the session for roomID. A game that already
// ended is archived on its way out. Removing an unknown room is a no-op.
func (r *SessionRegistry) Remove(roomID string) {
	r.mu.Lock()
	session, exists := r.sessions[roomID]
	delete(r.sessions, roomID)
	r.mu.Unlock()
	if !exists {
		return
	}
	r.archiveFinished(session)
	session.Cleanup()
	r.logger.Info().Str("room", roomID).Msg("session removed")
}

// Len returns the number of active sessions
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close removes every session
func (r *SessionRegistry) Close() {
	r.mu.RLock()
	rooms := make([]string, 0, len(r.sessions))
	for roomID := range r.sessions {
		rooms = append(rooms, roomID)
	}
	r.mu.RUnlock()
	for _, roomID := range rooms {
		r.Remove(roomID)
	}
}

// retire drops s once its grace delay is over. A replacement session that
// took over the room code is left alone.
func (r *SessionRegistry) retire(s *game.Session) {
	r.mu.RLock()
	current := r.sessions[s.RoomID()]
	r.mu.RUnlock()
	if current == s {
		r.Remove(s.RoomID())
	}
}

func (r *SessionRegistry) archiveFinished(s *game.Session) {
	if r.archive == nil || s.Phase() != models.PhaseEnded {
		return
	}
	if err := r.archive.Record(s.Record()); err != nil {
		r.logger.Error().Err(err).Str("room", s.RoomID()).Msg("archiving finished game")
	}
}
