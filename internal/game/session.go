package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

// Options holds the collaborators a Session is built with
type Options struct {
	Settings  Settings
	Scheduler Scheduler
	Assigner  *RoleAssigner
	Logger    zerolog.Logger

	// OnRetire runs once the grace delay after a game-ending win elapses
	OnRetire func(*Session)
	// OnChange runs after a timer moved the session to another phase
	OnChange func(*Session)
}

// Session is the state machine of one game in one room. It is not safe for
// concurrent use: every call, including timer callbacks, must come from a
// single goroutine.
type Session struct {
	roomID    string
	hostID    string
	settings  Settings
	logger    zerolog.Logger
	assigner  *RoleAssigner
	evaluator *WinEvaluator
	convert   JesterPredicate
	timers    *TimerRegistry
	onRetire  func(*Session)
	onChange  func(*Session)

	phase   models.Phase
	order   []string
	players map[string]*models.Player
	day     int

	votes         map[string]string
	skips         map[string]bool
	mayorID       string
	dealt         bool
	mayorRevealed bool
	nightTarget   string

	// last day/night whose elimination has been processed
	resolvedDay   int
	resolvedNight int
	nightDay      int
	phaseTimer    Handle

	winners         []models.Winner
	sideWinners     []models.Winner
	lastElimination *models.EliminationResult
	lastNight       *models.NightResult
	endedAt         time.Time
}

// NewSession creates a session in the lobby with the host seated
func NewSession(roomID, hostID, hostName string, opts Options) (*Session, error) {
	if roomID == "" || hostID == "" || hostName == "" {
		return nil, fmt.Errorf("%w: room, host id and host name are required", ErrValidation)
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("%w: scheduler is required", ErrValidation)
	}
	convert, _ := JesterPredicateFor(opts.Settings.JesterPolicy)
	assigner := opts.Assigner
	if assigner == nil {
		assigner = NewRoleAssigner(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Session{
		roomID:    roomID,
		hostID:    hostID,
		settings:  opts.Settings,
		logger:    opts.Logger.With().Str("component", "Session").Str("room", roomID).Logger(),
		assigner:  assigner,
		evaluator: NewWinEvaluator(opts.Logger, opts.Settings.MafiaWinPolicy),
		convert:   convert,
		timers:    NewTimerRegistry(opts.Scheduler),
		onRetire:  opts.OnRetire,
		onChange:  opts.OnChange,
		phase:     models.PhaseLobby,
		players:   make(map[string]*models.Player),
		votes:     make(map[string]string),
		skips:     make(map[string]bool),
	}
	if err := s.AddPlayer(hostID, hostName); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) RoomID() string      { return s.roomID }
func (s *Session) HostID() string      { return s.hostID }
func (s *Session) Phase() models.Phase { return s.phase }
func (s *Session) Day() int            { return s.day }
func (s *Session) MayorRevealed() bool { return s.mayorRevealed }
func (s *Session) Settings() Settings  { return s.settings }
func (s *Session) Closed() bool        { return s.timers.Closed() }
func (s *Session) LiveHandles() int    { return s.timers.Len() }
func (s *Session) NightTarget() string { return s.nightTarget }
func (s *Session) EndedAt() time.Time  { return s.endedAt }

// NightReport returns the full result of the last night, including the
// target that survived. Only the Mafia may be shown it.
func (s *Session) NightReport() *models.NightResult {
	if s.lastNight == nil {
		return nil
	}
	out := *s.lastNight
	return &out
}

// IsMember reports whether id holds a seat in the session
func (s *Session) IsMember(id string) bool {
	_, ok := s.players[id]
	return ok
}

// AddPlayer seats a player in the lobby
func (s *Session) AddPlayer(id, name string) error {
	if err := s.requirePhase(models.PhaseLobby); err != nil {
		return err
	}
	if id == "" || name == "" {
		return fmt.Errorf("%w: player id and name are required", ErrValidation)
	}
	if _, ok := s.players[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePlayer, id)
	}
	if len(s.order) >= s.settings.MaxPlayers {
		return fmt.Errorf("%w: %d/%d seats taken", ErrCapacity, len(s.order), s.settings.MaxPlayers)
	}
	s.players[id] = &models.Player{ID: id, Name: name, Alive: true}
	s.order = append(s.order, id)
	s.logger.Debug().Str("player", id).Int("seats", len(s.order)).Msg("player joined")
	return nil
}

// RemovePlayer frees a lobby seat. The host cannot leave.
func (s *Session) RemovePlayer(id string) error {
	if err := s.requirePhase(models.PhaseLobby); err != nil {
		return err
	}
	if id == s.hostID {
		return ErrHostCannotLeave
	}
	if _, ok := s.players[id]; !ok {
		return fmt.Errorf("%w: player %s", ErrNotFound, id)
	}
	delete(s.players, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.logger.Debug().Str("player", id).Int("seats", len(s.order)).Msg("player left")
	return nil
}

// StartGame freezes the roster and moves to role assignment
func (s *Session) StartGame(requesterID string) error {
	if requesterID != s.hostID {
		return fmt.Errorf("%w: only the host can start the game", ErrPermission)
	}
	if err := s.requirePhase(models.PhaseLobby); err != nil {
		return err
	}
	if len(s.order) != s.settings.MinPlayers {
		return fmt.Errorf("%w: need exactly %d players, have %d", ErrNotReady, s.settings.MinPlayers, len(s.order))
	}
	s.phase = models.PhaseRoleAssignment
	s.logger.Info().Msg("game started")
	return nil
}

// AssignRoles applies a role assignment covering every roster member once
func (s *Session) AssignRoles(roles map[string]models.Role) error {
	if err := s.requirePhase(models.PhaseRoleAssignment); err != nil {
		return err
	}
	if err := validateAssignment(s.order, roles); err != nil {
		return err
	}
	for id, role := range roles {
		s.players[id].Role = role
		if role.Kind == models.RoleMayor {
			s.mayorID = id
		}
	}
	s.dealt = true
	return nil
}

// Start runs StartGame, deals roles with the session's assigner and opens
// the first day.
func (s *Session) Start(requesterID string) error {
	if err := s.StartGame(requesterID); err != nil {
		return err
	}
	roles, err := s.assigner.Assign(s.order)
	if err != nil {
		return fmt.Errorf("assigning roles: %w", err)
	}
	if err := s.AssignRoles(roles); err != nil {
		return fmt.Errorf("applying roles: %w", err)
	}
	return s.StartDayPhase()
}

// StartDayPhase opens a day round. Calling it while already in the day is a
// no-op so racing triggers are absorbed.
func (s *Session) StartDayPhase() error {
	if s.phase == models.PhaseDay {
		s.logger.Debug().Int("day", s.day).Msg("day already started")
		return nil
	}
	if s.Closed() {
		return ErrSessionClosed
	}
	if !s.phase.CanTransitionTo(models.PhaseDay) {
		return fmt.Errorf("%w: cannot start day from %s", ErrState, s.phase)
	}
	switch {
	case s.phase == models.PhaseRoleAssignment && !s.dealt:
		return fmt.Errorf("%w: roles have not been assigned", ErrState)
	case s.phase == models.PhaseRoleAssignment:
		s.day = 1
	case s.day == s.nightDay:
		// coming from night without IncrementDay
		s.IncrementDay()
	}
	s.beginDay()
	return nil
}

func (s *Session) beginDay() {
	s.phase = models.PhaseDay
	s.votes = make(map[string]string)
	s.skips = make(map[string]bool)
	s.nightTarget = ""
	day := s.day
	s.armPhaseTimer(s.settings.DayDuration, func() { s.changed(s.EndDay(day)) })
	s.logger.Info().Int("day", day).Msg("day started")
}

// CastVote records voterID's vote for targetID, replacing any earlier vote
// or skip. It reports whether the vote was accepted.
func (s *Session) CastVote(voterID, targetID string) bool {
	if !s.dayOpen() || !s.aliveMember(voterID) || !s.aliveMember(targetID) {
		return false
	}
	s.votes[voterID] = targetID
	delete(s.skips, voterID)
	return true
}

// AddSkipVote marks voterID as skipping this round and clears their vote
func (s *Session) AddSkipVote(voterID string) bool {
	if !s.dayOpen() || !s.aliveMember(voterID) {
		return false
	}
	s.skips[voterID] = true
	delete(s.votes, voterID)
	return true
}

// RevealMayor publicly reveals the Mayor, whose vote then weighs
// Settings.MayorMultiplier in every tally, including votes already cast.
func (s *Session) RevealMayor(playerID string) error {
	if err := s.requirePhase(models.PhaseDay); err != nil {
		return err
	}
	p, ok := s.players[playerID]
	if !ok {
		return fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if p.Role.Kind != models.RoleMayor {
		return fmt.Errorf("%w: only the mayor can reveal", ErrPermission)
	}
	if !p.Alive {
		return fmt.Errorf("%w: dead mayor cannot reveal", ErrState)
	}
	if s.mayorRevealed {
		return fmt.Errorf("%w: mayor already revealed", ErrState)
	}
	s.mayorRevealed = true
	s.logger.Info().Str("player", playerID).Msg("mayor revealed")
	return nil
}

// Tally returns the current weighted tally of the day round
func (s *Session) Tally() map[string]int {
	return Tally(s.ballot(), s.aliveSet())
}

// ProcessElimination tallies the day's votes and applies the decision.
// It runs at most once per day.
func (s *Session) ProcessElimination() (*models.EliminationResult, error) {
	if err := s.requirePhase(models.PhaseDay); err != nil {
		return nil, err
	}
	if s.resolvedDay == s.day {
		return nil, fmt.Errorf("%w: day %d already resolved", ErrState, s.day)
	}
	s.resolvedDay = s.day

	decision := Decide(s.ballot(), s.aliveSet())
	result := &models.EliminationResult{
		Day:    s.day,
		Reason: decision.Reason,
		Tied:   decision.Tied,
		Tally:  decision.Tally,
	}

	if decision.Reason == models.ReasonEliminated {
		victim := s.players[decision.Eliminated]
		// Side wins are judged against the roles held before this death.
		result.SideWinners = s.voteSideWins(victim)
		victim.Alive = false
		result.Eliminated = victim.ID
		result.Role = victim.Role.Kind
		result.Alignment = victim.Role.Alignment()
		result.Conversions = s.applyConversions(Death{Victim: victim.ID, Cause: CauseVote})
		s.sideWinners = append(s.sideWinners, result.SideWinners...)
	}

	s.logger.Info().
		Int("day", s.day).
		Str("reason", string(result.Reason)).
		Str("eliminated", result.Eliminated).
		Strs("tied", result.Tied).
		Msg("day resolved")

	result.Winners = s.evaluate()
	result.GameOver = len(result.Winners) > 0
	s.lastElimination = result
	return result, nil
}

// StartNightPhase moves from day to night. With no living Mafia there is
// nothing to wait for, so the next day starts straight away.
func (s *Session) StartNightPhase() error {
	if s.phase == models.PhaseNight {
		s.logger.Debug().Int("night", s.day).Msg("night already started")
		return nil
	}
	if s.Closed() {
		return ErrSessionClosed
	}
	if !s.phase.CanTransitionTo(models.PhaseNight) {
		return fmt.Errorf("%w: cannot start night from %s", ErrState, s.phase)
	}
	if s.livingMafia() == nil {
		s.logger.Info().Int("day", s.day).Msg("no living mafia, skipping night")
		s.IncrementDay()
		s.beginDay()
		return nil
	}
	s.phase = models.PhaseNight
	s.nightDay = s.day
	s.nightTarget = ""
	night := s.day
	s.armPhaseTimer(s.settings.NightDuration, func() { s.changed(s.EndNight(night)) })
	s.logger.Info().Int("night", night).Msg("night started")
	return nil
}

// SetNightKillTarget records the Mafia's choice for tonight. A target holding
// the Executioner role is accepted but survives when night immunity is on.
func (s *Session) SetNightKillTarget(actorID, targetID string) error {
	if err := s.requireMafiaAction(actorID); err != nil {
		return err
	}
	target, ok := s.players[targetID]
	if !ok {
		return fmt.Errorf("%w: player %s", ErrNotFound, targetID)
	}
	if !target.Alive || targetID == actorID {
		return fmt.Errorf("%w: cannot target %s", ErrValidation, targetID)
	}
	s.nightTarget = targetID
	s.logger.Debug().Int("night", s.day).Str("target", targetID).Msg("night target chosen")
	return nil
}

// SkipNightKill records that the Mafia kills nobody tonight
func (s *Session) SkipNightKill(actorID string) error {
	if err := s.requireMafiaAction(actorID); err != nil {
		return err
	}
	s.nightTarget = ""
	return nil
}

// ProcessNightElimination resolves tonight's kill. It runs at most once per
// night.
func (s *Session) ProcessNightElimination() (*models.NightResult, error) {
	if err := s.requirePhase(models.PhaseNight); err != nil {
		return nil, err
	}
	if s.resolvedNight == s.day {
		return nil, fmt.Errorf("%w: night %d already resolved", ErrState, s.day)
	}
	s.resolvedNight = s.day

	result := &models.NightResult{Night: s.day, Target: s.nightTarget}
	if victim, ok := s.players[s.nightTarget]; ok && victim.Alive {
		if victim.Role.Kind == models.RoleExecutioner && s.settings.ExecutionerNightImmune {
			result.Immune = true
		} else {
			victim.Alive = false
			result.Eliminated = victim.ID
			result.Role = victim.Role.Kind
			result.Alignment = victim.Role.Alignment()
			result.Conversions = s.applyConversions(Death{Victim: victim.ID, Cause: CauseNight})
		}
	}

	s.logger.Info().
		Int("night", s.day).
		Str("target", result.Target).
		Bool("immune", result.Immune).
		Str("eliminated", result.Eliminated).
		Msg("night resolved")

	result.Winners = s.evaluate()
	result.GameOver = len(result.Winners) > 0
	s.lastNight = result
	return result, nil
}

// IncrementDay advances the day counter
func (s *Session) IncrementDay() {
	s.day++
}

// EndDay closes day `day`: it processes the elimination if that has not
// happened yet and moves to night unless the game ended. Stale or repeated
// triggers return false and change nothing.
func (s *Session) EndDay(day int) bool {
	if s.Closed() || s.phase != models.PhaseDay || s.day != day {
		s.logger.Debug().Int("day", day).Str("phase", string(s.phase)).Msg("end of day absorbed")
		return false
	}
	if s.resolvedDay != day {
		if _, err := s.ProcessElimination(); err != nil {
			s.logger.Error().Err(err).Int("day", day).Msg("processing elimination")
			return false
		}
	}
	if s.phase == models.PhaseEnded {
		return true
	}
	if err := s.StartNightPhase(); err != nil {
		s.logger.Error().Err(err).Int("day", day).Msg("starting night")
		return false
	}
	return true
}

// EndNight closes night `night`: it resolves the kill if needed and opens the
// next day unless the game ended. Stale or repeated triggers return false.
func (s *Session) EndNight(night int) bool {
	if s.Closed() || s.phase != models.PhaseNight || s.day != night {
		s.logger.Debug().Int("night", night).Str("phase", string(s.phase)).Msg("end of night absorbed")
		return false
	}
	if s.resolvedNight != night {
		if _, err := s.ProcessNightElimination(); err != nil {
			s.logger.Error().Err(err).Int("night", night).Msg("processing night elimination")
			return false
		}
	}
	if s.phase == models.PhaseEnded {
		return true
	}
	s.IncrementDay()
	if err := s.StartDayPhase(); err != nil {
		s.logger.Error().Err(err).Int("night", night).Msg("starting day")
		return false
	}
	return true
}

// Register hands a timer or subscription to the session so Cleanup revokes it
func (s *Session) Register(h Handle) Handle {
	return s.timers.Register(h)
}

// Cleanup revokes every timer and subscription the session owns. Callbacks
// that fire afterwards do nothing. Safe to call more than once.
func (s *Session) Cleanup() {
	if s.Closed() {
		return
	}
	s.timers.Cleanup()
	s.phaseTimer = nil
	s.logger.Debug().Msg("session cleaned up")
}

// Winners returns the game-ending winners followed by individual side wins
func (s *Session) Winners() []models.Winner {
	out := make([]models.Winner, 0, len(s.winners)+len(s.sideWinners))
	out = append(out, s.winners...)
	return append(out, s.sideWinners...)
}

// Player returns a copy of the player with the given id
func (s *Session) Player(id string) (models.Player, bool) {
	p, ok := s.players[id]
	if !ok {
		return models.Player{}, false
	}
	return *p, true
}

// Players returns copies of every player in seating order
func (s *Session) Players() []models.Player {
	out := make([]models.Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.players[id])
	}
	return out
}

// Snapshot returns the public state of the session. Roles are only included
// once revealed.
func (s *Session) Snapshot() models.Snapshot {
	snap := models.Snapshot{
		RoomID:          s.roomID,
		HostID:          s.hostID,
		Phase:           s.phase,
		Day:             s.day,
		MayorRevealed:   s.mayorRevealed,
		Players:         make([]models.PlayerState, 0, len(s.order)),
		Tally:           s.Tally(),
		LastElimination: s.lastElimination,
		LastNight:       s.lastNight.Public(),
	}
	if s.mayorRevealed {
		snap.MayorID = s.mayorID
	}
	ended := s.phase == models.PhaseEnded
	for _, id := range s.order {
		p := s.players[id]
		state := models.PlayerState{
			ID:         p.ID,
			Name:       p.Name,
			Alive:      p.Alive,
			VoteTarget: s.votes[id],
			Skipped:    s.skips[id],
			IsHost:     id == s.hostID,
		}
		if ended || !p.Alive || (s.mayorRevealed && id == s.mayorID) {
			state.Role = p.Role.Kind
		}
		snap.Players = append(snap.Players, state)
	}
	if ended {
		snap.Winners = s.Winners()
		snap.Roles = make(map[string]models.Role, len(s.players))
		for id, p := range s.players {
			snap.Roles[id] = p.Role
		}
	}
	return snap
}

// Record summarizes a finished game for archiving
func (s *Session) Record() models.GameRecord {
	rec := models.GameRecord{
		RoomID:  s.roomID,
		HostID:  s.hostID,
		Days:    s.day,
		Winners: s.Winners(),
		Roles:   make(map[string]models.Role, len(s.players)),
		Names:   make(map[string]string, len(s.players)),
		EndedAt: s.endedAt,
	}
	for id, p := range s.players {
		rec.Roles[id] = p.Role
		rec.Names[id] = p.Name
	}
	return rec
}

func (s *Session) requirePhase(phase models.Phase) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	if s.phase != phase {
		return fmt.Errorf("%w: %s, want %s", ErrState, s.phase, phase)
	}
	return nil
}

func (s *Session) requireMafiaAction(actorID string) error {
	if err := s.requirePhase(models.PhaseNight); err != nil {
		return err
	}
	if s.resolvedNight == s.day {
		return fmt.Errorf("%w: night %d already resolved", ErrState, s.day)
	}
	actor, ok := s.players[actorID]
	if !ok {
		return fmt.Errorf("%w: player %s", ErrNotFound, actorID)
	}
	if !actor.Alive || !actor.IsMafia() {
		return fmt.Errorf("%w: only the living mafia acts at night", ErrPermission)
	}
	return nil
}

func (s *Session) dayOpen() bool {
	return !s.Closed() && s.phase == models.PhaseDay && s.resolvedDay != s.day
}

func (s *Session) aliveMember(id string) bool {
	p, ok := s.players[id]
	return ok && p.Alive
}

func (s *Session) aliveSet() map[string]bool {
	alive := make(map[string]bool, len(s.players))
	for id, p := range s.players {
		if p.Alive {
			alive[id] = true
		}
	}
	return alive
}

func (s *Session) ballot() Ballot {
	return Ballot{
		Votes:         s.votes,
		Skips:         s.skips,
		MayorID:       s.mayorID,
		MayorRevealed: s.mayorRevealed,
		Multiplier:    s.settings.MayorMultiplier,
	}
}

func (s *Session) livingMafia() *models.Player {
	for _, id := range s.order {
		if p := s.players[id]; p.Alive && p.IsMafia() {
			return p
		}
	}
	return nil
}

// voteSideWins returns the individual wins triggered by voting out victim
func (s *Session) voteSideWins(victim *models.Player) []models.Winner {
	var wins []models.Winner
	for _, id := range s.order {
		p := s.players[id]
		if p.Alive && p.Role.Kind == models.RoleExecutioner && p.Role.Target == victim.ID {
			wins = append(wins, models.Winner{
				Type:     models.WinnerExecutioner,
				PlayerID: p.ID,
				Reason:   fmt.Sprintf("Target %s was voted out", victim.Name),
			})
		}
	}
	if victim.Role.Kind == models.RoleJester {
		wins = append(wins, models.Winner{
			Type:     models.WinnerJester,
			PlayerID: victim.ID,
			Reason:   "Jester was voted out",
		})
	}
	return wins
}

// applyConversions turns Executioners whose win became unreachable into
// Jesters. The original target is kept on the role.
func (s *Session) applyConversions(death Death) []models.Conversion {
	var out []models.Conversion
	for _, id := range s.order {
		p := s.players[id]
		if p.Role.Kind != models.RoleExecutioner || !s.convert(death, p) {
			continue
		}
		p.Role.Kind = models.RoleJester
		out = append(out, models.Conversion{PlayerID: p.ID, From: models.RoleExecutioner, To: models.RoleJester})
		s.logger.Info().Str("player", p.ID).Msg("executioner became jester")
	}
	return out
}

// evaluate runs the win check and ends the game on a terminal result
func (s *Session) evaluate() []models.Winner {
	players := make([]*models.Player, 0, len(s.order))
	for _, id := range s.order {
		players = append(players, s.players[id])
	}
	winners := s.evaluator.Evaluate(players)
	if len(winners) == 0 {
		return nil
	}
	s.end(winners)
	return s.Winners()
}

func (s *Session) end(winners []models.Winner) {
	s.winners = winners
	s.phase = models.PhaseEnded
	s.endedAt = time.Now()
	s.stopPhaseTimer()
	s.logger.Info().Interface("winners", winners).Int("day", s.day).Msg("game over")
	if s.onRetire != nil {
		s.timers.Schedule(s.settings.EndCleanupDelay, func() { s.onRetire(s) })
	}
}

func (s *Session) changed(moved bool) {
	if moved && s.onChange != nil {
		s.onChange(s)
	}
}

func (s *Session) armPhaseTimer(d time.Duration, fn func()) {
	s.stopPhaseTimer()
	if d <= 0 {
		return
	}
	s.phaseTimer = s.timers.Schedule(d, fn)
}

func (s *Session) stopPhaseTimer() {
	if s.phaseTimer != nil {
		s.phaseTimer.Stop()
		s.phaseTimer = nil
	}
}
