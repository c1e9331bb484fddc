package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"chesslink/internal/rules"
)

// Mode says how a session came to exist.
type Mode string

const (
	ModeMatchmade Mode = "matchmade"
	ModeInvite    Mode = "invite"
)

// Status represents the session lifecycle.
type Status string

const (
	StatusWaiting  Status = "waiting"  // invite session, host has not started
	StatusPlaying  Status = "playing"  // moves accepted
	StatusFinished Status = "finished" // terminal, state frozen
)

// Termination reasons carried by the game_over broadcast.
const (
	ReasonCheckmate    = "checkmate"
	ReasonDraw         = "draw"
	ReasonTimeout      = "timeout"
	ReasonOpponentLeft = "opponent_left"
)

// Session is one authoritative match between two seats plus spectators.
// All mutating operations serialize on the session mutex; whichever of a
// racing move, clock expiry, or disconnect acquires it first wins, and the
// loser observes the already-updated state.
type Session struct {
	mu sync.Mutex

	Code string
	Mode Mode

	status     Status
	pos        *rules.Position
	turn       rules.Side
	seats      map[rules.Side]*Participant
	spectators map[string]*Participant
	misses     map[rules.Side]int

	winner rules.Side
	reason string

	clock      *Clock
	mgr        *Manager
	lastActive time.Time
	closed     bool
}

func newSession(mgr *Manager, mode Mode, code string) *Session {
	s := &Session{
		Code:       code,
		Mode:       mode,
		status:     StatusWaiting,
		pos:        rules.NewPosition(),
		turn:       rules.SideWhite,
		seats:      make(map[rules.Side]*Participant),
		spectators: make(map[string]*Participant),
		misses:     make(map[rules.Side]int),
		mgr:        mgr,
		lastActive: time.Now(),
	}
	s.clock = newClock(s)
	return s
}

// Join adds a participant to an invite session. The first joiner takes the
// white seat and becomes host, the second takes black (notifying the host),
// and everyone after that spectates. Once the match has started, joiners
// spectate and immediately receive the current position.
func (s *Session) Join(p *Participant) Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	var role Role
	switch {
	case s.status == StatusWaiting && s.seats[rules.SideWhite] == nil:
		role = RoleWhite
		s.seats[rules.SideWhite] = p
	case s.status == StatusWaiting && s.seats[rules.SideBlack] == nil:
		role = RoleBlack
		s.seats[rules.SideBlack] = p
	default:
		role = RoleSpectator
		s.spectators[p.ID] = p
	}
	p.bind(s, role)
	s.lastActive = time.Now()

	p.Notify("role", RolePayload{Role: role})
	if role == RoleBlack {
		if host := s.seats[rules.SideWhite]; host != nil {
			host.Notify("opponent_joined", nil)
		}
	}
	if role == RoleSpectator && s.status != StatusWaiting {
		p.Notify("position", PositionPayload{FEN: s.pos.FEN(), Turn: s.turn})
	}
	return role
}

// Start begins an invite match. Only the host may start, both seats must be
// occupied, and a session only starts once.
func (s *Session) Start(p *Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.status != StatusWaiting {
		return fmt.Errorf("session %s already started", s.Code)
	}
	if host := s.seats[rules.SideWhite]; host == nil || host.ID != p.ID {
		return fmt.Errorf("only the host can start the game")
	}
	if s.seats[rules.SideBlack] == nil {
		return fmt.Errorf("waiting for an opponent to join")
	}
	s.beginLocked()
	return nil
}

// startMatched seats two freshly paired participants and begins the match
// immediately. Used by the matchmaker, where there is no setup phase.
func (s *Session) startMatched(white, black *Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seats[rules.SideWhite] = white
	s.seats[rules.SideBlack] = black
	white.bind(s, RoleWhite)
	black.bind(s, RoleBlack)

	white.Notify("role", RolePayload{Role: RoleWhite})
	black.Notify("role", RolePayload{Role: RoleBlack})
	s.beginLocked()
}

func (s *Session) beginLocked() {
	s.status = StatusPlaying
	s.lastActive = time.Now()
	s.broadcastLocked("game_ready", nil)
	s.broadcastLocked("position", PositionPayload{FEN: s.pos.FEN(), Turn: s.turn})
	s.clock.Arm(s.turn, s.mgr.cfg.TurnBudget)
}

// SubmitMove applies a move intent from a participant. Out-of-turn and
// illegal moves are answered with a resync of the authoritative position to
// the sender only; nothing is broadcast and no state changes.
func (s *Session) SubmitMove(p *Participant, mv rules.Move) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPlaying || Role(s.turn) != p.Role() {
		s.resyncLocked(p)
		return
	}
	next, err := s.pos.Apply(mv)
	if err != nil {
		s.resyncLocked(p)
		return
	}

	mover := s.turn
	s.pos = next
	s.turn = next.ActiveSide()
	s.misses[mover] = 0
	s.lastActive = time.Now()

	s.broadcastLocked("move_applied", MoveAppliedPayload{
		From: mv.From, To: mv.To, Promotion: mv.Promotion, By: mover,
	})
	s.broadcastLocked("position", PositionPayload{FEN: s.pos.FEN(), Turn: s.turn})

	switch {
	case s.pos.IsCheckmate():
		s.finishLocked(mover, ReasonCheckmate)
	case s.pos.IsDraw():
		s.finishLocked("", ReasonDraw)
	default:
		s.clock.Arm(s.turn, s.mgr.cfg.TurnBudget)
	}
}

// ForceSkip hands the turn to the other side after a clock expiry. A stale
// expiry (session finished, or the turn already moved on) is a no-op. The
// configured number of consecutive misses by one side forfeits the match.
func (s *Session) ForceSkip(side rules.Side) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPlaying || s.turn != side {
		return
	}
	s.misses[side]++
	if s.misses[side] >= s.mgr.cfg.MissLimit {
		s.finishLocked(side.Other(), ReasonTimeout)
		return
	}

	next, err := s.pos.WithActiveSide(side.Other())
	if err != nil {
		// A failed override means the position can't be handed over;
		// forfeit rather than leaving the match without a running clock.
		log.Printf("session %s: active-side override failed: %v", s.Code, err)
		s.finishLocked(side.Other(), ReasonTimeout)
		return
	}
	s.pos = next
	s.turn = side.Other()
	s.lastActive = time.Now()

	s.broadcastLocked("turn_skipped", TurnSkippedPayload{Skipped: side, Next: s.turn})
	s.broadcastLocked("position", PositionPayload{FEN: s.pos.FEN(), Turn: s.turn})
	s.clock.Arm(s.turn, s.mgr.cfg.TurnBudget)
}

// Disconnect removes a participant. A seated player leaving a live match
// with the opponent still seated forfeits to them; the last participant
// leaving tears the session down immediately with no broadcast. Once the
// session is finished, a departure touches nothing but the roster.
func (s *Session) Disconnect(p *Participant) {
	s.mu.Lock()

	role := s.removeLocked(p)
	if s.status == StatusFinished {
		empty := s.emptyLocked()
		s.mu.Unlock()
		p.close()
		if empty {
			s.mgr.Destroy(s.Code)
		}
		return
	}

	if role == RoleWhite || role == RoleBlack {
		if opponent := s.seats[rules.Side(role).Other()]; opponent != nil {
			s.finishLocked(rules.Side(role).Other(), ReasonOpponentLeft)
			s.mu.Unlock()
			p.close()
			return
		}
	}

	empty := s.emptyLocked()
	s.mu.Unlock()
	p.close()
	if empty {
		s.mgr.Destroy(s.Code)
	}
}

// finishLocked is the single transition into the terminal state: it freezes
// the session, disarms the clock, broadcasts game_over once, and schedules
// destruction after the grace delay so the broadcast can land first.
func (s *Session) finishLocked(winner rules.Side, reason string) {
	s.status = StatusFinished
	s.winner = winner
	s.reason = reason
	s.clock.Disarm()
	s.broadcastLocked("game_over", GameOverPayload{Winner: winner, Reason: reason})

	code := s.Code
	mgr := s.mgr
	time.AfterFunc(mgr.cfg.GraceDelay, func() { mgr.Destroy(code) })
}

func (s *Session) removeLocked(p *Participant) Role {
	for side, seat := range s.seats {
		if seat != nil && seat.ID == p.ID {
			delete(s.seats, side)
			return Role(side)
		}
	}
	if _, ok := s.spectators[p.ID]; ok {
		delete(s.spectators, p.ID)
		return RoleSpectator
	}
	return ""
}

func (s *Session) emptyLocked() bool {
	return len(s.seats) == 0 && len(s.spectators) == 0
}

func (s *Session) resyncLocked(p *Participant) {
	p.Notify("position", PositionPayload{FEN: s.pos.FEN(), Turn: s.turn})
}

// broadcastLocked fans a message out to every connection bound to the
// session: both seats and all spectators.
func (s *Session) broadcastLocked(msgType string, payload any) {
	if s.closed {
		return
	}
	for _, seat := range s.seats {
		seat.Notify(msgType, payload)
	}
	for _, sp := range s.spectators {
		sp.Notify(msgType, payload)
	}
}

// close releases the session's resources. Called by the manager on destroy;
// idempotent.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.clock.Disarm()
	for _, seat := range s.seats {
		seat.close()
	}
	for _, sp := range s.spectators {
		sp.close()
	}
}

// Info is a read-only session snapshot for the API.
type Info struct {
	Code       string     `json:"code"`
	Mode       Mode       `json:"mode"`
	Status     Status     `json:"status"`
	Turn       rules.Side `json:"turn"`
	Players    []string   `json:"players"`
	Spectators int        `json:"spectators"`
	HostID     string     `json:"hostId,omitempty"`
	Winner     rules.Side `json:"winner,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		Code:       s.Code,
		Mode:       s.Mode,
		Status:     s.status,
		Turn:       s.turn,
		Spectators: len(s.spectators),
		Winner:     s.winner,
		Reason:     s.reason,
	}
	for _, side := range []rules.Side{rules.SideWhite, rules.SideBlack} {
		if seat := s.seats[side]; seat != nil {
			info.Players = append(info.Players, seat.ID)
		}
	}
	if host := s.seats[rules.SideWhite]; host != nil {
		info.HostID = host.ID
	}
	return info
}

// FEN returns the authoritative serialized position.
func (s *Session) FEN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.FEN()
}

// Turn returns the side to move.
func (s *Session) Turn() rules.Side {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// Misses returns the consecutive timeout count for a side.
func (s *Session) Misses(side rules.Side) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.misses[side]
}

// CurrentStatus returns the lifecycle state.
func (s *Session) CurrentStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Outcome returns the winner ("" while unfinished or on draw) and the
// termination reason.
func (s *Session) Outcome() (rules.Side, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner, s.reason
}

func (s *Session) idle(maxAge time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive) > maxAge
}
