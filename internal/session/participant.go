package session

import "sync"

// Role is what a participant does in a session.
type Role string

const (
	RoleWhite     Role = "w"
	RoleBlack     Role = "b"
	RoleSpectator Role = "spectator"
)

// Participant is one connected client. The Send channel carries encoded
// Messages to the connection's writer goroutine; it is closed exactly once,
// when the participant's session is destroyed.
type Participant struct {
	ID   string
	Send chan []byte

	mu     sync.Mutex
	sess   *Session
	role   Role
	closed bool
}

// NewParticipant creates an unbound participant.
func NewParticipant(id string) *Participant {
	return &Participant{
		ID:   id,
		Send: make(chan []byte, 64),
	}
}

// Session returns the session this participant is bound to, or nil.
func (p *Participant) Session() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess
}

// Role returns the participant's role within its session.
func (p *Participant) Role() Role {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.role
}

func (p *Participant) bind(s *Session, r Role) {
	p.mu.Lock()
	p.sess = s
	p.role = r
	p.mu.Unlock()
}

// Notify queues a message for the connection. Sends never block: the
// message is dropped if the buffer is full or the channel already closed.
func (p *Participant) Notify(msgType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.Send <- Encode(msgType, payload):
	default:
		// drop message if buffer full
	}
}

// close shuts the send channel, ending the connection's writer. Idempotent.
func (p *Participant) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.Send)
}
