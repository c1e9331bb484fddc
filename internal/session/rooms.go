package session

// Rooms is the invite-code entry point: joining a code creates the room on
// first use, and the match starts only when the host says so. Unlike the
// matchmaker, which starts matches the moment a pair exists, an invite host
// needs time to share the code before the clock begins.
type Rooms struct {
	mgr *Manager
}

// NewRooms creates the room front over the registry.
func NewRooms(mgr *Manager) *Rooms {
	return &Rooms{mgr: mgr}
}

// Join binds a connection to the room for code, creating the room if it
// does not exist yet, and returns the assigned role.
func (r *Rooms) Join(code string, p *Participant) Role {
	return r.mgr.Room(code).Join(p)
}
