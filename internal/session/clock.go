package session

import (
	"sync"
	"time"

	"chesslink/internal/rules"
)

// Clock is the per-session turn timer. Arming replaces any pending
// countdown; expiry invokes ForceSkip for the side that was on the clock.
// Disarm is required on every transition into the finished state and on
// destruction so a stale timer can never fire against a dead session;
// ForceSkip's own turn/status guard is the backstop, not the mechanism.
type Clock struct {
	mu      sync.Mutex
	session *Session
	timer   *time.Timer
}

func newClock(s *Session) *Clock {
	return &Clock{session: s}
}

// Arm starts (or restarts) the countdown for the given side.
func (c *Clock) Arm(side rules.Side, budget time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(budget, func() {
		c.session.ForceSkip(side)
	})
}

// Disarm cancels any pending countdown.
func (c *Clock) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
