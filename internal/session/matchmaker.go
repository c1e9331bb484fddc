package session

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Matchmaker pairs anonymous waiting connections into matchmade sessions.
// The queue is strictly FIFO: no ratings, no skill ranges. All queue
// operations hold one mutex so a connection can never be paired twice or
// paired while it is being removed.
type Matchmaker struct {
	mu      sync.Mutex
	waiting []*Participant
	mgr     *Manager
}

// NewMatchmaker creates an empty queue backed by the given registry.
func NewMatchmaker(mgr *Manager) *Matchmaker {
	return &Matchmaker{mgr: mgr}
}

// Enqueue adds a connection to the queue and pairs as many waiting couples
// as possible. The two oldest entries always pair first; the first dequeued
// plays white. Sessions are created, seated, and started before the queue
// lock is released, so a concurrent Remove for either connection observes
// the binding.
func (mm *Matchmaker) Enqueue(p *Participant) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	mm.waiting = append(mm.waiting, p)
	for len(mm.waiting) >= 2 {
		white, black := mm.waiting[0], mm.waiting[1]
		mm.waiting = mm.waiting[2:]

		s := mm.mgr.Create(ModeMatchmade, uuid.NewString())
		s.startMatched(white, black)
		log.Printf("matched %s (w) vs %s (b) in session %s", white.ID, black.ID, s.Code)
	}
}

// Remove drops a still-waiting connection from the queue. It reports
// whether the connection was found; a connection that was already paired is
// no longer here and must be handled through its session instead.
func (mm *Matchmaker) Remove(id string) bool {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	for i, p := range mm.waiting {
		if p.ID == id {
			mm.waiting = append(mm.waiting[:i], mm.waiting[i+1:]...)
			p.close()
			return true
		}
	}
	return false
}

// Waiting returns the current queue length.
func (mm *Matchmaker) Waiting() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.waiting)
}
