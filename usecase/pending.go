package usecase

import (
	"sync"

	"github.com/careloop/kiosk/domain/entities"
)

// pendingIntent is a single-slot resolve-once cell representing "the next
// manual button tap or voice result, whichever comes first". Both sources
// race to resolve it; the loser's result is discarded.
type pendingIntent struct {
	once sync.Once
	ch   chan entities.SpeechIntent
}

func newPendingIntent() *pendingIntent {
	return &pendingIntent{ch: make(chan entities.SpeechIntent, 1)}
}

// resolve settles the cell. Returns true if this call won; later calls are
// no-ops and return false.
func (p *pendingIntent) resolve(intent entities.SpeechIntent) bool {
	won := false
	p.once.Do(func() {
		p.ch <- intent
		won = true
	})
	return won
}
