// Package poller periodically fetches pending device actions from the
// backend and exposes the latest snapshot to the controller.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/careloop/kiosk/domain/entities"
	"github.com/careloop/kiosk/domain/repositories"
)

const defaultInterval = 3 * time.Second

// Poller polls the backend's next-actions endpoint on a fixed interval.
// A failed fetch is logged and publishes an empty snapshot for that cycle;
// the backend redelivers pending actions on every poll, so a failure costs
// at most one interval of latency.
type Poller struct {
	service        repositories.ActionService
	careReceiverID string
	interval       time.Duration
	logger         *zap.Logger

	mu      sync.RWMutex
	actions []entities.DeviceAction

	refresh chan struct{}
	updates chan struct{}
}

// New creates a poller for the given care receiver. A zero interval uses
// the default of 3 seconds.
func New(service repositories.ActionService, careReceiverID string, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		service:        service,
		careReceiverID: careReceiverID,
		interval:       interval,
		logger:         logger,
		refresh:        make(chan struct{}, 1),
		updates:        make(chan struct{}, 1),
	}
}

// Run polls until ctx is cancelled. It fetches once immediately so the
// device does not wait a full interval after boot.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx)
		case <-p.refresh:
			p.fetch(ctx)
		}
	}
}

// Refresh requests an immediate fetch ahead of the next tick, used right
// after an action response is submitted.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Actions returns a copy of the latest snapshot.
func (p *Poller) Actions() []entities.DeviceAction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]entities.DeviceAction, len(p.actions))
	copy(out, p.actions)
	return out
}

// Updates signals when a fetch brought in a non-empty snapshot. The channel
// holds one pending signal at most; consumers drain it and call Actions.
func (p *Poller) Updates() <-chan struct{} {
	return p.updates
}

func (p *Poller) fetch(ctx context.Context) {
	actions, err := p.service.NextActions(ctx, p.careReceiverID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Debug("Next-actions fetch failed", zap.Error(err))
		actions = nil
	}

	p.mu.Lock()
	p.actions = actions
	p.mu.Unlock()

	if len(actions) > 0 {
		select {
		case p.updates <- struct{}{}:
		default:
		}
	}
}
