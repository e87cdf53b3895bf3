// Package connectivity tracks whether the backend is reachable and notifies
// subscribers when the device transitions from offline to online.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/mkorolev/studyplan/internal/client/backend"
	"github.com/mkorolev/studyplan/internal/logging"
)

// Monitor polls the backend health endpoint and keeps the current online
// flag. Safe for concurrent use.
type Monitor struct {
	client   backend.Client
	log      logging.Logger
	interval time.Duration

	mu        sync.RWMutex
	online    bool
	onRecover []func(context.Context)
}

// NewMonitor returns a monitor that starts in the offline state; the first
// Check or watcher tick establishes the real status.
func NewMonitor(client backend.Client, log logging.Logger, interval time.Duration) *Monitor {
	return &Monitor{
		client:   client,
		log:      log,
		interval: interval,
	}
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// OnRecover registers fn to run whenever the state flips from offline to
// online. Callbacks run synchronously inside the transition.
func (m *Monitor) OnRecover(fn func(context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRecover = append(m.onRecover, fn)
}

// MarkOffline records an observed connectivity loss, typically after a
// direct backend call failed transiently between ticks.
func (m *Monitor) MarkOffline(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online {
		m.online = false
		m.log.Info(ctx, "switching to offline mode")
	}
}

// Check pings the backend once, updates the state and returns it. An
// offline-to-online transition fires the registered recovery callbacks.
func (m *Monitor) Check(ctx context.Context) bool {
	reachable := m.client.Ping(ctx) == nil

	m.mu.Lock()
	wasOnline := m.online
	m.online = reachable
	callbacks := m.onRecover
	m.mu.Unlock()

	if reachable && !wasOnline {
		m.log.Info(ctx, "connectivity restored")
		for _, fn := range callbacks {
			fn(ctx)
		}
	}
	if !reachable && wasOnline {
		m.log.Info(ctx, "switching to offline mode")
	}
	return reachable
}

// Start runs the periodic connectivity watcher until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		m.Check(ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
