package services

import (
	"context"
	"sync"
	"time"

	"github.com/pinsync/client/internal/observability"
	"github.com/pinsync/client/internal/repository"
)

// ConnectivityMonitor probes the remote stores on an interval and fires the
// restored callback on the offline-to-online edge. Flushes are edge-triggered
// only: staying online does not re-fire them, and staying offline does
// nothing but wait for the next probe.
type ConnectivityMonitor struct {
	stores     []repository.RecordStore
	interval   time.Duration
	onRestored func(ctx context.Context)
	hub        *EventHub

	mu     sync.Mutex
	online bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewConnectivityMonitor creates a monitor over the given stores. The monitor
// reports online only when every store answers its ping; a partially
// reachable deployment still needs the retry queue for the unreachable side.
func NewConnectivityMonitor(stores []repository.RecordStore, interval time.Duration, onRestored func(ctx context.Context), hub *EventHub) *ConnectivityMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &ConnectivityMonitor{
		stores:     stores,
		interval:   interval,
		onRestored: onRestored,
		hub:        hub,
		online:     true,
		stop:       make(chan struct{}),
	}
}

// Start runs the probe loop until Stop is called or ctx is cancelled.
func (m *ConnectivityMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.probe(ctx)
			}
		}
	}()
}

// Stop terminates the probe loop.
func (m *ConnectivityMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Online reports the last observed reachability.
func (m *ConnectivityMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *ConnectivityMonitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	online := true
	for _, store := range m.stores {
		if err := store.Ping(probeCtx); err != nil {
			online = false
			break
		}
	}

	m.mu.Lock()
	restored := online && !m.online
	lost := !online && m.online
	m.online = online
	m.mu.Unlock()

	switch {
	case restored:
		observability.Info("Connectivity restored")
		m.hub.ConnectivityChanged(true)
		if m.onRestored != nil {
			m.onRestored(ctx)
		}
	case lost:
		observability.Warn("Connectivity lost")
		m.hub.ConnectivityChanged(false)
	}
}
