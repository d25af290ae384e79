package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ohsdesk/mesa/internal/notify"
	"github.com/ohsdesk/mesa/internal/remote"
)

type engineEntry struct {
	engine     *Engine
	lastAccess time.Time
}

// Manager keeps one Engine per scope, created lazily and expired after
// an idle period so abandoned table sessions do not accumulate.
type Manager struct {
	svc      remote.TaskService
	notifier notify.Sink
	events   Publisher
	log      zerolog.Logger
	idleTTL  time.Duration

	mu      sync.Mutex
	engines map[string]*engineEntry
}

// NewManager creates a Manager and starts its idle-engine cleanup. The
// cleanup goroutine stops when ctx is cancelled.
func NewManager(ctx context.Context, svc remote.TaskService, notifier notify.Sink, events Publisher, idleTTL time.Duration, log zerolog.Logger) *Manager {
	m := &Manager{
		svc:      svc,
		notifier: notifier,
		events:   events,
		log:      log,
		idleTTL:  idleTTL,
		engines:  make(map[string]*engineEntry),
	}

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.evictIdle()
			case <-ctx.Done():
				return
			}
		}
	}()

	return m
}

// Get returns the Engine for a scope, creating it on first use.
func (m *Manager) Get(scope string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.engines[scope]
	if !ok {
		entry = &engineEntry{engine: New(scope, m.svc, m.notifier, m.events, m.log)}
		m.engines[scope] = entry
	}
	entry.lastAccess = time.Now()
	return entry.engine
}

func (m *Manager) evictIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.idleTTL)
	for scope, entry := range m.engines {
		if entry.lastAccess.Before(cutoff) {
			delete(m.engines, scope)
			m.log.Debug().Str("scope", scope).Msg("idle table session evicted")
		}
	}
}
