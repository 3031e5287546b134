package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager is the process-wide registry of live stores, one per session id.
// Constructed once in main and threaded explicitly; idle stores are evicted
// after their TTL and closed, and Close tears the whole registry down.
type Manager struct {
	gateway  AuthGateway
	profiles ProfileSource
	admin    AdminPair
	logger   *slog.Logger
	metrics  Metrics
	ttl      time.Duration

	mu      sync.Mutex
	entries map[uuid.UUID]*managerEntry
	stop    chan struct{}
	stopped bool
}

type managerEntry struct {
	store    *Store
	lastSeen time.Time
}

func NewManager(gw AuthGateway, profiles ProfileSource, admin AdminPair, ttl time.Duration, logger *slog.Logger, m Metrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	mgr := &Manager{
		gateway:  gw,
		profiles: profiles,
		admin:    admin,
		logger:   logger,
		metrics:  m,
		ttl:      ttl,
		entries:  make(map[uuid.UUID]*managerEntry),
		stop:     make(chan struct{}),
	}
	go mgr.evictLoop()
	return mgr
}

// Create registers a fresh anonymous store under a new session id.
func (m *Manager) Create() *Store {
	id := uuid.New()
	s := NewStore(id, m.gateway, m.profiles, m.admin, m.logger, m.metrics)

	m.mu.Lock()
	m.entries[id] = &managerEntry{store: s, lastSeen: time.Now()}
	m.mu.Unlock()
	return s
}

// Get returns the live store for id, refreshing its eviction clock.
func (m *Manager) Get(id uuid.UUID) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = time.Now()
	return e.store, true
}

// GetOrCreate returns the store for id, registering an anonymous one when
// the id is unknown (server restart, evicted session).
func (m *Manager) GetOrCreate(id uuid.UUID) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.lastSeen = time.Now()
		return e.store
	}
	s := NewStore(id, m.gateway, m.profiles, m.admin, m.logger, m.metrics)
	m.entries[id] = &managerEntry{store: s, lastSeen: time.Now()}
	return s
}

// Remove drops and closes the store for id, if any.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	e, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()
	if ok {
		e.store.Close()
	}
}

// Len reports the number of live stores.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close stops eviction and closes every store.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.stop)
	entries := m.entries
	m.entries = make(map[uuid.UUID]*managerEntry)
	m.mu.Unlock()

	for _, e := range entries {
		e.store.Close()
	}
}

func (m *Manager) evictLoop() {
	interval := m.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.evictIdle(now)
		}
	}
}

func (m *Manager) evictIdle(now time.Time) {
	var expired []*Store

	m.mu.Lock()
	for id, e := range m.entries {
		if now.Sub(e.lastSeen) > m.ttl {
			delete(m.entries, id)
			expired = append(expired, e.store)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		m.logger.Debug("evicted idle sessions", slog.Int("count", len(expired)))
	}
}
