package infrastructure

import (
	"errors"
	"orderchat/internal/usecases"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrSessionNotFound = errors.New("session not found")

// WidgetFactory builds a fresh, not yet greeted widget for an owner
type WidgetFactory func(ownerID string) *usecases.ChatWidget

// UserSession is one open chat widget
type UserSession struct {
	ID         string
	OwnerID    string
	Widget     *usecases.ChatWidget
	lastActive time.Time
	mu         sync.Mutex
	ready      chan struct{}
}

// Touch marks the session as used now
func (us *UserSession) Touch() {
	us.mu.Lock()
	defer us.mu.Unlock()
	us.lastActive = time.Now()
}

func (us *UserSession) idleSince(now time.Time) time.Duration {
	us.mu.Lock()
	defer us.mu.Unlock()
	return now.Sub(us.lastActive)
}

// SessionManager manages widget sessions globally
type SessionManager struct {
	sessions map[string]*UserSession
	mu       sync.RWMutex
	factory  WidgetFactory
	ttl      time.Duration
	log      zerolog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a registry that evicts sessions idle for longer
// than ttl. ttl <= 0 disables eviction.
func NewSessionManager(factory WidgetFactory, ttl time.Duration, log zerolog.Logger) *SessionManager {
	sm := &SessionManager{
		sessions: make(map[string]*UserSession),
		factory:  factory,
		ttl:      ttl,
		log:      log,
		stop:     make(chan struct{}),
	}
	if ttl > 0 {
		go sm.cleanup(cleanupInterval(ttl))
	}
	return sm
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if tick := ttl / 2; tick < time.Minute {
		return tick
	}
	return time.Minute
}

// Create opens a new greeted widget under a random session id. setup runs
// before the greeting so listeners see it.
func (sm *SessionManager) Create(ownerID string, setup func(*usecases.ChatWidget)) *UserSession {
	return sm.GetOrCreate(uuid.NewString(), ownerID, setup)
}

// GetOrCreate returns the session stored under key, creating it when missing.
// The greeting is sent outside the registry lock; callers racing on the same
// key wait for it before the session is handed out.
func (sm *SessionManager) GetOrCreate(key, ownerID string, setup func(*usecases.ChatWidget)) *UserSession {
	if session, ok := sm.lookup(key); ok {
		return session
	}

	widget := sm.factory(ownerID)
	if setup != nil {
		setup(widget)
	}
	fresh := &UserSession{
		ID:         key,
		OwnerID:    ownerID,
		Widget:     widget,
		lastActive: time.Now(),
		ready:      make(chan struct{}),
	}

	sm.mu.Lock()
	session, exists := sm.sessions[key]
	if !exists {
		sm.sessions[key] = fresh
	}
	sm.mu.Unlock()

	if exists {
		widget.Close()
		<-session.ready
		session.Touch()
		return session
	}

	widget.Connect()
	close(fresh.ready)
	sm.log.Debug().Str("session_id", key).Str("owner_id", ownerID).Msg("session opened")
	return fresh
}

// lookup returns a greeted session without holding the lock while waiting
func (sm *SessionManager) lookup(key string) (*UserSession, bool) {
	sm.mu.RLock()
	session, exists := sm.sessions[key]
	sm.mu.RUnlock()
	if !exists {
		return nil, false
	}
	<-session.ready
	session.Touch()
	return session, true
}

// Get returns the session if it exists and belongs to ownerID
func (sm *SessionManager) Get(id, ownerID string) (*UserSession, error) {
	session, exists := sm.lookup(id)
	if !exists || session.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove closes and forgets a session
func (sm *SessionManager) Remove(id, ownerID string) error {
	sm.mu.Lock()
	session, exists := sm.sessions[id]
	if !exists || session.OwnerID != ownerID {
		sm.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(sm.sessions, id)
	sm.mu.Unlock()

	session.Widget.Close()
	return nil
}

// Len returns the number of open sessions
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Close stops eviction and closes every widget
func (sm *SessionManager) Close() {
	sm.stopOnce.Do(func() { close(sm.stop) })

	sm.mu.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[string]*UserSession)
	sm.mu.Unlock()

	for _, s := range sessions {
		s.Widget.Close()
	}
}

// EvictIdle closes sessions idle for longer than the ttl
func (sm *SessionManager) EvictIdle(now time.Time) int {
	var expired []*UserSession

	sm.mu.Lock()
	for id, s := range sm.sessions {
		if s.idleSince(now) > sm.ttl {
			expired = append(expired, s)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, s := range expired {
		s.Widget.Close()
		sm.log.Debug().Str("session_id", s.ID).Msg("session evicted")
	}
	return len(expired)
}

// cleanup removes stale sessions periodically
func (sm *SessionManager) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-sm.stop:
			return
		case now := <-ticker.C:
			sm.EvictIdle(now)
		}
	}
}
