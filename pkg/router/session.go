package router

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ai-on-hyperpod/site/pkg/core"
	"github.com/ai-on-hyperpod/site/pkg/transport"
)

// LiveViewSession binds one WebSocket connection to one component instance.
type LiveViewSession struct {
	// ID uniquely identifies the session
	ID string

	// SocketID is the ID of the associated socket
	SocketID string

	// Component is the live component instance
	Component core.Component

	// Socket is the component's view of the connection
	Socket *core.Socket

	// Transport is the underlying transport
	Transport transport.Transport

	// Params are the URL parameters
	Params core.Params

	// Session holds request-derived data
	Session core.Session

	// Topic is the channel topic
	Topic string

	// CreatedAt is when the session was created
	CreatedAt time.Time

	joinRef      string
	lastActivity time.Time
	mounted      bool
	version      uint64

	// Slot hashes from the last render sent to the client. Only the
	// event loop touches these.
	slotHashes map[string]uint64
	fullHash   uint64

	// release returns the connection limiter slot, if any.
	release func()

	endOnce sync.Once
	mu      sync.RWMutex
}

// NewLiveViewSession creates a new live session.
func NewLiveViewSession(socketID string, comp core.Component, params core.Params, session core.Session) *LiveViewSession {
	now := time.Now()
	return &LiveViewSession{
		ID:           uuid.NewString(),
		SocketID:     socketID,
		Component:    comp,
		Params:       params,
		Session:      session,
		Topic:        "lv:" + socketID,
		CreatedAt:    now,
		lastActivity: now,
	}
}

// UpdateActivity records client activity.
func (s *LiveViewSession) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns the last client activity.
func (s *LiveViewSession) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// SetMounted marks the session as mounted.
func (s *LiveViewSession) SetMounted(mounted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = mounted
}

// IsMounted reports whether the component has been mounted.
func (s *LiveViewSession) IsMounted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mounted
}

// SetJoinRef stores the join reference.
func (s *LiveViewSession) SetJoinRef(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinRef = ref
}

// JoinRef returns the join reference.
func (s *LiveViewSession) JoinRef() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinRef
}

func (s *LiveViewSession) nextVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return s.version
}

// LiveViewSessionManager tracks every active live session.
type LiveViewSessionManager struct {
	sessions    map[string]*LiveViewSession
	bySocket    map[string]*LiveViewSession
	maxSessions int
	mu          sync.RWMutex
}

// NewLiveViewSessionManager creates a manager. maxSessions <= 0 means
// no limit.
func NewLiveViewSessionManager(maxSessions int) *LiveViewSessionManager {
	return &LiveViewSessionManager{
		sessions:    make(map[string]*LiveViewSession),
		bySocket:    make(map[string]*LiveViewSession),
		maxSessions: maxSessions,
	}
}

// Create registers a new session, or returns ErrTooManySessions.
func (m *LiveViewSessionManager) Create(socketID string, comp core.Component, params core.Params, session core.Session) (*LiveViewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySessions
	}

	lvSession := NewLiveViewSession(socketID, comp, params, session)
	m.sessions[lvSession.ID] = lvSession
	m.bySocket[socketID] = lvSession

	return lvSession, nil
}

// Get returns a session by ID.
func (m *LiveViewSessionManager) Get(sessionID string) (*LiveViewSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// GetBySocket returns a session by socket ID.
func (m *LiveViewSessionManager) GetBySocket(socketID string) (*LiveViewSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.bySocket[socketID]
	return s, ok
}

// Remove forgets a session.
func (m *LiveViewSessionManager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		delete(m.bySocket, s.SocketID)
		delete(m.sessions, sessionID)
	}
}

// Count returns the number of active sessions.
func (m *LiveViewSessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// All returns every active session.
func (m *LiveViewSessionManager) All() []*LiveViewSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*LiveViewSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	return result
}
