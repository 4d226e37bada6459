package core

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ai-on-hyperpod/site/pkg/protocol"
)

// Common socket errors.
var (
	ErrSocketClosed   = errors.New("socket is closed")
	ErrSocketNotFound = errors.New("socket not found")
	ErrSendFailed     = errors.New("failed to send message")
	ErrInfoQueueFull  = errors.New("info queue full")
)

// DefaultInfoQueueSize is how many info messages may wait for the event
// loop before SendInfo starts refusing them.
const DefaultInfoQueueSize = 16

// Socket represents a live connection to a client.
// It provides methods for sending messages and managing connection state.
type Socket struct {
	// Unique identifier for this socket
	id string

	// Connection state
	connected   bool
	connectedAt time.Time

	// lastActivity as atomic int64 (Unix nanoseconds) to avoid race conditions
	lastActivity atomic.Int64

	// Transport layer
	transport Transport

	// info carries messages from background goroutines to the event loop.
	// It is closed by Close, under mu, so SendInfo never races a send
	// against the close.
	info chan any

	// Metadata
	metadata map[string]any

	mu sync.RWMutex
}

// Transport is the interface for underlying connection transports.
type Transport interface {
	Send(msg protocol.Message) error
	Close() error
	IsConnected() bool
}

// NewSocket creates a new socket with the given ID and transport.
func NewSocket(id string, transport Transport) *Socket {
	now := time.Now()
	s := &Socket{
		id:          id,
		connected:   true,
		connectedAt: now,
		metadata:    make(map[string]any),
		transport:   transport,
		info:        make(chan any, DefaultInfoQueueSize),
	}
	s.lastActivity.Store(now.UnixNano())
	return s
}

// ID returns the socket's unique identifier.
func (s *Socket) ID() string {
	return s.id
}

// Topic returns the channel topic messages for this socket are sent on.
func (s *Socket) Topic() string {
	return "lv:" + s.id
}

// IsConnected returns true if the socket is connected.
func (s *Socket) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected && s.transport != nil && s.transport.IsConnected()
}

// ConnectedAt returns when the socket connected.
func (s *Socket) ConnectedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectedAt
}

// LastActivity returns the time of last activity.
func (s *Socket) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

// UpdateActivity updates the last activity timestamp.
func (s *Socket) UpdateActivity() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Send sends a message to the client.
func (s *Socket) Send(msg protocol.Message) error {
	s.mu.RLock()
	connected := s.connected
	transport := s.transport
	s.mu.RUnlock()

	if !connected || transport == nil {
		return ErrSocketClosed
	}
	if !transport.IsConnected() {
		return ErrSocketClosed
	}

	s.lastActivity.Store(time.Now().UnixNano())

	if err := transport.Send(msg); err != nil {
		s.mu.RLock()
		stillConnected := s.connected
		s.mu.RUnlock()
		if !stillConnected {
			return ErrSocketClosed
		}
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	return nil
}

// Push sends an event to the client.
func (s *Socket) Push(event string, payload map[string]any) error {
	return s.Send(protocol.NewMessage(s.Topic(), event, payload))
}

// SendInfo queues msg for the component's HandleInfo. It never blocks:
// a closed socket yields ErrSocketClosed and a full queue ErrInfoQueueFull.
// Safe to call from any goroutine.
func (s *Socket) SendInfo(msg any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return ErrSocketClosed
	}

	select {
	case s.info <- msg:
		return nil
	default:
		return ErrInfoQueueFull
	}
}

// Info returns the queue drained by the event loop. It is closed when
// the socket closes.
func (s *Socket) Info() <-chan any {
	return s.info
}

// DiffPayload is the optimized diff format sent to clients.
// Supports text slots (s), HTML slots (h), and full render (f).
type DiffPayload struct {
	Version   uint64            `json:"v"`           // Version for ordering
	Slots     map[string]string `json:"s,omitempty"` // Text-only slots (fast path)
	HTMLSlots map[string]string `json:"h,omitempty"` // HTML slots (innerHTML)
	Full      string            `json:"f,omitempty"` // Full render (fallback)
}

// IsEmpty returns true if the payload has no changes.
func (d *DiffPayload) IsEmpty() bool {
	return len(d.Slots) == 0 &&
		len(d.HTMLSlots) == 0 &&
		d.Full == ""
}

// Size returns the total size of the payload in bytes.
func (d *DiffPayload) Size() int {
	size := len(d.Full)
	for _, content := range d.Slots {
		size += len(content)
	}
	for _, content := range d.HTMLSlots {
		size += len(content)
	}
	return size
}

// SendOptimizedDiff sends an optimized diff payload to the client.
func (s *Socket) SendOptimizedDiff(payload *DiffPayload) error {
	if payload == nil || payload.IsEmpty() {
		return nil
	}

	body := map[string]any{"v": payload.Version}
	if len(payload.Slots) > 0 {
		body["s"] = payload.Slots
	}
	if len(payload.HTMLSlots) > 0 {
		body["h"] = payload.HTMLSlots
	}
	if payload.Full != "" {
		body["f"] = payload.Full
	}
	return s.Push(protocol.EventDiff, body)
}

// GetMetadata retrieves metadata by key.
func (s *Socket) GetMetadata(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata[key]
}

// SetMetadata stores metadata.
func (s *Socket) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[key] = value
}

// Close closes the socket connection. Safe to call more than once.
func (s *Socket) Close() error {
	return s.close(false)
}

// Abort closes the socket without waiting for the client to acknowledge,
// when the transport supports it. Used on shutdown, where a peer that
// never answers must not hold the session open.
func (s *Socket) Abort() error {
	return s.close(true)
}

// abortTransport is implemented by transports that can drop the
// connection without a close handshake.
type abortTransport interface {
	CloseNow() error
}

func (s *Socket) close(now bool) error {
	s.mu.Lock()
	wasConnected := s.connected
	s.connected = false
	if wasConnected {
		close(s.info)
	}
	transport := s.transport
	s.mu.Unlock()

	if !wasConnected || transport == nil {
		return nil
	}
	if at, ok := transport.(abortTransport); ok && now {
		return at.CloseNow()
	}
	return transport.Close()
}

// SocketManager manages all active sockets.
type SocketManager struct {
	sockets map[string]*Socket
	mu      sync.RWMutex
}

// NewSocketManager creates a new socket manager.
func NewSocketManager() *SocketManager {
	return &SocketManager{
		sockets: make(map[string]*Socket),
	}
}

// Add registers a socket.
func (sm *SocketManager) Add(socket *Socket) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sockets[socket.ID()] = socket
}

// Remove unregisters a socket.
func (sm *SocketManager) Remove(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sockets, id)
}

// Get retrieves a socket by ID.
func (sm *SocketManager) Get(id string) (*Socket, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sockets[id]
	return s, ok
}

// Count returns the number of active sockets.
func (sm *SocketManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sockets)
}

// All returns all sockets.
func (sm *SocketManager) All() []*Socket {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	result := make([]*Socket, 0, len(sm.sockets))
	for _, s := range sm.sockets {
		result = append(result, s)
	}
	return result
}

// CloseAll closes every registered socket and forgets it.
func (sm *SocketManager) CloseAll() int {
	sm.mu.Lock()
	sockets := sm.sockets
	sm.sockets = make(map[string]*Socket)
	sm.mu.Unlock()

	for _, s := range sockets {
		s.Close()
	}
	return len(sockets)
}
