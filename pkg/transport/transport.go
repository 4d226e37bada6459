// Package transport provides the communication layer between the live
// client and the server. WebSocket is the only transport; the interface
// is kept narrow so the router can be tested against an in-memory fake.
package transport

import (
	"errors"
	"sync"
	"time"

	"github.com/ai-on-hyperpod/site/pkg/protocol"
)

// Common transport errors.
var (
	ErrNotConnected     = errors.New("transport not connected")
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendTimeout      = errors.New("send timeout")
	ErrTransportFull    = errors.New("transport buffer full")
)

// Transport is the interface for all transport mechanisms.
type Transport interface {
	// Send queues a message for the client.
	Send(msg protocol.Message) error

	// Receive returns a channel for incoming messages.
	Receive() <-chan protocol.Message

	// CloseChan is closed once the transport is gone, whichever side
	// ended it.
	CloseChan() <-chan struct{}

	// Close terminates the connection.
	Close() error

	// IsConnected returns true if connected.
	IsConnected() bool

	// Type returns the transport type.
	Type() TransportType
}

// TransportType identifies the transport mechanism.
type TransportType string

const (
	TransportWebSocket TransportType = "websocket"
)

// TransportConfig holds common transport configuration.
type TransportConfig struct {
	// ReadTimeout is the maximum time to wait for a read. The client
	// heartbeats well inside this window.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for a write
	WriteTimeout time.Duration

	// PingInterval is how often to send protocol-level pings
	PingInterval time.Duration

	// MaxMessageSize is the maximum message size in bytes
	MaxMessageSize int64

	// SendBufferSize is the size of the send channel buffer
	SendBufferSize int

	// ReceiveBufferSize is the size of the receive channel buffer
	ReceiveBufferSize int
}

// DefaultTransportConfig returns sensible defaults.
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		PingInterval:      30 * time.Second,
		MaxMessageSize:    64 * 1024,
		SendBufferSize:    64,
		ReceiveBufferSize: 64,
	}
}

// BaseTransport provides common functionality for transports.
type BaseTransport struct {
	config    *TransportConfig
	connected bool
	sendCh    chan protocol.Message
	recvCh    chan protocol.Message
	closeCh   chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
}

// NewBaseTransport creates a new base transport.
func NewBaseTransport(config *TransportConfig) *BaseTransport {
	if config == nil {
		config = DefaultTransportConfig()
	}
	return &BaseTransport{
		config:  config,
		sendCh:  make(chan protocol.Message, config.SendBufferSize),
		recvCh:  make(chan protocol.Message, config.ReceiveBufferSize),
		closeCh: make(chan struct{}),
	}
}

// Config returns the transport configuration.
func (t *BaseTransport) Config() *TransportConfig {
	return t.config
}

// IsConnected returns the connection status.
func (t *BaseTransport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// SetConnected updates the connection status.
func (t *BaseTransport) SetConnected(connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = connected
}

// Receive returns the receive channel.
func (t *BaseTransport) Receive() <-chan protocol.Message {
	return t.recvCh
}

// CloseChan returns the close channel.
func (t *BaseTransport) CloseChan() <-chan struct{} {
	return t.closeCh
}

// Close closes the base transport channels.
func (t *BaseTransport) Close() error {
	t.closeOnce.Do(func() {
		t.SetConnected(false)
		close(t.closeCh)
	})
	return nil
}

// PushMessage pushes a message to the receive channel.
func (t *BaseTransport) PushMessage(msg protocol.Message) error {
	select {
	case <-t.closeCh:
		return ErrConnectionClosed
	default:
	}

	select {
	case t.recvCh <- msg:
		return nil
	case <-t.closeCh:
		return ErrConnectionClosed
	default:
		return ErrTransportFull
	}
}
