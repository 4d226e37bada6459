// Package core provides the fundamental abstractions for live components:
// the component lifecycle, the socket a component talks through, and the
// context values handed to each callback.
package core

import (
	"context"
	"io"
)

// Component is the interface that all live components must implement.
// Components are stateful server-side entities that handle user interactions
// and render HTML updates efficiently through WebSocket connections.
//
// All callbacks for one component instance run on a single goroutine, so
// implementations need no locking of their own state.
type Component interface {
	// Name returns the unique identifier for this component type.
	Name() string

	// Mount is called when the component is first connected.
	// It receives the connection parameters and session data.
	Mount(ctx context.Context, params Params, session Session) error

	// Render returns the current HTML representation of the component.
	// This is called after Mount and after each event that modifies state.
	Render(ctx context.Context) Renderer

	// HandleEvent processes user interactions (clicks, form submissions, etc.).
	// The event string identifies the action, and payload contains event data.
	HandleEvent(ctx context.Context, event string, payload map[string]any) error

	// HandleInfo processes internal messages sent to the component
	// through Socket.SendInfo, typically timer ticks.
	HandleInfo(ctx context.Context, msg any) error

	// Terminate is called when the component is being destroyed.
	// Use this for cleanup operations.
	Terminate(ctx context.Context, reason TerminateReason) error
}

// Renderer is the interface for rendering HTML content.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// RendererFunc is an adapter to allow ordinary functions to be used as Renderers.
type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// Params contains URL parameters and query strings from the connection.
type Params map[string]string

// Get returns a parameter value or empty string if not found.
func (p Params) Get(key string) string {
	return p[key]
}

// Session contains user session data passed from the HTTP handler.
type Session map[string]any

// TerminateReason indicates why a component is being terminated.
type TerminateReason int

const (
	// TerminateNormal indicates clean disconnection.
	TerminateNormal TerminateReason = iota
	// TerminateShutdown indicates server shutdown.
	TerminateShutdown
	// TerminateError indicates termination due to an error.
	TerminateError
	// TerminateTimeout indicates termination due to inactivity.
	TerminateTimeout
)

func (r TerminateReason) String() string {
	switch r {
	case TerminateNormal:
		return "normal"
	case TerminateShutdown:
		return "shutdown"
	case TerminateError:
		return "error"
	case TerminateTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// SocketAware is implemented by components that want the socket they are
// mounted on. The router calls SetSocket before Mount on live
// connections only; static renders never see a socket.
type SocketAware interface {
	SetSocket(s *Socket)
}

// BaseComponent provides default implementations for Component methods.
// Embed this in your components to avoid implementing unused methods.
type BaseComponent struct {
	socket *Socket
}

// SetSocket sets the socket for the component (called by the framework).
func (bc *BaseComponent) SetSocket(s *Socket) {
	bc.socket = s
}

// Socket returns the component's socket connection, or nil during a
// static render.
func (bc *BaseComponent) Socket() *Socket {
	return bc.socket
}

// Name returns an empty string (override in your component).
func (bc *BaseComponent) Name() string {
	return ""
}

// Mount does nothing by default.
func (bc *BaseComponent) Mount(ctx context.Context, params Params, session Session) error {
	return nil
}

// HandleEvent does nothing by default.
func (bc *BaseComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	return nil
}

// HandleInfo does nothing by default.
func (bc *BaseComponent) HandleInfo(ctx context.Context, msg any) error {
	return nil
}

// Terminate does nothing by default.
func (bc *BaseComponent) Terminate(ctx context.Context, reason TerminateReason) error {
	return nil
}
