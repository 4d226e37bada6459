package core

import (
	"context"
)

// Context keys for storing values in context.
type contextKey string

const (
	socketKey  contextKey = "site:socket"
	sessionKey contextKey = "site:session"
	paramsKey  contextKey = "site:params"
)

// WithSocket adds a socket to the context.
func WithSocket(ctx context.Context, socket *Socket) context.Context {
	return context.WithValue(ctx, socketKey, socket)
}

// SocketFromContext retrieves the socket from context.
func SocketFromContext(ctx context.Context) *Socket {
	s, _ := ctx.Value(socketKey).(*Socket)
	return s
}

// WithSession adds session data to the context.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext retrieves session from context.
func SessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey).(Session)
	return s
}

// WithParams adds params to the context.
func WithParams(ctx context.Context, params Params) context.Context {
	return context.WithValue(ctx, paramsKey, params)
}

// ParamsFromContext retrieves params from context.
func ParamsFromContext(ctx context.Context) Params {
	p, _ := ctx.Value(paramsKey).(Params)
	return p
}

// BuildContext creates a fully populated context for component callbacks.
// socket may be nil for static renders.
func BuildContext(ctx context.Context, socket *Socket, session Session, params Params) context.Context {
	if socket != nil {
		ctx = WithSocket(ctx, socket)
	}
	ctx = WithSession(ctx, session)
	ctx = WithParams(ctx, params)
	return ctx
}
