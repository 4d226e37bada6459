// Package router serves live components over HTTP. A plain GET renders the
// component once; a WebSocket upgrade on the same path mounts a fresh
// instance and drives it from a per-connection event loop.
package router

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ai-on-hyperpod/site/pkg/core"
	"github.com/ai-on-hyperpod/site/pkg/limits"
	"github.com/ai-on-hyperpod/site/pkg/logging"
	"github.com/ai-on-hyperpod/site/pkg/metrics"
	"github.com/ai-on-hyperpod/site/pkg/pool"
	"github.com/ai-on-hyperpod/site/pkg/protocol"
	"github.com/ai-on-hyperpod/site/pkg/transport"
)

// Common router errors.
var (
	ErrNilRenderer     = errors.New("component returned nil renderer")
	ErrNotJoined       = errors.New("event before join")
	ErrTooManySessions = errors.New("too many live sessions")
	ErrShuttingDown    = errors.New("router is shutting down")
	ErrComponentPanic  = errors.New("component panicked")
)

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// ErrorHandler handles errors during request processing.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// LiveRoute defines a route that renders a live component.
type LiveRoute struct {
	// Path is the URL path pattern.
	Path string

	// Component is the factory function for creating the component.
	Component func() core.Component

	// Meta contains route metadata.
	Meta map[string]any
}

// RouteOption configures a LiveRoute.
type RouteOption func(*LiveRoute)

// WithMeta adds metadata to the route.
func WithMeta(key string, value any) RouteOption {
	return func(r *LiveRoute) {
		r.Meta[key] = value
	}
}

// Router handles HTTP routing for live components.
type Router struct {
	mux          chi.Router
	liveRoutes   map[string]*LiveRoute
	errorHandler ErrorHandler

	sessionManager *LiveViewSessionManager
	socketManager  *core.SocketManager

	transportConfig *transport.TransportConfig
	wsConfig        *transport.WebSocketConfig
	timeouts        core.TimeoutConfig
	logger          logging.Logger
	limiter         *limits.ConnectionLimiter
	metrics         *metrics.Metrics

	// baseCtx outlives every request; its cancellation ends all loops.
	baseCtx  context.Context
	cancel   context.CancelFunc
	loops    sync.WaitGroup
	shutdown bool

	mu sync.RWMutex
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router's logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithWebSocketConfig sets origin checking for live connections.
func WithWebSocketConfig(cfg *transport.WebSocketConfig) Option {
	return func(r *Router) {
		r.wsConfig = cfg
	}
}

// WithTransportConfig sets transport timeouts and buffer sizes.
func WithTransportConfig(cfg *transport.TransportConfig) Option {
	return func(r *Router) {
		r.transportConfig = cfg
	}
}

// WithTimeouts sets component callback timeouts.
func WithTimeouts(t core.TimeoutConfig) Option {
	return func(r *Router) {
		r.timeouts = t
	}
}

// WithConnectionLimiter caps live connections per client address.
func WithConnectionLimiter(l *limits.ConnectionLimiter) Option {
	return func(r *Router) {
		r.limiter = l
	}
}

// WithMetrics records session and render metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithMaxSessions caps concurrent live sessions. Zero means no cap.
func WithMaxSessions(n int) Option {
	return func(r *Router) {
		r.sessionManager = NewLiveViewSessionManager(n)
	}
}

// New creates a new router.
func New(opts ...Option) *Router {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		mux:             chi.NewRouter(),
		liveRoutes:      make(map[string]*LiveRoute),
		sessionManager:  NewLiveViewSessionManager(0),
		socketManager:   core.NewSocketManager(),
		transportConfig: transport.DefaultTransportConfig(),
		wsConfig:        transport.DefaultWebSocketConfig(),
		timeouts:        core.DefaultTimeoutConfig(),
		logger:          logging.NopLogger{},
		baseCtx:         ctx,
		cancel:          cancel,
		errorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware to the router. Like chi, all middleware must be
// added before the first route.
func (r *Router) Use(mw ...Middleware) {
	for _, m := range mw {
		r.mux.Use(m)
	}
}

// SetErrorHandler sets the error handler.
func (r *Router) SetErrorHandler(handler ErrorHandler) {
	r.errorHandler = handler
}

// SetNotFoundHandler sets the 404 handler.
func (r *Router) SetNotFoundHandler(handler http.HandlerFunc) {
	r.mux.NotFound(handler)
}

// SessionManager returns the session manager.
func (r *Router) SessionManager() *LiveViewSessionManager {
	return r.sessionManager
}

// SocketManager returns the socket manager.
func (r *Router) SocketManager() *core.SocketManager {
	return r.socketManager
}

// Live registers a live component route.
func (r *Router) Live(path string, component func() core.Component, opts ...RouteOption) {
	route := &LiveRoute{
		Path:      path,
		Component: component,
		Meta:      make(map[string]any),
	}
	for _, opt := range opts {
		opt(route)
	}

	r.mu.Lock()
	r.liveRoutes[path] = route
	r.mu.Unlock()

	r.mux.Get(path, r.handleLive(route))
}

// Handle registers a standard HTTP handler.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

// HandleFunc registers a standard HTTP handler function.
func (r *Router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}

// Get registers a GET handler.
func (r *Router) Get(pattern string, handler http.HandlerFunc) {
	r.mux.Get(pattern, handler)
}

// Static serves files from fsys under prefix, which must end in "/".
func (r *Router) Static(prefix string, fsys http.FileSystem) {
	r.mux.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(fsys)))
}

// ServeHTTP implements http.Handler. When mounted inside another chi
// router, routing continues from the parent's remaining path.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Shutdown stops accepting live connections, ends every event loop with
// TerminateShutdown and waits for them, or for ctx.
func (r *Router) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()

	r.cancel()

	done := make(chan struct{})
	go func() {
		r.loops.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleLive creates the HTTP handler for a live route.
func (r *Router) handleLive(route *LiveRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if isWebSocketRequest(req) {
			r.handleWebSocket(w, req, route)
			return
		}
		r.renderLive(w, req, route)
	}
}

// renderLive renders a component once for a plain HTTP request. No socket
// is attached, so the component runs no background work.
func (r *Router) renderLive(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	component := route.Component()
	params := extractParams(req)
	session := r.extractSession(req)
	ctx := core.BuildContext(req.Context(), nil, session, params)

	mountCtx, cancel := context.WithTimeout(ctx, r.timeouts.ComponentMount)
	err := r.safeCall(func() error { return component.Mount(mountCtx, params, session) })
	cancel()
	if err != nil {
		r.logger.Error("mount failed", logging.String("route", route.Path), logging.Err(err))
		r.errorHandler(w, req, err)
		return
	}
	defer component.Terminate(ctx, core.TerminateNormal)

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := r.render(ctx, component, buf); err != nil {
		r.logger.Error("render failed", logging.String("route", route.Path), logging.Err(err))
		r.errorHandler(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleWebSocket upgrades the request and starts the event loop for a
// fresh component instance.
func (r *Router) handleWebSocket(w http.ResponseWriter, req *http.Request, route *LiveRoute) {
	codec, err := protocol.CodecFor(req.URL.Query().Get("vsn"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Hold the lock across the check and loops.Add so Shutdown never
	// waits on a group that is still growing.
	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		http.Error(w, ErrShuttingDown.Error(), http.StatusServiceUnavailable)
		return
	}
	r.loops.Add(1)
	r.mu.Unlock()

	release := func() {}
	if r.limiter != nil {
		rel, err := r.limiter.Acquire(limits.ClientIP(req))
		if err != nil {
			r.loops.Done()
			r.logger.Warn("live connection refused",
				logging.String("remote_addr", req.RemoteAddr),
				logging.Err(err),
			)
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		}
		release = rel
	}

	started := false
	defer func() {
		if !started {
			release()
			r.loops.Done()
		}
	}()

	ws := transport.NewWebSocketTransport(r.transportConfig, r.wsConfig, codec)
	if sl, ok := r.logger.(*logging.SlogLogger); ok {
		ws.SetLogger(sl.Slog())
	}
	if err := ws.Upgrade(w, req); err != nil {
		r.logger.Warn("websocket upgrade failed",
			logging.String("origin", req.Header.Get("Origin")),
			logging.Err(err),
		)
		return
	}

	socketID := uuid.NewString()
	socket := core.NewSocket(socketID, ws)
	component := route.Component()
	if sa, ok := component.(core.SocketAware); ok {
		sa.SetSocket(socket)
	}

	lvSession, err := r.sessionManager.Create(socketID, component, extractParams(req), r.extractSession(req))
	if err != nil {
		r.logger.Warn("rejecting live session", logging.Err(err))
		socket.Close()
		return
	}
	lvSession.Transport = ws
	lvSession.Socket = socket
	lvSession.release = release
	r.socketManager.Add(socket)
	r.metrics.SessionStarted()

	r.logger.Debug("live session started",
		logging.String("socket_id", socketID),
		logging.String("codec", codec.Name()),
	)

	started = true
	go r.messageLoop(r.baseCtx, lvSession)
}

// messageLoop is the single goroutine that calls into the component.
// Client events and info messages are both handled here, so component
// state needs no locking.
func (r *Router) messageLoop(ctx context.Context, session *LiveViewSession) {
	reason := core.TerminateNormal
	defer r.loops.Done()
	defer func() { r.endSession(session, reason) }()

	ctx = core.BuildContext(ctx, session.Socket, session.Session, session.Params)
	recvCh := session.Transport.Receive()
	closeCh := session.Transport.CloseChan()
	infoCh := session.Socket.Info()

	for {
		select {
		case msg := <-recvCh:
			session.UpdateActivity()
			session.Socket.UpdateActivity()

			switch msg.Event {
			case protocol.EventHeartbeat:
				r.sendReply(session, msg, nil)

			case protocol.EventJoin:
				r.handleJoin(ctx, session, msg)

			case protocol.EventLeave:
				r.sendReply(session, msg, nil)
				return

			default:
				if !session.IsMounted() {
					r.sendError(session, msg, ErrNotJoined)
					continue
				}
				if err := r.dispatchEvent(ctx, session, msg); err != nil {
					r.logger.Debug("event rejected",
						logging.String("socket_id", session.SocketID),
						logging.String("event", msg.Event),
						logging.Err(err),
					)
					r.sendError(session, msg, err)
					continue
				}
				r.renderAndSendDiff(ctx, session)
				r.sendReply(session, msg, nil)
			}

		case info, ok := <-infoCh:
			if !ok {
				return
			}
			if err := r.dispatchInfo(ctx, session, info); err != nil {
				r.logger.Warn("info handler failed",
					logging.String("socket_id", session.SocketID),
					logging.Err(err),
				)
				continue
			}
			r.renderAndSendDiff(ctx, session)

		case <-closeCh:
			return

		case <-ctx.Done():
			reason = core.TerminateShutdown
			return
		}
	}
}

// handleJoin mounts the component on the first join and replies with the
// current slot contents so the client starts from server state.
func (r *Router) handleJoin(ctx context.Context, session *LiveViewSession, msg protocol.Message) {
	session.SetJoinRef(msg.JoinRef)

	if !session.IsMounted() {
		mountCtx, cancel := context.WithTimeout(ctx, r.timeouts.ComponentMount)
		err := r.safeCall(func() error {
			return session.Component.Mount(mountCtx, session.Params, session.Session)
		})
		cancel()
		if err != nil {
			r.logger.Error("mount failed", logging.String("socket_id", session.SocketID), logging.Err(err))
			r.sendError(session, msg, err)
			return
		}
		session.SetMounted(true)
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := r.render(ctx, session.Component, buf); err != nil {
		r.sendError(session, msg, err)
		return
	}

	// Forget earlier hashes so a rejoin resends everything.
	session.slotHashes = nil
	session.fullHash = 0
	payload := r.buildDiffPayload(session, buf.String())

	rendered := map[string]any{"v": payload.Version}
	if len(payload.Slots) > 0 {
		rendered["s"] = payload.Slots
	}
	if len(payload.HTMLSlots) > 0 {
		rendered["h"] = payload.HTMLSlots
	}
	if payload.Full != "" {
		rendered["f"] = payload.Full
	}

	r.sendReply(session, msg, map[string]any{
		"socket_id": session.SocketID,
		"rendered":  rendered,
	})
}

// dispatchEvent dispatches a user event to the component.
func (r *Router) dispatchEvent(ctx context.Context, session *LiveViewSession, msg protocol.Message) error {
	payload := msg.Payload
	if payload == nil {
		payload = make(map[string]any)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeouts.ComponentEvent)
	defer cancel()

	return r.safeCall(func() error {
		return session.Component.HandleEvent(ctx, msg.Event, payload)
	})
}

// dispatchInfo hands an info message to the component.
func (r *Router) dispatchInfo(ctx context.Context, session *LiveViewSession, info any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeouts.ComponentEvent)
	defer cancel()

	return r.safeCall(func() error {
		return session.Component.HandleInfo(ctx, info)
	})
}

func (r *Router) render(ctx context.Context, component core.Component, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeouts.ComponentRender)
	defer cancel()

	start := time.Now()
	defer func() { r.metrics.ObserveRender(time.Since(start)) }()

	return r.safeCall(func() error {
		renderer := component.Render(ctx)
		if renderer == nil {
			return ErrNilRenderer
		}
		return renderer.Render(ctx, w)
	})
}

// renderAndSendDiff renders the component and sends only the slots whose
// content changed since the last send.
func (r *Router) renderAndSendDiff(ctx context.Context, session *LiveViewSession) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	if err := r.render(ctx, session.Component, buf); err != nil {
		r.logger.Error("render failed", logging.String("socket_id", session.SocketID), logging.Err(err))
		return
	}

	payload := r.buildDiffPayload(session, buf.String())
	if payload.IsEmpty() {
		return
	}
	if err := session.Socket.SendOptimizedDiff(payload); err != nil {
		r.logger.Debug("diff not sent", logging.String("socket_id", session.SocketID), logging.Err(err))
	}
}

// buildDiffPayload compares slot hashes against the last render. Markup
// without any data-slot falls back to a full render, sent only when it
// changed.
func (r *Router) buildDiffPayload(session *LiveViewSession, html string) *core.DiffPayload {
	payload := &core.DiffPayload{
		Version:   session.nextVersion(),
		Slots:     make(map[string]string),
		HTMLSlots: make(map[string]string),
	}

	textSlots, htmlSlots := extractSlotsOptimized(html)

	if len(textSlots) == 0 && len(htmlSlots) == 0 {
		h := hashSlotContent(html)
		if h != session.fullHash {
			payload.Full = html
			session.fullHash = h
		}
		return payload
	}

	prev := session.slotHashes
	next := make(map[string]uint64, len(textSlots)+len(htmlSlots))

	for id, content := range textSlots {
		h := hashSlotContent(content)
		next[id] = h
		if old, ok := prev[id]; !ok || old != h {
			payload.Slots[id] = content
		}
	}
	for id, content := range htmlSlots {
		h := hashSlotContent(content)
		next[id] = h
		if old, ok := prev[id]; !ok || old != h {
			payload.HTMLSlots[id] = content
		}
	}

	session.slotHashes = next
	return payload
}

// extractSlotsOptimized extracts data-slot content in a single pass.
// Slots whose content contains markup are returned in htmlSlots, the rest
// in textSlots.
func extractSlotsOptimized(html string) (textSlots, htmlSlots map[string]string) {
	textSlots = make(map[string]string)
	htmlSlots = make(map[string]string)

	const marker = `data-slot="`
	markerLen := len(marker)
	htmlLen := len(html)
	pos := 0

	for pos < htmlLen {
		idx := strings.Index(html[pos:], marker)
		if idx == -1 {
			break
		}

		slotStart := pos + idx + markerLen

		slotEnd := strings.IndexByte(html[slotStart:], '"')
		if slotEnd == -1 {
			pos = slotStart
			continue
		}

		slotID := html[slotStart : slotStart+slotEnd]

		// Walk back to the '<' that opens this tag.
		tagStart := pos + idx
		for tagStart > 0 && html[tagStart] != '<' {
			tagStart--
		}

		tagNameEnd := tagStart + 1
		for tagNameEnd < htmlLen && html[tagNameEnd] != ' ' && html[tagNameEnd] != '>' && html[tagNameEnd] != '/' {
			tagNameEnd++
		}
		tagName := html[tagStart+1 : tagNameEnd]

		closeAngle := strings.IndexByte(html[slotStart+slotEnd:], '>')
		if closeAngle == -1 {
			pos = slotStart + slotEnd
			continue
		}

		contentStart := slotStart + slotEnd + closeAngle + 1

		openTag := "<" + tagName
		closeTag := "</" + tagName
		openTagLen := len(openTag)
		closeTagLen := len(closeTag)

		depth := 1
		searchPos := contentStart
		contentEnd := -1

		for depth > 0 && searchPos < htmlLen {
			nextOpen := strings.Index(html[searchPos:], openTag)
			nextClose := strings.Index(html[searchPos:], closeTag)

			if nextClose == -1 {
				break
			}

			if nextOpen != -1 {
				nextOpen += searchPos
			} else {
				nextOpen = htmlLen
			}
			nextClose += searchPos

			if nextOpen < nextClose {
				// "<div" only opens a tag if followed by a delimiter, so
				// "<divider" does not count.
				afterOpen := nextOpen + openTagLen
				if afterOpen < htmlLen {
					switch html[afterOpen] {
					case ' ', '>', '/', '\t', '\n':
						depth++
					}
				}
				searchPos = nextOpen + openTagLen
			} else {
				depth--
				if depth == 0 {
					contentEnd = nextClose
				}
				searchPos = nextClose + closeTagLen
			}
		}

		if contentEnd != -1 {
			content := strings.TrimSpace(html[contentStart:contentEnd])

			if strings.ContainsAny(content, "<>") {
				htmlSlots[slotID] = content
			} else {
				textSlots[slotID] = content
			}
			// Continue inside the slot so nested slots are found too.
			pos = contentStart
			continue
		}

		pos = searchPos
	}

	return textSlots, htmlSlots
}

// hashSlotContent computes FNV-64a hash of content for fast comparison
func hashSlotContent(content string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(content))
	return h.Sum64()
}

// endSession terminates the component and releases the connection. It
// runs once per session, on the event loop, after the last callback.
func (r *Router) endSession(session *LiveViewSession, reason core.TerminateReason) {
	session.endOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeouts.ComponentTerminate)
		defer cancel()

		if session.IsMounted() {
			if err := r.safeCall(func() error { return session.Component.Terminate(ctx, reason) }); err != nil {
				r.logger.Warn("terminate failed", logging.String("socket_id", session.SocketID), logging.Err(err))
			}
		}

		if reason == core.TerminateShutdown {
			session.Socket.Abort()
		} else {
			session.Socket.Close()
		}
		r.sessionManager.Remove(session.ID)
		r.socketManager.Remove(session.SocketID)
		if session.release != nil {
			session.release()
		}
		r.metrics.SessionEnded(reason.String())

		r.logger.Debug("live session ended",
			logging.String("socket_id", session.SocketID),
			logging.String("reason", reason.String()),
		)
	})
}

// safeCall runs a component callback, turning a panic into an error so
// one broken session cannot take down the server.
func (r *Router) safeCall(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrComponentPanic, rec)
		}
	}()
	return fn()
}

// sendReply sends an ok reply to msg.
func (r *Router) sendReply(session *LiveViewSession, msg protocol.Message, response map[string]any) {
	if response == nil {
		response = map[string]any{}
	}
	reply := protocol.OkReply(msg.Ref, session.Topic, response)
	reply.JoinRef = session.JoinRef()
	if err := session.Transport.Send(reply); err != nil {
		r.logger.Debug("reply not sent", logging.String("socket_id", session.SocketID), logging.Err(err))
	}
}

// sendError sends an error reply to msg.
func (r *Router) sendError(session *LiveViewSession, msg protocol.Message, err error) {
	reply := protocol.ErrorReply(msg.Ref, session.Topic, err.Error())
	reply.JoinRef = session.JoinRef()
	session.Transport.Send(reply)
}

// extractSession extracts session data from the request.
func (r *Router) extractSession(req *http.Request) core.Session {
	session := make(core.Session)
	session["remote_addr"] = req.RemoteAddr
	session["user_agent"] = req.UserAgent()
	for _, cookie := range req.Cookies() {
		session["cookie:"+cookie.Name] = cookie.Value
	}
	return session
}

// extractParams extracts URL parameters and query strings.
func extractParams(req *http.Request) core.Params {
	params := make(core.Params)

	for key, values := range req.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	if rctx := chi.RouteContext(req.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			if key != "*" && i < len(rctx.URLParams.Values) {
				params[key] = rctx.URLParams.Values[i]
			}
		}
	}

	return params
}

// isWebSocketRequest checks if this is a WebSocket upgrade request.
func isWebSocketRequest(req *http.Request) bool {
	return strings.Contains(strings.ToLower(req.Header.Get("Upgrade")), "websocket")
}
