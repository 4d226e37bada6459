package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/coder/websocket"

	"github.com/ai-on-hyperpod/site/pkg/core"
	"github.com/ai-on-hyperpod/site/pkg/limits"
	"github.com/ai-on-hyperpod/site/pkg/metrics"
	"github.com/ai-on-hyperpod/site/pkg/protocol"
)

// MockComponent is a counter that records its lifecycle.
type MockComponent struct {
	core.BaseComponent

	mu           sync.Mutex
	count        int
	mountCalled  bool
	renderCalled bool
	mountErr     error

	terminated chan core.TerminateReason
	socketSet  chan *core.Socket
}

func NewMockComponent() *MockComponent {
	return &MockComponent{
		terminated: make(chan core.TerminateReason, 1),
		socketSet:  make(chan *core.Socket, 1),
	}
}

func (c *MockComponent) Name() string {
	return "mock"
}

func (c *MockComponent) SetSocket(s *core.Socket) {
	c.BaseComponent.SetSocket(s)
	c.socketSet <- s
}

func (c *MockComponent) Mount(ctx context.Context, params core.Params, session core.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mountCalled = true
	return c.mountErr
}

func (c *MockComponent) Render(ctx context.Context) core.Renderer {
	c.mu.Lock()
	c.renderCalled = true
	count := c.count
	c.mu.Unlock()

	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<main><h1>Mock Content</h1><span data-slot="count">%d</span></main>`, count)
		return err
	})
}

func (c *MockComponent) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case "inc":
		c.mu.Lock()
		c.count++
		c.mu.Unlock()
		return nil
	case "boom":
		panic("boom")
	default:
		return fmt.Errorf("unknown event %q", event)
	}
}

func (c *MockComponent) HandleInfo(ctx context.Context, msg any) error {
	if n, ok := msg.(int); ok {
		c.mu.Lock()
		c.count += n
		c.mu.Unlock()
	}
	return nil
}

func (c *MockComponent) Terminate(ctx context.Context, reason core.TerminateReason) error {
	select {
	case c.terminated <- reason:
	default:
	}
	return nil
}

func TestRouter_New(t *testing.T) {
	r := New()

	if r.sessionManager == nil {
		t.Error("expected sessionManager to be initialized")
	}
	if r.socketManager == nil {
		t.Error("expected socketManager to be initialized")
	}
	if r.logger == nil {
		t.Error("expected logger to be initialized")
	}
}

func TestRouter_Live_InitialHTTPRender(t *testing.T) {
	r := New()

	var component *MockComponent
	r.Live("/", func() core.Component {
		component = NewMockComponent()
		return component
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if !component.mountCalled || !component.renderCalled {
		t.Error("expected Mount and Render to be called")
	}
	if !strings.Contains(rec.Body.String(), "Mock Content") {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected Content-Type text/html, got '%s'", ct)
	}

	select {
	case <-component.socketSet:
		t.Error("static render must not attach a socket")
	default:
	}
}

func TestRouter_Live_MountError(t *testing.T) {
	r := New()

	var handled error
	r.SetErrorHandler(func(w http.ResponseWriter, req *http.Request, err error) {
		handled = err
		http.Error(w, "nope", http.StatusTeapot)
	})

	mountErr := errors.New("no cards")
	r.Live("/", func() core.Component {
		c := NewMockComponent()
		c.mountErr = mountErr
		return c
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected custom error status, got %d", rec.Code)
	}
	if !errors.Is(handled, mountErr) {
		t.Errorf("expected mount error to reach handler, got %v", handled)
	}
}

func TestRouter_HandleAndMiddleware(t *testing.T) {
	r := New()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Test", "applied")
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("OK"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Body.String() != "OK" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get("X-Test") != "applied" {
		t.Error("expected middleware to run")
	}
}

func TestRouter_Static(t *testing.T) {
	r := New()
	r.Static("/img/", http.FS(fstest.MapFS{
		"logo.svg": {Data: []byte("<svg/>")},
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/img/logo.svg", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "<svg/>" {
		t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_extractParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?card=2&vsn=json", nil)
	params := extractParams(req)

	if params.Get("card") != "2" || params.Get("vsn") != "json" {
		t.Errorf("unexpected params %v", params)
	}
}

func TestRouter_isWebSocketRequest(t *testing.T) {
	tests := []struct {
		upgrade string
		want    bool
	}{
		{"websocket", true},
		{"WebSocket", true},
		{"", false},
		{"h2c", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Upgrade", tt.upgrade)
		if got := isWebSocketRequest(req); got != tt.want {
			t.Errorf("isWebSocketRequest(%q) = %v, want %v", tt.upgrade, got, tt.want)
		}
	}
}

func TestRouter_UnknownCodec(t *testing.T) {
	r := New()
	r.Live("/", func() core.Component { return NewMockComponent() })

	req := httptest.NewRequest(http.MethodGet, "/?vsn=xml", nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestExtractSlotsOptimized(t *testing.T) {
	html := `<div data-slot="outer"><p>hi</p><span data-slot="inner">3</span></div><b data-slot="plain">text</b><divider></divider>`

	text, markup := extractSlotsOptimized(html)

	if text["inner"] != "3" {
		t.Errorf("expected nested text slot, got %q", text["inner"])
	}
	if text["plain"] != "text" {
		t.Errorf("expected plain slot, got %q", text["plain"])
	}
	if !strings.Contains(markup["outer"], `<p>hi</p>`) {
		t.Errorf("expected html slot, got %q", markup["outer"])
	}
}

func TestBuildDiffPayload_OnlyChangedSlots(t *testing.T) {
	r := New()
	s := NewLiveViewSession("s1", NewMockComponent(), nil, nil)

	first := r.buildDiffPayload(s, `<i data-slot="a">1</i><i data-slot="b">x</i>`)
	if len(first.Slots) != 2 {
		t.Fatalf("expected both slots on first render, got %v", first.Slots)
	}

	second := r.buildDiffPayload(s, `<i data-slot="a">2</i><i data-slot="b">x</i>`)
	if len(second.Slots) != 1 || second.Slots["a"] != "2" {
		t.Errorf("expected only slot a, got %v", second.Slots)
	}
	if second.Version <= first.Version {
		t.Errorf("expected increasing versions, got %d then %d", first.Version, second.Version)
	}

	third := r.buildDiffPayload(s, `<i data-slot="a">2</i><i data-slot="b">x</i>`)
	if !third.IsEmpty() {
		t.Errorf("expected empty diff for identical render, got %+v", third)
	}
}

func TestBuildDiffPayload_FullFallbackOnlyWhenChanged(t *testing.T) {
	r := New()
	s := NewLiveViewSession("s1", NewMockComponent(), nil, nil)

	if p := r.buildDiffPayload(s, "<p>a</p>"); p.Full != "<p>a</p>" {
		t.Errorf("expected full render, got %+v", p)
	}
	if p := r.buildDiffPayload(s, "<p>a</p>"); !p.IsEmpty() {
		t.Errorf("expected nothing for unchanged slotless render, got %+v", p)
	}
}

func TestSessionManager_MaxSessions(t *testing.T) {
	m := NewLiveViewSessionManager(1)

	s, err := m.Create("a", NewMockComponent(), nil, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := m.Create("b", NewMockComponent(), nil, nil); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("expected ErrTooManySessions, got %v", err)
	}

	if got, ok := m.GetBySocket("a"); !ok || got != s {
		t.Error("expected to find session by socket")
	}

	m.Remove(s.ID)
	if m.Count() != 0 {
		t.Errorf("expected no sessions, got %d", m.Count())
	}
}

// liveClient is a minimal client speaking the wire protocol.
type liveClient struct {
	t     *testing.T
	conn  *websocket.Conn
	codec protocol.Codec
	ref   int
}

func dialLive(t *testing.T, srv *httptest.Server, vsn string) *liveClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	if vsn != "" {
		url += "?vsn=" + vsn
	}
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	codec, _ := protocol.CodecFor(vsn)
	return &liveClient{t: t, conn: conn, codec: codec}
}

func (c *liveClient) push(event string, payload map[string]any) string {
	c.t.Helper()
	c.ref++
	ref := fmt.Sprint(c.ref)

	data, err := c.codec.Encode(protocol.NewMessage("lv:", event, payload).WithRef(ref))
	if err != nil {
		c.t.Fatalf("encode failed: %v", err)
	}
	typ := websocket.MessageText
	if c.codec.Binary() {
		typ = websocket.MessageBinary
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.conn.Write(ctx, typ, data); err != nil {
		c.t.Fatalf("write failed: %v", err)
	}
	return ref
}

// await reads frames until one matches.
func (c *liveClient) await(match func(protocol.Message) bool) protocol.Message {
	c.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			c.t.Fatalf("read failed: %v", err)
		}
		msg, err := c.codec.Decode(data)
		if err != nil {
			c.t.Fatalf("decode failed: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

// drain reads in the background until the connection ends, so the
// client answers the server's close handshake like a browser would.
func (c *liveClient) drain() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.conn.Read(context.Background()); err != nil {
				return
			}
		}
	}()
	return done
}

func replyTo(ref string) func(protocol.Message) bool {
	return func(m protocol.Message) bool {
		return m.Event == protocol.EventReply && m.Ref == ref
	}
}

func diffWithSlot(slot, want string) func(protocol.Message) bool {
	return func(m protocol.Message) bool {
		if m.Event != protocol.EventDiff {
			return false
		}
		slots, _ := m.Payload["s"].(map[string]any)
		return fmt.Sprint(slots[slot]) == want
	}
}

func status(m protocol.Message) string {
	s, _ := m.Payload["status"].(string)
	return s
}

func newLiveServer(t *testing.T) (*Router, *httptest.Server, chan *MockComponent) {
	t.Helper()

	components := make(chan *MockComponent, 4)
	r := New()
	r.Live("/", func() core.Component {
		c := NewMockComponent()
		components <- c
		return c
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return r, srv, components
}

func TestRouter_LiveSession(t *testing.T) {
	for _, vsn := range []string{"", "msgpack"} {
		t.Run("vsn="+vsn, func(t *testing.T) {
			_, srv, components := newLiveServer(t)
			client := dialLive(t, srv, vsn)
			defer client.conn.CloseNow()

			comp := <-components
			socket := <-comp.socketSet

			ref := client.push(protocol.EventJoin, nil)
			join := client.await(replyTo(ref))
			if status(join) != "ok" {
				t.Fatalf("join failed: %+v", join.Payload)
			}

			ref = client.push("inc", nil)
			client.await(diffWithSlot("count", "1"))
			if reply := client.await(replyTo(ref)); status(reply) != "ok" {
				t.Errorf("expected ok reply to event, got %+v", reply.Payload)
			}

			if err := socket.SendInfo(5); err != nil {
				t.Fatalf("SendInfo failed: %v", err)
			}
			client.await(diffWithSlot("count", "6"))

			ref = client.push("nope", nil)
			if reply := client.await(replyTo(ref)); status(reply) != "error" {
				t.Errorf("expected error reply for unknown event, got %+v", reply.Payload)
			}

			ref = client.push("boom", nil)
			if reply := client.await(replyTo(ref)); status(reply) != "error" {
				t.Errorf("expected error reply for panicking handler, got %+v", reply.Payload)
			}

			ref = client.push(protocol.EventHeartbeat, nil)
			client.await(replyTo(ref))

			client.conn.Close(websocket.StatusNormalClosure, "bye")

			select {
			case reason := <-comp.terminated:
				if reason != core.TerminateNormal {
					t.Errorf("expected normal termination, got %v", reason)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("component was not terminated after disconnect")
			}

			if err := socket.SendInfo(1); !errors.Is(err, core.ErrSocketClosed) {
				t.Errorf("expected closed socket after disconnect, got %v", err)
			}
		})
	}
}

func TestRouter_EventBeforeJoin(t *testing.T) {
	_, srv, _ := newLiveServer(t)
	client := dialLive(t, srv, "")
	defer client.conn.CloseNow()

	ref := client.push("inc", nil)
	reply := client.await(replyTo(ref))
	if status(reply) != "error" {
		t.Errorf("expected error reply, got %+v", reply.Payload)
	}
}

func TestRouter_Shutdown(t *testing.T) {
	r, srv, components := newLiveServer(t)
	client := dialLive(t, srv, "")
	defer client.conn.CloseNow()

	comp := <-components
	ref := client.push(protocol.EventJoin, nil)
	client.await(replyTo(ref))

	// The client stops reading here and never answers a close frame.
	// Shutdown must not wait for it.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if d := time.Since(start); d > time.Second {
		t.Errorf("Shutdown waited %v on a silent client", d)
	}

	select {
	case reason := <-comp.terminated:
		if reason != core.TerminateShutdown {
			t.Errorf("expected shutdown termination, got %v", reason)
		}
	default:
		t.Fatal("Shutdown returned before terminating the component")
	}

	if r.SessionManager().Count() != 0 || r.SocketManager().Count() != 0 {
		t.Error("expected managers to be empty after shutdown")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after shutdown, got %d", rec.Code)
	}
}

func TestRouter_ShutdownClosesReadingClient(t *testing.T) {
	r, srv, components := newLiveServer(t)
	client := dialLive(t, srv, "")
	defer client.conn.CloseNow()

	comp := <-components
	ref := client.push(protocol.EventJoin, nil)
	client.await(replyTo(ref))
	done := client.drain()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if reason := <-comp.terminated; reason != core.TerminateShutdown {
		t.Errorf("expected shutdown termination, got %v", reason)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("expected the client connection to end")
	}
}

func TestRouter_ConnectionLimiter(t *testing.T) {
	limiter := limits.NewConnectionLimiter(1)
	m := metrics.New("test")

	components := make(chan *MockComponent, 4)
	r := New(WithConnectionLimiter(limiter), WithMetrics(m))
	r.Live("/", func() core.Component {
		c := NewMockComponent()
		components <- c
		return c
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	first := dialLive(t, srv, "")
	comp := <-components
	ref := first.push(protocol.EventJoin, nil)
	first.await(replyTo(ref))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	_, resp, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		t.Fatal("expected second connection from the same address to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %+v", resp)
	}

	first.conn.Close(websocket.StatusNormalClosure, "bye")
	select {
	case <-comp.terminated:
	case <-time.After(5 * time.Second):
		t.Fatal("component was not terminated")
	}

	deadline := time.Now().Add(5 * time.Second)
	for limiter.Count("127.0.0.1") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection slot was not released")
		}
		time.Sleep(10 * time.Millisecond)
	}

	second := dialLive(t, srv, "")
	defer second.conn.CloseNow()
	ref = second.push(protocol.EventJoin, nil)
	second.await(replyTo(ref))

	if m.SessionsTotal.Value() != 2 {
		t.Errorf("expected 2 sessions started, got %v", m.SessionsTotal.Value())
	}
	if limiter.TotalBlocked() != 1 {
		t.Errorf("expected 1 blocked connection, got %d", limiter.TotalBlocked())
	}
}
