// Package shutdown stops the site in stages: readiness drops first, then
// the listener closes, then every live session ends and takes its
// carousel timer with it.
package shutdown

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrShutdownTimeout = errors.New("shutdown timed out")
	ErrAlreadyClosed   = errors.New("shutdown handler already closed")
)

// Stage priorities. Lower runs earlier; hooks sharing a priority run
// concurrently.
const (
	PriorityDrain = 0
	PriorityHTTP  = 100
	PriorityLive  = 200
	PriorityLast  = 1000
)

// Hook is one shutdown step.
type Hook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// Config configures a Handler.
type Config struct {
	// Timeout bounds the whole shutdown. Stages not yet started when it
	// expires are skipped.
	Timeout time.Duration

	// OnHookComplete is called after each hook returns.
	OnHookComplete func(name string, err error, duration time.Duration)
}

// DefaultConfig returns a 30 second budget.
func DefaultConfig() *Config {
	return &Config{Timeout: 30 * time.Second}
}

// Handler runs registered hooks once.
type Handler struct {
	config *Config
	hooks  []Hook
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

// NewHandler creates a handler. A nil config uses DefaultConfig.
func NewHandler(config *Config) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Handler{
		config: config,
		done:   make(chan struct{}),
	}
}

// Register adds a hook.
func (h *Handler) Register(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// RegisterFunc adds fn as a hook.
func (h *Handler) RegisterFunc(name string, priority int, fn func(ctx context.Context) error) {
	h.Register(Hook{Name: name, Priority: priority, Fn: fn})
}

// Run blocks until ctx is cancelled, then shuts down. It returns nil
// without running hooks if Shutdown was already called.
func (h *Handler) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-h.done:
		return nil
	}
	return h.Shutdown()
}

// Shutdown runs every hook stage by stage and joins their errors.
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrAlreadyClosed
	}
	h.closed = true
	close(h.done)
	hooks := make([]Hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var errs []error
	for _, stage := range stages(hooks) {
		if ctx.Err() != nil {
			errs = append(errs, ErrShutdownTimeout)
			break
		}
		errs = append(errs, h.runStage(ctx, stage)...)
	}
	if ctx.Err() != nil && !errors.Is(errors.Join(errs...), ErrShutdownTimeout) {
		errs = append(errs, ErrShutdownTimeout)
	}
	return errors.Join(errs...)
}

func (h *Handler) runStage(ctx context.Context, stage []Hook) []error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, hook := range stage {
		hook := hook
		g.Go(func() error {
			start := time.Now()
			err := hook.Fn(ctx)
			if h.config.OnHookComplete != nil {
				h.config.OnHookComplete(hook.Name, err, time.Since(start))
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return errs
}

// stages groups hooks by priority, lowest first, keeping registration
// order within a stage.
func stages(hooks []Hook) [][]Hook {
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Priority < hooks[j].Priority
	})

	var out [][]Hook
	for i, hook := range hooks {
		if i == 0 || hook.Priority != hooks[i-1].Priority {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], hook)
	}
	return out
}

// Done is closed once Shutdown starts.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// IsClosed reports whether Shutdown has been called.
func (h *Handler) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// HTTPServerHook closes an HTTP server in the HTTP stage.
func HTTPServerHook(name string, shutdownFn func(ctx context.Context) error) Hook {
	return Hook{Name: name, Priority: PriorityHTTP, Fn: shutdownFn}
}

// DrainHook runs markNotReady in the first stage so load balancers stop
// routing new page views before the listener closes.
func DrainHook(markNotReady func()) Hook {
	return Hook{
		Name:     "drain",
		Priority: PriorityDrain,
		Fn: func(ctx context.Context) error {
			markNotReady()
			return nil
		},
	}
}

// TimeoutHook gives hook its own deadline inside the overall budget.
func TimeoutHook(hook Hook, timeout time.Duration) Hook {
	return Hook{
		Name:     hook.Name,
		Priority: hook.Priority,
		Fn: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return hook.Fn(ctx)
		},
	}
}
