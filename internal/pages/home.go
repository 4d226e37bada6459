// Package pages holds the live components served by the site.
package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ai-on-hyperpod/site/internal/site"
	"github.com/ai-on-hyperpod/site/internal/website/components"
	"github.com/ai-on-hyperpod/site/internal/website/landing"
	"github.com/ai-on-hyperpod/site/pkg/carousel"
	"github.com/ai-on-hyperpod/site/pkg/core"
	"github.com/ai-on-hyperpod/site/pkg/logging"
	"github.com/ai-on-hyperpod/site/pkg/metrics"
	"github.com/ai-on-hyperpod/site/pkg/protocol"
	"github.com/ai-on-hyperpod/site/pkg/router"
)

// HomeOptions configures the homepage component.
type HomeOptions struct {
	Site *site.Config

	// Interval is the carousel rotation period
	Interval time.Duration
	// ResetOnSelect restarts the rotation countdown after a click
	ResetOnSelect bool
	// Clock drives the rotation timer; nil means the wall clock
	Clock carousel.Clock

	// ScriptURL is the live client script included in the document
	ScriptURL string

	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// tick is posted by the rotation timer to the component's own socket.
type tick struct{}

// Home is the live homepage: static sections plus a rotating card
// carousel. One instance exists per page view.
type Home struct {
	core.BaseComponent

	opts     HomeOptions
	content  landing.Options
	sel      *carousel.Selection
	ticker   *carousel.Ticker
	selected int
}

// NewHome returns a component factory for router.Live.
func NewHome(opts HomeOptions) func() core.Component {
	if opts.Interval <= 0 {
		opts.Interval = carousel.DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}
	return func() core.Component {
		return &Home{opts: opts, content: landing.DefaultOptions()}
	}
}

// Name returns the component name.
func (h *Home) Name() string {
	return "home"
}

// Mount creates the selection with the first card active. On a live
// connection it also starts the rotation timer.
func (h *Home) Mount(ctx context.Context, params core.Params, session core.Session) error {
	if h.opts.Site == nil {
		return errors.New("home: site configuration is required")
	}

	sel, err := carousel.New(len(h.content.Cards))
	if err != nil {
		return fmt.Errorf("creating carousel: %w", err)
	}
	h.sel = sel

	socket := h.Socket()
	if socket == nil {
		return nil
	}

	if h.ticker != nil {
		h.ticker.Stop()
	}
	h.ticker, err = carousel.Start(h.opts.Interval, h.opts.Clock, func() {
		// State only changes on the event loop, via HandleInfo.
		if err := socket.SendInfo(tick{}); err != nil && !errors.Is(err, core.ErrSocketClosed) {
			h.opts.Logger.Debug("carousel tick dropped",
				logging.String("socket_id", socket.ID()),
				logging.Err(err),
			)
		}
	})
	if err != nil {
		return fmt.Errorf("starting carousel: %w", err)
	}
	return nil
}

// HandleInfo advances the carousel on each timer tick.
func (h *Home) HandleInfo(ctx context.Context, msg any) error {
	switch msg.(type) {
	case tick:
		if h.sel == nil || h.stopped() {
			return nil
		}
		h.sel.Advance()
		h.opts.Metrics.Advanced()
		return nil
	default:
		return fmt.Errorf("home: unexpected info message %T", msg)
	}
}

// HandleEvent handles bullet clicks.
func (h *Home) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case components.SelectEvent:
		if h.sel == nil {
			return errors.New("home: not mounted")
		}
		idx, err := protocol.PayloadInt(payload, "index")
		if err == nil {
			err = h.sel.Select(idx)
		}
		h.opts.Metrics.Selected(err == nil)
		if err != nil {
			return err
		}
		h.selected++
		if h.opts.ResetOnSelect && h.ticker != nil {
			h.ticker.Reset()
		}
		return nil
	default:
		return fmt.Errorf("home: unknown event %q", event)
	}
}

// Terminate stops the rotation timer. Once it returns no further tick
// reaches the socket.
func (h *Home) Terminate(ctx context.Context, reason core.TerminateReason) error {
	if h.ticker != nil {
		h.ticker.Stop()
		h.opts.Logger.Debug("carousel stopped",
			logging.String("reason", reason.String()),
			logging.Int("selections", h.selected),
		)
	}
	return nil
}

// Render returns the full homepage document with the current selection.
func (h *Home) Render(ctx context.Context) core.Renderer {
	opts := h.content
	opts.Nonce = router.GetCSPNonce(ctx)
	opts.ScriptURL = h.opts.ScriptURL
	if h.sel != nil {
		opts.Marks = h.sel.Marks()
	}
	cfg := h.opts.Site

	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, landing.RenderHomepage(cfg, opts))
		return err
	})
}

// Index returns the active card, or 0 before Mount.
func (h *Home) Index() int {
	if h.sel == nil {
		return 0
	}
	return h.sel.Index()
}

func (h *Home) stopped() bool {
	return h.ticker != nil && h.ticker.Stopped()
}
