// Package server wires the homepage, its assets and the operational
// endpoints into a single HTTP handler mounted under the site base URL.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ai-on-hyperpod/site/client"
	"github.com/ai-on-hyperpod/site/internal/config"
	"github.com/ai-on-hyperpod/site/internal/pages"
	"github.com/ai-on-hyperpod/site/internal/site"
	"github.com/ai-on-hyperpod/site/internal/website"
	"github.com/ai-on-hyperpod/site/pkg/carousel"
	"github.com/ai-on-hyperpod/site/pkg/core"
	"github.com/ai-on-hyperpod/site/pkg/health"
	"github.com/ai-on-hyperpod/site/pkg/limits"
	"github.com/ai-on-hyperpod/site/pkg/logging"
	"github.com/ai-on-hyperpod/site/pkg/metrics"
	"github.com/ai-on-hyperpod/site/pkg/router"
	"github.com/ai-on-hyperpod/site/pkg/transport"
)

// FrameSources are the origins the video embeds load from.
var FrameSources = []string{"https://www.youtube.com"}

// Server owns the live router and the root handler.
type Server struct {
	cfg     *config.Config
	site    *site.Config
	logger  logging.Logger
	live    *router.Router
	health  *health.Checker
	metrics *metrics.Metrics
	limiter *limits.ConnectionLimiter
	handler http.Handler

	version string
	clock   carousel.Clock
	static  fs.FS
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithClock replaces the wall clock driving the carousel.
func WithClock(c carousel.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithStaticFS serves images from fsys instead of cfg.StaticDir.
func WithStaticFS(fsys fs.FS) Option {
	return func(s *Server) { s.static = fsys }
}

// New builds the handler tree.
func New(cfg *config.Config, sc *site.Config, opts ...Option) (*Server, error) {
	if cfg == nil || sc == nil {
		return nil, errors.New("server: configuration is required")
	}

	s := &Server{
		cfg:     cfg,
		site:    sc,
		logger:  logging.NopLogger{},
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.static == nil {
		s.static = os.DirFS(cfg.StaticDir)
	}

	s.metrics = metrics.New("hyperpod_site")
	s.limiter = limits.NewConnectionLimiter(cfg.MaxConnectionsPerIP)

	liveOpts := []router.Option{
		router.WithLogger(s.logger),
		router.WithMetrics(s.metrics),
		router.WithConnectionLimiter(s.limiter),
		router.WithWebSocketConfig(&transport.WebSocketConfig{
			AllowedOrigins:  cfg.AllowedOrigins,
			InsecureDevMode: cfg.InsecureOrigins(),
		}),
		router.WithMaxSessions(cfg.MaxSessions),
	}
	if cfg.IsDev() {
		liveOpts = append(liveOpts, router.WithTimeouts(core.RelaxedTimeoutConfig()))
	}
	s.live = router.New(liveOpts...)

	base := sc.BaseURL
	s.live.Live("/", pages.NewHome(pages.HomeOptions{
		Site:          sc,
		Interval:      cfg.CarouselInterval,
		ResetOnSelect: cfg.CarouselResetOnClick,
		Clock:         s.clock,
		ScriptURL:     base + "_live/" + client.ScriptName,
		Logger:        s.logger,
		Metrics:       s.metrics,
	}))
	s.live.Handle("/_live/*", http.StripPrefix(base+"_live/", client.Handler()))
	s.live.Handle("/img/*", http.StripPrefix(base+"img/", http.FileServer(http.FS(s.static))))
	s.live.Get("/robots.txt", s.robots)
	s.live.Get("/sitemap.xml", s.sitemap)

	s.health = health.DefaultChecker(s.version)
	s.health.AddCriticalCheck("site", func(ctx context.Context) error {
		return s.site.Validate()
	}, time.Second)
	s.health.AddCheck("live_sessions", health.LiveSessionsCheck(s.live.SocketManager().Count, cfg.MaxSessions), time.Second)

	s.metrics.RegisterGaugeFunc("live_sockets", "Sockets held by the live router", func() float64 {
		return float64(s.live.SocketManager().Count())
	})
	s.metrics.RegisterGaugeFunc("live_connections_blocked", "Live connections refused by the per-address cap", func() float64 {
		return float64(s.limiter.TotalBlocked())
	})

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(logging.RequestLogger(s.logger))
	r.Use(router.SecureHeadersWithConfig(secureHeaders(cfg)))

	r.Method(http.MethodGet, "/health", s.health.HealthHandler())
	r.Method(http.MethodGet, "/health/live", s.health.LivenessHandler())
	r.Method(http.MethodGet, "/health/ready", s.health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	if base == "/" {
		r.Mount("/", s.live)
	} else {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, base, http.StatusFound)
		})
		r.Mount(strings.TrimSuffix(base, "/"), s.live)
	}
	s.handler = r

	return s, nil
}

func secureHeaders(cfg *config.Config) router.SecureHeadersConfig {
	h := router.DefaultSecureHeadersConfig()
	h.FrameSources = FrameSources
	if cfg.IsDev() {
		h.HSTSEnabled = false
	}
	return h
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the metrics set.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Live returns the live router.
func (s *Server) Live() *router.Router {
	return s.live
}

// Drain fails readiness so load balancers stop sending page views.
func (s *Server) Drain() {
	s.health.Drain()
	s.logger.Info("draining", logging.Int("live_sockets", s.live.SocketManager().Count()))
}

// Shutdown ends every live session, stopping their carousels.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.live.Shutdown(ctx); err != nil {
		return fmt.Errorf("ending live sessions: %w", err)
	}
	return nil
}

func (s *Server) robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(website.RenderRobots(s.site.BaseURL, s.site.AbsoluteURL("/sitemap.xml"))))
}

func (s *Server) sitemap(w http.ResponseWriter, r *http.Request) {
	locs := []string{s.site.AbsoluteURL("/")}
	for _, p := range s.site.InternalPaths() {
		if p == "/" {
			continue
		}
		locs = append(locs, s.site.AbsoluteURL(p))
	}

	data, err := website.RenderSitemap(locs)
	if err != nil {
		logging.L(r.Context()).Error("sitemap failed", logging.Err(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write(data)
}
