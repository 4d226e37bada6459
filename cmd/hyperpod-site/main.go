// Command hyperpod-site serves the AI on SageMaker HyperPod homepage.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ai-on-hyperpod/site/internal/config"
	"github.com/ai-on-hyperpod/site/internal/server"
	"github.com/ai-on-hyperpod/site/internal/site"
	"github.com/ai-on-hyperpod/site/pkg/logging"
	"github.com/ai-on-hyperpod/site/pkg/shutdown"
)

var version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(0)
	}

	command := os.Args[1]

	switch command {
	case "serve":
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "config":
		if err := printConfig(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "version", "-v", "--version":
		fmt.Printf("hyperpod-site v%s\n", version)

	case "help", "-h", "--help":
		printUsage(os.Stdout)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage(os.Stdout)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `hyperpod-site v%s

Usage: hyperpod-site <command>

Commands:
  serve                Start the homepage server
  config               Print the resolved site configuration
  version              Show version
  help                 Show this help

Environment:
  SITE_HOST, SITE_PORT            Listen address (0.0.0.0:8080)
  SITE_ENV                        development, production or testing
  SITE_CONFIG                     Site document overriding the built-in one
  SITE_STATIC_DIR                 Directory served under <baseUrl>img/
  SITE_LOG_LEVEL, SITE_LOG_FORMAT Logging (info, text)
  SITE_CAROUSEL_INTERVAL          Carousel rotation period (3s)
  SITE_CAROUSEL_RESET_ON_SELECT   Restart the countdown after a click
  SITE_ALLOWED_ORIGINS            Comma-separated WebSocket origins
  SITE_MAX_SESSIONS               Live session cap (0 = unlimited)
  SITE_MAX_CONNECTIONS_PER_IP     Live connections per client address (20, 0 = unlimited)
  SITE_SHUTDOWN_TIMEOUT           Graceful shutdown budget (15s)
`, version)
}

func loadSite(cfg *config.Config) (*site.Config, error) {
	if cfg.SiteConfig == "" {
		return site.Default()
	}
	return site.Load(cfg.SiteConfig)
}

func printConfig(w io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sc, err := loadSite(cfg)
	if err != nil {
		return err
	}
	data, err := sc.YAML()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func newLogger(cfg *config.Config) *logging.SlogLogger {
	return logging.NewSlogLogger(
		logging.WithLevel(cfg.LogLevel),
		logging.WithFormat(cfg.LogFormat),
		logging.WithOutput(os.Stderr),
	)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sc, err := loadSite(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	logging.SetDefault(logger)

	srv, err := server.New(cfg, sc,
		server.WithLogger(logger),
		server.WithVersion(version),
	)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sd := shutdown.NewHandler(&shutdown.Config{
		Timeout: cfg.ShutdownTimeout,
		OnHookComplete: func(name string, err error, d time.Duration) {
			if err != nil {
				logger.Warn("shutdown hook failed", logging.String("hook", name), logging.Err(err))
				return
			}
			logger.Debug("shutdown hook done", logging.String("hook", name), logging.Duration("duration", d))
		},
	})
	// Readiness drops, the listener closes so no new sessions start,
	// then every live session ends, which stops its carousel.
	sd.Register(shutdown.DrainHook(srv.Drain))
	sd.Register(shutdown.HTTPServerHook("http", httpServer.Shutdown))
	sd.RegisterFunc("live-sessions", shutdown.PriorityLive, srv.Shutdown)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting",
			logging.String("addr", cfg.Addr()),
			logging.String("env", cfg.Env),
			logging.String("base_url", sc.BaseURL),
			logging.Duration("carousel_interval", cfg.CarouselInterval),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
		}
		return nil
	})

	g.Go(func() error {
		return sd.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
