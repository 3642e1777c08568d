// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/law-makers/ferryroutes/internal/browser"
	"github.com/law-makers/ferryroutes/internal/config"
	"github.com/law-makers/ferryroutes/internal/pipeline"
	"github.com/law-makers/ferryroutes/internal/ratelimit"
	"github.com/law-makers/ferryroutes/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	RateLimiter ratelimit.RateLimiter
	// Opener starts the browser for each run. Replaced in tests.
	Opener    pipeline.Opener
	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It configures logging from cfg, creates the per-host rate limiter used by
// the http transport, and prepares the browser opener. No browser is started
// until a command actually runs a pipeline.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := setupLogger(cfg, os.Stderr)

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	rateLimiter := ratelimit.NewDomainLimiter(cfg.MaxRPS, 1)
	logger.Debug().
		Float64("max_rps", cfg.MaxRPS).
		Msg("Rate limiter initialized")

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		RateLimiter: rateLimiter,
		Opener:      browserOpener(cfg),
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return app, nil
}

// setupLogger configures the global zerolog logger and level from cfg
func setupLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var logWriter io.Writer
	if cfg.JSONLog {
		logWriter = out
	} else {
		logWriter = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	log.Logger = zerolog.New(logWriter).With().Timestamp().Logger()
	return log.Logger
}

// browserOpener launches one Chrome session per run with the configured identity
func browserOpener(cfg *config.Config) pipeline.Opener {
	return func(ctx context.Context) (pipeline.Browser, error) {
		s, err := browser.Open(ctx, browser.Options{
			Headless:       cfg.Headless,
			UserAgent:      cfg.UserAgent,
			Proxy:          cfg.Proxy,
			ChromePath:     cfg.ChromePath,
			ReadySelector:  cfg.Site.ReadySelector,
			RequestHeaders: cfg.Headers,
			Timeout:        cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Pipeline builds the extraction pipeline for one command invocation.
// progress may be nil.
func (a *Application) Pipeline(progress func(done, total int)) *pipeline.Pipeline {
	cfg := a.Config
	return pipeline.New(a.Opener, pipeline.Options{
		StartURL:       cfg.Site.StartURL,
		Endpoint:       cfg.Site.Endpoint,
		TokenSelector:  cfg.Site.TokenSelector,
		OriginSelector: cfg.Site.OriginSelector,
		OriginField:    cfg.Site.OriginField,
		TokenField:     cfg.Site.TokenField,
		Transport:      models.TransportMode(cfg.Transport),
		RequestDelay:   cfg.RequestDelay,
		Limiter:        a.RateLimiter,
		Proxy:          cfg.Proxy,
		Timeout:        cfg.Timeout,
		Headers:        cfg.Headers,
		OutputPath:     cfg.Output,
		Progress:       progress,
	})
}

// RunContext derives the context a command runs under, bounded by the
// configured run timeout when one is set.
func (a *Application) RunContext(parent context.Context) (context.Context, context.CancelFunc) {
	if a.Config.RunTimeout > 0 {
		return context.WithTimeout(parent, a.Config.RunTimeout)
	}
	return context.WithCancel(parent)
}

// Close releases application resources. Browsers are scoped to a single run
// and are already closed by the time Close is called.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
