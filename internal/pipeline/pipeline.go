// Package pipeline runs a full extraction: acquire the page, resolve every
// origin, persist the result set.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/law-makers/ferryroutes/internal/extract"
	"github.com/law-makers/ferryroutes/internal/ratelimit"
	"github.com/law-makers/ferryroutes/internal/runctx"
	"github.com/law-makers/ferryroutes/internal/transport"
	"github.com/law-makers/ferryroutes/internal/utils/output"
	"github.com/law-makers/ferryroutes/pkg/models"
)

// Browser is the page a run is driven through. It is opened once per run and
// closed on every exit path.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	PostForm(ctx context.Context, endpoint, body string) (string, error)
	Cookies(ctx context.Context, url string) ([]*http.Cookie, error)
	UserAgent() string
	Close() error
}

// Opener starts a Browser
type Opener func(ctx context.Context) (Browser, error)

// Options configures a Pipeline
type Options struct {
	StartURL       string
	Endpoint       string
	TokenSelector  string
	OriginSelector string
	OriginField    string
	TokenField     string

	Transport    models.TransportMode
	RequestDelay time.Duration
	// Limiter caps the request rate of the http transport
	Limiter ratelimit.RateLimiter
	Proxy   string
	Timeout time.Duration
	// Headers are added to every dependent request
	Headers map[string]string

	OutputPath string
	Progress   func(done, total int)
}

// Result summarises a completed run
type Result struct {
	Records    models.ResultSet
	Failures   []extract.OriginFailure
	OutputPath string
	Duration   time.Duration
}

// Pipeline wires the browser, the resolver and persistence together
type Pipeline struct {
	open Opener
	opts Options
}

// New creates a Pipeline
func New(open Opener, opts Options) *Pipeline {
	if opts.Transport == "" {
		opts.Transport = models.TransportPage
	}
	return &Pipeline{open: open, opts: opts}
}

// Run performs one extraction and writes the result set to the output path.
// Fatal errors (missing token, malformed input, cancellation) return before
// anything is written.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ctx = runctx.WithRunContext(ctx)
	logger := runctx.Logger(ctx)

	logger.Info().
		Str("start_url", p.opts.StartURL).
		Str("endpoint", p.opts.Endpoint).
		Str("transport", string(p.opts.Transport)).
		Msg("Run started")

	b, err := p.open(ctx)
	if err != nil {
		return nil, runctx.NewRunError(ctx, fmt.Errorf("open browser: %w", err))
	}
	defer b.Close()

	sc, err := p.acquire(ctx, b)
	if err != nil {
		return nil, runctx.NewRunError(ctx, err)
	}
	logger.Info().
		Int("origins", len(sc.Origins)).
		Msg("Session acquired")

	poster, err := p.poster(ctx, b)
	if err != nil {
		return nil, runctx.NewRunError(ctx, err)
	}

	resolver, err := extract.NewResolver(extract.ResolverOptions{
		Endpoint:    p.opts.Endpoint,
		OriginField: p.opts.OriginField,
		TokenField:  p.opts.TokenField,
		Poster:      poster,
		Pacer:       ratelimit.NewFixedDelay(p.opts.RequestDelay),
		Logger:      logger,
		Progress:    p.opts.Progress,
	})
	if err != nil {
		return nil, runctx.NewRunError(ctx, err)
	}

	report, err := resolver.Resolve(ctx, sc)
	if err != nil {
		return nil, runctx.NewRunError(ctx, err)
	}

	if err := output.Save(report.Records, p.opts.OutputPath); err != nil {
		return nil, runctx.NewRunError(ctx, fmt.Errorf("save %s: %w", p.opts.OutputPath, err))
	}

	res := &Result{
		Records:    report.Records,
		Failures:   report.Failures,
		OutputPath: p.opts.OutputPath,
		Duration:   runctx.Elapsed(ctx),
	}

	logger.Info().
		Int("records", len(res.Records)).
		Int("failures", len(res.Failures)).
		Str("file", res.OutputPath).
		Dur("duration", res.Duration).
		Msg("Run complete")

	return res, nil
}

// Origins acquires the session context only. No dependent request is made.
func (p *Pipeline) Origins(ctx context.Context) (*models.SessionContext, error) {
	ctx = runctx.WithRunContext(ctx)

	b, err := p.open(ctx)
	if err != nil {
		return nil, runctx.NewRunError(ctx, fmt.Errorf("open browser: %w", err))
	}
	defer b.Close()

	sc, err := p.acquire(ctx, b)
	if err != nil {
		return nil, runctx.NewRunError(ctx, err)
	}
	return sc, nil
}

func (p *Pipeline) acquire(ctx context.Context, b Browser) (*models.SessionContext, error) {
	if err := b.Navigate(ctx, p.opts.StartURL); err != nil {
		return nil, err
	}
	html, err := b.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return extract.NewAcquirer(p.opts.TokenSelector, p.opts.OriginSelector).AcquireHTML(strings.NewReader(html))
}

// poster picks the channel dependent requests travel through
func (p *Pipeline) poster(ctx context.Context, b Browser) (extract.Poster, error) {
	switch p.opts.Transport {
	case models.TransportPage:
		return b, nil
	case models.TransportHTTP:
		cookies, err := b.Cookies(ctx, p.opts.StartURL)
		if err != nil {
			return nil, err
		}
		runctx.Logger(ctx).Debug().
			Int("cookies", len(cookies)).
			Msg("Copied browser cookies to HTTP client")
		return transport.New(transport.Options{
			UserAgent: b.UserAgent(),
			Referer:   p.opts.StartURL,
			Proxy:     p.opts.Proxy,
			Timeout:   p.opts.Timeout,
			Cookies:   cookies,
			Headers:   p.opts.Headers,
			Limiter:   p.opts.Limiter,
		}), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", p.opts.Transport)
	}
}
