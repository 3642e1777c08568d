// internal/browser/session.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/ferryroutes/internal/extract"
	"github.com/law-makers/ferryroutes/internal/utils/headers"
	"github.com/rs/zerolog/log"
)

// idleEvent is Chrome's lifecycle event for "at most two connections for 500ms"
const idleEvent = "networkAlmostIdle"

// Options configures the browser session
type Options struct {
	Headless   bool
	UserAgent  string
	Proxy      string
	ChromePath string
	// ReadySelector must be present before Navigate returns
	ReadySelector string
	// RequestHeaders are added to every in-page form POST
	RequestHeaders map[string]string
	// Timeout bounds each individual browser operation
	Timeout   time.Duration
	ExtraArgs []chromedp.ExecAllocatorOption
}

// Session is a single browser tab that drives the whole run. It is acquired
// once and must be released with Close on every exit path.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
	userAgent   string
	ready       string
	headers     map[string]string

	mu     sync.Mutex
	closed bool
}

// allocatorOptions builds the exec allocator flags shared by every session
func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("log-level", "3"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.WindowSize(1920, 1080),
	}

	if path := FindChrome(opts.ChromePath); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}

	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	return append(allocOpts, opts.ExtraArgs...)
}

// Open launches Chrome and opens the tab used for the run. Cancelling parent
// tears the browser down.
func Open(parent context.Context, opts Options) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocatorOptions(opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		timeout:     opts.Timeout,
		userAgent:   opts.UserAgent,
		ready:       opts.ReadySelector,
		headers:     opts.RequestHeaders,
	}

	// The first Run allocates the browser on tabCtx, so it must carry no
	// deadline of its own. Later calls go through s.run.
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Debug().
		Bool("headless", opts.Headless).
		Str("user_agent", opts.UserAgent).
		Msg("Browser session started")

	return s, nil
}

// run executes actions on the tab, bounded by the session timeout and by ctx
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url and returns once the new document reached network
// quiescence and, when a ready selector is configured, that element is present.
func (s *Session) Navigate(ctx context.Context, url string) error {
	var (
		mu       sync.Mutex
		idle     = make(map[cdp.LoaderID]bool)
		idleCh   = make(chan struct{}, 1)
		loaderID cdp.LoaderID
	)

	listenCtx, stopListening := context.WithCancel(s.ctx)
	defer stopListening()

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == idleEvent {
			mu.Lock()
			idle[e.LoaderID] = true
			mu.Unlock()
			select {
			case idleCh <- struct{}{}:
			default:
			}
		}
	})

	start := time.Now()
	err := s.run(ctx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, id, errorText, _, err := page.Navigate(url).Do(ctx)
			if err != nil {
				return err
			}
			if errorText != "" {
				return fmt.Errorf("page load error %s", errorText)
			}
			loaderID = id
			return nil
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for {
				mu.Lock()
				done := idle[loaderID]
				mu.Unlock()
				if done {
					return nil
				}
				select {
				case <-idleCh:
				case <-ctx.Done():
					return fmt.Errorf("waiting for network idle: %w", ctx.Err())
				}
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	if s.ready != "" {
		if err := s.run(ctx, chromedp.WaitReady(s.ready, chromedp.ByQuery)); err != nil {
			return fmt.Errorf("waiting for %s: %w", s.ready, err)
		}
	}

	log.Debug().
		Str("url", url).
		Dur("elapsed", time.Since(start)).
		Msg("Page loaded")

	return nil
}

// HTML returns the rendered markup of the current document
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

type fetchResult struct {
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
	Body       string `json:"body"`
}

// PostForm sends a form-encoded POST with fetch() from inside the page, so the
// request carries the page's cookies and origin.
func (s *Session) PostForm(ctx context.Context, endpoint, body string) (string, error) {
	hdrs := headers.Merge(s.headers, map[string]string{"content-type": extract.FormContentType})
	hdrJSON, err := json.Marshal(hdrs)
	if err != nil {
		return "", err
	}

	script := fmt.Sprintf(`(async () => {
	const r = await fetch(%q, {
		method: "POST",
		headers: %s,
		body: %q,
		credentials: "same-origin"
	});
	return {status: r.status, statusText: r.statusText, body: await r.text()};
})()`, endpoint, hdrJSON, body)

	var res fetchResult
	err = s.run(ctx, chromedp.Evaluate(script, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return "", fmt.Errorf("in-page fetch failed: %w", err)
	}

	if res.Status < 200 || res.Status > 299 {
		return "", &extract.StatusError{
			StatusCode: res.Status,
			Status:     strings.TrimSpace(fmt.Sprintf("%d %s", res.Status, res.StatusText)),
		}
	}
	return res.Body, nil
}

// Cookies exports the browser cookies visible to url
func (s *Session) Cookies(ctx context.Context, url string) ([]*http.Cookie, error) {
	var cookies []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().WithURLs([]string{url}).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		switch c.SameSite {
		case network.CookieSameSiteStrict:
			hc.SameSite = http.SameSiteStrictMode
		case network.CookieSameSiteLax:
			hc.SameSite = http.SameSiteLaxMode
		case network.CookieSameSiteNone:
			hc.SameSite = http.SameSiteNoneMode
		}
		out = append(out, hc)
	}
	return out, nil
}

// UserAgent returns the identity string the browser was launched with
func (s *Session) UserAgent() string {
	return s.userAgent
}

// Close shuts down the tab and the browser process. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.cancel()
	s.allocCancel()

	log.Debug().Msg("Browser session closed")
	return nil
}
