// internal/transport/client.go
package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/law-makers/ferryroutes/internal/extract"
	"github.com/law-makers/ferryroutes/internal/ratelimit"
	urlutil "github.com/law-makers/ferryroutes/internal/utils/url"
	"github.com/rs/zerolog/log"
)

// Options configures the session client. Cookies, UserAgent and Referer are
// normally copied from the browser session that acquired the page.
type Options struct {
	UserAgent string
	Referer   string
	Proxy     string
	Timeout   time.Duration
	Cookies   []*http.Cookie
	// Headers are sent with every request and override the defaults
	Headers map[string]string
	Limiter ratelimit.RateLimiter
}

// Client performs dependent form POSTs outside the browser while presenting
// the browser's identity.
type Client struct {
	http    *resty.Client
	limiter ratelimit.RateLimiter
}

// New creates a Client
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetHeader("Accept", "text/html, */*; q=0.01")
	client.SetHeader("X-Requested-With", "XMLHttpRequest")

	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Referer != "" {
		client.SetHeader("Referer", opts.Referer)
		if origin := urlutil.Origin(opts.Referer); origin != "" {
			client.SetHeader("Origin", origin)
		}
	}
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}
	if len(opts.Cookies) > 0 {
		client.SetCookies(opts.Cookies)
	}
	client.SetHeaders(opts.Headers)

	return &Client{
		http:    client,
		limiter: opts.Limiter,
	}
}

// PostForm sends body as application/x-www-form-urlencoded and returns the
// response text. Non-2xx responses return *extract.StatusError.
func (c *Client) PostForm(ctx context.Context, endpoint, body string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, endpoint); err != nil {
			return "", err
		}
	}

	start := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", extract.FormContentType).
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", endpoint, err)
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("status", res.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("Form posted")

	if !res.IsSuccess() {
		return "", &extract.StatusError{
			StatusCode: res.StatusCode(),
			Status:     res.Status(),
		}
	}
	return res.String(), nil
}
