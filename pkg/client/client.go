package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultSessionLeeway is how long before its recorded expiry a session
// cookie stops being used.
const DefaultSessionLeeway = time.Minute

// maxAttempts bounds requests per logical call: the first try plus one retry
// after a re-login.
const maxAttempts = 2

// Client is a 3X-UI panel API client.
//
// A Client is safe for concurrent use. Session state belongs to the Client,
// so clients for different panels never share a token.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	expiredStatuses map[int]bool
	leeway          time.Duration
	now             func() time.Time

	mu      sync.Mutex
	creds   *credentials
	session *session

	loginGroup singleflight.Group
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithSessionExpiredStatus adds HTTP status codes that mean the panel
// rejected the session. 401 is always included.
func WithSessionExpiredStatus(codes ...int) Option {
	return func(c *Client) {
		for _, code := range codes {
			c.expiredStatuses[code] = true
		}
	}
}

// WithSessionLeeway sets how long before cookie expiry the client logs in
// again instead of replaying the cookie.
func WithSessionLeeway(d time.Duration) Option {
	return func(c *Client) {
		c.leeway = d
	}
}

// New creates a client for the panel at panelURL.
//
// panelURL must be an absolute http(s) URL whose path ends with "/": every
// endpoint is formed by appending a relative path to it.
func New(panelURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(panelURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrURLParse, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrURLParse, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrURLParse, panelURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		return nil, fmt.Errorf("%w: %q must end with a trailing slash", ErrURLParse, panelURL)
	}

	c := &Client{
		baseURL:         u.String(),
		httpClient:      &http.Client{},
		expiredStatuses: map[int]bool{http.StatusUnauthorized: true},
		leeway:          DefaultSessionLeeway,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the panel base address, always ending in "/".
func (c *Client) BaseURL() string {
	return c.baseURL
}

// endpoint joins a relative panel path onto the base address.
func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

// do issues an authenticated request. When the panel rejects the session it
// logs in again with the stored credentials and retries, at most once each.
// The caller must close the returned response body.
func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	loginsLeft := 1

	sess, err := c.currentSession()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		loginsLeft--
		if sess, err = c.refresh(ctx, nil); err != nil {
			return nil, err
		}
	}

	for attempt := 1; ; attempt++ {
		resp, err := c.send(ctx, method, path, sess)
		if err != nil {
			return nil, err
		}
		if !c.sessionRejected(resp) {
			return resp, nil
		}
		drain(resp)
		c.invalidate(sess)

		slog.Info("panel rejected session",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Int("attempt", attempt),
		)

		if attempt >= maxAttempts || loginsLeft == 0 {
			return nil, fmt.Errorf("%w: panel rejected session for %s", ErrAuthenticationFailed, path)
		}
		loginsLeft--
		if sess, err = c.refresh(ctx, sess); err != nil {
			return nil, err
		}
	}
}

// send performs one HTTP round trip with the session cookies attached.
func (c *Client) send(ctx context.Context, method, path string, sess *session) (*http.Response, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	sess.attach(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("HTTP request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}

	slog.Debug("HTTP request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return resp, nil
}

// sessionRejected reports whether resp means the panel no longer accepts the
// session. Unauthenticated panels redirect to the login page, so any
// redirect, followed or not, counts as a rejection.
func (c *Client) sessionRejected(resp *http.Response) bool {
	if c.expiredStatuses[resp.StatusCode] {
		return true
	}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 && resp.StatusCode != http.StatusNotModified {
		return true
	}
	return redirected(resp)
}

// redirected reports whether the HTTP client followed a redirect to produce
// resp.
func redirected(resp *http.Response) bool {
	return resp.Request != nil && resp.Request.Response != nil
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
