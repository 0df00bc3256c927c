package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
)

// loginPath is the panel's login endpoint relative to the base address.
const loginPath = "login/"

// sharedLoginTimeout bounds a re-login shared by concurrent calls.
const sharedLoginTimeout = 30 * time.Second

type credentials struct {
	username string
	password string
}

// loginRequest is the JSON body posted to the login endpoint.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the panel's reply to a login attempt.
type loginResponse struct {
	Success *bool  `json:"success"`
	Msg     string `json:"msg"`
}

// session is an immutable snapshot of the cookies issued by one successful
// login.
type session struct {
	cookies   []*http.Cookie
	expiresAt time.Time // zero when the panel sent no lifetime
}

// newSession builds a session from login response cookies.
// Returns nil if the response set no cookies.
func newSession(cookies []*http.Cookie, now time.Time) *session {
	if len(cookies) == 0 {
		return nil
	}

	s := &session{cookies: make([]*http.Cookie, 0, len(cookies))}
	for _, ck := range cookies {
		s.cookies = append(s.cookies, &http.Cookie{Name: ck.Name, Value: ck.Value})

		var exp time.Time
		switch {
		case ck.MaxAge > 0:
			exp = now.Add(time.Duration(ck.MaxAge) * time.Second)
		case ck.MaxAge < 0:
			exp = now
		case !ck.Expires.IsZero():
			exp = ck.Expires
		default:
			continue
		}
		if s.expiresAt.IsZero() || exp.Before(s.expiresAt) {
			s.expiresAt = exp
		}
	}
	return s
}

// usable reports whether the session can still be replayed at now.
func (s *session) usable(now time.Time, leeway time.Duration) bool {
	return s.expiresAt.IsZero() || now.Add(leeway).Before(s.expiresAt)
}

// attach adds the session cookies to req.
func (s *session) attach(req *http.Request) {
	for _, ck := range s.cookies {
		req.AddCookie(ck)
	}
}

// Login authenticates against the panel and stores the credentials for later
// re-login. Any previous credentials and session are replaced; if the login
// fails the client is left without a session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	creds := &credentials{username: username, password: password}

	c.mu.Lock()
	c.creds = creds
	c.session = nil
	c.mu.Unlock()

	if _, err := c.login(ctx, creds); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	return nil
}

// Authenticated reports whether the client holds a session it would replay
// without logging in first.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.usable(c.now(), c.leeway)
}

// currentSession returns the stored session if it is still usable.
// A nil session with a nil error means a login is needed and possible.
func (c *Client) currentSession() (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		if c.session.usable(c.now(), c.leeway) {
			return c.session, nil
		}
		c.session = nil
	}
	if c.creds == nil {
		return nil, fmt.Errorf("%w: call Login before using the panel API", ErrNotAuthenticated)
	}
	return nil, nil
}

// invalidate drops stale if it is still the stored session.
func (c *Client) invalidate(stale *session) {
	c.mu.Lock()
	if c.session == stale {
		c.session = nil
	}
	c.mu.Unlock()
}

// refresh obtains a session to replace stale (nil when there was none).
// If another caller already replaced it, that session is reused; concurrent
// logins are collapsed into one request.
func (c *Client) refresh(ctx context.Context, stale *session) (*session, error) {
	c.mu.Lock()
	cur := c.replacement(stale)
	creds := c.creds
	c.mu.Unlock()

	if cur != nil {
		return cur, nil
	}
	if creds == nil {
		return nil, fmt.Errorf("%w: no stored credentials to log in again", ErrNotAuthenticated)
	}

	// The shared login outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := c.loginGroup.DoChan("login", func() (any, error) {
		c.mu.Lock()
		cur := c.replacement(stale)
		c.mu.Unlock()
		if cur != nil {
			return cur, nil
		}
		loginCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoginTimeout)
		defer cancel()
		return c.login(loginCtx, creds)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("logging in again: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("logging in again: %w", res.Err)
		}
		slog.Info("panel session renewed", slog.Bool("shared", res.Shared))
		return res.Val.(*session), nil
	}
}

// replacement returns the stored session if it differs from stale and is
// still usable. c.mu must be held.
func (c *Client) replacement(stale *session) *session {
	if cur := c.session; cur != nil && cur != stale && cur.usable(c.now(), c.leeway) {
		return cur
	}
	return nil
}

// login posts creds to the panel and, on success, stores the new session if
// creds are still the client's credentials.
func (c *Client) login(ctx context.Context, creds *credentials) (*session, error) {
	start := time.Now()

	payload, err := json.Marshal(loginRequest{Username: creds.username, Password: creds.password})
	if err != nil {
		return nil, fmt.Errorf("encoding login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(loginPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("login request failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, fmt.Errorf("%w: POST %s: %w", ErrRequestFailed, loginPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading login response: %w", ErrRequestFailed, err)
	}

	slog.Debug("login request completed",
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: panel returned status %d", ErrAuthenticationFailed, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, newAPIError(resp.StatusCode, loginPath, body)
	}

	if err := checkLoginBody(resp.Header.Get("Content-Type"), body); err != nil {
		return nil, err
	}

	sess := newSession(resp.Cookies(), c.now())
	if sess == nil {
		return nil, fmt.Errorf("%w: login response carried no session cookie", ErrAuthenticationFailed)
	}

	c.mu.Lock()
	if c.creds == creds {
		c.session = sess
	}
	c.mu.Unlock()

	return sess, nil
}

// checkLoginBody inspects the login response body. The panel answers bad
// credentials with 200 and {"success": false}.
func checkLoginBody(contentType string, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	declared := strings.HasSuffix(mediaType, "json")
	if !declared && (contentType != "" || trimmed[0] != '{') {
		return nil
	}

	var lr loginResponse
	if err := json.Unmarshal(trimmed, &lr); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", ErrJSONParse, loginPath, err)
	}
	if lr.Success != nil && !*lr.Success {
		msg := lr.Msg
		if msg == "" {
			msg = "panel rejected credentials"
		}
		return fmt.Errorf("%w: %s", ErrAuthenticationFailed, msg)
	}
	return nil
}
