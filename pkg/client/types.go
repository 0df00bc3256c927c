package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Error kinds returned by the client. Match them with errors.Is.
var (
	// ErrURLParse means the panel base address is malformed.
	ErrURLParse = errors.New("invalid panel URL")
	// ErrRequestFailed wraps transport failures (DNS, connect, TLS, timeout).
	ErrRequestFailed = errors.New("panel request failed")
	// ErrNotAuthenticated means no session is held and no credentials are
	// stored to obtain one.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAuthenticationFailed means the panel rejected the credentials or
	// kept rejecting the session after a fresh login.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrJSONParse means a response body could not be decoded as JSON.
	ErrJSONParse = errors.New("invalid JSON response")
)

// APIError represents an unexpected error status from the panel.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("panel API error %d on %s", e.StatusCode, e.Path)
	}
	return fmt.Sprintf("panel API error %d on %s: %s", e.StatusCode, e.Path, e.Message)
}

// maxErrorBody caps how much of an error body is kept in APIError.Message.
const maxErrorBody = 512

// newAPIError builds an APIError from an error response body, preferring the
// panel's "msg" field when the body is a panel envelope. HTML pages (reverse
// proxy errors, the panel's login page) are reduced to their title or text.
func newAPIError(status int, path string, body []byte) *APIError {
	var env Envelope
	if json.Unmarshal(body, &env) == nil && env.Msg != "" {
		return &APIError{StatusCode: status, Path: path, Message: env.Msg}
	}
	msg := strings.TrimSpace(string(body))
	if looksLikeHTML(msg) {
		msg = htmlSummary(body)
	}
	if len(msg) > maxErrorBody {
		msg = truncateUTF8(msg, maxErrorBody) + "..."
	}
	return &APIError{StatusCode: status, Path: path, Message: msg}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(s[:min(len(s), 64)])
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// htmlSummary returns the page title, or the collapsed body text when the
// page has no title.
func htmlSummary(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return strings.TrimSpace(string(body))
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

// Envelope is the {success, msg, obj} wrapper the panel puts around API
// results.
type Envelope struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
	Obj     any    `json:"obj,omitempty"`
}

// DecodeEnvelope interprets a value returned by a read operation as a panel
// envelope. It fails if v is not a JSON object with a boolean "success".
func DecodeEnvelope(v any) (*Envelope, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("panel response is %T, not an object", v)
	}
	success, ok := m["success"].(bool)
	if !ok {
		return nil, fmt.Errorf("panel response has no boolean \"success\" field")
	}
	env := &Envelope{Success: success, Obj: m["obj"]}
	if msg, ok := m["msg"].(string); ok {
		env.Msg = msg
	}
	return env, nil
}
