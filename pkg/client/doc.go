// Package client provides a Go SDK for the 3X-UI panel management API.
//
// The panel authenticates with a username and password and hands back a
// session cookie. The client keeps that cookie, replays it on every API call,
// and when the panel stops accepting it, logs in again with the stored
// credentials and retries the call once.
//
// # Quick Start
//
// The base address must end with a trailing slash; endpoint paths are
// appended to it verbatim:
//
//	c, err := client.New("https://panel.example.com:2053/secret-path/")
//	if err != nil {
//	    return err
//	}
//	if err := c.Login(ctx, "admin", "admin"); err != nil {
//	    return err
//	}
//	inbounds, err := c.GetInbounds(ctx)
//
// Use custom configuration:
//
//	c, err := client.New(panelURL,
//	    client.WithHTTPClient(customHTTPClient),
//	    client.WithSessionExpiredStatus(http.StatusNotFound),
//	)
//
// # Results
//
// Read operations return the decoded JSON body unmodified, usually a
// map[string]any in the panel's {success, msg, obj} shape. DecodeEnvelope
// interprets it:
//
//	env, err := client.DecodeEnvelope(inbounds)
//	if err == nil && !env.Success {
//	    log.Printf("panel said: %s", env.Msg)
//	}
//
// GetBackup returns the HTTP status code of the panel's reply.
//
// # Sessions
//
// A session is considered rejected when the panel answers with 401 (or a
// status added with WithSessionExpiredStatus) or redirects the request.
// Cookies that carry a lifetime are renewed proactively shortly before they
// expire (see WithSessionLeeway). Each call performs at most one login and
// one retry; if the fresh session is rejected too, the call fails with
// ErrAuthenticationFailed.
//
// A Client is safe for concurrent use. Concurrent calls that find the
// session rejected share a single login request.
//
// # Errors
//
// Failures wrap one of ErrURLParse, ErrRequestFailed, ErrNotAuthenticated,
// ErrAuthenticationFailed or ErrJSONParse, or are an *APIError for
// unexpected panel statuses:
//
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
//	    // ...
//	}
package client
