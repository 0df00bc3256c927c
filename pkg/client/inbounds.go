package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Panel API paths relative to the base address.
const (
	pathInboundsList   = "panel/api/inbounds/list"
	pathInboundGet     = "panel/api/inbounds/get/"
	pathTrafficByEmail = "panel/api/inbounds/getClientTraffics/"
	pathTrafficByUUID  = "panel/api/inbounds/getClientTrafficsById/"
	pathCreateBackup   = "panel/api/inbounds/createbackup"
)

// GetInbounds retrieves every inbound configured on the panel.
func (c *Client) GetInbounds(ctx context.Context) (any, error) {
	v, err := c.getJSON(ctx, pathInboundsList)
	if err != nil {
		return nil, fmt.Errorf("listing inbounds: %w", err)
	}
	return v, nil
}

// GetInbound retrieves a single inbound by its numeric ID.
func (c *Client) GetInbound(ctx context.Context, id int) (any, error) {
	v, err := c.getJSON(ctx, pathInboundGet+strconv.Itoa(id))
	if err != nil {
		return nil, fmt.Errorf("getting inbound %d: %w", id, err)
	}
	return v, nil
}

// GetClientTrafficByEmail retrieves traffic counters for the client with the
// given email.
func (c *Client) GetClientTrafficByEmail(ctx context.Context, email string) (any, error) {
	v, err := c.getJSON(ctx, pathTrafficByEmail+url.PathEscape(email))
	if err != nil {
		return nil, fmt.Errorf("getting traffic for client %q: %w", email, err)
	}
	return v, nil
}

// GetClientTrafficByUUID retrieves traffic counters for the client with the
// given UUID.
func (c *Client) GetClientTrafficByUUID(ctx context.Context, uuid string) (any, error) {
	v, err := c.getJSON(ctx, pathTrafficByUUID+url.PathEscape(uuid))
	if err != nil {
		return nil, fmt.Errorf("getting traffic for client id %q: %w", uuid, err)
	}
	return v, nil
}

// GetBackup asks the panel to create a configuration backup and returns the
// HTTP status code of the reply. A non-2xx status is returned as a value,
// not an error.
func (c *Client) GetBackup(ctx context.Context) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, pathCreateBackup)
	if err != nil {
		return 0, fmt.Errorf("creating backup: %w", err)
	}
	drain(resp)
	return resp.StatusCode, nil
}

// getJSON performs an authenticated GET and decodes the JSON body as-is.
func (c *Client) getJSON(ctx context.Context, path string) (any, error) {
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, newAPIError(resp.StatusCode, path, body)
	}

	var v any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", ErrJSONParse, path, err)
	}
	return v, nil
}
