package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/usestring/xui-mcp/internal/cache"
	"github.com/usestring/xui-mcp/internal/config"
	"github.com/usestring/xui-mcp/internal/query"
	"github.com/usestring/xui-mcp/internal/schema"
	"github.com/usestring/xui-mcp/pkg/client"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Client *client.Client
	Cache  *cache.ResponseCache
	Config *config.Config
	Query  *query.Engine
}

// Read targets. They double as the names of the built-in response schemas.
const (
	TargetInbounds     = schema.Inbounds
	TargetInbound      = schema.InboundOne
	TargetTrafficEmail = schema.TrafficEmail
	TargetTrafficUUID  = schema.TrafficUUID
)

// Fetch reads one panel response. Responses are served from the cache unless
// refresh is set; the second result reports a cache hit. A failed read drops
// the cached entry. key is the inbound
// id, client email or client UUID and is ignored for the inbound list.
func (d *Deps) Fetch(ctx context.Context, target, key string, refresh bool) (any, bool, error) {
	read, err := d.reader(target, key)
	if err != nil {
		return nil, false, err
	}

	cacheKey := target + "/" + key
	if !refresh && d.Cache != nil {
		if v, ok := d.Cache.Get(cacheKey); ok {
			return v, true, nil
		}
	}

	start := time.Now()
	v, err := read(ctx)
	if err != nil {
		// A failed refresh must not leave the older response to be served.
		if d.Cache != nil {
			d.Cache.Invalidate(cacheKey)
		}
		return nil, false, WrapPanelError(err)
	}
	slog.Debug("panel read",
		slog.String("target", target),
		slog.String("key", key),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if d.Cache != nil {
		d.Cache.Put(cacheKey, v)
	}
	return v, false, nil
}

func (d *Deps) reader(target, key string) (func(context.Context) (any, error), error) {
	switch target {
	case TargetInbounds:
		return d.Client.GetInbounds, nil
	case TargetInbound:
		id, err := strconv.Atoi(key)
		if err != nil || id <= 0 {
			return nil, ErrInvalidInput(fmt.Sprintf("inbound key must be a positive integer id, got %q", key))
		}
		return func(ctx context.Context) (any, error) { return d.Client.GetInbound(ctx, id) }, nil
	case TargetTrafficEmail:
		if key == "" {
			return nil, ErrInvalidInput("key (client email) is required for traffic_email")
		}
		return func(ctx context.Context) (any, error) { return d.Client.GetClientTrafficByEmail(ctx, key) }, nil
	case TargetTrafficUUID:
		if key == "" {
			return nil, ErrInvalidInput("key (client UUID) is required for traffic_uuid")
		}
		return func(ctx context.Context) (any, error) { return d.Client.GetClientTrafficByUUID(ctx, key) }, nil
	default:
		return nil, ErrInvalidInput(fmt.Sprintf("unknown target %q: expected inbounds, inbound, traffic_email or traffic_uuid", target))
	}
}
