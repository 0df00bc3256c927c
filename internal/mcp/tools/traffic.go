package tools

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/xui-mcp/internal/config"
)

// maxTrafficLookups bounds the number of keys one call may look up.
const maxTrafficLookups = 100

// ClientTrafficInput is the input for xui_client_traffic.
type ClientTrafficInput struct {
	Emails []string `json:"emails,omitempty" jsonschema:"Client emails to look up"`
	UUIDs  []string `json:"uuids,omitempty" jsonschema:"Client UUIDs to look up"`
}

// TrafficResult is the outcome of one lookup. Error is set instead of
// Traffic when the lookup failed.
type TrafficResult struct {
	Kind    string `json:"kind"`
	Key     string `json:"key"`
	Traffic any    `json:"traffic,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ClientTrafficOutput is the output of xui_client_traffic.
type ClientTrafficOutput struct {
	Results []TrafficResult `json:"results,omitempty"`
	Failed  int             `json:"failed"`
}

type trafficLookup struct {
	kind, target, key string
}

// ToolClientTraffic looks up traffic counters for several clients
// concurrently. Results keep the order of the input, emails first.
func ToolClientTraffic(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ClientTrafficInput) (*sdkmcp.CallToolResult, ClientTrafficOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ClientTrafficInput) (*sdkmcp.CallToolResult, ClientTrafficOutput, error) {
		var lookups []trafficLookup
		for _, email := range input.Emails {
			lookups = append(lookups, trafficLookup{kind: "email", target: TargetTrafficEmail, key: email})
		}
		for _, uuid := range input.UUIDs {
			lookups = append(lookups, trafficLookup{kind: "uuid", target: TargetTrafficUUID, key: uuid})
		}
		if len(lookups) == 0 {
			return nil, ClientTrafficOutput{}, ErrInvalidInput("at least one of emails or uuids is required")
		}
		if len(lookups) > maxTrafficLookups {
			return nil, ClientTrafficOutput{}, ErrInvalidInput(fmt.Sprintf("at most %d lookups per call, got %d", maxTrafficLookups, len(lookups)))
		}

		workers := d.Config.TrafficFetchWorkers
		if workers <= 0 {
			workers = config.DefaultTrafficFetchWorkers
		}

		results := make([]TrafficResult, len(lookups))
		var g errgroup.Group
		g.SetLimit(workers)

		for i, l := range lookups {
			g.Go(func() error {
				results[i] = TrafficResult{Kind: l.kind, Key: l.key}
				traffic, err := d.lookupTraffic(ctx, l)
				if err != nil {
					// One failed client does not fail the batch.
					slog.Debug("traffic lookup failed",
						slog.String("kind", l.kind),
						slog.String("key", l.key),
						slog.String("error", err.Error()),
					)
					results[i].Error = err.Error()
					return nil
				}
				results[i].Traffic = traffic
				return nil
			})
		}
		_ = g.Wait()

		output := ClientTrafficOutput{Results: results}
		for _, r := range results {
			if r.Error != "" {
				output.Failed++
			}
		}
		return nil, output, nil
	}
}

func (d *Deps) lookupTraffic(ctx context.Context, l trafficLookup) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapPanelError(err)
	}
	if l.key == "" {
		return nil, ErrInvalidInput(l.kind + " must not be empty")
	}
	v, _, err := d.Fetch(ctx, l.target, l.key, true)
	if err != nil {
		return nil, err
	}
	obj, err := Unwrap(v)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, ErrNotFound("client "+l.kind, l.key)
	}
	return obj, nil
}
