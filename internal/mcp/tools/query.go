package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/xui-mcp/internal/config"
)

// hardMaxQueryResults caps max_results regardless of input.
const hardMaxQueryResults = 1000

// QueryInput is the input for xui_query.
type QueryInput struct {
	Expression  string `json:"expression" jsonschema:"jq expression evaluated against the full panel response, e.g. .obj[] | {id, remark, port}"`
	Target      string `json:"target,omitempty" jsonschema:"Response to query: inbounds, inbound, traffic_email or traffic_uuid (default: inbounds)"`
	Key         string `json:"key,omitempty" jsonschema:"Inbound id, client email or client UUID for the non-list targets"`
	Expand      bool   `json:"expand,omitempty" jsonschema:"Decode embedded JSON strings before querying (default: false, use fromjson instead)"`
	Refresh     bool   `json:"refresh,omitempty" jsonschema:"Bypass the response cache (default: false)"`
	Deduplicate bool   `json:"deduplicate,omitempty" jsonschema:"Remove duplicate values (default: false)"`
	MaxResults  int    `json:"max_results,omitempty" jsonschema:"Max values to return (default: 100, max: 1000)"`
}

// QueryOutput is the output of xui_query.
type QueryOutput struct {
	Values    []any    `json:"values,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	RawCount  int      `json:"raw_count"`
	Truncated bool     `json:"truncated,omitempty"`
}

// ToolQuery runs a jq expression over one panel response.
func ToolQuery(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryInput) (*sdkmcp.CallToolResult, QueryOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input QueryInput) (*sdkmcp.CallToolResult, QueryOutput, error) {
		if input.Expression == "" {
			return nil, QueryOutput{}, ErrInvalidInput("expression is required")
		}
		if err := d.Query.ValidateExpression(input.Expression); err != nil {
			return nil, QueryOutput{}, ErrInvalidInput(err.Error())
		}

		target := input.Target
		if target == "" {
			target = TargetInbounds
		}

		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = d.Config.QueryMaxResultsDefault
		}
		if maxResults <= 0 {
			maxResults = config.DefaultQueryMaxResults
		}
		maxResults = min(maxResults, hardMaxQueryResults)

		v, _, err := d.Fetch(ctx, target, input.Key, input.Refresh)
		if err != nil {
			return nil, QueryOutput{}, err
		}
		if input.Expand {
			v = d.Reshape(v, true, false)
		}

		result, err := d.Query.Query(ctx, v, input.Expression, input.Deduplicate, maxResults)
		if err != nil {
			return nil, QueryOutput{}, WrapPanelError(err)
		}

		return nil, QueryOutput{
			Values:    result.Values,
			Errors:    result.Errors,
			RawCount:  result.RawCount,
			Truncated: result.Truncated,
		}, nil
	}
}
