package tools

import (
	"context"
	"strconv"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// InboundsListInput is the input for xui_inbounds_list.
type InboundsListInput struct {
	Refresh bool  `json:"refresh,omitempty" jsonschema:"Bypass the response cache (default: false)"`
	Expand  *bool `json:"expand,omitempty" jsonschema:"Decode settings, streamSettings and sniffing from their embedded JSON strings (default: true)"`
	Compact *bool `json:"compact,omitempty" jsonschema:"Trim long arrays and strings (default: true)"`
}

// InboundsListOutput is the output of xui_inbounds_list.
type InboundsListOutput struct {
	Inbounds any  `json:"inbounds"`
	Count    int  `json:"count"`
	Cached   bool `json:"cached"`
}

// ToolInboundsList lists every inbound configured on the panel.
func ToolInboundsList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input InboundsListInput) (*sdkmcp.CallToolResult, InboundsListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input InboundsListInput) (*sdkmcp.CallToolResult, InboundsListOutput, error) {
		v, cached, err := d.Fetch(ctx, TargetInbounds, "", input.Refresh)
		if err != nil {
			return nil, InboundsListOutput{}, err
		}
		obj, err := Unwrap(v)
		if err != nil {
			return nil, InboundsListOutput{}, err
		}

		output := InboundsListOutput{Cached: cached}
		if list, ok := obj.([]any); ok {
			output.Count = len(list)
		}
		output.Inbounds = d.Reshape(obj, boolOr(input.Expand, true), boolOr(input.Compact, true))
		return nil, output, nil
	}
}

// InboundGetInput is the input for xui_inbound_get.
type InboundGetInput struct {
	ID     int   `json:"id" jsonschema:"Inbound id as shown by xui_inbounds_list"`
	Expand *bool `json:"expand,omitempty" jsonschema:"Decode embedded JSON strings (default: true)"`
}

// InboundGetOutput is the output of xui_inbound_get.
type InboundGetOutput struct {
	Inbound any `json:"inbound"`
}

// ToolInboundGet fetches one inbound by id. It always reads through to the
// panel and is never compacted.
func ToolInboundGet(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input InboundGetInput) (*sdkmcp.CallToolResult, InboundGetOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input InboundGetInput) (*sdkmcp.CallToolResult, InboundGetOutput, error) {
		if input.ID <= 0 {
			return nil, InboundGetOutput{}, ErrInvalidInput("id must be a positive integer")
		}

		key := strconv.Itoa(input.ID)
		v, _, err := d.Fetch(ctx, TargetInbound, key, true)
		if err != nil {
			return nil, InboundGetOutput{}, err
		}
		obj, err := Unwrap(v)
		if err != nil {
			return nil, InboundGetOutput{}, err
		}
		if obj == nil {
			return nil, InboundGetOutput{}, ErrNotFound("inbound", key)
		}

		return nil, InboundGetOutput{Inbound: d.Reshape(obj, boolOr(input.Expand, true), false)}, nil
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
