// Package tools contains MCP tool implementations for the 3X-UI panel.
package tools

import (
	"github.com/usestring/xui-mcp/pkg/client"
	"github.com/usestring/xui-mcp/pkg/jsoncompact"
)

// MIME type constant.
const MimeJSON = "application/json"

// Unwrap returns the obj of a panel envelope, or a PANEL_ERROR when the
// panel reported failure. Values that are not envelopes pass through.
func Unwrap(v any) (any, error) {
	env, err := client.DecodeEnvelope(v)
	if err != nil {
		return v, nil
	}
	if !env.Success {
		return nil, ErrPanel(env.Msg)
	}
	return env.Obj, nil
}

// Reshape applies the display options shared by the read tools.
func (d *Deps) Reshape(v any, expand, compact bool) any {
	if expand {
		v = jsoncompact.Expand(v)
	}
	if compact {
		v = jsoncompact.CompactValue(v, d.Config.CompactOptions())
	}
	return v
}
