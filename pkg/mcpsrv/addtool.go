package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/xui-mcp/internal/mcp/tools"
)

// AddTool registers a tool with the server, panicking at registration when
// the zero value of Out fails the output schema the SDK infers for it. The
// usual cause is a slice field without omitempty, which marshals as null.
//
// Use this instead of [sdkmcp.AddTool] to get the additional check.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
