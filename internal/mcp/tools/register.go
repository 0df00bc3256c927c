package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "xui_inbounds_list",
		Description: "List all inbounds configured on the 3X-UI panel. Returns {inbounds, count, cached}. Embedded JSON fields (settings, streamSettings, sniffing) are decoded and long arrays trimmed by default; set compact=false for complete client lists. Served from a short-lived cache unless refresh=true.",
	}, ToolInboundsList(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "xui_inbound_get",
		Description: "Get one inbound by id with its full, untrimmed settings. Use xui_inbounds_list first to find ids.",
	}, ToolInboundGet(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "xui_client_traffic",
		Description: "Get upload/download counters for clients by email and/or UUID. Lookups run concurrently; a failed lookup is reported in its result's error field without failing the others.",
	}, ToolClientTraffic(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "xui_backup",
		Description: "Trigger the panel's database backup (sent to the panel's configured Telegram admins). Returns the HTTP status the panel answered with.",
	}, ToolBackup(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "xui_query",
		Description: "Extract values from a panel response with a jq expression. The expression sees the full {success, msg, obj} envelope, so start paths with .obj. Embedded JSON strings need fromjson unless expand=true. Returns {values, errors, raw_count}.",
	}, ToolQuery(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "xui_validate",
		Description: "Validate a panel response against a JSON Schema, by default the built-in schema of the documented response shape. Useful to detect panel versions whose API changed.",
	}, ToolValidate(d))
}
