package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleTrafficReport implements the traffic report workflow.
func HandleTrafficReport(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		email := ""
		if req.Params != nil && req.Params.Arguments != nil {
			email = strings.TrimSpace(req.Params.Arguments["email"])
		}

		var sb strings.Builder

		sb.WriteString("# 3X-UI Traffic Report\n\n")
		sb.WriteString("You are operating a 3X-UI (Xray) panel")
		if cfg != nil && cfg.PanelHost != "" {
			fmt.Fprintf(&sb, " at %s", cfg.PanelHost)
		}
		sb.WriteString(". Produce a concise traffic report from live panel data.\n\n")

		sb.WriteString("## Data Shapes\n\n")
		sb.WriteString("- Every panel response is an envelope `{success, msg, obj}`; tools unwrap it and fail with PANEL_ERROR when success is false\n")
		sb.WriteString("- Traffic records: `{id, inboundId, enable, email, up, down, total, expiryTime}`\n")
		sb.WriteString("- `up`/`down` are bytes; `total` is the quota in bytes (0 = unlimited); `expiryTime` is Unix milliseconds (0 = never, negative = starts on first use)\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		if email != "" {
			fmt.Fprintf(&sb, "1. **Fetch the client** - call `xui_client_traffic` with `emails: [%q]`\n", email)
			sb.WriteString("   - A NOT_FOUND error in the result means no client has this email\n")
			sb.WriteString("2. **Find its inbound** - call `xui_inbound_get` with the record's `inboundId` for protocol, port and remark\n")
			sb.WriteString("3. **Report** - usage, remaining quota, expiry and whether the client is enabled\n\n")
		} else {
			sb.WriteString("1. **List inbounds** - call `xui_inbounds_list` to see protocols, ports and per-client `clientStats`\n")
			sb.WriteString("2. **Rank clients** - call `xui_query` with\n")
			sb.WriteString("   `[.obj[].clientStats[]? | {email, used: (.up + .down), total, expiryTime, enable}] | sort_by(-.used) | .[]`\n")
			sb.WriteString("3. **Flag risks** - clients with `total > 0` and `used/total > 0.9`, clients expiring within 7 days, disabled clients\n")
			sb.WriteString("4. **Drill down** - call `xui_client_traffic` for the clients you flagged\n\n")
		}

		sb.WriteString("## Output Format\n\n")
		sb.WriteString("- A table of clients: email, inbound, used (human-readable units), quota, expiry, status\n")
		sb.WriteString("- A short list of recommended actions\n")

		description := "Traffic report for all clients"
		if email != "" {
			description = "Traffic report for " + email
		}

		return &sdkmcp.GetPromptResult{
			Description: description,
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
