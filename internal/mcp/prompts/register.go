package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "traffic_report",
		Description: "Build a traffic report for the panel's clients: who uses the most bandwidth, who is near quota or expiry, and which clients are disabled. Provides the tool workflow and data shapes.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "email",
				Description: "Restrict the report to one client email",
				Required:    false,
			},
		},
	}, HandleTrafficReport(cfg))
}
