// Package mcpsrv provides an extensible MCP server for a 3X-UI panel.
//
// The server exposes the panel's inbounds, client traffic counters and
// backup trigger as MCP tools, resources and prompts, on top of a
// [client.Client] that keeps the panel session alive.
//
// # Basic Usage
//
//	c, err := client.New("https://panel.example.com:2053/secret/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Login(ctx, user, pass); err != nil {
//	    log.Fatal(err)
//	}
//
//	server, err := mcpsrv.NewServer(c)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	server, err := mcpsrv.NewServer(
//	    c,
//	    mcpsrv.WithTool(&mcp.Tool{Name: "my_tool", Description: "My tool"}, myHandler),
//	)
//
// Tools that need the panel client or response cache use [WithDepsTool].
//
// # Configuration
//
// Settings are read from the environment (XUI_*, CACHE_*, LOG_* and friends)
// and can be overridden with options:
//
//	server, err := mcpsrv.NewServer(
//	    c,
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/xui-mcp.log"),
//	    mcpsrv.WithCacheTTL(0),
//	)
package mcpsrv
