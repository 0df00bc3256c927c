// Package prompts contains MCP prompt implementations for the 3X-UI panel.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	PanelHost string
}
