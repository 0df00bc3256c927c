package mcpsrv

import (
	"github.com/usestring/xui-mcp/internal/cache"
	"github.com/usestring/xui-mcp/internal/config"
	"github.com/usestring/xui-mcp/internal/query"
	"github.com/usestring/xui-mcp/pkg/client"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Client *client.Client
	Cache  *cache.ResponseCache
	Config *config.Config
	Query  *query.Engine
}
