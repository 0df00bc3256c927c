package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/xui-mcp/internal/mcp/tools"
)

// Resource URI scheme: xui://
// Supported URIs:
//   xui://inbounds
//   xui://inbound/{id}

const uriScheme = "xui://"

// registerResources registers resources and resource templates.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriScheme + "inbounds",
		Name:        "Inbounds",
		Description: "Every inbound on the panel with decoded settings and complete client lists. High context cost on busy panels - xui_inbounds_list returns a trimmed view.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceInbounds)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriScheme + "inbound/{id}",
		Name:        "Inbound",
		Description: "One inbound by id with decoded settings.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.7,
		},
	}, s.handleResourceInbound)
}

func (s *Server) handleResourceInbounds(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return s.readResource(ctx, req.Params.URI)
}

func (s *Server) handleResourceInbound(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return s.readResource(ctx, req.Params.URI)
}

func (s *Server) readResource(ctx context.Context, uri string) (*sdkmcp.ReadResourceResult, error) {
	target, key, err := parseResourceURI(uri)
	if err != nil {
		return nil, err
	}

	v, _, err := s.deps.Fetch(ctx, target, key, false)
	if err != nil {
		return nil, err
	}
	obj, err := tools.Unwrap(v)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, sdkmcp.ResourceNotFoundError(uri)
	}

	return toResourceResult(uri, s.deps.Reshape(obj, true, false))
}

// parseResourceURI maps an xui:// URI to a read target and key.
func parseResourceURI(uri string) (target, key string, err error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return "", "", tools.ErrInvalidInput("invalid URI scheme: expected " + uriScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	switch parts[0] {
	case "inbounds":
		if len(parts) != 1 {
			return "", "", tools.ErrInvalidInput("inbounds URI takes no path")
		}
		return tools.TargetInbounds, "", nil
	case "inbound":
		if len(parts) != 2 || parts[1] == "" {
			return "", "", tools.ErrInvalidInput("inbound URI requires an id")
		}
		return tools.TargetInbound, parts[1], nil
	default:
		return "", "", tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", parts[0]))
	}
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
