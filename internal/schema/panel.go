package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/usestring/xui-mcp/pkg/client"
)

// Inbound is the shape of one inbound as returned by the panel. The
// settings, streamSettings and sniffing fields hold JSON documents encoded
// as strings.
type Inbound struct {
	ID             int64           `json:"id"`
	Up             int64           `json:"up"`
	Down           int64           `json:"down"`
	Total          int64           `json:"total"`
	Remark         string          `json:"remark"`
	Enable         bool            `json:"enable"`
	ExpiryTime     int64           `json:"expiryTime"`
	ClientStats    []ClientTraffic `json:"clientStats,omitempty" jsonschema:"nullable"`
	Listen         string          `json:"listen,omitempty"`
	Port           int             `json:"port" jsonschema:"minimum=0,maximum=65535"`
	Protocol       string          `json:"protocol" jsonschema:"minLength=1"`
	Settings       string          `json:"settings"`
	StreamSettings string          `json:"streamSettings,omitempty"`
	Tag            string          `json:"tag,omitempty"`
	Sniffing       string          `json:"sniffing,omitempty"`
}

// ClientTraffic is the per-client usage record kept by the panel.
type ClientTraffic struct {
	ID         int64  `json:"id"`
	InboundID  int64  `json:"inboundId"`
	Enable     bool   `json:"enable"`
	Email      string `json:"email"`
	Up         int64  `json:"up"`
	Down       int64  `json:"down"`
	ExpiryTime int64  `json:"expiryTime"`
	Total      int64  `json:"total"`
	Reset      int    `json:"reset,omitempty"`
}

type inboundListResponse struct {
	Success bool      `json:"success"`
	Msg     string    `json:"msg"`
	Obj     []Inbound `json:"obj" jsonschema:"nullable"`
}

type inboundResponse struct {
	Success bool     `json:"success"`
	Msg     string   `json:"msg"`
	Obj     *Inbound `json:"obj" jsonschema:"nullable"`
}

type trafficResponse struct {
	Success bool           `json:"success"`
	Msg     string         `json:"msg"`
	Obj     *ClientTraffic `json:"obj" jsonschema:"nullable"`
}

type trafficListResponse struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Obj     []ClientTraffic `json:"obj" jsonschema:"nullable"`
}

// Names of the built-in response schemas.
const (
	Envelope     = "envelope"
	Inbounds     = "inbounds"
	InboundOne   = "inbound"
	TrafficEmail = "traffic_email"
	TrafficUUID  = "traffic_uuid"
)

var builtins = map[string]any{
	Envelope:     &client.Envelope{},
	Inbounds:     &inboundListResponse{},
	InboundOne:   &inboundResponse{},
	TrafficEmail: &trafficResponse{},
	TrafficUUID:  &trafficListResponse{},
}

// BuiltinNames lists the names accepted by Builtin.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reflector allows unknown fields: panel versions add fields freely.
var reflector = &jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
	Anonymous:                 true,
}

// BuiltinSchema returns the JSON Schema document for a built-in response
// shape.
func BuiltinSchema(name string) (*jsonschema.Schema, error) {
	v, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return reflector.Reflect(v), nil
}

// Builtin returns a validator for a built-in response shape.
func Builtin(name string) (*Validator, error) {
	s, err := BuiltinSchema(name)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema %s: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling schema %s: %w", name, err)
	}
	return compile(doc)
}
