// Package jsoncompact reshapes decoded panel JSON for display: it expands
// JSON documents the panel embeds as strings and trims long arrays and
// strings so large inbound lists stay readable.
package jsoncompact

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Options controls JSON compaction behavior.
type Options struct {
	MaxArrayItems int // Trim arrays to N items (0 = no limit)
	MaxStringLen  int // Truncate strings longer than N chars (0 = no limit)
	MaxDepth      int // Max recursion depth (0 = unlimited)
}

// Default values for compaction options.
const (
	DefaultMaxArrayItems = 5
	DefaultMaxStringLen  = 300
	DefaultMaxDepth      = 0 // unlimited
)

// DefaultOptions returns the default compaction settings.
func DefaultOptions() *Options {
	return &Options{
		MaxArrayItems: DefaultMaxArrayItems,
		MaxStringLen:  DefaultMaxStringLen,
		MaxDepth:      DefaultMaxDepth,
	}
}

// Expand replaces string values that hold a JSON object or array with the
// decoded value. The panel stores inbound "settings", "streamSettings" and
// "sniffing" this way. The input is not modified.
func Expand(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Expand(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Expand(item)
		}
		return out
	case string:
		if decoded, ok := decodeEmbedded(val); ok {
			return Expand(decoded)
		}
		return val
	default:
		return v
	}
}

func decodeEmbedded(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

// CompactValue trims a decoded JSON value. The input is not modified.
// If opts is nil, DefaultOptions() is used.
func CompactValue(v any, opts *Options) any {
	if opts == nil {
		opts = DefaultOptions()
	}
	w := walker{opts: opts}
	return w.walk(v, 0)
}

// Compact trims JSON bytes. Returns an error if data is not valid JSON.
func Compact(data []byte, opts *Options) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return json.Marshal(CompactValue(v, opts))
}

type walker struct {
	opts *Options
}

func (w walker) walk(v any, depth int) any {
	if w.opts.MaxDepth > 0 && depth >= w.opts.MaxDepth {
		switch v.(type) {
		case map[string]any, []any:
			return "[max depth]"
		}
	}

	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = w.walk(item, depth+1)
		}
		return out
	case []any:
		keep := len(val)
		if w.opts.MaxArrayItems > 0 && keep > w.opts.MaxArrayItems {
			keep = w.opts.MaxArrayItems
		}
		out := make([]any, 0, keep+1)
		for _, item := range val[:keep] {
			out = append(out, w.walk(item, depth+1))
		}
		if dropped := len(val) - keep; dropped > 0 {
			out = append(out, fmt.Sprintf("... (%d more items)", dropped))
		}
		return out
	case string:
		if max := w.opts.MaxStringLen; max > 0 && len(val) > max {
			return val[:max] + fmt.Sprintf("... (%d more chars)", len(val)-max)
		}
		return val
	default:
		return v
	}
}
