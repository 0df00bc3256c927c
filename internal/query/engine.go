// Package query runs jq expressions over decoded panel responses.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// Engine executes jq queries against decoded JSON values.
type Engine struct{}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Result contains the output of a jq query.
type Result struct {
	Values    []any    `json:"values,omitempty"`
	Errors    []string `json:"errors,omitempty"` // Runtime errors, deduplicated
	RawCount  int      `json:"raw_count"`        // Count before deduplication
	Truncated bool     `json:"truncated,omitempty"`
}

// Query evaluates expression against input, which must hold values as
// produced by encoding/json (maps, slices, float64, string, bool, nil).
// Null outputs are skipped. A maxResults of zero means no limit; Truncated
// is set only when the expression produced a value past the limit.
func (e *Engine) Query(ctx context.Context, input any, expression string, deduplicate bool, maxResults int) (*Result, error) {
	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	seen := make(map[string]bool)
	seenErrors := make(map[string]bool)

	iter := code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}

		if err, isErr := v.(error); isErr {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			msg := describe(err)
			if !seenErrors[msg] {
				seenErrors[msg] = true
				result.Errors = append(result.Errors, msg)
			}
			continue
		}
		if v == nil {
			continue
		}

		var key string
		if deduplicate {
			key = valueKey(v)
			if seen[key] {
				result.RawCount++
				continue
			}
		}
		if maxResults > 0 && len(result.Values) >= maxResults {
			result.Truncated = true
			break
		}
		result.RawCount++
		if deduplicate {
			seen[key] = true
		}
		result.Values = append(result.Values, v)
	}

	return result, nil
}

// ValidateExpression checks if a jq expression is valid without executing it.
func (e *Engine) ValidateExpression(expression string) error {
	_, err := compile(expression)
	return err
}

func compile(expression string) (*gojq.Code, error) {
	parsed, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return code, nil
}

// describe renders a jq runtime error with a hint for the common mistakes
// made against panel payloads. gojq runtime errors are untyped, so the
// hints match on message text.
func describe(err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return "query halted"
		}
		return fmt.Sprintf("query halted with: %v", haltErr.Value())
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "cannot iterate over: null"):
		return msg + " (the path may not exist in this response)"
	case strings.Contains(msg, "cannot iterate over: string"):
		return msg + " (embedded JSON strings such as .settings need expand or fromjson)"
	case strings.Contains(msg, "cannot index") && strings.Contains(msg, "with"):
		return msg + " (field not found or wrong type)"
	}
	return msg
}

func valueKey(v any) string {
	switch val := v.(type) {
	case string:
		return "s:" + val
	case float64, int:
		return fmt.Sprintf("n:%v", val)
	case bool:
		return fmt.Sprintf("b:%v", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("?:%v", val)
		}
		return "j:" + string(b)
	}
}
