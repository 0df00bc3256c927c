package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/xui-mcp/internal/schema"
)

// ValidateInput is the input for xui_validate.
type ValidateInput struct {
	Target  string `json:"target,omitempty" jsonschema:"Response to validate: inbounds, inbound, traffic_email or traffic_uuid (default: inbounds)"`
	Key     string `json:"key,omitempty" jsonschema:"Inbound id, client email or client UUID for the non-list targets"`
	Schema  string `json:"schema,omitempty" jsonschema:"JSON Schema document; when omitted the built-in schema for the target is used"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"Bypass the response cache (default: false)"`
}

// ValidateOutput is the output of xui_validate.
type ValidateOutput struct {
	Valid  bool     `json:"valid"`
	Schema string   `json:"schema"`
	Errors []string `json:"errors,omitempty"`
}

// ToolValidate checks a panel response against a JSON Schema. It is meant
// for spotting panel versions whose responses drifted from the known shape.
func ToolValidate(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateInput) (*sdkmcp.CallToolResult, ValidateOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateInput) (*sdkmcp.CallToolResult, ValidateOutput, error) {
		target := input.Target
		if target == "" {
			target = TargetInbounds
		}

		var (
			validator *schema.Validator
			err       error
			source    = "custom"
		)
		if input.Schema != "" {
			validator, err = schema.NewValidator(input.Schema)
		} else {
			validator, err = schema.Builtin(target)
			source = "builtin:" + target
		}
		if err != nil {
			return nil, ValidateOutput{}, ErrInvalidInput(err.Error())
		}

		v, _, err := d.Fetch(ctx, target, input.Key, input.Refresh)
		if err != nil {
			return nil, ValidateOutput{}, err
		}

		result := validator.Validate(v)
		return nil, ValidateOutput{
			Valid:  result.Valid,
			Schema: source,
			Errors: result.Errors,
		}, nil
	}
}
