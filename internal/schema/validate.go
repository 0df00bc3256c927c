// Package schema validates panel responses against JSON Schemas, either
// caller supplied or reflected from the panel's documented response shapes.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Result is the outcome of validating one value.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator validates decoded JSON values against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles a JSON Schema document.
func NewValidator(schemaJSON string) (*Validator, error) {
	var doc any
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON Schema: %w", err)
	}
	return compile(doc)
}

// compile compiles a schema given as a decoded JSON value.
func compile(doc any) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	// doc must be a decoded JSON value, not an io.Reader
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate checks an already decoded value.
func (v *Validator) Validate(value any) *Result {
	if v == nil || v.schema == nil {
		return &Result{Errors: []string{"schema not compiled"}}
	}
	if err := v.schema.Validate(value); err != nil {
		return &Result{Errors: validationMessages(err)}
	}
	return &Result{Valid: true}
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// validationMessages flattens a validation error into sorted
// "/instance/path: message" lines, one per distinct leaf failure.
func validationMessages(err error) []string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	seen := make(map[string]bool)
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if e.ErrorKind != nil && len(e.Causes) == 0 {
			msg := e.ErrorKind.LocalizedString(printer)
			// $ref hops and "doesn't validate with" wrappers carry no detail
			if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
				if len(e.InstanceLocation) > 0 {
					msg = "/" + strings.Join(e.InstanceLocation, "/") + ": " + msg
				}
				if !seen[msg] {
					seen[msg] = true
					out = append(out, msg)
				}
			}
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(validationErr)

	if len(out) == 0 {
		return []string{err.Error()}
	}
	sort.Strings(out)
	return out
}
