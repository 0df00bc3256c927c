package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decoding test input: %v", err)
	}
	return v
}

func TestValidator_JSONSchema(t *testing.T) {
	validator, err := NewValidator(`{"type": "object", "properties": {"name": {"type": "string"}, "age": {"type": "integer"}}, "required": ["name"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result := validator.Validate(decode(t, `{"name": "Alice", "age": 30}`)); !result.Valid {
		t.Errorf("expected valid, got errors: %v", result.Errors)
	}

	result := validator.Validate(decode(t, `{"age": 30}`))
	if result.Valid {
		t.Error("expected invalid for missing required field")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "name") {
		t.Errorf("expected one error naming the missing field, got %v", result.Errors)
	}

	result = validator.Validate(decode(t, `{"name": "Alice", "age": "thirty"}`))
	if result.Valid {
		t.Error("expected invalid for wrong type")
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "/age: ") {
		t.Errorf("expected error at /age, got %v", result.Errors)
	}
}

func TestValidator_ErrorsSorted(t *testing.T) {
	validator, err := NewValidator(`{"type": "object", "properties": {"a": {"type": "string"}, "b": {"type": "string"}}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := validator.Validate(decode(t, `{"b": 1, "a": 2}`))
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %v", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0], "/a: ") || !strings.HasPrefix(result.Errors[1], "/b: ") {
		t.Errorf("expected errors sorted by path, got %v", result.Errors)
	}
}

func TestNewValidator_Invalid(t *testing.T) {
	if _, err := NewValidator(`{not json`); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := NewValidator(`{"type": 12}`); err == nil {
		t.Error("expected error for invalid schema")
	}
}

func TestValidator_NotCompiled(t *testing.T) {
	var v *Validator
	result := v.Validate(map[string]any{})
	if result.Valid || len(result.Errors) != 1 {
		t.Errorf("expected single error, got %+v", result)
	}
}
