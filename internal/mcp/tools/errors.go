package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/usestring/xui-mcp/pkg/client"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeAuthFailed   = "AUTH_FAILED"
	ErrCodePanelError   = "PANEL_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeTimeout      = "TIMEOUT"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapPanelError converts a client error to a coded error.
func WrapPanelError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return err
	}
	coded = &CodedError{Code: ErrCodePanelError, Message: "panel request failed", Cause: err}

	var apiErr *client.APIError
	var netErr net.Error
	switch {
	case errors.Is(err, client.ErrNotAuthenticated), errors.Is(err, client.ErrAuthenticationFailed):
		coded.Code = ErrCodeAuthFailed
		coded.Message = "panel authentication failed"
	case errors.As(err, &apiErr):
		coded.Message = apiErr.Message
		if apiErr.StatusCode == http.StatusNotFound {
			coded.Code = ErrCodeNotFound
		}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		coded.Code = ErrCodeTimeout
		coded.Message = "request timed out"
	case errors.Is(err, client.ErrJSONParse):
		coded.Message = "panel returned malformed JSON"
	}

	slog.Warn("panel API error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// ErrPanel reports a panel envelope with success set to false.
func ErrPanel(msg string) error {
	if msg == "" {
		msg = "panel reported failure"
	}
	return &CodedError{
		Code:    ErrCodePanelError,
		Message: msg,
	}
}
