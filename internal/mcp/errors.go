package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpggio/datapad/internal/domain/character"
	"github.com/rpggio/datapad/internal/domain/navigator"
	"github.com/rpggio/datapad/internal/domain/session"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, navigator.ErrNoMatch):
		return &APIError{Code: "NO_MATCH", Message: "no character matches that name", RecoveryHint: "Check spelling; names match whole, ignoring case"}
	case errors.Is(err, navigator.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "invalid input", RecoveryHint: "Provide a non-empty name"}
	case errors.Is(err, navigator.ErrNoValidRecord):
		return &APIError{Code: "NO_VALID_RECORD", Message: "no identifier in range resolved to a record"}
	case errors.Is(err, character.ErrTransport):
		return &APIError{Code: "UPSTREAM_UNAVAILABLE", Message: "character dataset unavailable", RecoveryHint: "Retry later"}
	case errors.Is(err, character.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "character not found"}
	case errors.Is(err, session.ErrContended):
		return &APIError{Code: "CONFLICT", Message: "session cursor modified concurrently", RecoveryHint: "Retry the call"}
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{Code: "TIMEOUT", Message: "character dataset took too long to answer", RecoveryHint: "Retry later"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
