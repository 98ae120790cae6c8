package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/osmscene/pkg/osm"
)

// ErrorCode classifies tool failures for clients.
type ErrorCode string

const (
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrMissingParameter ErrorCode = "MISSING_PARAMETER"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrAccessDenied     ErrorCode = "ACCESS_DENIED"
	ErrIO               ErrorCode = "IO_ERROR"
	ErrRateLimit        ErrorCode = "RATE_LIMIT"
	ErrInternal         ErrorCode = "INTERNAL_ERROR"
)

// ToolError is the JSON body of a failed tool call.
type ToolError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Path     string `json:"path,omitempty"`
	Guidance string `json:"guidance,omitempty"`
}

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a ToolError.
func NewError(code ErrorCode, message string) *ToolError {
	return &ToolError{Code: string(code), Message: message}
}

// WithPath records the file the call was about.
func (e *ToolError) WithPath(path string) *ToolError {
	e.Path = path
	return e
}

// WithGuidance adds a hint for the caller.
func (e *ToolError) WithGuidance(guidance string) *ToolError {
	e.Guidance = guidance
	return e
}

// ToMCPResult converts the error to an error tool result.
func (e *ToolError) ToMCPResult() *mcp.CallToolResult {
	body, err := json.Marshal(e)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ERROR: %s - %s", e.Code, e.Message))
	}
	return mcp.NewToolResultError(string(body))
}

// loadError maps a failed scene load to a ToolError.
func loadError(path string, err error) *ToolError {
	status := osm.StatusOf(err)
	switch status {
	case osm.StatusNotFound:
		return NewError(ErrNotFound, status.Message()).
			WithPath(path).
			WithGuidance("Check that the path exists and is readable by the server.")
	case osm.StatusIO:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return NewError(ErrIO, "request canceled").WithPath(path)
		}
		return NewError(ErrIO, fmt.Sprintf("%s: %v", status.Message(), err)).WithPath(path)
	default:
		return NewError(ErrInternal, err.Error()).WithPath(path)
	}
}

func accessDenied(path string) *ToolError {
	return NewError(ErrAccessDenied, "path is outside the data directory").
		WithPath(path).
		WithGuidance("Use a path relative to the server's data directory.")
}

func missingParameter(name string) *ToolError {
	return NewError(ErrMissingParameter, fmt.Sprintf("%s is required", name))
}

func invalidInput(format string, args ...any) *ToolError {
	return NewError(ErrInvalidInput, fmt.Sprintf(format, args...)).
		WithGuidance("Please correct the parameters and try again.")
}
