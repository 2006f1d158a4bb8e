package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// FormatError indicates a malformed fence or an unreadable document
	FormatError ErrorCode = "FORMAT_ERROR"
	// ClassificationError indicates a forbidden or unrecognized fence tag
	ClassificationError ErrorCode = "CLASSIFICATION_ERROR"
	// PolicyViolation indicates a forbidden idiom inside a snippet
	PolicyViolation ErrorCode = "POLICY_VIOLATION"
	// FilesystemError indicates a workspace directory or file could not be written
	FilesystemError ErrorCode = "FILESYSTEM_ERROR"
	// ToolchainError indicates an external toolchain exited non-zero
	ToolchainError ErrorCode = "TOOLCHAIN_ERROR"
	// ContractError indicates an internal caller passed an unsupported value
	ContractError ErrorCode = "CONTRACT_ERROR"
	// ConfigError indicates invalid configuration or variables table
	ConfigError ErrorCode = "CONFIG_ERROR"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditDocument suggests editing the offending documentation file
	EditDocument FixActionType = "edit-document"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type" yaml:"type" toml:"type"`
	Command     string        `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty" yaml:"safe,omitempty" toml:"safe,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Tool        string        `json:"tool,omitempty" yaml:"tool,omitempty" toml:"tool,omitempty"`
}

// Error is a docsnip error with code, message, offending path and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Path           string      `json:"path,omitempty"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new Error with the default suggestions for its code
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf creates a new Error with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithPath attaches the offending file path
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// WithFixes replaces the suggested fixes
func (e *Error) WithFixes(fixes ...FixAction) *Error {
	e.SuggestedFixes = fixes
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// AttachPath sets path on the first *Error in err's chain that has none yet.
// Errors without a docsnip code are wrapped as InternalError.
func AttachPath(err error, path string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		if e.Path == "" {
			e.Path = path
		}
		return err
	}
	return New(InternalError, "unexpected failure", err).WithPath(path)
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ClassificationError: {
		{
			Type:        EditDocument,
			Description: "Tag the fence as ts, tsx, go or python, or as a non-code block (bash, json, text, ...)",
		},
	},
	FormatError: {
		{
			Type:        EditDocument,
			Description: "Close every code fence with a bare ``` line",
		},
	},
	ToolchainError: {
		{
			Type:        RunCommand,
			Command:     "docsnip doctor",
			Safe:        true,
			Description: "Check which toolchains are installed",
		},
	},
	ConfigError: {
		{
			Type:        RunCommand,
			Command:     "docsnip vars",
			Safe:        true,
			Description: "Inspect the loaded configuration and variables table",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
