package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ConfigInvalid indicates a malformed inventory config or docset entry
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// DocsetSkipped indicates a docset could not be processed and was skipped
	DocsetSkipped ErrorCode = "DOCSET_SKIPPED"
	// DuplicateRepoRoot indicates two dependent repositories share a path_to_root
	DuplicateRepoRoot ErrorCode = "DUPLICATE_REPO_ROOT"
	// EncodingSuspect indicates a file was not valid UTF-8 or carried a stray BOM
	EncodingSuspect ErrorCode = "ENCODING_SUSPECT"
	// MetadataMissing indicates an article has no front matter
	MetadataMissing ErrorCode = "METADATA_MISSING"
	// RepoUnresolved indicates a code reference names an unknown path_to_root
	RepoUnresolved ErrorCode = "REPO_UNRESOLVED"
	// HistoryUnavailable indicates the commit history lookup failed
	HistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"
	// URLUnrecognized indicates a file URL is not a GitHub blob URL
	URLUnrecognized ErrorCode = "URL_UNRECOGNIZED"
	// Timeout indicates an external call timed out
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration file
	EditConfig FixActionType = "edit-config"
	// SetEnv suggests setting an environment variable
	SetEnv FixActionType = "set-env"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Description string        `json:"description,omitempty"`
	File        string        `json:"file,omitempty"`
	Variable    string        `json:"variable,omitempty"`
}

// Error is a coderefs error with a stable code, message, and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new Error. Suggested fixes default to the ones registered for the code.
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf creates a new Error without a cause using a format string.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.cause
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ConfigInvalid: {
		{
			Type:        EditConfig,
			File:        "config.json",
			Description: "Every content entry needs both \"repo\" and \"url\"",
		},
	},
	DuplicateRepoRoot: {
		{
			Type:        EditConfig,
			File:        ".openpublishing.publish.config.json",
			Description: "Give each dependent_repositories entry a unique path_to_root",
		},
	},
	EncodingSuspect: {
		{
			Type:        RunCommand,
			Command:     "iconv -f utf-16 -t utf-8",
			Description: "Convert the file to UTF-8 without a byte-order mark",
		},
	},
	HistoryUnavailable: {
		{
			Type:        SetEnv,
			Variable:    "GITHUB_ACCESS_TOKEN",
			Description: "Authenticate GitHub API calls to avoid rate limiting",
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
