// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"fmt"
	"strings"
)

// MissingKeyError reports a strict read of a configuration path that does not
// exist. Key is the first path segment that could not be resolved.
type MissingKeyError struct {
	// Path is the full dotted path that was requested
	Path string

	// Key is the segment that was absent
	Key string
}

// Error implements the error interface.
func (e *MissingKeyError) Error() string {
	if e.Key != "" && e.Key != e.Path {
		return fmt.Sprintf("missing config key %q in path %s", e.Key, e.Path)
	}
	return fmt.Sprintf("missing config key: %s", e.Path)
}

// ErrorType implements ErrorClassifier.
func (e *MissingKeyError) ErrorType() string { return "missing_key" }

// IsRetryable implements ErrorClassifier.
func (e *MissingKeyError) IsRetryable() bool { return false }

// ParseError represents a configuration document that could not be decoded.
type ParseError struct {
	// Path is the file that failed to parse
	Path string

	// Format is the decoder that was used (json, yaml)
	Format string

	// Cause is the decoder error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := fmt.Sprintf("failed to parse %s", e.Path)
	if e.Format != "" {
		msg = fmt.Sprintf("failed to parse %s as %s", e.Path, e.Format)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *ParseError) ErrorType() string { return "parse" }

// IsRetryable implements ErrorClassifier.
func (e *ParseError) IsRetryable() bool { return false }

// InvalidArgumentError represents a call made with a value of the wrong shape,
// such as merging a non-mapping document into the configuration tree.
type InvalidArgumentError struct {
	// Argument names the offending parameter or key
	Argument string

	// Reason explains what was expected
	Reason string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	if e.Argument != "" {
		return fmt.Sprintf("invalid argument %s: %s", e.Argument, e.Reason)
	}
	return fmt.Sprintf("invalid argument: %s", e.Reason)
}

// ErrorType implements ErrorClassifier.
func (e *InvalidArgumentError) ErrorType() string { return "invalid_argument" }

// IsRetryable implements ErrorClassifier.
func (e *InvalidArgumentError) IsRetryable() bool { return false }

// ValidationError represents a rejected run request or a process whose own
// validation reported failure.
type ValidationError struct {
	// Field identifies what failed validation (service, process, or a process name)
	Field string

	// Message is the human-readable error description
	Message string

	// Hint provides actionable guidance for fixing the error
	Hint string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ErrorType implements ErrorClassifier.
func (e *ValidationError) ErrorType() string { return "validation" }

// IsRetryable implements ErrorClassifier.
func (e *ValidationError) IsRetryable() bool { return false }

// IsUserVisible implements UserVisibleError.
func (e *ValidationError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *ValidationError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *ValidationError) Suggestion() string { return e.Hint }

// NotFoundError represents a resource not found error.
// Use this when a referenced file or directory does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "config file", "service root")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrorType implements ErrorClassifier.
func (e *NotFoundError) ErrorType() string { return "not_found" }

// IsRetryable implements ErrorClassifier.
func (e *NotFoundError) IsRetryable() bool { return false }

// ResolutionError represents a (service, process) pair that could not be turned
// into a runnable process.
type ResolutionError struct {
	Service string
	Process string

	// Reason explains why resolution failed
	Reason string

	// Cause is the factory error, if any
	Cause error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("cannot resolve process %s.%s", e.Service, e.Process)
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *ResolutionError) ErrorType() string { return "resolution" }

// IsRetryable implements ErrorClassifier.
func (e *ResolutionError) IsRetryable() bool { return false }

// IsUserVisible implements UserVisibleError.
func (e *ResolutionError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *ResolutionError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *ResolutionError) Suggestion() string {
	return "Register a Go factory for the process or declare a command in its process.yaml"
}

// ExecutionError wraps a failure raised by a process while executing.
type ExecutionError struct {
	Service string
	Process string

	// Cause is the error returned (or panic recovered) from Execute
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("process %s failed: %v", e.Process, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *ExecutionError) ErrorType() string { return "execution" }

// IsRetryable implements ErrorClassifier.
func (e *ExecutionError) IsRetryable() bool { return false }

// NotImplementedError is returned by lifecycle methods a process must override.
type NotImplementedError struct {
	// Method is the missing operation (e.g., "Execute")
	Method string

	// Type is the concrete process type, when known
	Type string
}

// Error implements the error interface.
func (e *NotImplementedError) Error() string {
	parts := []string{"no", e.Method, "method implemented"}
	if e.Type != "" {
		parts = append(parts, "for", e.Type)
	}
	return strings.Join(parts, " ")
}

// ErrorType implements ErrorClassifier.
func (e *NotImplementedError) ErrorType() string { return "not_implemented" }

// IsRetryable implements ErrorClassifier.
func (e *NotImplementedError) IsRetryable() bool { return false }

// ConfigError represents configuration problems outside the tree itself,
// such as a file that could not be layered into the run.
type ConfigError struct {
	// Key is the configuration key or file that has the problem
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s", e.Key)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *ConfigError) ErrorType() string { return "config" }

// IsRetryable implements ErrorClassifier.
func (e *ConfigError) IsRetryable() bool { return false }
