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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tombee/lola/internal/controller"
	pkgerrors "github.com/tombee/lola/pkg/errors"
)

// Exit codes returned by lola commands.
const (
	ExitSuccess         = 0
	ExitExecutionFailed = 1
	ExitInvalidRequest  = 2
	ExitConfigError     = 3
	ExitResolutionError = 4
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return e.Cause.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewExecutionError creates an error for a failed process execution.
func NewExecutionError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitExecutionFailed, Message: msg, Cause: cause}
}

// NewInvalidRequestError creates an error for a rejected request.
func NewInvalidRequestError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitInvalidRequest, Message: msg, Cause: cause}
}

// NewConfigError creates an error for unreadable or malformed configuration.
func NewConfigError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitConfigError, Message: msg, Cause: cause}
}

// NewResolutionError creates an error for a process that cannot be resolved.
func NewResolutionError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitResolutionError, Message: msg, Cause: cause}
}

// ExitCodeFor classifies err. A controller.RunError is classified by its
// stage; other errors by their kind.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var runErr *controller.RunError
	if errors.As(err, &runErr) {
		switch runErr.Stage {
		case controller.StageRequest, controller.StageValidate:
			return ExitInvalidRequest
		case controller.StageConfig:
			return ExitConfigError
		case controller.StageResolve:
			return ExitResolutionError
		default:
			return ExitExecutionFailed
		}
	}

	switch pkgerrors.TypeOf(err) {
	case "validation":
		return ExitInvalidRequest
	case "parse", "invalid_argument", "not_found", "config", "missing_key":
		return ExitConfigError
	case "resolution":
		return ExitResolutionError
	}
	return ExitExecutionFailed
}

// WrapRunError attaches the exit code for a controller failure.
func WrapRunError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitCodeFor(err), Cause: err}
}

// HandleExitError prints err and exits with its code.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	PrintError(os.Stderr, err)
	os.Exit(ExitCodeFor(err))
}

// PrintError writes err and any user-facing suggestion to w.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err.Error())
	if suggestion := suggestionFor(err); suggestion != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
	}
}

func suggestionFor(err error) string {
	for err != nil {
		if userErr, ok := err.(pkgerrors.UserVisibleError); ok && userErr.IsUserVisible() {
			if s := userErr.Suggestion(); s != "" {
				return s
			}
		}
		err = errors.Unwrap(err)
	}
	return ""
}
