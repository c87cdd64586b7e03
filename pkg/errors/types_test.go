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

package errors_test

import (
	"errors"
	"fmt"
	"testing"

	lolaerrors "github.com/tombee/lola/pkg/errors"
)

func TestMissingKeyError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *lolaerrors.MissingKeyError
		wantMsg string
	}{
		{
			name:    "leaf key",
			err:     &lolaerrors.MissingKeyError{Path: "logging", Key: "logging"},
			wantMsg: "missing config key: logging",
		},
		{
			name:    "intermediate key",
			err:     &lolaerrors.MissingKeyError{Path: "source.bucket.name", Key: "bucket"},
			wantMsg: `missing config key "bucket" in path source.bucket.name`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("MissingKeyError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *lolaerrors.ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &lolaerrors.ValidationError{Field: "ingest", Message: "bad input", Hint: "fix it"},
			wantMsg: "validation failed on ingest: bad input",
		},
		{
			name:    "without field",
			err:     &lolaerrors.ValidationError{Message: "invalid request"},
			wantMsg: "validation failed: invalid request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestParseError_Unwrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := &lolaerrors.ParseError{Path: "svc.yaml", Format: "yaml", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("ParseError should unwrap to its cause")
	}
	want := "failed to parse svc.yaml as yaml: unexpected EOF"
	if got := err.Error(); got != want {
		t.Errorf("ParseError.Error() = %q, want %q", got, want)
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	var err error = &lolaerrors.ExecutionError{Service: "ptc", Process: "ingest", Cause: cause}
	wrapped := fmt.Errorf("run aborted: %w", err)

	if !errors.Is(wrapped, cause) {
		t.Error("ExecutionError should preserve the original error")
	}
	var execErr *lolaerrors.ExecutionError
	if !errors.As(wrapped, &execErr) {
		t.Fatal("errors.As should find ExecutionError")
	}
	if execErr.Process != "ingest" {
		t.Errorf("Process = %q, want ingest", execErr.Process)
	}
}

func TestResolutionError_Error(t *testing.T) {
	err := &lolaerrors.ResolutionError{Service: "ptc", Process: "ingest", Reason: "no factory registered"}
	want := "cannot resolve process ptc.ingest: no factory registered"
	if got := err.Error(); got != want {
		t.Errorf("ResolutionError.Error() = %q, want %q", got, want)
	}
	if err.Suggestion() == "" {
		t.Error("ResolutionError should carry a suggestion")
	}
}

func TestNotImplementedError_Error(t *testing.T) {
	tests := []struct {
		err     *lolaerrors.NotImplementedError
		wantMsg string
	}{
		{&lolaerrors.NotImplementedError{Method: "Execute"}, "no Execute method implemented"},
		{&lolaerrors.NotImplementedError{Method: "Execute", Type: "*ingest.Process"}, "no Execute method implemented for *ingest.Process"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.wantMsg {
			t.Errorf("NotImplementedError.Error() = %q, want %q", got, tt.wantMsg)
		}
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err      error
		wantType string
	}{
		{&lolaerrors.MissingKeyError{Path: "a"}, "missing_key"},
		{&lolaerrors.ParseError{Path: "a"}, "parse"},
		{&lolaerrors.InvalidArgumentError{Reason: "x"}, "invalid_argument"},
		{&lolaerrors.ValidationError{Message: "x"}, "validation"},
		{&lolaerrors.NotFoundError{Resource: "config file", ID: "a"}, "not_found"},
		{&lolaerrors.ResolutionError{Service: "s", Process: "p"}, "resolution"},
		{&lolaerrors.ExecutionError{Process: "p", Cause: errors.New("x")}, "execution"},
		{&lolaerrors.NotImplementedError{Method: "Execute"}, "not_implemented"},
		{&lolaerrors.ConfigError{Reason: "x"}, "config"},
	}

	for _, tt := range tests {
		t.Run(tt.wantType, func(t *testing.T) {
			classifier, ok := tt.err.(lolaerrors.ErrorClassifier)
			if !ok {
				t.Fatalf("%T does not implement ErrorClassifier", tt.err)
			}
			if classifier.ErrorType() != tt.wantType {
				t.Errorf("ErrorType() = %q, want %q", classifier.ErrorType(), tt.wantType)
			}
			if classifier.IsRetryable() {
				t.Error("no error kind is retryable")
			}
		})
	}
}
