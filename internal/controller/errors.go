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

package controller

import "fmt"

// Stage names the part of a run that failed.
type Stage string

// Run stages.
const (
	StageRequest  Stage = "request"
	StageConfig   Stage = "config"
	StageResolve  Stage = "resolve"
	StageValidate Stage = "validate"
	StageExecute  Stage = "execute"
	StageTeardown Stage = "teardown"
)

// RunError is the single error a failed run returns. It unwraps to the
// original failure.
type RunError struct {
	Stage Stage

	// Process is set when the failure belongs to one process.
	Process string

	Err error
}

func (e *RunError) Error() string {
	if e.Process != "" {
		return fmt.Sprintf("run aborted in %s stage at process %s: %v", e.Stage, e.Process, e.Err)
	}
	return fmt.Sprintf("run aborted in %s stage: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error {
	return e.Err
}

// ErrorType implements errors.ErrorClassifier.
func (e *RunError) ErrorType() string { return "run_" + string(e.Stage) }

// IsRetryable implements errors.ErrorClassifier.
func (e *RunError) IsRetryable() bool { return false }

func stageError(stage Stage, process string, err error) error {
	return &RunError{Stage: stage, Process: process, Err: err}
}
