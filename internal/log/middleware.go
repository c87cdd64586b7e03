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

package log

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Execution describes one timed unit of work for logging purposes.
type Execution struct {
	// Name identifies the unit (usually the process name).
	Name string

	// Metadata contains additional attributes logged on start and finish.
	Metadata map[string]any
}

// ExecutionResult captures how a timed unit finished.
type ExecutionResult struct {
	Success    bool
	Error      string
	DurationMs int64
}

// LogExecutionStart logs the beginning of a unit of work.
func LogExecutionStart(logger *slog.Logger, exec *Execution) {
	attrs := []any{EventKey, "execute_start", ProcessKey, exec.Name}
	for k, v := range exec.Metadata {
		attrs = append(attrs, k, v)
	}
	logger.Debug("process execution started", attrs...)
}

// LogExecutionFinish logs the outcome of a unit of work.
func LogExecutionFinish(logger *slog.Logger, exec *Execution, result *ExecutionResult) {
	attrs := []any{
		EventKey, "execute_finish",
		ProcessKey, exec.Name,
		"success", result.Success,
		DurationKey, result.DurationMs,
	}
	if result.Error != "" {
		attrs = append(attrs, "error", result.Error)
	}
	for k, v := range exec.Metadata {
		attrs = append(attrs, k, v)
	}

	level := slog.LevelInfo
	message := fmt.Sprintf("%s executed in %dms", exec.Name, result.DurationMs)
	if !result.Success {
		level = slog.LevelError
		message = fmt.Sprintf("%s failed after %dms", exec.Name, result.DurationMs)
	}

	logger.Log(context.Background(), level, message, attrs...)
}

// Timed runs fn, logging its start, its outcome and its wall-clock duration.
// The error from fn is returned unchanged.
func Timed(logger *slog.Logger, exec *Execution, fn func() error) error {
	start := time.Now()
	LogExecutionStart(logger, exec)

	err := fn()

	result := &ExecutionResult{
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	LogExecutionFinish(logger, exec, result)

	return err
}
