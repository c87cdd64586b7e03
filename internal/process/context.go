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

package process

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/tombee/lola/internal/configtree"
	"github.com/tombee/lola/internal/log"
)

// RunContext carries the shared run state into a process.
type RunContext struct {
	Context context.Context
	Config  *configtree.Tree
	Logger  *slog.Logger

	Service string
	Process string
	RunID   string

	Stdout io.Writer
	Stderr io.Writer
}

// Ctx returns the run's context, or context.Background when unset.
func (rc *RunContext) Ctx() context.Context {
	if rc == nil || rc.Context == nil {
		return context.Background()
	}
	return rc.Context
}

// Log returns the process logger, or a discarding logger when unset.
func (rc *RunContext) Log() *slog.Logger {
	if rc == nil || rc.Logger == nil {
		return log.Discard()
	}
	return rc.Logger
}

// Out returns the writer for process output.
func (rc *RunContext) Out() io.Writer {
	if rc == nil || rc.Stdout == nil {
		return os.Stdout
	}
	return rc.Stdout
}

// Err returns the writer for process diagnostics.
func (rc *RunContext) Err() io.Writer {
	if rc == nil || rc.Stderr == nil {
		return os.Stderr
	}
	return rc.Stderr
}

// Value looks up an optional configuration value.
func (rc *RunContext) Value(path string) (any, bool) {
	if rc == nil || rc.Config == nil {
		return nil, false
	}
	return rc.Config.GetOrNone(path)
}

// String looks up an optional configuration value as a string.
func (rc *RunContext) String(path, fallback string) string {
	if rc == nil || rc.Config == nil {
		return fallback
	}
	return rc.Config.GetString(path, fallback)
}

// For returns a copy of rc scoped to another process of the same run.
func (rc *RunContext) For(process string, logger *slog.Logger) *RunContext {
	clone := *rc
	clone.Process = process
	clone.Logger = logger
	return &clone
}
