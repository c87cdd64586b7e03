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

package manifest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tombee/lola/internal/process"
	"github.com/tombee/lola/pkg/errors"
)

// Identity variables set for every command.
const (
	EnvService = "LOLA_SERVICE"
	EnvProcess = "LOLA_PROCESS"
	EnvRunID   = "LOLA_RUN_ID"
)

// waitDelay bounds how long Execute waits for output pipes after the
// command is killed.
const waitDelay = 5 * time.Second

// CommandProcess runs a manifest's command as a child process.
type CommandProcess struct {
	manifest  *Manifest
	dir       string
	evaluator *Evaluator
}

// NewCommandProcess builds a process for m. dir is the directory holding
// the marker file; a relative workdir is resolved against it.
func NewCommandProcess(m *Manifest, dir string, evaluator *Evaluator) *CommandProcess {
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	return &CommandProcess{manifest: m, dir: dir, evaluator: evaluator}
}

// Validate checks required keys, then each validate rule in order.
func (p *CommandProcess) Validate(rc *process.RunContext) (bool, string) {
	for _, path := range p.manifest.Require {
		if _, ok := rc.Value(path); !ok {
			return false, fmt.Sprintf("required config key %s is not set", path)
		}
	}

	if len(p.manifest.Validate) == 0 {
		return true, p.describe()
	}

	env := p.exprEnv(rc)
	for _, rule := range p.manifest.Validate {
		ok, err := p.evaluator.Evaluate(rule.Expr, env)
		if err != nil {
			return false, err.Error()
		}
		if !ok {
			if rule.Message != "" {
				return false, rule.Message
			}
			return false, fmt.Sprintf("validation rule %q does not hold", rule.Expr)
		}
	}
	return true, p.describe()
}

// Execute runs the command and waits for it. A non-zero exit is returned as
// the error.
func (p *CommandProcess) Execute(rc *process.RunContext) error {
	if !p.manifest.HasCommand() {
		return &errors.NotImplementedError{Method: "Execute", Type: "manifest without command"}
	}

	ctx := rc.Ctx()
	if timeout := time.Duration(p.manifest.Timeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	argv := p.manifest.Command
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = p.workdir()
	cmd.Env = p.environ(rc)
	cmd.Stdout = rc.Out()
	cmd.Stderr = rc.Err()
	cmd.WaitDelay = waitDelay

	rc.Log().Debug("starting command",
		"argv", strings.Join(argv, " "),
		"dir", cmd.Dir)

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("command %s timed out after %s: %w", argv[0], time.Duration(p.manifest.Timeout), err)
		}
		return fmt.Errorf("command %s: %w", argv[0], err)
	}
	return nil
}

// Manifest returns the decoded manifest.
func (p *CommandProcess) Manifest() *Manifest {
	return p.manifest
}

func (p *CommandProcess) describe() string {
	if p.manifest.Description != "" {
		return p.manifest.Description
	}
	return "manifest checks passed"
}

func (p *CommandProcess) workdir() string {
	wd := p.manifest.Workdir
	if wd == "" {
		wd = "."
	}
	if filepath.IsAbs(wd) {
		return wd
	}
	return filepath.Join(p.dir, wd)
}

func (p *CommandProcess) exprEnv(rc *process.RunContext) map[string]any {
	config := map[string]any{}
	if rc.Config != nil {
		config = rc.Config.ToMap()
	}
	return map[string]any{
		"config":  config,
		"service": rc.Service,
		"process": rc.Process,
		"run_id":  rc.RunID,
	}
}

// environ returns the parent environment plus identity and mapped config
// values. Mapped paths that are not set are left out.
func (p *CommandProcess) environ(rc *process.RunContext) []string {
	env := os.Environ()
	env = append(env,
		EnvService+"="+rc.Service,
		EnvProcess+"="+rc.Process,
		EnvRunID+"="+rc.RunID,
	)

	names := make([]string, 0, len(p.manifest.Env))
	for name := range p.manifest.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value, ok := rc.Value(p.manifest.Env[name])
		if !ok || value == nil {
			continue
		}
		env = append(env, name+"="+rc.String(p.manifest.Env[name], ""))
	}
	return env
}
