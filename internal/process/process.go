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

// Package process defines the lifecycle every runnable process follows and
// the registry the controller resolves processes from.
//
// A process is created fresh for each run, validated once and, if valid,
// executed once:
//
//	p, err := registry.Resolve("ingest", "raw.s3")
//	ok, msg := p.Validate(rc)
//	if ok {
//	    err = p.Execute(rc)
//	}
package process

import (
	"fmt"

	"github.com/tombee/lola/pkg/errors"
)

// Process is one unit of work inside a service.
type Process interface {
	// Validate reports whether the process can run and why. It must not
	// have side effects.
	Validate(rc *RunContext) (bool, string)

	// Execute performs the work. A returned error aborts the run.
	Execute(rc *RunContext) error
}

// DefaultValidateMessage is reported by Base when a process does not
// implement its own validation.
const DefaultValidateMessage = "no Validate method implemented for this process, continuing with execution"

// Base supplies the default lifecycle. Embed it and override Execute, and
// Validate when the process has preconditions.
type Base struct{}

// Validate accepts the run and logs that no validation was implemented.
func (Base) Validate(rc *RunContext) (bool, string) {
	rc.Log().Info(DefaultValidateMessage)
	return true, DefaultValidateMessage
}

// Execute fails with *errors.NotImplementedError.
func (Base) Execute(rc *RunContext) error {
	return &errors.NotImplementedError{Method: "Execute", Type: rc.typeName()}
}

// Func adapts plain functions into a Process. A nil ValidateFunc falls back
// to Base.
type Func struct {
	Base
	ValidateFunc func(rc *RunContext) (bool, string)
	ExecuteFunc  func(rc *RunContext) error
}

// Validate implements Process.
func (f *Func) Validate(rc *RunContext) (bool, string) {
	if f.ValidateFunc == nil {
		return f.Base.Validate(rc)
	}
	return f.ValidateFunc(rc)
}

// Execute implements Process.
func (f *Func) Execute(rc *RunContext) error {
	if f.ExecuteFunc == nil {
		return f.Base.Execute(rc)
	}
	return f.ExecuteFunc(rc)
}

func (rc *RunContext) typeName() string {
	if rc == nil || rc.Service == "" {
		return ""
	}
	return fmt.Sprintf("%s.%s", rc.Service, rc.Process)
}
