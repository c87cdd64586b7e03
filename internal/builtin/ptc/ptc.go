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

// Package ptc provides the sample "ptc" service processes shipped with the
// lola binary. The plugin tree under examples/plugins declares them.
package ptc

import (
	"fmt"
	"strings"

	"github.com/tombee/lola/internal/process"
)

// Service is the service name the processes register under.
const Service = "ptc"

// Process names.
const (
	DataIngestion      = "data_ingestion"
	FeatureEngineering = "feature_engineering"
)

// Config keys read by the processes.
const (
	KeyMode     = "mode"
	KeyState    = "state"
	KeyUsername = "username"
	KeySource   = "source.path"
)

// Modes accepted by feature_engineering.
var modes = []string{"train", "predict"}

// Register installs the ptc processes.
func Register(registry *process.Registry) error {
	if err := registry.Register(Service, DataIngestion, func() (process.Process, error) {
		return &dataIngestion{}, nil
	}); err != nil {
		return err
	}
	return registry.Register(Service, FeatureEngineering, func() (process.Process, error) {
		return &featureEngineering{}, nil
	})
}

type dataIngestion struct {
	process.Base
}

func (p *dataIngestion) Validate(rc *process.RunContext) (bool, string) {
	return true, "PTC DATA INGESTION process"
}

func (p *dataIngestion) Execute(rc *process.RunContext) error {
	source := rc.String(KeySource, "")
	if source == "" {
		rc.Log().Warn("no source path configured, ingesting nothing", "key", KeySource)
	}
	fmt.Fprintln(rc.Out(), ">>> PTC Process: DATA INGESTION")
	if source != "" {
		fmt.Fprintf(rc.Out(), "Reading from %s\n", source)
	}
	return nil
}

type featureEngineering struct {
	process.Base
}

// Validate accepts an unset mode or one of the known modes.
func (p *featureEngineering) Validate(rc *process.RunContext) (bool, string) {
	mode := strings.ToLower(rc.String(KeyMode, "train"))
	for _, m := range modes {
		if mode == m {
			return true, "PTC FEATURE ENGINEERING process"
		}
	}
	return false, fmt.Sprintf("unknown mode %q, expected one of %s", mode, strings.Join(modes, ", "))
}

func (p *featureEngineering) Execute(rc *process.RunContext) error {
	out := rc.Out()
	fmt.Fprintln(out, ">>> PTC Process: FEATURE ENGINEERING")
	fmt.Fprintf(out, "Process state: %s\n", rc.String(KeyState, "unknown"))
	fmt.Fprintf(out, "Mode: %s\n", strings.ToLower(rc.String(KeyMode, "train")))
	if user := rc.String(KeyUsername, ""); user != "" {
		fmt.Fprintf(out, "Goodbye %s\n", user)
	}
	return nil
}
