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

// Package manifest turns process marker files that declare a command into
// runnable processes.
//
// A marker file may be empty, in which case the process must be implemented
// in Go. When it declares a command, Register installs a factory for it:
//
//	description: ingest raw data
//	command: ["python", "ingest.py"]
//	workdir: .
//	timeout: 10m
//	env:
//	  BUCKET: source.bucket
//	require: [source.bucket]
//	validate:
//	  - expr: 'config.service_run_id != nil'
//	    message: run id is required
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-shellwords"
	"gopkg.in/yaml.v3"

	"github.com/tombee/lola/pkg/errors"
)

// Manifest is the decoded content of a marker file.
type Manifest struct {
	Description string            `yaml:"description"`
	Command     Command           `yaml:"command"`
	Workdir     string            `yaml:"workdir"`
	Timeout     Duration          `yaml:"timeout"`
	Env         map[string]string `yaml:"env"`
	Require     []string          `yaml:"require"`
	Validate    []Rule            `yaml:"validate"`
}

// Rule is one validation expression and the message reported when it does
// not hold.
type Rule struct {
	Expr    string `yaml:"expr"`
	Message string `yaml:"message"`
}

// Command is an argv. In YAML it is either a list or a shell-style string.
type Command []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		args, err := shellwords.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse command %q: %w", raw, err)
		}
		*c = args
		return nil
	case yaml.SequenceNode:
		var args []string
		if err := node.Decode(&args); err != nil {
			return err
		}
		*c = args
		return nil
	default:
		return fmt.Errorf("command must be a string or a list, line %d", node.Line)
	}
}

// Duration decodes Go duration strings such as "90s" or "10m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", raw, err)
	}
	if parsed < 0 {
		return fmt.Errorf("timeout must not be negative, got %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// HasCommand reports whether the manifest declares something to run.
func (m *Manifest) HasCommand() bool {
	return len(m.Command) > 0
}

// Parse decodes a manifest. Empty input yields an empty manifest.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, err
	}
	for i, rule := range m.Validate {
		if rule.Expr == "" {
			return nil, fmt.Errorf("validate[%d]: expr is required", i)
		}
	}
	return m, nil
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "manifest", ID: path}
		}
		return nil, errors.Wrapf(err, "reading manifest %s", path)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, &errors.ParseError{Path: path, Format: "yaml", Cause: err}
	}
	return m, nil
}
