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

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tombee/lola/internal/configtree"
	"github.com/tombee/lola/internal/plugindir"
	"github.com/tombee/lola/pkg/errors"
)

// Identity keys written into the configuration tree.
const (
	KeyService           = "service"
	KeyProcesses         = "processes"
	KeyServiceRootPath   = "service_root_path"
	KeyServiceConfigPath = "service_config_path"
	KeyDataModelPath     = "dm_config_path"
	KeyServiceRunID      = "service_run_id"
	KeyLocale            = "locale"
	KeyLanguage          = "language"
)

// Params describes one run request.
type Params struct {
	// Service names the service to run.
	Service string

	// Processes are executed in this order.
	Processes []string

	// RootPath is the plugin root holding service directories.
	RootPath string

	// ConfigPaths are service config files. Defaults to
	// <root>/configs/services/<service>.yaml.
	ConfigPaths []string

	// DataModelPath defaults to <root>/configs/data_models.yaml.
	DataModelPath string

	// RunID is written to service_run_id when set.
	RunID string

	Locale   string
	Language string

	// Overrides are upserted last.
	Overrides map[string]any

	// Profile enables a CPU profile per process, written under ProfileDir.
	Profile    bool
	ProfileDir string

	// EnvPrefix and EnvSeparator select environment overrides. Defaults are
	// "config_" and "__".
	EnvPrefix    string
	EnvSeparator string
}

// withDefaults returns a copy with derived values filled in.
func (p Params) withDefaults() Params {
	p.Service = strings.TrimSpace(p.Service)
	p.RootPath = strings.TrimSpace(p.RootPath)

	processes := make([]string, 0, len(p.Processes))
	for _, name := range p.Processes {
		processes = append(processes, strings.TrimSpace(name))
	}
	p.Processes = processes

	if len(p.ConfigPaths) == 0 && p.Service != "" && p.RootPath != "" {
		p.ConfigPaths = []string{
			filepath.Join(p.RootPath, "configs", "services", plugindir.NormalizeService(p.Service)+".yaml"),
		}
	} else {
		paths := make([]string, 0, len(p.ConfigPaths))
		for _, path := range p.ConfigPaths {
			if path = strings.TrimSpace(path); path != "" {
				paths = append(paths, path)
			}
		}
		p.ConfigPaths = paths
	}
	if p.DataModelPath == "" && p.RootPath != "" {
		p.DataModelPath = filepath.Join(p.RootPath, "configs", "data_models.yaml")
	}

	p.Locale = strings.ToLower(strings.TrimSpace(p.Locale))
	p.Language = strings.ToLower(strings.TrimSpace(p.Language))

	if p.EnvPrefix == "" {
		p.EnvPrefix = configtree.DefaultEnvPrefix
	}
	if p.EnvSeparator == "" {
		p.EnvSeparator = configtree.DefaultEnvSeparator
	}
	if p.ProfileDir == "" {
		p.ProfileDir = "."
	}
	return p
}

// validate checks that the request is complete. It runs after withDefaults.
func (p Params) validate() error {
	if p.Service == "" {
		return &errors.ValidationError{Field: "service", Message: "service is required"}
	}
	if len(p.Processes) == 0 {
		return &errors.ValidationError{Field: "processes", Message: "at least one process is required"}
	}
	for i, name := range p.Processes {
		if name == "" {
			return &errors.ValidationError{
				Field:   "processes",
				Message: fmt.Sprintf("process name at position %d is empty", i+1),
			}
		}
	}
	if p.RootPath == "" {
		return &errors.ValidationError{
			Field:   "service_root_path",
			Message: "service root path is required",
			Hint:    "pass --service-root-path pointing at the directory holding service folders",
		}
	}
	return nil
}

// identity returns the run identity layer.
func (p Params) identity() map[string]any {
	processes := make([]any, len(p.Processes))
	for i, name := range p.Processes {
		processes[i] = name
	}
	configPaths := make([]any, len(p.ConfigPaths))
	for i, path := range p.ConfigPaths {
		configPaths[i] = path
	}

	values := map[string]any{
		KeyService:           p.Service,
		KeyProcesses:         processes,
		KeyServiceRootPath:   p.RootPath,
		KeyServiceConfigPath: configPaths,
		KeyDataModelPath:     p.DataModelPath,
	}
	if p.RunID != "" {
		values[KeyServiceRunID] = p.RunID
	}
	if p.Locale != "" {
		values[KeyLocale] = p.Locale
	}
	if p.Language != "" {
		values[KeyLanguage] = p.Language
	}
	return values
}
