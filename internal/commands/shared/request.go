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
	"encoding/json"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/tombee/lola/internal/configtree"
	"github.com/tombee/lola/internal/controller"
	"github.com/tombee/lola/pkg/errors"
)

// RequestFlags are the flags that describe a run request.
type RequestFlags struct {
	Service          string
	Processes        []string
	RootPath         string
	RunID            string
	ConfigPaths      []string
	DataModelPath    string
	Locale           string
	Language         string
	AdditionalConfig string
	Sets             []string
	EnvPrefix        string
}

// Register binds the request flags to fs.
func (f *RequestFlags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.Service, "service", "s", "", "Service to run")
	fs.StringSliceVarP(&f.Processes, "processes", "p", nil, "Comma-separated processes, run in order")
	fs.StringVar(&f.RootPath, "service-root-path", "", "Directory holding the service folders")
	fs.StringVar(&f.RunID, "service-run-id", "", "Run identifier written to service_run_id")
	fs.StringSliceVar(&f.ConfigPaths, "service-config-path", nil, "Service config files, applied in order (default: <root>/configs/services/<service>.yaml)")
	fs.StringVar(&f.DataModelPath, "dm-config-path", "", "Data model config file (default: <root>/configs/data_models.yaml)")
	fs.StringVar(&f.Locale, "locale", "", "Locale written to the configuration")
	fs.StringVar(&f.Language, "language", "", "Language written to the configuration")
	fs.StringVar(&f.AdditionalConfig, "additional-configuration", "", "JSON object merged over every other source")
	fs.StringArrayVar(&f.Sets, "set", nil, "Override one key, as path=value (repeatable)")
	fs.StringVar(&f.EnvPrefix, "env-prefix", configtree.DefaultEnvPrefix, "Prefix of environment variables layered into the configuration")
}

// Params converts the flags into controller parameters. The global
// --verbose and --quiet flags override logging.level; --set wins over
// both.
func (f *RequestFlags) Params() (controller.Params, error) {
	overrides, err := f.overrides()
	if err != nil {
		return controller.Params{}, err
	}
	return controller.Params{
		Service:       f.Service,
		Processes:     f.Processes,
		RootPath:      f.RootPath,
		RunID:         f.RunID,
		ConfigPaths:   f.ConfigPaths,
		DataModelPath: f.DataModelPath,
		Locale:        f.Locale,
		Language:      f.Language,
		Overrides:     overrides,
		EnvPrefix:     f.EnvPrefix,
	}, nil
}

func (f *RequestFlags) overrides() (map[string]any, error) {
	tree := configtree.New()

	if raw := strings.TrimSpace(f.AdditionalConfig); raw != "" {
		var values map[string]any
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil, &errors.InvalidArgumentError{
				Argument: "additional-configuration",
				Reason:   "expected a JSON object: " + err.Error(),
			}
		}
		if err := tree.Upsert(values); err != nil {
			return nil, err
		}
	}

	if level := levelOverride(); level != "" {
		if err := tree.Set(controller.KeyLoggingLevel, level); err != nil {
			return nil, err
		}
	}

	for _, set := range f.Sets {
		path, value, err := parseSet(set)
		if err != nil {
			return nil, err
		}
		if err := tree.Set(path, value); err != nil {
			return nil, err
		}
	}

	if len(tree.Keys()) == 0 {
		return nil, nil
	}
	return tree.ToMap(), nil
}

func levelOverride() string {
	switch {
	case GetVerbose():
		return "debug"
	case GetQuiet():
		return "error"
	}
	return ""
}

// parseSet splits path=value. The value is read as a YAML scalar so
// numbers and booleans keep their type.
func parseSet(set string) (string, any, error) {
	path, raw, ok := strings.Cut(set, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return "", nil, &errors.InvalidArgumentError{Argument: "set", Reason: "expected path=value, got " + set}
	}
	if raw == "" {
		return path, "", nil
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return path, raw, nil
	}
	switch value.(type) {
	case map[string]any, []any:
		return path, raw, nil
	}
	return path, value, nil
}
