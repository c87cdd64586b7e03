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
	"path/filepath"

	"github.com/tombee/lola/internal/plugindir"
	"github.com/tombee/lola/internal/process"
)

// Register installs a factory for every process whose marker file declares a
// command. Pairs that already have a factory are left alone, so Go
// implementations win over manifests. It returns the number of factories
// added.
func Register(registry *process.Registry, root string, catalog *plugindir.Catalog) (int, error) {
	evaluator := NewEvaluator()
	added := 0
	for _, service := range catalog.Services() {
		n, err := register(registry, root, catalog, evaluator, service, catalog.Processes(service))
		added += n
		if err != nil {
			return added, err
		}
	}
	return added, nil
}

// RegisterSelected is Register restricted to the named processes of one
// service. Marker files of other services and processes are not read.
func RegisterSelected(registry *process.Registry, root string, catalog *plugindir.Catalog, service string, processes []string) (int, error) {
	service = plugindir.NormalizeService(service)
	names := make([]string, 0, len(processes))
	for _, name := range processes {
		names = append(names, plugindir.NormalizeProcess(name))
	}
	return register(registry, root, catalog, NewEvaluator(), service, names)
}

func register(registry *process.Registry, root string, catalog *plugindir.Catalog, evaluator *Evaluator, service string, names []string) (int, error) {
	added := 0
	for _, name := range names {
		if registry.Has(service, name) {
			continue
		}
		marker, ok := catalog.MarkerPath(service, name)
		if !ok {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(marker))
		m, err := Load(path)
		if err != nil {
			return added, err
		}
		if !m.HasCommand() {
			continue
		}
		dir := filepath.Dir(path)
		if err := registry.Register(service, name, func() (process.Process, error) {
			return NewCommandProcess(m, dir, evaluator), nil
		}); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
