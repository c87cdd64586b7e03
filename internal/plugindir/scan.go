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

package plugindir

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/tombee/lola/pkg/errors"
)

type options struct {
	markers Markers
}

// Option configures discovery.
type Option func(*options)

// WithMarkers overrides the marker patterns.
func WithMarkers(m Markers) Option {
	return func(o *options) {
		o.markers = m
	}
}

func newOptions(opts []Option) (*options, error) {
	o := &options{markers: DefaultMarkers()}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.markers.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// ListServices returns the names of the immediate subdirectories of fsys
// that hold a service marker, sorted. rootName is the base name of the
// plugin root and is never reported as a service. A missing or empty root
// yields no services.
func ListServices(fsys fs.FS, rootName string, opts ...Option) ([]string, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return listServices(fsys, rootName, o), nil
}

func listServices(fsys fs.FS, rootName string, o *options) []string {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil
	}

	var services []string
	for _, entry := range entries {
		if !entry.IsDir() || hidden(entry.Name()) || entry.Name() == rootName {
			continue
		}
		if _, ok := findMarker(fsys, entry.Name(), o.markers.Service); ok {
			services = append(services, entry.Name())
		}
	}
	sort.Strings(services)
	return services
}

// ListProcesses returns the dotted names of every directory below service
// that holds a process marker, sorted. The service directory itself is not a
// process. service is matched against directory names ignoring case; an
// unknown service yields no processes.
func ListProcesses(fsys fs.FS, service string, opts ...Option) ([]string, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	dir, ok := serviceDir(fsys, service)
	if !ok {
		return nil, nil
	}
	found := listProcesses(fsys, dir, o)
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// listProcesses maps dotted process names to their marker file paths.
func listProcesses(fsys fs.FS, dir string, o *options) map[string]string {
	found := make(map[string]string)
	_ = fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped.
			if d != nil && d.IsDir() && p != dir {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() || p == dir {
			return nil
		}
		if hidden(d.Name()) {
			return fs.SkipDir
		}
		if marker, ok := findMarker(fsys, p, o.markers.Process); ok {
			rel := strings.TrimPrefix(p, dir+"/")
			found[strings.ReplaceAll(rel, "/", ".")] = marker
		}
		return nil
	})
	return found
}

// Scan builds the catalog of every service and its processes. Two
// directories that normalize to the same service name are rejected.
func Scan(fsys fs.FS, rootName string, opts ...Option) (*Catalog, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	catalog := newCatalog()
	for _, dir := range listServices(fsys, rootName, o) {
		service := NormalizeService(dir)
		if prev, ok := catalog.services[service]; ok {
			return nil, &errors.InvalidArgumentError{
				Argument: "service",
				Reason:   fmt.Sprintf("directories %q and %q both name service %q", prev.dir, dir, service),
			}
		}
		entry := &serviceEntry{dir: dir, markers: make(map[string]string)}
		if marker, ok := findMarker(fsys, dir, o.markers.Service); ok {
			entry.marker = marker
		}
		for name, marker := range listProcesses(fsys, dir, o) {
			process := NormalizeProcess(name)
			entry.processes = append(entry.processes, process)
			entry.markers[process] = marker
		}
		sort.Strings(entry.processes)
		catalog.services[service] = entry
	}
	return catalog, nil
}

// findMarker returns the path of the first file in dir matching pattern.
func findMarker(fsys fs.FS, dir, pattern string) (string, bool) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if matchMarker(pattern, entry.Name()) {
			return path.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// serviceDir finds the directory for service, ignoring case.
func serviceDir(fsys fs.FS, service string) (string, bool) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return "", false
	}
	want := NormalizeService(service)
	for _, entry := range entries {
		if entry.IsDir() && fold(entry.Name()) == want {
			return entry.Name(), true
		}
	}
	return "", false
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
