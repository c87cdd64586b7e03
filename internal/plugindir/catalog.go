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

import "sort"

// Catalog maps case-folded service names to their process names.
type Catalog struct {
	services map[string]*serviceEntry
}

type serviceEntry struct {
	dir       string
	marker    string
	processes []string
	markers   map[string]string
}

func newCatalog() *Catalog {
	return &Catalog{services: make(map[string]*serviceEntry)}
}

// Services returns the sorted service names.
func (c *Catalog) Services() []string {
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasService reports whether service is known. The name is normalized first.
func (c *Catalog) HasService(service string) bool {
	_, ok := c.services[NormalizeService(service)]
	return ok
}

// Processes returns the sorted process names of service, or nil when the
// service is unknown.
func (c *Catalog) Processes(service string) []string {
	entry, ok := c.services[NormalizeService(service)]
	if !ok {
		return nil
	}
	out := make([]string, len(entry.processes))
	copy(out, entry.processes)
	return out
}

// HasProcess reports whether process belongs to service.
func (c *Catalog) HasProcess(service, process string) bool {
	entry, ok := c.services[NormalizeService(service)]
	if !ok {
		return false
	}
	_, ok = entry.markers[NormalizeProcess(process)]
	return ok
}

// ServiceDir returns the directory of service relative to the plugin root.
func (c *Catalog) ServiceDir(service string) (string, bool) {
	entry, ok := c.services[NormalizeService(service)]
	if !ok {
		return "", false
	}
	return entry.dir, true
}

// ServiceMarkerPath returns the service marker file relative to the plugin
// root.
func (c *Catalog) ServiceMarkerPath(service string) (string, bool) {
	entry, ok := c.services[NormalizeService(service)]
	if !ok || entry.marker == "" {
		return "", false
	}
	return entry.marker, true
}

// MarkerPath returns the process marker file relative to the plugin root.
func (c *Catalog) MarkerPath(service, process string) (string, bool) {
	entry, ok := c.services[NormalizeService(service)]
	if !ok {
		return "", false
	}
	marker, ok := entry.markers[NormalizeProcess(process)]
	return marker, ok
}

// Len returns the number of services.
func (c *Catalog) Len() int {
	return len(c.services)
}

// ToMap returns service names mapped to their process names.
func (c *Catalog) ToMap() map[string][]string {
	out := make(map[string][]string, len(c.services))
	for name := range c.services {
		out[name] = c.Processes(name)
	}
	return out
}
