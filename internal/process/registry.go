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
	"fmt"
	"sort"
	"sync"

	"github.com/tombee/lola/internal/plugindir"
	"github.com/tombee/lola/pkg/errors"
)

// Factory constructs a fresh process instance.
type Factory func() (Process, error)

// Key identifies a process within a service.
type Key struct {
	Service string
	Process string
}

// NewKey builds a normalized key.
func NewKey(service, process string) Key {
	return Key{
		Service: plugindir.NormalizeService(service),
		Process: plugindir.NormalizeProcess(process),
	}
}

// String returns "service.process".
func (k Key) String() string {
	return k.Service + "." + k.Process
}

// Registry maps (service, process) pairs to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[Key]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[Key]Factory{}}
}

// Register installs a factory. Empty names, nil factories and duplicates are
// rejected.
func (r *Registry) Register(service, process string, factory Factory) error {
	key := NewKey(service, process)
	if key.Service == "" || key.Process == "" {
		return &errors.InvalidArgumentError{
			Argument: "process id",
			Reason:   fmt.Sprintf("service and process are required, got %q", key.String()),
		}
	}
	if factory == nil {
		return &errors.InvalidArgumentError{
			Argument: key.String(),
			Reason:   "factory is required",
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return &errors.InvalidArgumentError{
			Argument: key.String(),
			Reason:   "already registered",
		}
	}
	r.factories[key] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(service, process string, factory Factory) {
	if err := r.Register(service, process, factory); err != nil {
		panic(err)
	}
}

// Has reports whether a factory exists for the pair.
func (r *Registry) Has(service, process string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[NewKey(service, process)]
	return ok
}

// Resolve constructs a new instance of the process. Unknown pairs, factory
// failures and nil instances fail with *errors.ResolutionError.
func (r *Registry) Resolve(service, process string) (Process, error) {
	key := NewKey(service, process)
	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, &errors.ResolutionError{
			Service: key.Service,
			Process: key.Process,
			Reason:  "no implementation registered",
		}
	}
	p, err := factory()
	if err != nil {
		return nil, &errors.ResolutionError{
			Service: key.Service,
			Process: key.Process,
			Reason:  "factory failed",
			Cause:   err,
		}
	}
	if p == nil {
		return nil, &errors.ResolutionError{
			Service: key.Service,
			Process: key.Process,
			Reason:  "factory returned no instance",
		}
	}
	return p, nil
}

// Keys returns the registered keys sorted by service, then process.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]Key, 0, len(r.factories))
	for key := range r.factories {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Service != keys[j].Service {
			return keys[i].Service < keys[j].Service
		}
		return keys[i].Process < keys[j].Process
	})
	return keys
}

// Len returns the number of registered factories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}
