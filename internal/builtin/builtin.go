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

// Package builtin collects the Go process implementations compiled into
// the lola binary.
package builtin

import (
	"github.com/tombee/lola/internal/builtin/ptc"
	"github.com/tombee/lola/internal/process"
)

var registrars = []func(*process.Registry) error{
	ptc.Register,
}

// Registry returns a registry holding every built-in process.
func Registry() (*process.Registry, error) {
	registry := process.NewRegistry()
	for _, register := range registrars {
		if err := register(registry); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
