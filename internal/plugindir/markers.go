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

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tombee/lola/pkg/errors"
)

// Markers are the glob patterns that identify service and process
// directories. Patterns match a file's base name, ignoring case.
type Markers struct {
	Service string
	Process string
}

// DefaultMarkers returns the marker patterns used when none are configured.
func DefaultMarkers() Markers {
	return Markers{
		Service: "service.{yaml,yml}",
		Process: "process.{yaml,yml}",
	}
}

// Validate checks that both patterns are well-formed.
func (m Markers) Validate() error {
	for field, pattern := range map[string]string{"service": m.Service, "process": m.Process} {
		if pattern == "" {
			return &errors.InvalidArgumentError{
				Argument: field + " marker",
				Reason:   "pattern must not be empty",
			}
		}
		if !doublestar.ValidatePattern(pattern) {
			return &errors.InvalidArgumentError{
				Argument: field + " marker",
				Reason:   fmt.Sprintf("invalid glob pattern %q", pattern),
			}
		}
	}
	return nil
}

func matchMarker(pattern, name string) bool {
	matched, err := doublestar.Match(fold(pattern), fold(name))
	return err == nil && matched
}
