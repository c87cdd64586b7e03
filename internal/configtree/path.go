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

package configtree

import (
	"strings"

	"github.com/tombee/lola/pkg/errors"
)

// Separator joins keys into a path.
const Separator = "."

// SplitPath splits a dotted path into keys. Empty paths and empty segments
// are rejected.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, &errors.InvalidArgumentError{Argument: "path", Reason: "path is empty"}
	}
	keys := strings.Split(path, Separator)
	for _, key := range keys {
		if key == "" {
			return nil, &errors.InvalidArgumentError{
				Argument: "path",
				Reason:   "empty segment in " + path,
			}
		}
	}
	return keys, nil
}

// JoinPath joins keys with the separator.
func JoinPath(keys ...string) string {
	return strings.Join(keys, Separator)
}

func validateKey(key string) error {
	if key == "" {
		return &errors.InvalidArgumentError{Argument: "key", Reason: "keys must not be empty"}
	}
	if strings.Contains(key, Separator) {
		return &errors.InvalidArgumentError{
			Argument: key,
			Reason:   "keys must not contain the path separator " + Separator,
		}
	}
	return nil
}
