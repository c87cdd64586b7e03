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
	"os"
	"sort"
	"strings"

	"github.com/tombee/lola/pkg/errors"
)

// Default environment mapping used by the controller.
const (
	DefaultEnvPrefix    = "config_"
	DefaultEnvSeparator = "__"
)

// IngestEnvironment upserts every process environment variable that starts
// with prefix. See IngestEnviron.
func (t *Tree) IngestEnvironment(prefix, separator string) ([]string, error) {
	return t.IngestEnviron(os.Environ(), prefix, separator)
}

// IngestEnviron upserts "KEY=value" entries whose key starts with prefix.
// The first occurrence of prefix is removed and every separator becomes a
// path separator, so config_logging__level=DEBUG sets logging.level. Values
// are always strings. Entries are applied in sorted key order.
//
// Names that do not map to a valid path, such as config_ or config_a__, are
// not applied; their names are returned as skipped.
func (t *Tree) IngestEnviron(environ []string, prefix, separator string) (skipped []string, err error) {
	if prefix == "" {
		return nil, &errors.InvalidArgumentError{Argument: "prefix", Reason: "environment prefix must not be empty"}
	}
	if separator == "" {
		return nil, &errors.InvalidArgumentError{Argument: "separator", Reason: "environment separator must not be empty"}
	}

	values := make(map[string]string)
	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		values[key] = value
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := strings.ReplaceAll(strings.Replace(key, prefix, "", 1), separator, Separator)
		if _, err := SplitPath(path); err != nil {
			skipped = append(skipped, key)
			continue
		}
		if err := t.Set(path, values[key]); err != nil {
			return skipped, errors.Wrapf(err, "environment variable %s", key)
		}
	}
	return skipped, nil
}
