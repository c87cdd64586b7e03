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
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeService reduces a service reference to its case-folded base name.
// Any path prefix up to the last "/" and any package prefix up to the last
// "." are removed, so "plugins/acme.Ingest" becomes "ingest".
func NormalizeService(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return fold(name)
}

// NormalizeProcess trims and case-folds a dotted process name. Dots are
// hierarchy and are kept.
func NormalizeProcess(name string) string {
	return fold(strings.TrimSpace(name))
}

func fold(s string) string {
	return cases.Fold().String(s)
}
