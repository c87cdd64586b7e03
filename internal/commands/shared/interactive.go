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
	"io"
	"os"

	"golang.org/x/term"

	"github.com/tombee/lola/internal/log"
)

// ciVars are environment variables set by common CI systems.
var ciVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"JENKINS_HOME",
}

// IsInteractive reports whether w is a terminal outside CI.
func IsInteractive(w io.Writer) bool {
	if os.Getenv("LOLA_NON_INTERACTIVE") == "true" || isCIEnvironment() {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// DefaultLogFormat is text for interactive writers and JSON otherwise.
func DefaultLogFormat(w io.Writer) log.Format {
	if IsInteractive(w) {
		return log.FormatText
	}
	return log.FormatJSON
}

func isCIEnvironment() bool {
	for _, envVar := range ciVars {
		value := os.Getenv(envVar)
		if value == "true" || value == "1" {
			return true
		}
		// JENKINS_HOME is set to a path
		if envVar == "JENKINS_HOME" && value != "" {
			return true
		}
	}
	return false
}
