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

// BuildInfo identifies the lola binary. main sets it from ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalFlags are the persistent root flags every subcommand reads.
type globalFlags struct {
	verbose bool
	quiet   bool
	json    bool
}

var (
	globals globalFlags
	build   = BuildInfo{Version: "dev", Commit: "unknown", Date: "unknown"}
)

// RegisterFlagPointers returns the verbose, quiet and json flag targets
// for the root command to bind.
func RegisterFlagPointers() (verbose, quiet, json *bool) {
	return &globals.verbose, &globals.quiet, &globals.json
}

// SetVersion records the build information.
func SetVersion(version, commit, date string) {
	build = BuildInfo{Version: version, Commit: commit, Date: date}
}

// GetVersion returns version, commit and build date.
func GetVersion() (string, string, string) {
	return build.Version, build.Commit, build.Date
}

func GetVerbose() bool { return globals.verbose }

func GetQuiet() bool { return globals.quiet }

// GetJSON reports whether --json was given.
func GetJSON() bool { return globals.json }

// ResetFlagsForTest clears the global flags.
func ResetFlagsForTest() {
	globals = globalFlags{}
}
