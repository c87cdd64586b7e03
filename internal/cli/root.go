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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/lola/internal/commands/shared"
)

const rootLong = `lola runs the processes of a service in order. Services are folders
holding service.yaml under a root path; processes are folders inside a
service holding process.yaml. Each run layers configuration from defaults,
files, the environment and flags, validates every process and then
executes them one after another, stopping at the first failure.

Run 'lola catalog --service-root-path <dir>' to see what can be run.`

// NewRootCommand builds the lola root command with the global flags bound.
// Subcommands are attached by main.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lola",
		Short: "Run service processes from a plugin tree",
		Long:  rootLong,
		// Errors are printed by HandleExitError with their exit code.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	verbose, quiet, json := shared.RegisterFlagPointers()
	flags := cmd.PersistentFlags()
	flags.BoolVarP(verbose, "verbose", "v", false, "Log at debug level")
	flags.BoolVarP(quiet, "quiet", "q", false, "Only log errors and skip summaries")
	flags.BoolVar(json, "json", false, "Output in JSON format")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return cmd
}

// SetVersion records build information for the version command.
func SetVersion(version, commit, date string) {
	shared.SetVersion(version, commit, date)
}

func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError prints err and exits with its code. It returns when err is nil.
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
