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

/*
Package cli builds the lola root command.

The root command owns the persistent flags and the help command; every
subcommand lives in its own package under internal/commands and is attached
by cmd/lola.

	lola
	├── run           Validate and execute processes of a service
	├── validate      Validate processes without executing them
	├── catalog       List services and processes under a root path
	├── config show   Print the layered configuration
	├── completion    Generate shell completion scripts
	├── version       Show version
	└── help          Show help

Persistent flags:

	--verbose, -v    Log at debug level
	--quiet, -q      Only log errors and skip summaries
	--json           Output in JSON format

Errors returned from Execute carry an exit code; HandleExitError prints them
and exits:

	rootCmd := cli.NewRootCommand()
	rootCmd.AddCommand(run.NewCommand())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.HandleExitError(err)
	}
*/
package cli
