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

package run

import (
	"github.com/spf13/cobra"

	"github.com/tombee/lola/internal/commands/completion"
	"github.com/tombee/lola/internal/commands/shared"
)

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	var (
		request    shared.RequestFlags
		runtime    shared.RuntimeFlags
		profile    bool
		profileDir string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run processes of a service",
		Annotations: map[string]string{
			"group": "execution",
		},
		Long: `Run validates and executes the requested processes of a service, one
after another, in the order given. The run stops at the first process that
fails validation or execution.

Configuration is layered from lowest to highest precedence:
  1. built-in defaults
  2. the run identity (service, processes, paths, run id, locale, language)
  3. each --service-config-path file, in order
  4. the --dm-config-path data model file
  5. environment variables starting with --env-prefix (config_ by default),
     with __ separating nested keys
  6. --additional-configuration and --set

Exit codes:
  0  success
  1  a process failed to execute
  2  invalid request or a process failed validation
  3  configuration could not be loaded
  4  a process could not be resolved`,
		Example: `  lola run --service ptc --processes data_ingestion,feature_engineering \
    --service-root-path examples/plugins
  lola run -s ptc -p feature_engineering --service-root-path examples/plugins \
    --set mode=predict --profile --profile-dir /tmp/profiles`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcesses(cmd, &request, &runtime, profile, profileDir)
		},
	}

	request.Register(cmd.Flags())
	runtime.Register(cmd.Flags())
	cmd.Flags().BoolVar(&profile, "profile", false, "Write a CPU profile for each process")
	cmd.Flags().StringVar(&profileDir, "profile-dir", ".", "Directory for <process>_profile_stats files")

	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("processes")
	_ = cmd.MarkFlagRequired("service-root-path")
	completion.RegisterRequestFlags(cmd)

	return cmd
}

func runProcesses(cmd *cobra.Command, request *shared.RequestFlags, runtime *shared.RuntimeFlags, profile bool, profileDir string) error {
	if err := runtime.LoadEnvFile(cmd.Flags().Changed("env-file")); err != nil {
		return shared.NewConfigError("failed to load env file", err)
	}
	params, err := request.Params()
	if err != nil {
		return shared.NewConfigError("invalid overrides", err)
	}
	params.Profile = profile
	params.ProfileDir = profileDir

	ctrl, err := runtime.NewController(cmd)
	if err != nil {
		return shared.NewConfigError("failed to set up run", err)
	}

	result, err := ctrl.Run(cmd.Context(), params)
	if shared.GetJSON() {
		if emitErr := shared.EmitJSON(cmd.OutOrStdout(), shared.NewResultJSON("run", result, err)); emitErr != nil && err == nil {
			return emitErr
		}
	} else if !shared.GetQuiet() {
		shared.RenderResult(cmd.ErrOrStderr(), result)
	}
	return shared.WrapRunError(err)
}
