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

package validate

import (
	"github.com/spf13/cobra"

	"github.com/tombee/lola/internal/commands/completion"
	"github.com/tombee/lola/internal/commands/shared"
)

// NewCommand creates the validate command
func NewCommand() *cobra.Command {
	var (
		request shared.RequestFlags
		runtime shared.RuntimeFlags
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run without executing it",
		Annotations: map[string]string{
			"group": "execution",
		},
		Long: `Validate performs every step of run up to and including each process's
own validation, and stops before anything is executed. It takes the same
request flags as run and exits with the same codes.`,
		Example: `  lola validate --service ptc --processes feature_engineering \
    --service-root-path examples/plugins --set mode=serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runtime.LoadEnvFile(cmd.Flags().Changed("env-file")); err != nil {
				return shared.NewConfigError("failed to load env file", err)
			}
			params, err := request.Params()
			if err != nil {
				return shared.NewConfigError("invalid overrides", err)
			}
			ctrl, err := runtime.NewController(cmd)
			if err != nil {
				return shared.NewConfigError("failed to set up validation", err)
			}

			result, err := ctrl.Validate(cmd.Context(), params)
			if shared.GetJSON() {
				if emitErr := shared.EmitJSON(cmd.OutOrStdout(), shared.NewResultJSON("validate", result, err)); emitErr != nil && err == nil {
					return emitErr
				}
			} else if !shared.GetQuiet() {
				shared.RenderResult(cmd.OutOrStdout(), result)
			}
			return shared.WrapRunError(err)
		},
	}

	request.Register(cmd.Flags())
	runtime.Register(cmd.Flags())
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("processes")
	_ = cmd.MarkFlagRequired("service-root-path")
	completion.RegisterRequestFlags(cmd)

	return cmd
}
