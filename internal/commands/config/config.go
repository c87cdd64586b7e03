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

package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/lola/internal/commands/completion"
	"github.com/tombee/lola/internal/commands/shared"
	"github.com/tombee/lola/internal/jq"
)

// Output formats of config show.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// NewCommand creates the config command group
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect layered run configuration",
		Annotations: map[string]string{
			"group": "inspection",
		},
	}
	cmd.AddCommand(newShowCommand())
	return cmd
}

func newShowCommand() *cobra.Command {
	var (
		request shared.RequestFlags
		runtime shared.RuntimeFlags
		query   string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration a run would see",
		Long: `Show layers configuration exactly as run does and prints the result.
Nothing is discovered, validated or executed.

Use --query to select part of the configuration with a jq expression.`,
		Example: `  lola config show --service ptc --processes data_ingestion \
    --service-root-path examples/plugins
  lola config show -s ptc -p data_ingestion --service-root-path examples/plugins \
    --query '.source' --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shared.GetJSON() {
				format = FormatJSON
			}
			format = strings.ToLower(format)
			if format != FormatYAML && format != FormatJSON {
				return shared.NewInvalidRequestError(fmt.Sprintf("unknown format %q, expected yaml or json", format), nil)
			}

			executor := jq.NewExecutor()
			if query != "" {
				if err := executor.Validate(query); err != nil {
					return shared.NewInvalidRequestError("invalid query", err)
				}
			}

			if err := runtime.LoadEnvFile(cmd.Flags().Changed("env-file")); err != nil {
				return shared.NewConfigError("failed to load env file", err)
			}
			params, err := request.Params()
			if err != nil {
				return shared.NewConfigError("invalid overrides", err)
			}
			ctrl, err := runtime.NewController(cmd)
			if err != nil {
				return shared.NewConfigError("failed to set up run", err)
			}

			tree, err := ctrl.Resolve(cmd.Context(), params)
			if err != nil {
				return shared.WrapRunError(err)
			}

			var value any = tree.ToMap()
			if query != "" {
				value, err = executor.Execute(cmd.Context(), query, value)
				if err != nil {
					return shared.NewInvalidRequestError("query failed", err)
				}
			}
			return write(cmd.OutOrStdout(), value, format)
		},
	}

	request.Register(cmd.Flags())
	runtime.Register(cmd.Flags())
	cmd.Flags().StringVar(&query, "query", "", "jq expression applied to the configuration")
	cmd.Flags().StringVar(&format, "format", FormatYAML, "Output format (yaml, json)")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("processes")
	_ = cmd.MarkFlagRequired("service-root-path")
	completion.RegisterRequestFlags(cmd)
	_ = cmd.RegisterFlagCompletionFunc("format", completion.CompleteFormats)

	return cmd
}

func write(w io.Writer, value any, format string) error {
	if format == FormatJSON {
		return shared.EmitJSON(w, value)
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return encoder.Close()
}
