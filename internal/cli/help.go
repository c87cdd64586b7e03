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
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/lola/internal/commands/shared"
)

// CommandMetadata describes one command in help --json output.
type CommandMetadata struct {
	Name        string         `json:"name"`
	Path        string         `json:"path"`
	Short       string         `json:"short"`
	Long        string         `json:"long,omitempty"`
	Usage       string         `json:"usage"`
	Group       string         `json:"group,omitempty"`
	Flags       []FlagMetadata `json:"flags,omitempty"`
	Subcommands []string       `json:"subcommands,omitempty"`
}

// FlagMetadata describes one flag.
type FlagMetadata struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Type      string `json:"type"`
	Usage     string `json:"usage"`
	Default   string `json:"default,omitempty"`
	Required  bool   `json:"required"`
}

// HelpResponse is the help command's --json output.
type HelpResponse struct {
	shared.JSONResponse
	Commands    []CommandMetadata `json:"commands,omitempty"`
	Command     *CommandMetadata  `json:"command,omitempty"`
	GlobalFlags []FlagMetadata    `json:"global_flags,omitempty"`
}

// NewHelpCommand replaces cobra's help command with one that honours the
// global --json flag.
func NewHelpCommand(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Long: `Show usage for lola or one of its commands.

Run 'lola help <command>' for a single command. With --json the command
tree is printed as a machine-readable document.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := rootCmd
			if len(args) > 0 {
				found, _, err := rootCmd.Find(args)
				if err != nil || found == rootCmd {
					return fmt.Errorf("command %q not found", args[0])
				}
				target = found
			}
			if !shared.GetJSON() {
				return target.Help()
			}

			resp := HelpResponse{
				JSONResponse: shared.NewResponse("help", true),
				GlobalFlags:  describeFlags(rootCmd.PersistentFlags()),
			}
			if target == rootCmd {
				for _, c := range rootCmd.Commands() {
					if c.IsAvailableCommand() || c == cmd {
						resp.Commands = append(resp.Commands, describe(c))
					}
				}
			} else {
				meta := describe(target)
				resp.Command = &meta
			}
			return shared.EmitJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func describe(cmd *cobra.Command) CommandMetadata {
	meta := CommandMetadata{
		Name:  cmd.Name(),
		Path:  cmd.CommandPath(),
		Short: cmd.Short,
		Long:  cmd.Long,
		Usage: cmd.UseLine(),
		Group: cmd.Annotations["group"],
		Flags: describeFlags(cmd.LocalNonPersistentFlags()),
	}
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			meta.Subcommands = append(meta.Subcommands, sub.Name())
		}
	}
	return meta
}

// describeFlags lists the visible flags of fs sorted by name.
func describeFlags(fs *pflag.FlagSet) []FlagMetadata {
	var flags []FlagMetadata
	fs.VisitAll(func(flag *pflag.Flag) {
		if flag.Hidden {
			return
		}
		flags = append(flags, FlagMetadata{
			Name:      flag.Name,
			Shorthand: flag.Shorthand,
			Type:      flag.Value.Type(),
			Usage:     flag.Usage,
			Default:   flag.DefValue,
			Required:  isRequired(flag),
		})
	})
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	return flags
}

// isRequired reports whether MarkFlagRequired was called for flag.
func isRequired(flag *pflag.Flag) bool {
	values, ok := flag.Annotations[cobra.BashCompOneRequiredFlag]
	return ok && len(values) > 0 && values[0] == "true"
}
