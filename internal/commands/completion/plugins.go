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

package completion

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/lola/internal/plugindir"
)

// scan reads the plugin tree named by the command's --service-root-path.
func scan(cmd *cobra.Command) (*plugindir.Catalog, bool) {
	if cmd == nil {
		return nil, false
	}
	root, err := cmd.Flags().GetString("service-root-path")
	if err != nil || root == "" {
		return nil, false
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, false
	}
	catalog, err := plugindir.Scan(os.DirFS(abs), filepath.Base(abs))
	if err != nil {
		return nil, false
	}
	return catalog, true
}

// CompleteServices completes --service from the plugin tree.
func CompleteServices(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		catalog, ok := scan(cmd)
		if !ok {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var out []string
		for _, name := range catalog.Services() {
			if strings.HasPrefix(name, strings.ToLower(toComplete)) {
				out = append(out, name)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteProcesses completes the comma-separated --processes list with the
// processes of --service that are not listed yet.
func CompleteProcesses(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		catalog, ok := scan(cmd)
		if !ok {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		service, err := cmd.Flags().GetString("service")
		if err != nil || service == "" {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		prefix, current := "", toComplete
		if i := strings.LastIndex(toComplete, ","); i >= 0 {
			prefix, current = toComplete[:i+1], toComplete[i+1:]
		}
		listed := make(map[string]bool)
		for _, name := range strings.Split(prefix, ",") {
			listed[plugindir.NormalizeProcess(name)] = true
		}

		var out []string
		for _, name := range catalog.Processes(service) {
			if listed[name] || !strings.HasPrefix(name, strings.ToLower(current)) {
				continue
			}
			out = append(out, prefix+name)
		}
		return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	})
}

// CompleteFormats completes the config show --format flag.
func CompleteFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		return []string{
			"yaml\tYAML document",
			"json\tIndented JSON",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// RegisterRequestFlags attaches service and process completion to cmd.
func RegisterRequestFlags(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("service", CompleteServices)
	if cmd.Flags().Lookup("processes") != nil {
		_ = cmd.RegisterFlagCompletionFunc("processes", CompleteProcesses)
	}
}
