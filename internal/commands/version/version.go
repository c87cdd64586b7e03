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

package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tombee/lola/internal/commands/shared"
)

// Response is the --json form of the version command.
type Response struct {
	shared.JSONResponse
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// NewCommand creates the version command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Print the lola build version, commit and build date.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp := current()
			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), resp)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "lola version %s (%s)\n", resp.Version, resp.Platform)
			fmt.Fprintf(w, "  %s %s\n", shared.Dim("commit:"), resp.Commit)
			fmt.Fprintf(w, "  %s %s\n", shared.Dim("built: "), resp.BuildDate)
			fmt.Fprintf(w, "  %s %s\n", shared.Dim("go:    "), resp.GoVersion)
			return nil
		},
	}
}

func current() Response {
	v, c, b := shared.GetVersion()
	return Response{
		JSONResponse: shared.NewResponse("version", true),
		Version:      v,
		Commit:       c,
		BuildDate:    b,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
	}
}
