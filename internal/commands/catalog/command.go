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

package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/lola/internal/builtin"
	"github.com/tombee/lola/internal/commands/completion"
	"github.com/tombee/lola/internal/commands/shared"
	"github.com/tombee/lola/internal/plugindir"
	"github.com/tombee/lola/internal/process"
	"github.com/tombee/lola/internal/process/manifest"
	"github.com/tombee/lola/pkg/errors"
)

// Implementation kinds reported for each process.
const (
	KindGo           = "go"
	KindCommand      = "command"
	KindUnregistered = "unregistered"
)

// ServiceEntry is one service in the catalog response.
type ServiceEntry struct {
	Name      string         `json:"name"`
	Processes []ProcessEntry `json:"processes"`
}

// ProcessEntry is one process in the catalog response.
type ProcessEntry struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// NewCommand creates the catalog command
func NewCommand() *cobra.Command {
	var (
		rootPath string
		service  string
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List services and processes under a root path",
		Annotations: map[string]string{
			"group": "inspection",
		},
		Long: `Catalog scans the service root path and lists every service folder
(a directory holding service.yaml) and every process folder inside it
(any nested directory holding process.yaml). Nested process folders are
named with dots, for example reporting.summary.

Each process is shown with how it is implemented: go for processes built
into lola, command for process.yaml files that declare a command, and
unregistered for folders with neither.`,
		Example: `  lola catalog --service-root-path examples/plugins
  lola catalog --service-root-path examples/plugins --service ptc --json
  lola catalog --service-root-path examples/plugins --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return watchRoot(cmd, rootPath, service)
			}
			entries, err := Build(rootPath, service)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), rootPath, entries)
		},
	}

	cmd.Flags().StringVar(&rootPath, "service-root-path", "", "Directory holding the service folders")
	cmd.Flags().StringVarP(&service, "service", "s", "", "Only list this service")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and list again whenever the tree changes")
	_ = cmd.MarkFlagRequired("service-root-path")
	completion.RegisterRequestFlags(cmd)

	return cmd
}

// Build scans root and classifies every process. When service is set only
// that service is listed.
func Build(root, service string) ([]ServiceEntry, error) {
	abs, err := rootDir(root)
	if err != nil {
		return nil, err
	}
	catalog, err := plugindir.Scan(os.DirFS(abs), filepath.Base(abs))
	if err != nil {
		return nil, shared.NewConfigError("failed to scan service root", err)
	}
	if service != "" && !catalog.HasService(service) {
		return nil, shared.NewInvalidRequestError("", &errors.ValidationError{
			Field:   "service",
			Message: fmt.Sprintf("service %q not found in %s", service, root),
		})
	}
	return classify(abs, service, catalog)
}

func rootDir(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", shared.NewInvalidRequestError("invalid service root path", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", shared.NewInvalidRequestError("service root path is not a directory",
			&errors.NotFoundError{Resource: "service root", ID: root})
	}
	return abs, nil
}

// classify reports how each process of catalog is implemented.
func classify(root, service string, catalog *plugindir.Catalog) ([]ServiceEntry, error) {
	registry, err := builtin.Registry()
	if err != nil {
		return nil, err
	}
	builtins := make(map[string]bool)
	for _, key := range registry.Keys() {
		builtins[key.String()] = true
	}
	if _, err := manifest.Register(registry, root, catalog); err != nil {
		return nil, shared.NewConfigError("failed to load process manifests", err)
	}

	entries := []ServiceEntry{}
	for _, name := range catalog.Services() {
		if service != "" && name != plugindir.NormalizeService(service) {
			continue
		}
		entry := ServiceEntry{Name: name, Processes: []ProcessEntry{}}
		for _, proc := range catalog.Processes(name) {
			kind := KindUnregistered
			switch {
			case builtins[process.NewKey(name, proc).String()]:
				kind = KindGo
			case registry.Has(name, proc):
				kind = KindCommand
			}
			entry.Processes = append(entry.Processes, ProcessEntry{Name: proc, Kind: kind})
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// watchRoot lists the catalog, then lists it again after every change until
// the command context is cancelled. A service filter that matches nothing
// yet is not an error.
func watchRoot(cmd *cobra.Command, root, service string) error {
	abs, err := rootDir(root)
	if err != nil {
		return err
	}
	watcher, err := plugindir.NewWatcher(abs)
	if err != nil {
		return shared.NewConfigError("failed to watch service root", err)
	}
	defer watcher.Close()

	out := cmd.OutOrStdout()
	var renderErr error
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	first := true
	err = watcher.Run(ctx, func(catalog *plugindir.Catalog) {
		entries, err := classify(abs, service, catalog)
		if err != nil {
			// Manifests may be mid-edit; keep watching.
			fmt.Fprintln(cmd.ErrOrStderr(), shared.StatusFailed.Render(err.Error()))
			return
		}
		if !first && !shared.GetJSON() {
			fmt.Fprintln(out)
			fmt.Fprintln(out, shared.Dim(time.Now().Format(time.TimeOnly)+" catalog changed"))
		}
		first = false
		if err := emit(out, root, entries); err != nil {
			renderErr = err
			cancel()
		}
	})
	if err != nil {
		return shared.NewConfigError("failed to scan service root", err)
	}
	return renderErr
}

func emit(w io.Writer, root string, entries []ServiceEntry) error {
	if shared.GetJSON() {
		type response struct {
			shared.JSONResponse
			Services []ServiceEntry `json:"services"`
		}
		return shared.EmitJSON(w, response{
			JSONResponse: shared.NewResponse("catalog", true),
			Services:     entries,
		})
	}
	render(w, root, entries)
	return nil
}

func render(w io.Writer, root string, entries []ServiceEntry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No services found in %s\n", root)
		return
	}
	for i, service := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, shared.Heading.Render(service.Name))
		if len(service.Processes) == 0 {
			fmt.Fprintln(w, "  "+shared.Dim("no processes"))
			continue
		}
		for _, proc := range service.Processes {
			line := fmt.Sprintf("%s %s", proc.Name, shared.Dim("("+proc.Kind+")"))
			if proc.Kind == KindUnregistered {
				fmt.Fprintln(w, "  "+shared.StatusFailed.Render(line))
			} else {
				fmt.Fprintln(w, "  "+shared.StatusInfo.Render(line))
			}
		}
	}
}
