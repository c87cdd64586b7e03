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

package controller

import (
	"io"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tombee/lola/internal/plugindir"
	"github.com/tombee/lola/internal/process"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. When level is non-nil it is adjusted to
// logging.level once configuration has been layered.
func WithLogger(logger *slog.Logger, level *slog.LevelVar) Option {
	return func(c *Controller) {
		c.logger = logger
		c.level = level
	}
}

// WithLogOutput registers the log destination closed during teardown.
func WithLogOutput(out io.Closer) Option {
	return func(c *Controller) {
		c.logOutput = out
	}
}

// WithRegistry sets the registry processes are resolved from. Manifest
// processes are added to it during the run.
func WithRegistry(r *process.Registry) Option {
	return func(c *Controller) {
		c.registry = r
	}
}

// WithMarkers overrides the plugin marker patterns.
func WithMarkers(m plugindir.Markers) Option {
	return func(c *Controller) {
		c.markers = m
	}
}

// WithDefaults replaces the built-in defaults layer.
func WithDefaults(values map[string]any) Option {
	return func(c *Controller) {
		c.defaults = values
	}
}

// WithEnviron sets the environment source. Defaults to os.Environ.
func WithEnviron(environ func() []string) Option {
	return func(c *Controller) {
		c.environ = environ
	}
}

// WithOutput sets the writers handed to processes.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Controller) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithMetricsFile writes collected metrics to path during teardown.
func WithMetricsFile(path string) Option {
	return func(c *Controller) {
		c.metricsFile = path
	}
}

// WithTracerOptions adds tracer provider options, such as a test syncer.
func WithTracerOptions(opts ...sdktrace.TracerProviderOption) Option {
	return func(c *Controller) {
		c.tracerOpts = append(c.tracerOpts, opts...)
	}
}

// WithVersion is recorded on trace resources.
func WithVersion(version string) Option {
	return func(c *Controller) {
		c.version = version
	}
}
