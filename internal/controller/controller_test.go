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
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tombee/lola/internal/configtree"
	"github.com/tombee/lola/internal/process"
	"github.com/tombee/lola/pkg/errors"
)

func writeFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// pluginRoot lays out service ptc with processes ingest, transform and
// report.
func pluginRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "ptc/service.yaml", "")
	writeFile(t, root, "ptc/ingest/process.yaml", "")
	writeFile(t, root, "ptc/transform/process.yaml", "")
	writeFile(t, root, "ptc/report/process.yaml", "")
	return root
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type stub struct {
	valid   bool
	message string
	execute func(rc *process.RunContext) error
}

func (r *recorder) register(t *testing.T, registry *process.Registry, name string, s stub) {
	t.Helper()
	require.NoError(t, registry.Register("ptc", name, func() (process.Process, error) {
		return &process.Func{
			ValidateFunc: func(*process.RunContext) (bool, string) {
				r.add("validate:" + name)
				return s.valid, s.message
			},
			ExecuteFunc: func(rc *process.RunContext) error {
				r.add("execute:" + name)
				if s.execute != nil {
					return s.execute(rc)
				}
				return nil
			},
		}, nil
	}))
}

type countingCloser struct {
	mu    sync.Mutex
	count int
}

func (c *countingCloser) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return nil
}

func (c *countingCloser) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func newController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	base := []Option{
		WithEnviron(func() []string { return nil }),
		WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
	}
	c, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func TestRunExecutesInOrder(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	for _, name := range []string{"ingest", "transform", "report"} {
		rec.register(t, registry, name, stub{valid: true, message: "ok"})
	}

	c := newController(t, WithRegistry(registry))
	result, err := c.Run(context.Background(), Params{
		Service:   "ptc",
		Processes: []string{"transform", " ingest "},
		RootPath:  root,
		RunID:     "run-1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"validate:transform", "execute:transform",
		"validate:ingest", "execute:ingest",
	}, rec.Calls())
	assert.Equal(t, "run-1", result.RunID)
	require.Len(t, result.Processes, 2)
	assert.True(t, result.Processes[0].Executed)
	assert.Equal(t, "ingest", result.Processes[1].Name)

	runID, err := result.Config.Get(KeyServiceRunID)
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
}

func TestRunGeneratesRunID(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true})

	c := newController(t, WithRegistry(registry))
	result, err := c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"ingest"}, RootPath: root})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.Config.Has(KeyServiceRunID))
}

func TestRunRejectsUnknownService(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true})

	c := newController(t, WithRegistry(registry))
	_, err := c.Run(context.Background(), Params{Service: "missing", Processes: []string{"ingest"}, RootPath: root})
	require.Error(t, err)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, StageRequest, runErr.Stage)

	var validationErr *errors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "service", validationErr.Field)
	assert.Contains(t, validationErr.Hint, "ptc")
	assert.Empty(t, rec.Calls())
}

func TestRunRejectsUnknownProcessBeforeAnyProcessRuns(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true})

	c := newController(t, WithRegistry(registry))
	_, err := c.Run(context.Background(), Params{
		Service:   "PTC",
		Processes: []string{"ingest", "nope"},
		RootPath:  root,
	})
	require.Error(t, err)

	var validationErr *errors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "processes", validationErr.Field)
	assert.Contains(t, validationErr.Message, "nope")
	assert.Empty(t, rec.Calls())
}

func TestRunStopsAtInvalidProcess(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true})
	rec.register(t, registry, "transform", stub{valid: false, message: "bad input"})
	rec.register(t, registry, "report", stub{valid: true})

	c := newController(t, WithRegistry(registry))
	result, err := c.Run(context.Background(), Params{
		Service:   "ptc",
		Processes: []string{"ingest", "transform", "report"},
		RootPath:  root,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform")
	assert.Contains(t, err.Error(), "bad input")

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, StageValidate, runErr.Stage)
	assert.Equal(t, "transform", runErr.Process)

	assert.Equal(t, []string{"validate:ingest", "execute:ingest", "validate:transform"}, rec.Calls())
	require.Len(t, result.Processes, 2)
	assert.False(t, result.Processes[1].Valid)
	assert.False(t, result.Processes[1].Executed)
}

func TestRunPropagatesExecutionError(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	boom := stderrors.New("boom")
	rec.register(t, registry, "ingest", stub{valid: true, execute: func(*process.RunContext) error { return boom }})
	rec.register(t, registry, "report", stub{valid: true})

	c := newController(t, WithRegistry(registry))
	_, err := c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"ingest", "report"}, RootPath: root})
	require.Error(t, err)

	assert.True(t, errors.Is(err, boom))
	var execErr *errors.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "ingest", execErr.Process)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, StageExecute, runErr.Stage)
	assert.Equal(t, []string{"validate:ingest", "execute:ingest"}, rec.Calls())
}

func TestRunRecoversPanics(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true, execute: func(*process.RunContext) error { panic("kaboom") }})

	c := newController(t, WithRegistry(registry))
	_, err := c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"ingest"}, RootPath: root})
	require.Error(t, err)

	var execErr *errors.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, err.Error(), "kaboom")
}

func TestRunUnregisteredProcess(t *testing.T) {
	root := pluginRoot(t)
	c := newController(t)
	_, err := c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"ingest"}, RootPath: root})
	require.Error(t, err)

	var resolutionErr *errors.ResolutionError
	require.True(t, errors.As(err, &resolutionErr))
	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, StageResolve, runErr.Stage)
}

func TestRunChecksCancellationBetweenProcesses(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec.register(t, registry, "ingest", stub{valid: true, execute: func(*process.RunContext) error {
		cancel()
		return nil
	}})
	rec.register(t, registry, "report", stub{valid: true})

	c := newController(t, WithRegistry(registry))
	_, err := c.Run(ctx, Params{Service: "ptc", Processes: []string{"ingest", "report"}, RootPath: root})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"validate:ingest", "execute:ingest"}, rec.Calls())
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		field  string
	}{
		{"no service", Params{Processes: []string{"a"}, RootPath: "."}, "service"},
		{"no processes", Params{Service: "ptc", RootPath: "."}, "processes"},
		{"blank process", Params{Service: "ptc", Processes: []string{"a", " "}, RootPath: "."}, "processes"},
		{"no root", Params{Service: "ptc", Processes: []string{"a"}}, "service_root_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(t)
			_, err := c.Run(context.Background(), tt.params)
			var validationErr *errors.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestResolvePrecedence(t *testing.T) {
	root := pluginRoot(t)
	writeFile(t, root, "configs/services/ptc.yaml", `
source:
  bucket: from-file
  region: from-file
  zone: from-file
`)
	writeFile(t, root, "configs/data_models.yaml", `
models:
  customer: [id, name]
`)

	c := newController(t,
		WithDefaults(map[string]any{
			"source": map[string]any{"bucket": "default", "owner": "default"},
		}),
		WithEnviron(func() []string {
			return []string{"config_source__region=from-env", "config_source__zone=from-env", "OTHER=1"}
		}),
	)
	tree, err := c.Resolve(context.Background(), Params{
		Service:   "ptc",
		Processes: []string{"ingest"},
		RootPath:  root,
		Locale:    "EN_US",
		Overrides: map[string]any{"source": map[string]any{"zone": "override"}},
	})
	require.NoError(t, err)

	for path, want := range map[string]any{
		"source.owner":  "default",
		"source.bucket": "from-file",
		"source.region": "from-env",
		"source.zone":   "override",
		KeyLocale:       "en_us",
		KeyService:      "ptc",
	} {
		got, err := tree.Get(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	assert.True(t, tree.Has("models.customer"))
	assert.Equal(t, []any{filepath.Join(root, "configs", "services", "ptc.yaml")}, mustGet(t, tree, KeyServiceConfigPath))
}

func mustGet(t *testing.T, tree *configtree.Tree, path string) any {
	t.Helper()
	v, err := tree.Get(path)
	require.NoError(t, err)
	return v
}

func TestResolveMissingFilesWarn(t *testing.T) {
	root := pluginRoot(t)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newController(t, WithLogger(logger, nil))
	tree, err := c.Resolve(context.Background(), Params{
		Service:     "ptc",
		Processes:   []string{"ingest"},
		RootPath:    root,
		ConfigPaths: []string{filepath.Join(root, "absent.yaml")},
	})
	require.NoError(t, err)
	assert.True(t, tree.Has(KeyService))
	assert.Contains(t, logs.String(), "service config file not found")
	assert.Contains(t, logs.String(), "data model file not found")
}

func TestResolveSkipsMalformedEnvironment(t *testing.T) {
	root := pluginRoot(t)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := newController(t, WithLogger(logger, nil), WithEnviron(func() []string {
		return []string{"config_feature__=1", "config_=x", "config_source__bucket=raw"}
	}))
	tree, err := c.Resolve(context.Background(), Params{Service: "ptc", Processes: []string{"ingest"}, RootPath: root})
	require.NoError(t, err)
	assert.Equal(t, "raw", mustGet(t, tree, "source.bucket"))
	assert.Contains(t, logs.String(), "variable=config_feature__")
	assert.Contains(t, logs.String(), "variable=config_")
}

func TestRunMalformedConfigFile(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true})
	writeFile(t, root, "configs/services/ptc.yaml", "source: [unclosed\n")

	c := newController(t, WithRegistry(registry))
	_, err := c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"ingest"}, RootPath: root})
	require.Error(t, err)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, StageConfig, runErr.Stage)
	var parseErr *errors.ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Empty(t, rec.Calls())
}

func TestResolveAppliesLogLevel(t *testing.T) {
	root := pluginRoot(t)
	writeFile(t, root, "configs/services/ptc.yaml", "logging:\n  level: debug\n")
	level := &slog.LevelVar{}

	c := newController(t, WithLogger(quietLogger(), level))
	_, err := c.Resolve(context.Background(), Params{Service: "ptc", Processes: []string{"ingest"}, RootPath: root})
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level.Level())
}

func TestBuiltinDefaultsFollowLevel(t *testing.T) {
	level := &slog.LevelVar{}
	level.Set(slog.LevelWarn)
	c := newController(t, WithLogger(quietLogger(), level))

	tree := configtree.New()
	require.NoError(t, tree.Replace(c.defaults))
	assert.Equal(t, "warn", tree.GetString(KeyLoggingLevel, ""))
	assert.Equal(t, "text", tree.GetString(KeyLoggingFormat, ""))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestTeardownRunsOnce(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"success", true},
		{"failure", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := pluginRoot(t)
			registry := process.NewRegistry()
			rec := &recorder{}
			rec.register(t, registry, "ingest", stub{valid: tt.valid, message: "checked"})
			closer := &countingCloser{}

			c := newController(t, WithRegistry(registry), WithLogOutput(closer))
			_, err := c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"ingest"}, RootPath: root})
			if tt.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
			assert.Equal(t, 1, closer.Count())

			_, err = c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"ingest"}, RootPath: root})
			var argErr *errors.InvalidArgumentError
			require.True(t, errors.As(err, &argErr))
			assert.Equal(t, 1, closer.Count())
		})
	}
}

func TestTeardownOnRequestFailure(t *testing.T) {
	closer := &countingCloser{}
	c := newController(t, WithLogOutput(closer))
	_, err := c.Run(context.Background(), Params{})
	require.Error(t, err)
	assert.Equal(t, 1, closer.Count())
}

func TestValidateNeverExecutes(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true, message: "ready"})
	rec.register(t, registry, "report", stub{valid: true})

	c := newController(t, WithRegistry(registry))
	result, err := c.Validate(context.Background(), Params{Service: "ptc", Processes: []string{"ingest", "report"}, RootPath: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"validate:ingest", "validate:report"}, rec.Calls())
	require.Len(t, result.Processes, 2)
	assert.Equal(t, "ready", result.Processes[0].Message)
	assert.False(t, result.Processes[0].Executed)
}

func TestRunWritesProfiles(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true})
	rec.register(t, registry, "report", stub{valid: true})
	profileDir := filepath.Join(t.TempDir(), "profiles")

	c := newController(t, WithRegistry(registry))
	result, err := c.Run(context.Background(), Params{
		Service:    "ptc",
		Processes:  []string{"ingest", "report"},
		RootPath:   root,
		Profile:    true,
		ProfileDir: profileDir,
	})
	require.NoError(t, err)

	for _, name := range []string{"ingest", "report"} {
		assert.FileExists(t, filepath.Join(profileDir, name+"_profile_stats"))
	}
	require.NotNil(t, result.Processes[0].Stats)
	assert.NotEmpty(t, result.Processes[0].Stats.ProfilePath)
}

func TestRunWritesMetricsFile(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true})
	metricsFile := filepath.Join(t.TempDir(), "metrics.prom")

	c := newController(t, WithRegistry(registry), WithMetricsFile(metricsFile))
	_, err := c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"ingest"}, RootPath: root})
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lola_process")
	assert.Contains(t, string(data), `process="ingest"`)
}

func TestRunRecordsSpans(t *testing.T) {
	root := pluginRoot(t)
	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true})
	exporter := tracetest.NewInMemoryExporter()

	var spans tracetest.SpanStubs
	registry.MustRegister("ptc", "report", func() (process.Process, error) {
		return &process.Func{ExecuteFunc: func(*process.RunContext) error {
			spans = exporter.GetSpans()
			return nil
		}}, nil
	})

	c := newController(t, WithRegistry(registry), WithTracerOptions(sdktrace.WithSyncer(exporter)))
	_, err := c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"ingest", "report"}, RootPath: root})
	require.NoError(t, err)

	require.Len(t, spans, 1)
	assert.Equal(t, "lola.process ingest", spans[0].Name)
}

func TestRunManifestProcess(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	root := pluginRoot(t)
	writeFile(t, root, "ptc/report/process.yaml", `
command: sh -c 'echo "report for $LOLA_SERVICE $BUCKET"'
env:
  BUCKET: source.bucket
require: [source.bucket]
`)
	var stdout bytes.Buffer
	c, err := New(
		WithEnviron(func() []string { return []string{"config_source__bucket=raw"} }),
		WithOutput(&stdout, &bytes.Buffer{}),
	)
	require.NoError(t, err)

	_, err = c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"report"}, RootPath: root})
	require.NoError(t, err)
	assert.Equal(t, "report for ptc raw\n", stdout.String())
}

func TestRunIgnoresManifestsOutsideTheRequest(t *testing.T) {
	root := pluginRoot(t)
	writeFile(t, root, "other/service.yaml", "")
	writeFile(t, root, "other/broken/process.yaml", "command: [unterminated\n")
	writeFile(t, root, "ptc/report/process.yaml", "command: {bad: shape}\n")

	registry := process.NewRegistry()
	rec := &recorder{}
	rec.register(t, registry, "ingest", stub{valid: true})

	c := newController(t, WithRegistry(registry))
	_, err := c.Run(context.Background(), Params{Service: "ptc", Processes: []string{"ingest"}, RootPath: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"validate:ingest", "execute:ingest"}, rec.Calls())
}
