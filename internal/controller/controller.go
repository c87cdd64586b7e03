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
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tombee/lola/internal/configtree"
	"github.com/tombee/lola/internal/log"
	"github.com/tombee/lola/internal/plugindir"
	"github.com/tombee/lola/internal/process"
	"github.com/tombee/lola/internal/process/manifest"
	"github.com/tombee/lola/internal/profiling"
	"github.com/tombee/lola/internal/tracing"
	"github.com/tombee/lola/pkg/errors"
)

const teardownTimeout = 10 * time.Second

// Controller drives one run: it layers configuration, checks the request
// against the plugin tree and then validates and executes each process in
// order.
type Controller struct {
	logger    *slog.Logger
	level     *slog.LevelVar
	logOutput io.Closer

	registry    *process.Registry
	markers     plugindir.Markers
	defaults    map[string]any
	environ     func() []string
	stdout      io.Writer
	stderr      io.Writer
	metricsFile string
	tracerOpts  []sdktrace.TracerProviderOption
	version     string

	metrics *profiling.Metrics
	tracer  *tracing.Provider

	used         atomic.Bool
	teardownOnce sync.Once
	teardownErr  error
}

// Result describes a finished or aborted run.
type Result struct {
	RunID   string
	Service string

	// Config is the layered configuration, nil when layering failed.
	Config *configtree.Tree

	// Processes holds one entry per process that got past resolution.
	Processes []ProcessResult
}

// ProcessResult describes one process of a run.
type ProcessResult struct {
	Name     string
	Valid    bool
	Message  string
	Executed bool
	Duration time.Duration
	Stats    *profiling.Stats
}

// New creates a Controller.
func New(opts ...Option) (*Controller, error) {
	c := &Controller{
		markers: plugindir.DefaultMarkers(),
		environ: os.Environ,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Discard()
	}
	if c.registry == nil {
		c.registry = process.NewRegistry()
	}
	if c.defaults == nil {
		c.defaults = c.builtinDefaults()
	}
	if err := c.markers.Validate(); err != nil {
		return nil, err
	}

	metrics, err := profiling.NewMetrics()
	if err != nil {
		return nil, err
	}
	c.metrics = metrics
	return c, nil
}

func (c *Controller) builtinDefaults() map[string]any {
	level := "info"
	if c.level != nil {
		level = strings.ToLower(c.level.Level().String())
	}
	return map[string]any{
		"logging": map[string]any{
			"level":  level,
			"format": "text",
		},
	}
}

// Metrics exposes the run metrics.
func (c *Controller) Metrics() *profiling.Metrics {
	return c.metrics
}

// Run executes every requested process. The returned Result is non-nil
// once configuration has been layered, including on failure. Teardown
// runs before Run returns.
func (c *Controller) Run(ctx context.Context, params Params) (*Result, error) {
	return c.run(ctx, params, true)
}

// Validate runs every stage of Run up to and including each process's
// Validate, without executing anything.
func (c *Controller) Validate(ctx context.Context, params Params) (*Result, error) {
	return c.run(ctx, params, false)
}

// Resolve only layers configuration.
func (c *Controller) Resolve(ctx context.Context, params Params) (tree *configtree.Tree, err error) {
	if err := c.claim(); err != nil {
		return nil, err
	}
	defer func() {
		if tdErr := c.teardown(ctx); tdErr != nil && err == nil {
			err = stageError(StageTeardown, "", tdErr)
		}
	}()

	params = params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, stageError(StageRequest, "", err)
	}
	logger := log.WithRunContext(c.logger, c.runID(params), params.Service)
	tree, err = c.layer(params, logger)
	if err != nil {
		return nil, stageError(StageConfig, "", err)
	}
	return tree, nil
}

func (c *Controller) claim() error {
	if !c.used.CompareAndSwap(false, true) {
		return &errors.InvalidArgumentError{Argument: "controller", Reason: "a controller serves a single run"}
	}
	return nil
}

func (c *Controller) runID(p Params) string {
	if p.RunID != "" {
		return p.RunID
	}
	return uuid.NewString()
}

func (c *Controller) run(ctx context.Context, params Params, execute bool) (result *Result, err error) {
	if err := c.claim(); err != nil {
		return nil, err
	}
	defer func() {
		if tdErr := c.teardown(ctx); tdErr != nil && err == nil {
			err = stageError(StageTeardown, "", tdErr)
		}
	}()

	params = params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, stageError(StageRequest, "", err)
	}

	runID := c.runID(params)
	logger := log.WithRunContext(c.logger, runID, params.Service)

	tree, err := c.layer(params, logger)
	if err != nil {
		return nil, stageError(StageConfig, "", err)
	}
	result = &Result{RunID: runID, Service: params.Service, Config: tree}

	traceCfg := tracing.FromTree(tree)
	traceCfg.ServiceVersion = c.version
	provider, err := tracing.New(ctx, traceCfg, c.tracerOpts...)
	if err != nil {
		return result, stageError(StageConfig, "", err)
	}
	c.tracer = provider

	ctx, span := provider.StartRun(ctx, runID, params.Service)
	defer func() { tracing.End(span, err) }()

	catalog, err := c.checkRequest(params)
	if err != nil {
		return result, stageError(StageRequest, "", err)
	}
	added, err := manifest.RegisterSelected(c.registry, params.RootPath, catalog, params.Service, params.Processes)
	if err != nil {
		return result, stageError(StageResolve, "", err)
	}
	if added > 0 {
		logger.Debug("registered manifest processes", "count", added)
	}

	logger.Info("starting run", "processes", strings.Join(params.Processes, ","), "execute", execute)

	var profiler *profiling.Profiler
	if params.Profile {
		profiler = profiling.NewProfiler(params.ProfileDir)
	}

	base := &process.RunContext{
		Context: ctx,
		Config:  tree,
		Logger:  logger,
		Service: params.Service,
		RunID:   runID,
		Stdout:  c.stdout,
		Stderr:  c.stderr,
	}
	for _, name := range params.Processes {
		if err := ctx.Err(); err != nil {
			return result, stageError(StageExecute, name, err)
		}

		rc := base.For(name, log.WithProcessContext(logger, name))
		pr, stage, err := c.step(rc, profiler, execute)
		if pr != nil {
			result.Processes = append(result.Processes, *pr)
		}
		if err != nil {
			return result, stageError(stage, name, err)
		}
	}

	logger.Info("run completed", "processes", len(result.Processes))
	return result, nil
}

// checkRequest scans the plugin tree and checks the requested service and
// processes against it.
func (c *Controller) checkRequest(p Params) (*plugindir.Catalog, error) {
	root, err := filepath.Abs(p.RootPath)
	if err != nil {
		return nil, &errors.InvalidArgumentError{Argument: "service_root_path", Reason: err.Error()}
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, &errors.ValidationError{
			Field:   "service_root_path",
			Message: fmt.Sprintf("service root path %s is not a directory", p.RootPath),
		}
	}

	catalog, err := plugindir.Scan(os.DirFS(root), filepath.Base(root), plugindir.WithMarkers(c.markers))
	if err != nil {
		return nil, err
	}

	if !catalog.HasService(p.Service) {
		hint := "no services were found under the root path"
		if services := catalog.Services(); len(services) > 0 {
			hint = "available services: " + strings.Join(services, ", ")
		}
		return nil, &errors.ValidationError{
			Field:   "service",
			Message: fmt.Sprintf("service %q not found in %s", p.Service, p.RootPath),
			Hint:    hint,
		}
	}
	for _, name := range p.Processes {
		if !catalog.HasProcess(p.Service, name) {
			hint := "the service has no processes"
			if processes := catalog.Processes(p.Service); len(processes) > 0 {
				hint = "available processes: " + strings.Join(processes, ", ")
			}
			return nil, &errors.ValidationError{
				Field:   "processes",
				Message: fmt.Sprintf("process %q not found in service %q", name, p.Service),
				Hint:    hint,
			}
		}
	}
	return catalog, nil
}

// step resolves, validates and, when execute is set, runs one process. It
// reports the stage any failure belongs to.
func (c *Controller) step(rc *process.RunContext, profiler *profiling.Profiler, execute bool) (*ProcessResult, Stage, error) {
	proc, err := c.registry.Resolve(rc.Service, rc.Process)
	if err != nil {
		return nil, StageResolve, err
	}

	pr := &ProcessResult{Name: rc.Process}
	ok, message := proc.Validate(rc)
	pr.Valid, pr.Message = ok, message
	if !ok {
		c.metrics.RecordInvalid(rc.Ctx(), rc.Service, rc.Process)
		return pr, StageValidate, &errors.ValidationError{Field: rc.Process, Message: message}
	}
	rc.Log().Info(fmt.Sprintf("process %s validated successfully", rc.Process), "message", message)

	if !execute {
		return pr, "", nil
	}

	ctx, span := c.tracer.StartProcess(rc.Ctx(), rc.Service, rc.Process)
	rc.Context = ctx

	var stats profiling.Stats
	err = log.Timed(rc.Log(), &log.Execution{Name: rc.Process, Metadata: map[string]any{"profile": profiler != nil}}, func() error {
		var runErr error
		if profiler != nil {
			stats, runErr = profiler.Profile(rc.Process, func() error { return invoke(proc, rc) })
		} else {
			stats, runErr = profiling.Measure(rc.Process, func() error { return invoke(proc, rc) })
		}
		return runErr
	})
	tracing.End(span, err)
	c.metrics.RecordExecution(ctx, rc.Service, rc.Process, stats, err)

	pr.Executed = true
	pr.Duration = stats.Duration
	pr.Stats = &stats
	if profiler != nil {
		rc.Log().Debug("process profile", "stats", stats)
	}
	if err != nil {
		return pr, StageExecute, &errors.ExecutionError{Service: rc.Service, Process: rc.Process, Cause: err}
	}
	return pr, "", nil
}

// invoke calls Execute, turning a panic into an error.
func invoke(proc process.Process, rc *process.RunContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("process %s panicked: %v", rc.Process, r)
		}
	}()
	return proc.Execute(rc)
}

// teardown releases run resources exactly once.
func (c *Controller) teardown(ctx context.Context) error {
	c.teardownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()

		var errs []error
		if c.tracer != nil {
			if err := c.tracer.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
			}
		}
		if c.metricsFile != "" {
			if err := c.metrics.WriteTextfile(c.metricsFile); err != nil {
				errs = append(errs, err)
			}
		}
		if err := c.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
		if c.logOutput != nil {
			if err := c.logOutput.Close(); err != nil {
				errs = append(errs, fmt.Errorf("log output: %w", err))
			}
		}
		c.teardownErr = stderrors.Join(errs...)
	})
	return c.teardownErr
}
