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

package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/lola/internal/log"
)

// Span attribute keys.
const (
	AttrRunID   = attribute.Key("lola.run_id")
	AttrService = attribute.Key("lola.service")
	AttrProcess = attribute.Key("lola.process")
	AttrStage   = attribute.Key("lola.stage")
)

const instrumentationName = "github.com/tombee/lola"

// Provider owns the tracer provider for one run.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
	closer io.Closer

	shutdownOnce sync.Once
	shutdownErr  error
}

// New builds a provider from cfg. Extra tracer provider options are applied
// after the configured exporter, so tests can attach a syncer.
func New(ctx context.Context, cfg Config, opts ...sdktrace.TracerProviderOption) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName(cfg)),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	p := &Provider{}
	allOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	exporter, closer, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if exporter != nil {
		allOpts = append(allOpts, sdktrace.WithBatcher(exporter))
	}
	p.closer = closer

	allOpts = append(allOpts, opts...)
	p.tp = sdktrace.NewTracerProvider(allOpts...)
	p.tracer = p.tp.Tracer(instrumentationName)
	return p, nil
}

// Tracer returns the run tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// StartRun opens the root span of a run.
func (p *Provider) StartRun(ctx context.Context, runID, service string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "lola.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrRunID.String(runID),
			AttrService.String(service),
		),
	)
}

// StartProcess opens a child span for one process.
func (p *Provider) StartProcess(ctx context.Context, service, process string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "lola.process "+process,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrService.String(service),
			AttrProcess.String(process),
		),
	)
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Shutdown flushes pending spans and releases the exporter. Calls after the
// first return the first result.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.shutdownErr = p.tp.Shutdown(ctx)
		if p.closer != nil {
			if err := p.closer.Close(); err != nil && p.shutdownErr == nil {
				p.shutdownErr = err
			}
		}
	})
	return p.shutdownErr
}

func serviceName(cfg Config) string {
	if cfg.ServiceName == "" {
		return "lola"
	}
	return cfg.ServiceName
}

// openTraceFile opens the stdout exporter destination.
func openTraceFile(path string) (*log.Output, error) {
	if path == "" {
		return log.NewDirectOutput(os.Stderr), nil
	}
	return log.OpenFile(path)
}
