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

package profiling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	lolaerrors "github.com/tombee/lola/pkg/errors"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeInvalid = "invalid"
)

// Metrics records per-process measurements into a private Prometheus
// registry.
type Metrics struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	executions metric.Int64Counter
	duration   metric.Float64Histogram
	allocBytes metric.Int64Counter

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewMetrics creates the meter provider and its instruments.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("lola")

	m := &Metrics{registry: registry, provider: provider}

	m.executions, err = meter.Int64Counter(
		"lola_process_executions_total",
		metric.WithDescription("Process executions by outcome"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, err
	}

	m.duration, err = meter.Float64Histogram(
		"lola_process_duration_seconds",
		metric.WithDescription("Process execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.allocBytes, err = meter.Int64Counter(
		"lola_process_alloc_bytes_total",
		metric.WithDescription("Bytes allocated while processes executed"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordExecution records one process execution.
func (m *Metrics) RecordExecution(ctx context.Context, service, process string, stats Stats, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("process", process),
		attribute.String("outcome", outcome),
	)
	m.executions.Add(ctx, 1, attrs)
	m.duration.Record(ctx, stats.Duration.Seconds(), attrs)
	m.allocBytes.Add(ctx, int64(stats.AllocBytes), attrs)
}

// RecordInvalid records a process that failed its own validation.
func (m *Metrics) RecordInvalid(ctx context.Context, service, process string) {
	m.executions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("process", process),
		attribute.String("outcome", OutcomeInvalid),
	))
}

// Registry exposes the gatherer, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every collected metric to path in the Prometheus
// text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return &lolaerrors.ConfigError{Key: "metrics file", Reason: "cannot write " + path, Cause: err}
	}
	return nil
}

// Shutdown stops the meter provider. Calls after the first return the first
// result.
func (m *Metrics) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		m.shutdownErr = m.provider.Shutdown(ctx)
	})
	return m.shutdownErr
}
