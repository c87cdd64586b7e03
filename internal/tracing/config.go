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

// Package tracing provides the OpenTelemetry tracer used to record one span
// per run and one child span per process.
package tracing

import (
	"strconv"
	"strings"

	"github.com/tombee/lola/internal/configtree"
	"github.com/tombee/lola/pkg/errors"
)

// Exporter types.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// Config keys read from the configuration tree.
const (
	KeyExporter = "tracing.exporter"
	KeyEndpoint = "tracing.endpoint"
	KeyFile     = "tracing.file"
	KeyInsecure = "tracing.insecure"
)

// Config holds tracing configuration.
type Config struct {
	// Exporter selects where spans go (none, stdout, otlp-http, otlp-grpc).
	Exporter string

	// Endpoint is the collector address for OTLP exporters
	// (e.g., "localhost:4317").
	Endpoint string

	// File receives stdout-exporter output instead of stderr when set.
	File string

	// Insecure disables TLS for OTLP exporters.
	Insecure bool

	// ServiceName identifies this program in traces.
	ServiceName string

	// ServiceVersion is the program version.
	ServiceVersion string
}

// FromTree reads tracing settings. Absent keys leave tracing disabled.
func FromTree(tree *configtree.Tree) Config {
	cfg := Config{
		Exporter:    strings.ToLower(tree.GetString(KeyExporter, ExporterNone)),
		Endpoint:    tree.GetString(KeyEndpoint, ""),
		File:        tree.GetString(KeyFile, ""),
		ServiceName: "lola",
	}
	if insecure, err := strconv.ParseBool(tree.GetString(KeyInsecure, "false")); err == nil {
		cfg.Insecure = insecure
	}
	return cfg
}

// Enabled reports whether spans are exported anywhere.
func (c Config) Enabled() bool {
	return c.Exporter != "" && c.Exporter != ExporterNone
}

// Validate checks the exporter type and required fields.
func (c Config) Validate() error {
	switch c.Exporter {
	case "", ExporterNone, ExporterStdout:
		return nil
	case ExporterOTLPHTTP, ExporterOTLPGRPC:
		if c.Endpoint == "" {
			return &errors.ConfigError{Key: KeyEndpoint, Reason: "endpoint is required for " + c.Exporter}
		}
		return nil
	default:
		return &errors.ConfigError{
			Key:    KeyExporter,
			Reason: "unknown exporter " + strconv.Quote(c.Exporter) + ", expected none, stdout, otlp-http or otlp-grpc",
		}
	}
}
