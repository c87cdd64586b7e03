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

package ptc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/lola/internal/configtree"
	"github.com/tombee/lola/internal/process"
)

func runContext(t *testing.T, name string, values map[string]any) (*process.RunContext, *bytes.Buffer) {
	t.Helper()
	tree := configtree.New()
	require.NoError(t, tree.Upsert(values))
	var out bytes.Buffer
	return &process.RunContext{Config: tree, Service: Service, Process: name, Stdout: &out}, &out
}

func resolve(t *testing.T, name string) process.Process {
	t.Helper()
	registry := process.NewRegistry()
	require.NoError(t, Register(registry))
	p, err := registry.Resolve(Service, name)
	require.NoError(t, err)
	return p
}

func TestDataIngestion(t *testing.T) {
	p := resolve(t, DataIngestion)
	rc, out := runContext(t, DataIngestion, map[string]any{"source": map[string]any{"path": "/data/raw"}})

	ok, msg := p.Validate(rc)
	assert.True(t, ok)
	assert.Equal(t, "PTC DATA INGESTION process", msg)

	require.NoError(t, p.Execute(rc))
	assert.Contains(t, out.String(), "DATA INGESTION")
	assert.Contains(t, out.String(), "Reading from /data/raw")
}

func TestFeatureEngineeringValidate(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		ok     bool
	}{
		{"default mode", map[string]any{}, true},
		{"predict", map[string]any{"mode": "PREDICT"}, true},
		{"unknown", map[string]any{"mode": "serve"}, false},
	}
	p := resolve(t, FeatureEngineering)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, _ := runContext(t, FeatureEngineering, tt.values)
			ok, msg := p.Validate(rc)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Contains(t, msg, "serve")
			}
		})
	}
}

func TestFeatureEngineeringExecute(t *testing.T) {
	p := resolve(t, FeatureEngineering)
	rc, out := runContext(t, FeatureEngineering, map[string]any{"state": "ready", "username": "ana"})
	require.NoError(t, p.Execute(rc))
	assert.Equal(t, ">>> PTC Process: FEATURE ENGINEERING\nProcess state: ready\nMode: train\nGoodbye ana\n", out.String())
}
