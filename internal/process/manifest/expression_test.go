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

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	env := map[string]any{
		"config": map[string]any{
			"service_run_id": "run-1",
			"source":         map[string]any{"bucket": "raw"},
		},
		"service": "ingest",
		"process": "raw",
		"run_id":  "run-1",
	}

	tests := []struct {
		name    string
		expr    string
		want    bool
		wantErr bool
	}{
		{name: "present key", expr: "config.service_run_id != nil", want: true},
		{name: "absent key", expr: "config.locale != nil", want: false},
		{name: "nested value", expr: `config.source.bucket == "raw"`, want: true},
		{name: "identity", expr: `service == "ingest" && process startsWith "ra"`, want: true},
		{name: "syntax error", expr: "config.(", wantErr: true},
		{name: "non-boolean", expr: `"text"`, wantErr: true},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(tt.expr, env)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluatorCaches(t *testing.T) {
	e := NewEvaluator()
	env := map[string]any{"run_id": "x"}

	for i := 0; i < 3; i++ {
		ok, err := e.Evaluate(`run_id == "x"`, env)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, e.CacheSize())
}
