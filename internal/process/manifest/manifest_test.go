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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/lola/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Command
		wantErr bool
	}{
		{name: "list command", input: `command: ["python", "ingest.py", "--fast"]`, want: Command{"python", "ingest.py", "--fast"}},
		{name: "string command", input: `command: python ingest.py --name "raw data"`, want: Command{"python", "ingest.py", "--name", "raw data"}},
		{name: "no command", input: "description: implemented in Go", want: nil},
		{name: "empty document", input: "", want: nil},
		{name: "mapping command", input: "command: {a: b}", wantErr: true},
		{name: "unterminated quote", input: `command: 'python "ingest`, wantErr: true},
		{name: "rule without expr", input: "validate:\n  - message: oops\n", wantErr: true},
		{name: "bad timeout", input: "timeout: soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Command)
			assert.Equal(t, len(tt.want) > 0, m.HasCommand())
		})
	}
}

func TestParseFullManifest(t *testing.T) {
	m, err := Parse([]byte(`
description: ingest raw data
command: [python, ingest.py]
workdir: scripts
timeout: 90s
env:
  BUCKET: source.bucket
require: [source.bucket]
validate:
  - expr: 'config.service_run_id != nil'
    message: run id is required
`))
	require.NoError(t, err)

	assert.Equal(t, "ingest raw data", m.Description)
	assert.Equal(t, "scripts", m.Workdir)
	assert.Equal(t, 90*time.Second, time.Duration(m.Timeout))
	assert.Equal(t, map[string]string{"BUCKET": "source.bucket"}, m.Env)
	assert.Equal(t, []string{"source.bucket"}, m.Require)
	assert.Equal(t, []Rule{{Expr: "config.service_run_id != nil", Message: "run id is required"}}, m.Validate)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "process.yaml"))
	assert.True(t, errors.IsNotFound(err))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("command: [unterminated"), 0o644))
	_, err = Load(bad)
	var parseErr *errors.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
