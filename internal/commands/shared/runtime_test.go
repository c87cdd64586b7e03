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

package shared

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/lola/internal/controller"
	pkgerrors "github.com/tombee/lola/pkg/errors"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOLA_ENVFILE_NEW=from-file\nLOLA_ENVFILE_SET=from-file\n"), 0o644))

	t.Setenv("LOLA_ENVFILE_SET", "from-env")
	t.Setenv("LOLA_ENVFILE_NEW", "")
	require.NoError(t, os.Unsetenv("LOLA_ENVFILE_NEW"))

	f := &RuntimeFlags{EnvFile: path}
	require.NoError(t, f.LoadEnvFile(true))
	assert.Equal(t, "from-file", os.Getenv("LOLA_ENVFILE_NEW"))
	assert.Equal(t, "from-env", os.Getenv("LOLA_ENVFILE_SET"))
}

func TestLoadEnvFileMissing(t *testing.T) {
	f := &RuntimeFlags{EnvFile: filepath.Join(t.TempDir(), ".env")}
	assert.NoError(t, f.LoadEnvFile(false))

	err := f.LoadEnvFile(true)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestNewLoggerWritesToLogFile(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	path := filepath.Join(t.TempDir(), "logs", "lola.log")
	f := &RuntimeFlags{LogFile: path}

	logger, level, out, cfg, err := f.NewLogger(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "json", string(cfg.Format))
	assert.NotNil(t, level)

	logger.Info("hello")
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNewControllerRunsBuiltins(t *testing.T) {
	t.Setenv("LOG_FORMAT", "text")
	root := t.TempDir()
	for _, name := range []string{"ptc/service.yaml", "ptc/data_ingestion/process.yaml"} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	f := &RuntimeFlags{}
	ctrl, err := f.NewController(cmd)
	require.NoError(t, err)

	_, err = ctrl.Run(context.Background(), controller.Params{
		Service:   "ptc",
		Processes: []string{"data_ingestion"},
		RootPath:  root,
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "DATA INGESTION")
	assert.Contains(t, stderr.String(), "validated successfully")
}
