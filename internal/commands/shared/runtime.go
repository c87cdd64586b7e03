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
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/lola/internal/builtin"
	"github.com/tombee/lola/internal/controller"
	"github.com/tombee/lola/internal/log"
	"github.com/tombee/lola/pkg/errors"
)

// DefaultEnvFile is loaded when present.
const DefaultEnvFile = ".env"

// RuntimeFlags configure the process around a run.
type RuntimeFlags struct {
	LogFile     string
	MetricsFile string
	EnvFile     string
}

// Register binds the runtime flags to fs.
func (f *RuntimeFlags) Register(fs *pflag.FlagSet) {
	fs.StringVar(&f.LogFile, "log-file", "", "Append logs to this file instead of stderr")
	fs.StringVar(&f.MetricsFile, "metrics-file", "", "Write process metrics in Prometheus text format to this file")
	fs.StringVar(&f.EnvFile, "env-file", DefaultEnvFile, "Load environment variables from this file")
}

// LoadEnvFile loads the configured env file. Variables already set in the
// environment are kept. A missing default file is ignored.
func (f *RuntimeFlags) LoadEnvFile(explicit bool) error {
	path := f.EnvFile
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return &errors.NotFoundError{Resource: "env file", ID: path}
	}
	if err := godotenv.Load(path); err != nil {
		return &errors.ParseError{Path: path, Format: "dotenv", Cause: err}
	}
	return nil
}

// NewLogger builds the command logger. The baseline comes from the
// environment; --verbose and --quiet adjust it. Without LOG_FORMAT the
// format follows DefaultLogFormat.
func (f *RuntimeFlags) NewLogger(stderr io.Writer) (*slog.Logger, *slog.LevelVar, *log.Output, *log.Config, error) {
	cfg := log.FromEnv()
	if os.Getenv("LOG_FORMAT") == "" {
		cfg.Format = DefaultLogFormat(stderr)
	}
	if level := levelOverride(); level != "" {
		cfg.Level = level
	}

	var out *log.Output
	if f.LogFile != "" {
		opened, err := log.OpenFile(f.LogFile)
		if err != nil {
			return nil, nil, nil, nil, &errors.ConfigError{Key: "log-file", Reason: "cannot open log file", Cause: err}
		}
		out = opened
	} else {
		out = log.NewDirectOutput(stderr)
	}
	cfg.Output = out

	logger, level := log.NewWithLevel(cfg)
	return logger, level, out, cfg, nil
}

// NewController builds a controller wired to the command's writers, the
// built-in processes and the runtime flags.
func (f *RuntimeFlags) NewController(cmd *cobra.Command) (*controller.Controller, error) {
	logger, level, out, cfg, err := f.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	registry, err := builtin.Registry()
	if err != nil {
		out.Close()
		return nil, err
	}

	// Keep stdout parseable when it carries a JSON response.
	stdout := cmd.OutOrStdout()
	if GetJSON() {
		stdout = cmd.ErrOrStderr()
	}

	v, _, _ := GetVersion()
	ctrl, err := controller.New(
		controller.WithLogger(logger, level),
		controller.WithLogOutput(out),
		controller.WithRegistry(registry),
		controller.WithOutput(stdout, cmd.ErrOrStderr()),
		controller.WithMetricsFile(f.MetricsFile),
		controller.WithVersion(v),
		controller.WithDefaults(map[string]any{
			"logging": map[string]any{
				"level":  cfg.Level,
				"format": string(cfg.Format),
			},
		}),
	)
	if err != nil {
		out.Close()
		return nil, err
	}
	return ctrl, nil
}
