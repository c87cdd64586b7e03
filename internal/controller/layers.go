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
	"fmt"
	"log/slog"

	"github.com/tombee/lola/internal/configtree"
	"github.com/tombee/lola/internal/log"
)

// Configuration keys the controller reads back after layering.
const (
	KeyLoggingLevel  = "logging.level"
	KeyLoggingFormat = "logging.format"
)

// layer builds the run configuration. Each step upserts over the previous
// one, so later sources win.
func (c *Controller) layer(p Params, logger *slog.Logger) (*configtree.Tree, error) {
	tree := configtree.New()

	if err := tree.Replace(c.defaults); err != nil {
		return nil, err
	}
	if err := tree.Upsert(p.identity()); err != nil {
		return nil, err
	}

	for _, path := range p.ConfigPaths {
		if !configtree.Exists(path) {
			logger.Warn("service config file not found, continuing without it", "path", path)
			continue
		}
		if err := tree.UpsertFromFile(path); err != nil {
			return nil, err
		}
		logger.Debug("loaded service config", "path", path)
	}

	if p.DataModelPath != "" {
		if configtree.Exists(p.DataModelPath) {
			if err := tree.UpsertFromFile(p.DataModelPath); err != nil {
				return nil, err
			}
			logger.Debug("loaded data model config", "path", p.DataModelPath)
		} else {
			logger.Warn("data model file not found, continuing without it", "path", p.DataModelPath)
		}
	}

	skipped, err := tree.IngestEnviron(c.environ(), p.EnvPrefix, p.EnvSeparator)
	if err != nil {
		return nil, err
	}
	for _, name := range skipped {
		logger.Warn("ignoring environment variable that does not name a config path", "variable", name)
	}

	if len(p.Overrides) > 0 {
		if err := tree.Upsert(p.Overrides); err != nil {
			return nil, err
		}
	}

	if c.level != nil {
		if level, ok := tree.GetOrNone(KeyLoggingLevel); ok && level != nil {
			c.level.Set(log.ParseLevel(stringValue(level)))
		}
	}
	return tree, nil
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
