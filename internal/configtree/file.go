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

package configtree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tombee/lola/pkg/errors"
)

// ReadFile decodes a structured document into a mapping. Files ending in
// .json use encoding/json; everything else is decoded as YAML. An empty
// document decodes to an empty mapping.
func ReadFile(path string) (map[string]any, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "config file", ID: path}
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, &errors.NotFoundError{Resource: "config file", ID: path}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	format := formatFor(path)
	var doc any
	if len(bytes.TrimSpace(data)) > 0 {
		switch format {
		case "json":
			err = json.Unmarshal(data, &doc)
		default:
			err = yaml.Unmarshal(data, &doc)
		}
		if err != nil {
			return nil, &errors.ParseError{Path: path, Format: format, Cause: err}
		}
	}

	if doc == nil {
		return map[string]any{}, nil
	}
	normalized, err := normalizeValue(doc, path)
	if err != nil {
		return nil, err
	}
	mapping, ok := normalized.(map[string]any)
	if !ok {
		return nil, &errors.InvalidArgumentError{
			Argument: path,
			Reason:   fmt.Sprintf("document must be a mapping, got %T", doc),
		}
	}
	return mapping, nil
}

// ReplaceFromFile reads path and applies Replace.
func (t *Tree) ReplaceFromFile(path string) error {
	values, err := ReadFile(path)
	if err != nil {
		return err
	}
	return t.Replace(values)
}

// UpsertFromFile reads path and applies Upsert.
func (t *Tree) UpsertFromFile(path string) error {
	values, err := ReadFile(path)
	if err != nil {
		return err
	}
	return t.Upsert(values)
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}
