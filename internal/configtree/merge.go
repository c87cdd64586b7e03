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
	"fmt"
	"sort"

	"github.com/tombee/lola/pkg/errors"
)

// Replace merges values into the tree one top-level key at a time. A key
// whose incoming value is a mapping replaces the existing entry wholesale,
// discarding any existing sub-keys; any other incoming value overwrites the
// entry; new keys are appended. Nothing below the top level is merged.
func (t *Tree) Replace(values map[string]any) error {
	normalized, err := normalizeMapping(values, "values")
	if err != nil {
		return err
	}
	for _, key := range sortedKeys(normalized) {
		incoming := normalized[key]
		if mapping, ok := incoming.(map[string]any); ok {
			t.root.children[key] = t.buildNode(mapping)
			continue
		}
		t.root.children[key] = incoming
	}
	return nil
}

// Upsert flattens values into (path, leaf) pairs and writes each leaf in
// place, creating intermediate nodes. Keys not named in values are left
// untouched at every depth.
func (t *Tree) Upsert(values map[string]any) error {
	normalized, err := normalizeMapping(values, "values")
	if err != nil {
		return err
	}
	pairs := flatten(normalized, "")
	paths := make([]string, 0, len(pairs))
	for path := range pairs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := t.set(path, pairs[path]); err != nil {
			return err
		}
	}
	return nil
}

// Set upserts a single value at path. A mapping value is merged below path
// with Upsert semantics.
func (t *Tree) Set(path string, value any) error {
	keys, err := SplitPath(path)
	if err != nil {
		return err
	}
	normalized, err := normalizeValue(value, path)
	if err != nil {
		return err
	}
	if mapping, ok := normalized.(map[string]any); ok {
		t.ensureNode(keys)
		for sub, leaf := range flatten(mapping, path+Separator) {
			if err := t.set(sub, leaf); err != nil {
				return err
			}
		}
		return nil
	}
	return t.set(path, normalized)
}

// set writes an already-normalized leaf.
func (t *Tree) set(path string, leaf any) error {
	keys, err := SplitPath(path)
	if err != nil {
		return err
	}
	parent := t.ensureNode(keys[:len(keys)-1])
	parent.children[keys[len(keys)-1]] = leaf
	return nil
}

// ensureNode walks keys from the root, creating nodes where missing and
// replacing leaves that sit where a mapping is needed.
func (t *Tree) ensureNode(keys []string) *Node {
	node := t.root
	for _, key := range keys {
		next, ok := node.children[key].(*Node)
		if !ok {
			next = newNode(t.strict)
			node.children[key] = next
		}
		node = next
	}
	return node
}

func (t *Tree) buildNode(values map[string]any) *Node {
	node := newNode(t.strict)
	for key, value := range values {
		if mapping, ok := value.(map[string]any); ok {
			node.children[key] = t.buildNode(mapping)
			continue
		}
		node.children[key] = value
	}
	return node
}

// flatten turns a normalized mapping into dotted (path, leaf) pairs. Empty
// mappings contribute nothing.
func flatten(values map[string]any, prefix string) map[string]any {
	out := make(map[string]any)
	for key, value := range values {
		if mapping, ok := value.(map[string]any); ok {
			for path, leaf := range flatten(mapping, prefix+key+Separator) {
				out[path] = leaf
			}
			continue
		}
		out[prefix+key] = value
	}
	return out
}

func normalizeMapping(values map[string]any, argument string) (map[string]any, error) {
	if values == nil {
		return nil, &errors.InvalidArgumentError{Argument: argument, Reason: "expected a mapping, got nil"}
	}
	normalized, err := normalizeValue(values, argument)
	if err != nil {
		return nil, err
	}
	return normalized.(map[string]any), nil
}

// normalizeValue converts decoded documents into the shapes the tree stores:
// map[string]any for mappings, []any for lists and scalars as-is.
func normalizeValue(value any, where string) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			if err := validateKey(key); err != nil {
				return nil, err
			}
			n, err := normalizeValue(item, where+Separator+key)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for rawKey, item := range v {
			key, ok := rawKey.(string)
			if !ok {
				switch rawKey.(type) {
				case int, int64, float64, bool:
					key = fmt.Sprint(rawKey)
				default:
					return nil, &errors.InvalidArgumentError{
						Argument: where,
						Reason:   fmt.Sprintf("unsupported key type %T", rawKey),
					}
				}
			}
			if err := validateKey(key); err != nil {
				return nil, err
			}
			n, err := normalizeValue(item, where+Separator+key)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case map[string]string:
		out := make(map[string]any, len(v))
		for key, item := range v {
			if err := validateKey(key); err != nil {
				return nil, err
			}
			out[key] = item
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			n, err := normalizeValue(item, fmt.Sprintf("%s[%d]", where, i))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out, nil
	case *Node:
		return v.toMap(), nil
	default:
		return v, nil
	}
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func stringify(value any) string {
	return fmt.Sprint(value)
}
