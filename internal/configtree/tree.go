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
	"sort"

	"github.com/tombee/lola/pkg/errors"
)

// Node is a mapping from key to child. A child is either another *Node or a
// leaf value (string, number, bool, list or nil).
type Node struct {
	strict   bool
	children map[string]any
}

func newNode(strict bool) *Node {
	return &Node{strict: strict, children: make(map[string]any)}
}

// Strict reports whether reading a missing child of n is an error.
func (n *Node) Strict() bool {
	return n.strict
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	return len(n.children)
}

// Tree is the configuration root for one run.
type Tree struct {
	root   *Node
	strict bool
}

// Option configures a Tree.
type Option func(*Tree)

// WithStrict sets the strictness given to the root and to every node the
// tree creates. Trees are strict by default.
func WithStrict(strict bool) Option {
	return func(t *Tree) {
		t.strict = strict
	}
}

// New creates an empty tree.
func New(opts ...Option) *Tree {
	t := &Tree{strict: true}
	for _, opt := range opts {
		opt(t)
	}
	t.root = newNode(t.strict)
	return t
}

// Reset discards every value and recreates the root.
func (t *Tree) Reset() {
	t.root = newNode(t.strict)
}

// Get returns the value at path. A mapping is returned as a deep-copied
// map[string]any.
//
// When a key along the path is missing and the node that should hold it is
// strict, Get fails with *errors.MissingKeyError. A lenient node yields
// (nil, nil).
func (t *Tree) Get(path string) (any, error) {
	keys, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	value, _, err := t.lookup(path, keys)
	return value, err
}

// GetOrNone returns the value at path and whether it exists. It never fails.
//
// Every existing node along the path is made lenient for the duration of the
// read and restored afterwards, so strict reads elsewhere are unaffected.
func (t *Tree) GetOrNone(path string) (any, bool) {
	keys, err := SplitPath(path)
	if err != nil {
		return nil, false
	}

	restore := t.relax(keys)
	defer restore()

	value, found, err := t.lookup(path, keys)
	if err != nil || !found {
		return nil, false
	}
	return value, true
}

// GetString returns the value at path formatted as a string, or fallback
// when the path is absent.
func (t *Tree) GetString(path, fallback string) string {
	value, ok := t.GetOrNone(path)
	if !ok || value == nil {
		return fallback
	}
	if s, ok := value.(string); ok {
		return s
	}
	return stringify(value)
}

// Has reports whether path resolves to a value.
func (t *Tree) Has(path string) bool {
	_, ok := t.GetOrNone(path)
	return ok
}

// lookup walks keys from the root. found is false when the path does not
// resolve; err is set only when the node that lacked the key is strict.
func (t *Tree) lookup(path string, keys []string) (value any, found bool, err error) {
	node := t.root
	for i, key := range keys {
		child, ok := node.children[key]
		if !ok {
			return nil, false, node.missing(path, key)
		}
		if i == len(keys)-1 {
			return export(child), true, nil
		}
		next, ok := child.(*Node)
		if !ok {
			// The path continues below a leaf.
			return nil, false, node.missing(path, keys[i+1])
		}
		node = next
	}
	return nil, false, nil
}

func (n *Node) missing(path, key string) error {
	if !n.strict {
		return nil
	}
	return &errors.MissingKeyError{Path: path, Key: key}
}

// relax marks every existing node along keys lenient and returns a function
// that restores the original flags.
func (t *Tree) relax(keys []string) func() {
	type saved struct {
		node   *Node
		strict bool
	}

	touched := []saved{{node: t.root, strict: t.root.strict}}
	t.root.strict = false

	node := t.root
	for _, key := range keys {
		next, ok := node.children[key].(*Node)
		if !ok {
			break
		}
		touched = append(touched, saved{node: next, strict: next.strict})
		next.strict = false
		node = next
	}

	return func() {
		for i := len(touched) - 1; i >= 0; i-- {
			touched[i].node.strict = touched[i].strict
		}
	}
}

// SetStrict changes the strictness of the node at path. An empty path
// addresses the root.
func (t *Tree) SetStrict(path string, strict bool) error {
	node, err := t.nodeAt(path)
	if err != nil {
		return err
	}
	node.strict = strict
	return nil
}

// IsStrict reports the strictness of the node at path. An empty path
// addresses the root.
func (t *Tree) IsStrict(path string) (bool, error) {
	node, err := t.nodeAt(path)
	if err != nil {
		return false, err
	}
	return node.strict, nil
}

func (t *Tree) nodeAt(path string) (*Node, error) {
	if path == "" {
		return t.root, nil
	}
	keys, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	node := t.root
	for _, key := range keys {
		next, ok := node.children[key].(*Node)
		if !ok {
			return nil, &errors.InvalidArgumentError{Argument: path, Reason: "path does not address a mapping"}
		}
		node = next
	}
	return node, nil
}

// ToMap returns a deep copy of the whole tree.
func (t *Tree) ToMap() map[string]any {
	return t.root.toMap()
}

// Keys returns the sorted dotted paths of every leaf.
func (t *Tree) Keys() []string {
	var keys []string
	for path := range flatten(t.root.toMap(), "") {
		keys = append(keys, path)
	}
	sort.Strings(keys)
	return keys
}

func (n *Node) toMap() map[string]any {
	out := make(map[string]any, len(n.children))
	for key, child := range n.children {
		out[key] = export(child)
	}
	return out
}

func export(value any) any {
	switch v := value.(type) {
	case *Node:
		return v.toMap()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = export(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = export(item)
		}
		return out
	default:
		return v
	}
}
