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

// Package configtree is the in-memory configuration store shared by the
// controller and every process of a run.
//
// Values live in a tree of nodes addressed by dotted paths ("logging.level").
// Two merge strategies exist:
//
//   - Replace inspects only the top-level keys of the incoming mapping and
//     swaps each one in wholesale. A section given as a mapping replaces the
//     whole existing section.
//   - Upsert flattens the incoming mapping into (path, leaf) pairs and writes
//     each leaf in place, creating intermediate nodes. Untouched siblings at
//     every depth survive.
//
// Every node carries a strict flag. A strict node turns a read of a missing
// child into a *errors.MissingKeyError; a lenient node yields an absent value.
// GetOrNone relaxes the nodes along one path for the duration of a single
// read and always restores them afterwards.
//
// A Tree is not safe for concurrent use. Runs are single-threaded.
package configtree
