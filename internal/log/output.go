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

package log

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Output is a log destination. File destinations are buffered; Close
// flushes buffered entries and releases the file. Close runs at most once no
// matter how many times it is called.
type Output struct {
	w      io.Writer
	buf    *bufio.Writer
	closer io.Closer

	once sync.Once
	err  error
}

// NewOutput wraps w in a buffer. If w is also an io.Closer other than
// os.Stdout or os.Stderr it is closed on Close.
func NewOutput(w io.Writer) *Output {
	out := &Output{buf: bufio.NewWriter(w)}
	out.w = out.buf
	if c, ok := w.(io.Closer); ok && w != os.Stdout && w != os.Stderr {
		out.closer = c
	}
	return out
}

// NewDirectOutput writes every entry straight to w, so log lines keep their
// order relative to other writers of the same stream. Close never closes w.
func NewDirectOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// OpenFile opens (appending) the log file at path, creating parent
// directories as needed.
func OpenFile(path string) (*Output, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("log: ensure log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log: open log file: %w", err)
	}
	return NewOutput(f), nil
}

// Write implements io.Writer.
func (o *Output) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

// Flush writes any buffered entries without releasing the destination.
func (o *Output) Flush() error {
	if o.buf == nil {
		return nil
	}
	return o.buf.Flush()
}

// Close flushes and releases the destination exactly once.
func (o *Output) Close() error {
	o.once.Do(func() {
		o.err = o.Flush()
		if o.closer != nil {
			if err := o.closer.Close(); err != nil && o.err == nil {
				o.err = err
			}
		}
	})
	return o.err
}
