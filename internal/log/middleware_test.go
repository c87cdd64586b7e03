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
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestTimed_Success(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	called := false
	err := Timed(logger, &Execution{Name: "ingest", Metadata: map[string]any{"service": "ptc"}}, func() error {
		called = true
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("wrapped function was not called")
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON entry at info level: %v (%s)", err, buf.String())
	}
	if entry[EventKey] != "execute_finish" {
		t.Errorf("expected execute_finish event, got %v", entry[EventKey])
	}
	if entry["success"] != true {
		t.Errorf("expected success=true, got %v", entry["success"])
	}
	if _, ok := entry[DurationKey]; !ok {
		t.Errorf("expected %s field", DurationKey)
	}
}

func TestTimed_FailureReturnsOriginalError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatText, Output: &buf})

	boom := errors.New("boom")
	err := Timed(logger, &Execution{Name: "train"}, func() error { return boom })

	if err != boom {
		t.Fatalf("expected original error, got %v", err)
	}
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("expected error level entry, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "train failed") {
		t.Errorf("expected failure message, got: %s", buf.String())
	}
}
