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
	"fmt"
	"io"

	"github.com/tombee/lola/internal/controller"
)

// ProcessJSON is one process in a run or validate response.
type ProcessJSON struct {
	Name       string `json:"name"`
	Valid      bool   `json:"valid"`
	Message    string `json:"message,omitempty"`
	Executed   bool   `json:"executed"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	AllocBytes uint64 `json:"alloc_bytes,omitempty"`
	Profile    string `json:"profile,omitempty"`
}

// ResultJSON is the response of run and validate.
type ResultJSON struct {
	JSONResponse
	RunID     string        `json:"run_id,omitempty"`
	Service   string        `json:"service,omitempty"`
	Processes []ProcessJSON `json:"processes"`
	Errors    []JSONError   `json:"errors,omitempty"`
}

// NewResultJSON converts a controller result. result may be nil when the
// run failed early.
func NewResultJSON(command string, result *controller.Result, err error) ResultJSON {
	resp := ResultJSON{
		JSONResponse: NewResponse(command, err == nil),
		Processes:    []ProcessJSON{},
	}
	if err != nil {
		resp.Errors = []JSONError{NewJSONError(err)}
	}
	if result == nil {
		return resp
	}
	resp.RunID = result.RunID
	resp.Service = result.Service
	for _, p := range result.Processes {
		entry := ProcessJSON{
			Name:       p.Name,
			Valid:      p.Valid,
			Message:    p.Message,
			Executed:   p.Executed,
			DurationMs: p.Duration.Milliseconds(),
		}
		if p.Stats != nil {
			entry.AllocBytes = p.Stats.AllocBytes
			entry.Profile = p.Stats.ProfilePath
		}
		resp.Processes = append(resp.Processes, entry)
	}
	return resp
}

// RenderResult writes a human-readable summary of result.
func RenderResult(w io.Writer, result *controller.Result) {
	if result == nil {
		return
	}
	fmt.Fprintln(w, Heading.Render(fmt.Sprintf("%s run %s", result.Service, result.RunID)))
	for _, p := range result.Processes {
		switch {
		case !p.Valid:
			fmt.Fprintln(w, StatusFailed.Render(fmt.Sprintf("%s: %s", p.Name, p.Message)))
		case p.Executed:
			line := fmt.Sprintf("%s %s", p.Name, Dim(fmt.Sprintf("(%dms)", p.Duration.Milliseconds())))
			if p.Stats != nil && p.Stats.ProfilePath != "" {
				line += " " + Dim("profile: "+p.Stats.ProfilePath)
			}
			fmt.Fprintln(w, StatusPassed.Render(line))
		default:
			fmt.Fprintln(w, StatusPassed.Render(fmt.Sprintf("%s %s", p.Name, Dim(p.Message))))
		}
	}
}
