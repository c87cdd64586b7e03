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
	"encoding/json"
	"errors"
	"io"

	"github.com/tombee/lola/internal/controller"
	pkgerrors "github.com/tombee/lola/pkg/errors"
)

// JSONResponse is the envelope shared by every --json response.
type JSONResponse struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// JSONError describes a failure in a --json response.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Stage      string `json:"stage,omitempty"`
	Process    string `json:"process,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// NewResponse returns an envelope for command.
func NewResponse(command string, success bool) JSONResponse {
	return JSONResponse{Version: "1.0", Command: command, Success: success}
}

// EmitJSON writes v as indented JSON.
func EmitJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// EmitJSONError writes a failed response for command.
func EmitJSONError(w io.Writer, command string, err error) error {
	type errorResponse struct {
		JSONResponse
		Errors []JSONError `json:"errors"`
	}
	return EmitJSON(w, errorResponse{
		JSONResponse: NewResponse(command, false),
		Errors:       []JSONError{NewJSONError(err)},
	})
}

// NewJSONError converts err into its JSON form.
func NewJSONError(err error) JSONError {
	jsonErr := JSONError{
		Code:       pkgerrors.TypeOf(err),
		Message:    err.Error(),
		Suggestion: suggestionFor(err),
	}
	var runErr *controller.RunError
	if errors.As(err, &runErr) {
		jsonErr.Stage = string(runErr.Stage)
		jsonErr.Process = runErr.Process
		jsonErr.Code = pkgerrors.TypeOf(runErr.Err)
	}
	return jsonErr
}
