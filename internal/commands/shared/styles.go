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
	"github.com/charmbracelet/lipgloss"
)

// Status is the outcome shown next to a process or service line.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusInfo
)

var (
	// Heading styles a service or run heading.
	Heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

	dim = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	statusStyles = map[Status]struct {
		symbol string
		style  lipgloss.Style
	}{
		StatusPassed: {"✓", lipgloss.NewStyle().Foreground(lipgloss.Color("42"))},
		StatusFailed: {"✗", lipgloss.NewStyle().Foreground(lipgloss.Color("196"))},
		StatusInfo:   {"•", dim},
	}
)

// Render prefixes msg with the status symbol.
func (s Status) Render(msg string) string {
	st, ok := statusStyles[s]
	if !ok {
		return msg
	}
	return st.style.Render(st.symbol) + " " + msg
}

// Dim renders secondary text such as durations and kinds.
func Dim(text string) string {
	return dim.Render(text)
}
