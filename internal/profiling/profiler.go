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

// Package profiling instruments process execution: an optional CPU profile
// per process, per-call runtime statistics, and duration and outcome metrics
// exported in Prometheus format.
package profiling

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"
)

// ArtifactSuffix is appended to the process name to form the profile file.
const ArtifactSuffix = "_profile_stats"

// Stats describes one profiled call.
type Stats struct {
	Name        string
	Duration    time.Duration
	AllocBytes  uint64
	Mallocs     uint64
	GCCycles    uint32
	Goroutines  int
	ProfilePath string
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("name", s.Name),
		slog.Int64("duration_ms", s.Duration.Milliseconds()),
		slog.Uint64("alloc_bytes", s.AllocBytes),
		slog.Uint64("mallocs", s.Mallocs),
		slog.Int("gc_cycles", int(s.GCCycles)),
		slog.Int("goroutines", s.Goroutines),
	}
	if s.ProfilePath != "" {
		attrs = append(attrs, slog.String("profile", s.ProfilePath))
	}
	return slog.GroupValue(attrs...)
}

// Profiler writes a CPU profile for each call it wraps.
type Profiler struct {
	dir string
}

// NewProfiler returns a profiler writing artifacts under dir. An empty dir
// means the working directory.
func NewProfiler(dir string) *Profiler {
	if dir == "" {
		dir = "."
	}
	return &Profiler{dir: dir}
}

// ArtifactPath returns where the profile for name is written.
func (p *Profiler) ArtifactPath(name string) string {
	return filepath.Join(p.dir, artifactName(name))
}

// Profile runs fn under the CPU profiler and returns the call statistics
// along with fn's error. The artifact is written even when fn fails. A
// profiler that cannot start is reported before fn runs.
func (p *Profiler) Profile(name string, fn func() error) (Stats, error) {
	path := p.ArtifactPath(name)
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return Stats{Name: name}, fmt.Errorf("creating profile directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return Stats{Name: name}, fmt.Errorf("creating profile artifact: %w", err)
	}
	defer f.Close()

	if err := pprof.StartCPUProfile(f); err != nil {
		return Stats{Name: name}, fmt.Errorf("starting CPU profile: %w", err)
	}

	stats, runErr := Measure(name, func() error {
		defer pprof.StopCPUProfile()
		return fn()
	})
	stats.ProfilePath = path
	return stats, runErr
}

// Measure runs fn and records its duration and allocation deltas without
// profiling.
func Measure(name string, fn func() error) (Stats, error) {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	err := fn()

	duration := time.Since(start)
	runtime.ReadMemStats(&after)

	return Stats{
		Name:       name,
		Duration:   duration,
		AllocBytes: after.TotalAlloc - before.TotalAlloc,
		Mallocs:    after.Mallocs - before.Mallocs,
		GCCycles:   after.NumGC - before.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}, err
}

// artifactName keeps process names usable as file names.
func artifactName(name string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, name)
	return safe + ArtifactSuffix
}
