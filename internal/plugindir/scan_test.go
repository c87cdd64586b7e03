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

package plugindir

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/lola/pkg/errors"
)

func pluginTree() fstest.MapFS {
	marker := &fstest.MapFile{Data: []byte("description: test\n")}
	return fstest.MapFS{
		"ingest/service.yaml":         marker,
		"ingest/process.yaml":         marker,
		"ingest/raw/process.yaml":     marker,
		"ingest/raw/s3/Process.YML":   marker,
		"ingest/notes/readme.md":      marker,
		"ingest/.cache/process.yaml":  marker,
		"Transform/SERVICE.yml":       marker,
		"Transform/clean/process.yml": marker,
		"plugins/service.yaml":        marker,
		"docs/readme.md":              marker,
		".git/service.yaml":           marker,
		"service.yaml":                marker,
	}
}

func TestListServices(t *testing.T) {
	services, err := ListServices(pluginTree(), "plugins")
	require.NoError(t, err)
	assert.Equal(t, []string{"Transform", "ingest"}, services)
}

func TestListServicesEmpty(t *testing.T) {
	services, err := ListServices(fstest.MapFS{}, "plugins")
	require.NoError(t, err)
	assert.Empty(t, services)
}

func TestListProcesses(t *testing.T) {
	tests := []struct {
		name    string
		service string
		want    []string
	}{
		{name: "nested processes", service: "ingest", want: []string{"raw", "raw.s3"}},
		{name: "case-insensitive service", service: "TRANSFORM", want: []string{"clean"}},
		{name: "unknown service", service: "missing", want: nil},
		{name: "directory without markers", service: "docs", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListProcesses(pluginTree(), tt.service)
			require.NoError(t, err)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScan(t *testing.T) {
	catalog, err := Scan(pluginTree(), "plugins")
	require.NoError(t, err)

	assert.Equal(t, []string{"ingest", "transform"}, catalog.Services())
	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, map[string][]string{
		"ingest":    {"raw", "raw.s3"},
		"transform": {"clean"},
	}, catalog.ToMap())

	assert.True(t, catalog.HasService("Ingest"))
	assert.True(t, catalog.HasService("acme.transform"))
	assert.False(t, catalog.HasService("plugins"))
	assert.True(t, catalog.HasProcess("ingest", "RAW.S3"))
	assert.False(t, catalog.HasProcess("ingest", "s3"))
	assert.False(t, catalog.HasProcess("missing", "raw"))
	assert.Nil(t, catalog.Processes("missing"))

	marker, ok := catalog.MarkerPath("ingest", "raw.s3")
	require.True(t, ok)
	assert.Equal(t, "ingest/raw/s3/Process.YML", marker)

	dir, ok := catalog.ServiceDir("TRANSFORM")
	require.True(t, ok)
	assert.Equal(t, "Transform", dir)

	marker, ok = catalog.ServiceMarkerPath("transform")
	require.True(t, ok)
	assert.Equal(t, "Transform/SERVICE.yml", marker)
}

func TestScanReflectsChanges(t *testing.T) {
	fsys := pluginTree()
	first, err := Scan(fsys, "plugins")
	require.NoError(t, err)
	assert.False(t, first.HasProcess("ingest", "curated"))

	fsys["ingest/curated/process.yaml"] = &fstest.MapFile{}
	second, err := Scan(fsys, "plugins")
	require.NoError(t, err)
	assert.True(t, second.HasProcess("ingest", "curated"))
}

func TestCustomMarkers(t *testing.T) {
	fsys := fstest.MapFS{
		"svc/Service.py":       &fstest.MapFile{},
		"svc/step/Process.py":  &fstest.MapFile{},
		"svc/other/process.go": &fstest.MapFile{},
	}
	catalog, err := Scan(fsys, "root", WithMarkers(Markers{Service: "service.py", Process: "process.py"}))
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"svc": {"step"}}, catalog.ToMap())
}

func TestInvalidMarkers(t *testing.T) {
	var invalid *errors.InvalidArgumentError

	_, err := Scan(pluginTree(), "plugins", WithMarkers(Markers{Service: "[", Process: "process.yaml"}))
	assert.ErrorAs(t, err, &invalid)

	_, err = ListServices(pluginTree(), "plugins", WithMarkers(Markers{Service: "service.yaml"}))
	assert.ErrorAs(t, err, &invalid)
}

func TestScanRejectsCaseCollidingServices(t *testing.T) {
	fsys := fstest.MapFS{
		"PTC/service.yaml":        {Data: []byte("name: upper\n")},
		"ptc/service.yaml":        {Data: []byte("name: lower\n")},
		"ptc/ingest/process.yaml": {Data: []byte("command: [true]\n")},
	}

	_, err := Scan(fsys, "plugins")
	var invalid *errors.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "service", invalid.Argument)
	assert.Contains(t, invalid.Reason, `"PTC"`)
	assert.Contains(t, invalid.Reason, `"ptc"`)
}
