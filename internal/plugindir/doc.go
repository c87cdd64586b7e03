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

// Package plugindir discovers services and processes from a plugin tree.
//
// A service is an immediate subdirectory of the plugin root that holds a
// service marker file. A process is any directory below a service that holds
// a process marker file; its name is the path below the service directory
// joined with dots, so <root>/ingest/raw/s3/process.yaml is process "raw.s3"
// of service "ingest".
//
// Every function reads an fs.FS and returns fresh results. Nothing is cached.
package plugindir
