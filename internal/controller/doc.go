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

/*
Package controller runs a requested service: it layers the run
configuration, checks the request against the plugin catalog, and executes
each requested process in order.

# Run sequence

	params → defaults → configuration layers → catalog check →
	per process: resolve → validate → execute → teardown

Configuration layers are applied in a fixed order, later layers winning on
conflicting leaves:

 1. built-in defaults (logging.level, logging.format)
 2. run identity (service, processes, service_root_path, service_config_path,
    dm_config_path and, when given, service_run_id, locale, language)
 3. each service config file, in order; missing files are logged and skipped
 4. the data-model file, if present
 5. environment variables with the configured prefix
 6. caller overrides

The first failure aborts the run. Later processes never start. Teardown
flushes and closes the log output, shuts down tracing and writes the metrics
file exactly once, whichever way the run ends.

# Usage

	ctrl, err := controller.New(
	    controller.WithLogger(logger, levelVar),
	    controller.WithRegistry(registry),
	)
	if err != nil {
	    return err
	}
	result, err := ctrl.Run(ctx, controller.Params{
	    Service:   "ingest",
	    Processes: []string{"raw", "curated"},
	    RootPath:  "./plugins",
	})

A Controller serves a single run.
*/
package controller
