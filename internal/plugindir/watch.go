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
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/tombee/lola/internal/log"
)

const (
	defaultDebounce = 200 * time.Millisecond
	defaultMinScan  = time.Second
)

// Watcher rescans a plugin root whenever a file below it changes and reports
// catalogs that differ from the previous scan.
type Watcher struct {
	root      string
	fsWatcher *fsnotify.Watcher
	logger    *slog.Logger
	debounce  time.Duration
	limiter   *rate.Limiter
	scanOpts  []Option
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the tree must be quiet before a rescan.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithScanInterval sets the minimum time between two rescans.
func WithScanInterval(d time.Duration) WatchOption {
	return func(w *Watcher) {
		w.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithWatchLogger sets the logger for rescans and scan errors. The default
// discards everything.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithScanOptions passes discovery options such as WithMarkers to every scan.
func WithScanOptions(opts ...Option) WatchOption {
	return func(w *Watcher) {
		w.scanOpts = opts
	}
}

// NewWatcher watches every directory below root.
func NewWatcher(root string, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve plugin root: %w", err)
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		root:      abs,
		fsWatcher: fsWatcher,
		logger:    log.Discard(),
		debounce:  defaultDebounce,
		limiter:   rate.NewLimiter(rate.Every(defaultMinScan), 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addTree(abs); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and every directory below it. Hidden directories are skipped.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Scan reads the current catalog of the watched root.
func (w *Watcher) Scan() (*Catalog, error) {
	return Scan(os.DirFS(w.root), filepath.Base(w.root), w.scanOpts...)
}

// Run calls onChange with the initial catalog and again after every change
// that alters it. It returns when ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func(*Catalog)) error {
	last, err := w.Scan()
	if err != nil {
		return err
	}
	onChange(last)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("plugin tree watch error", "error", err)

		case <-fire:
			fire = nil
			if err := w.limiter.Wait(ctx); err != nil {
				return nil
			}
			next, err := w.Scan()
			if err != nil {
				w.logger.Warn("plugin tree rescan failed", "error", err)
				continue
			}
			if reflect.DeepEqual(next.ToMap(), last.ToMap()) {
				continue
			}
			w.logger.Debug("plugin tree changed", "services", next.Len())
			last = next
			onChange(next)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
