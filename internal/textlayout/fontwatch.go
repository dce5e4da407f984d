/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "lyricpresenter/internal/log"
)

// FontReloadDelay debounces bursts of file events (copying a font family
// usually touches several files).
var FontReloadDelay = 500 * time.Millisecond

// WatchFonts reloads lib from dir whenever a .ttf file in it changes and calls
// onChange with the new family list. It blocks until ctx is cancelled.
func WatchFonts(ctx context.Context, dir string, lib *FontLibrary, onChange func([]string)) error {
	l := applog.WithOperation(applog.WithComponent("textlayout"), "watch_fonts").With(slog.String("dir", dir))
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("font watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	l.Info("watching font directory")

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		n, err := lib.LoadDir(dir)
		if err != nil {
			l.Error("font reload failed", slog.Any("err", err))
			return
		}
		l.Info("fonts reloaded", slog.Int("count", n))
		if onChange != nil {
			onChange(lib.Families())
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".ttf") {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(FontReloadDelay, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.Warn("font watcher error", slog.Any("err", err))
		}
	}
}
