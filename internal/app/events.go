/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package app

import (
	"sync"
	"time"

	"lyricpresenter/internal/domain"
	"lyricpresenter/internal/slides"
	"lyricpresenter/internal/storage"
)

// Kind identifies an event type on the Bus.
type Kind int

const (
	KindLibraryChanged Kind = iota
	KindPlaylistChanged
	KindPreviewChanged
	KindThemeChanged
	KindFontsChanged
	KindWarning
	KindInfo
	KindExportStarted
	KindExportFinished
	KindExportFailed
)

var kindNames = [...]string{
	KindLibraryChanged:  "library_changed",
	KindPlaylistChanged: "playlist_changed",
	KindPreviewChanged:  "preview_changed",
	KindThemeChanged:    "theme_changed",
	KindFontsChanged:    "fonts_changed",
	KindWarning:         "warning",
	KindInfo:            "info",
	KindExportStarted:   "export_started",
	KindExportFinished:  "export_finished",
	KindExportFailed:    "export_failed",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Event is implemented by every payload published on the Bus.
type Event interface{ Kind() Kind }

// LibraryChanged carries the songbooks matching the current search.
// Query is zero when the full library is shown.
type LibraryChanged struct {
	Songbooks []domain.Songbook
	Query     storage.SearchQuery
}

// PlaylistChanged carries the playlist in order.
type PlaylistChanged struct{ Songs []domain.Song }

// PreviewChanged carries the preview slides of the selected song.
// Song is nil and Slides empty when nothing is selected.
type PreviewChanged struct {
	Song     *domain.Song
	Override domain.Override
	Slides   []slides.Slide
	Width    int64
	Height   int64
}

// ThemeChanged is published after a theme was committed.
type ThemeChanged struct{ Theme domain.Theme }

// FontsChanged is published when the font directory was reloaded.
type FontsChanged struct{ Families []string }

// Warning is a recoverable, user-visible problem. Nothing was changed.
type Warning struct {
	Op      string
	Message string
	Err     error
}

// Info confirms a completed user action.
type Info struct {
	Op      string
	Message string
}

// ExportStarted is published before an export begins writing.
type ExportStarted struct {
	JobID string
	Path  string
	Songs int
}

// ExportFinished is the terminal event of a successful export.
type ExportFinished struct {
	JobID   string
	Path    string
	Slides  int
	Elapsed time.Duration
}

// ExportFailed is the terminal event of a failed export. No file exists at Path
// unless one existed before.
type ExportFailed struct {
	JobID string
	Path  string
	Err   error
}

func (LibraryChanged) Kind() Kind  { return KindLibraryChanged }
func (PlaylistChanged) Kind() Kind { return KindPlaylistChanged }
func (PreviewChanged) Kind() Kind  { return KindPreviewChanged }
func (ThemeChanged) Kind() Kind    { return KindThemeChanged }
func (FontsChanged) Kind() Kind    { return KindFontsChanged }
func (Warning) Kind() Kind         { return KindWarning }
func (Info) Kind() Kind            { return KindInfo }
func (ExportStarted) Kind() Kind   { return KindExportStarted }
func (ExportFinished) Kind() Kind  { return KindExportFinished }
func (ExportFailed) Kind() Kind    { return KindExportFailed }

// Handler receives published events.
type Handler func(Event)

// Bus delivers events synchronously, in subscription order, on the publishing
// goroutine. Export events are published from a worker goroutine, so UI
// subscribers must hand them to their UI thread.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[Kind][]subscription
}

type subscription struct {
	id int
	fn Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus { return &Bus{subs: make(map[Kind][]subscription)} }

// Subscribe registers fn for kind and returns a function removing it again.
func (b *Bus) Subscribe(kind Kind, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[kind]
		for i, s := range list {
			if s.id == id {
				b.subs[kind] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to the subscribers of its kind. Handlers may publish or
// subscribe themselves; they see the subscriber list as it was before delivery.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	list := b.subs[ev.Kind()]
	b.mu.RUnlock()
	for _, s := range list {
		s.fn(ev)
	}
}
