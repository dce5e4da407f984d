/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui is the desktop front end. The fyne implementation is compiled
// with -tags fyne; other builds get a stub Run so headless CI needs neither
// fyne nor a display.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"lyricpresenter/internal/app"
	"lyricpresenter/internal/config"
	"lyricpresenter/internal/domain"
	"lyricpresenter/internal/export"
)

var (
	// ErrNotBuilt is returned by Run in binaries built without the fyne UI.
	ErrNotBuilt = errors.New("UI not built in this binary")
	// ErrFileName reports a save name that is empty, holds a path separator
	// or names a directory.
	ErrFileName = errors.New("invalid file name")
)

// PreviewWidth is the pixel width slides are rasterised at for the preview pane.
const PreviewWidth = 960

// Deps is what the window needs from main.
type Deps struct {
	Controller *app.Controller
	Renderer   export.Renderer
	Config     config.AppConfig
	// Families lists the font families available to the theme editor.
	Families func() []string
	// WatchFonts, when set, runs until ctx is done and reloads fonts on change.
	WatchFonts func(ctx context.Context) error
}

// Tree node ids: "b:<songbook id>" and "s:<song id>".
const (
	bookPrefix = "b:"
	songPrefix = "s:"
)

// libraryTree is the songbook browser's view of a LibraryChanged event.
type libraryTree struct {
	roots    []string
	children map[string][]string
	labels   map[string]string
	songs    map[int64]domain.Song
	books    map[int64]domain.Songbook
}

func newLibraryTree(books []domain.Songbook) *libraryTree {
	t := &libraryTree{
		children: make(map[string][]string),
		labels:   make(map[string]string),
		songs:    make(map[int64]domain.Song),
		books:    make(map[int64]domain.Songbook),
	}
	for _, b := range books {
		bid := bookPrefix + strconv.FormatInt(b.ID, 10)
		t.roots = append(t.roots, bid)
		t.labels[bid] = fmt.Sprintf("%s (%d)", b.Name, len(b.Songs))
		t.books[b.ID] = b
		for _, s := range b.Songs {
			sid := songPrefix + strconv.FormatInt(s.ID, 10)
			t.children[bid] = append(t.children[bid], sid)
			t.labels[sid] = songLabel(s)
			t.songs[s.ID] = s
		}
	}
	return t
}

// Children follows widget.Tree's convention: the empty id is the root.
func (t *libraryTree) Children(id string) []string {
	if id == "" {
		return t.roots
	}
	return t.children[id]
}

func (t *libraryTree) IsBranch(id string) bool {
	return id == "" || strings.HasPrefix(id, bookPrefix)
}

func (t *libraryTree) Label(id string) string { return t.labels[id] }

// parseNode splits a tree id into its kind and numeric id.
func parseNode(id string) (song bool, n int64, ok bool) {
	switch {
	case strings.HasPrefix(id, songPrefix):
		song = true
		id = id[len(songPrefix):]
	case strings.HasPrefix(id, bookPrefix):
		id = id[len(bookPrefix):]
	default:
		return false, 0, false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	return song, n, err == nil
}

// songLabel renders a song for lists: "12. Title (p. 34)".
func songLabel(s domain.Song) string {
	var b strings.Builder
	if s.Number != nil {
		fmt.Fprintf(&b, "%d. ", *s.Number)
	}
	b.WriteString(s.Title)
	if s.Page != nil {
		fmt.Fprintf(&b, " (p. %d)", *s.Page)
	}
	return b.String()
}

// optionalInt parses an optional number field; blank means unset.
func optionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%q is not a valid number", s)
	}
	return &n, nil
}

func formatOptional(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// statusText maps controller events to the status bar line.
// ok is false for events the status bar ignores.
func statusText(ev app.Event) (text string, isError, ok bool) {
	switch e := ev.(type) {
	case app.Warning:
		return e.Message, true, true
	case app.Info:
		return e.Message, false, true
	case app.ExportStarted:
		return fmt.Sprintf("Exporting %d songs to %s…", e.Songs, e.Path), false, true
	case app.ExportFinished:
		return fmt.Sprintf("Exported %d slides to %s in %s.", e.Slides, e.Path, e.Elapsed.Round(time.Millisecond)), false, true
	case app.ExportFailed:
		return fmt.Sprintf("Export failed: %v", e.Err), true, true
	case app.FontsChanged:
		return fmt.Sprintf("Fonts reloaded (%d families).", len(e.Families)), false, true
	}
	return "", false, false
}

// slideCounter is the preview navigation label.
func slideCounter(i, n int) string {
	if n == 0 {
		return "No slides"
	}
	return fmt.Sprintf("Slide %d / %d", i+1, n)
}

// clampIndex keeps a preview slide index within n slides.
func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// splitMarkers parses the comma separated marker list of the settings dialog.
func splitMarkers(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// resolveSavePath joins a chosen folder and a typed file name, adding ext
// when the name lacks it. The target is only inspected; exists reports
// whether saving will replace a file.
func resolveSavePath(dir, name, ext string) (path string, exists bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false, fmt.Errorf("%w: %q", ErrFileName, name)
	}
	if !strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		name += ext
	}
	path = filepath.Join(dir, name)
	fi, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return path, false, nil
	case err != nil:
		return "", false, fmt.Errorf("stat %s: %w", path, err)
	case fi.IsDir():
		return "", false, fmt.Errorf("%w: %s is a directory", ErrFileName, path)
	}
	return path, true, nil
}
