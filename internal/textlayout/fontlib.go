/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	applog "lyricpresenter/internal/log"
)

// FallbackFamily is served when a requested family is not installed.
const FallbackFamily = "Go"

// FontData is one loaded face: the raw TTF bytes and the parsed font. Only
// faces the document engine accepts are stored, so every back-end resolves a
// request to the same FontData.
type FontData struct {
	Family string
	Bold   bool
	Italic bool
	Bytes  []byte
	Parsed *opentype.Font

	mu     sync.Mutex
	buf    sfnt.Buffer
	glyphs map[rune]fixed.Int26_6
}

type fontKey struct {
	family string
	bold   bool
	italic bool
}

// FontLibrary stores loaded TrueType fonts keyed by family and style.
// It is safe for concurrent use; Generation changes whenever the set changes
// so measurers can drop cached faces.
type FontLibrary struct {
	mu       sync.RWMutex
	fonts    map[fontKey]*FontData
	fallback map[fontKey]*FontData
	gen      uint64
}

// NewFontLibrary returns a library holding only the Go fallback family.
func NewFontLibrary() *FontLibrary {
	fl := &FontLibrary{fonts: map[fontKey]*FontData{}, fallback: map[fontKey]*FontData{}}
	for _, f := range []struct {
		bold, italic bool
		data         []byte
	}{
		{false, false, goregular.TTF},
		{true, false, gobold.TTF},
		{false, true, goitalic.TTF},
		{true, true, gobolditalic.TTF},
	} {
		parsed, err := opentype.Parse(f.data)
		if err != nil {
			// embedded fonts always parse
			panic(err)
		}
		k := fontKey{family: strings.ToLower(FallbackFamily), bold: f.bold, italic: f.italic}
		fl.fallback[k] = &FontData{Family: FallbackFamily, Bold: f.bold, Italic: f.italic, Bytes: f.data, Parsed: parsed}
	}
	return fl
}

// Add registers TTF bytes under the given family and style. Fonts the
// document engine cannot embed are refused with ErrInvalidFont.
func (fl *FontLibrary) Add(family string, bold, italic bool, data []byte) error {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	if err := documentFontCheck(family, data); err != nil {
		return err
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.fonts[fontKey{family: strings.ToLower(family), bold: bold, italic: italic}] = &FontData{
		Family: family, Bold: bold, Italic: italic, Bytes: data, Parsed: parsed,
	}
	fl.gen++
	return nil
}

// LoadTTF loads a font file under the given family and style.
func (fl *FontLibrary) LoadTTF(family string, bold, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.Add(family, bold, italic, data)
}

// LoadDir replaces the installed fonts with every .ttf file in dir. Family
// and style come from the font's name table. Unreadable files are skipped.
func (fl *FontLibrary) LoadDir(dir string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("fonts"), "load_dir").With(slog.String("dir", dir))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read font dir: %w", err)
	}
	loaded := map[fontKey]*FontData{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".ttf") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.Warn("skip unreadable font", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		parsed, err := opentype.Parse(data)
		if err != nil {
			l.Warn("skip invalid font", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		family, bold, italic := describe(parsed, e.Name())
		if err := documentFontCheck(family, data); err != nil {
			l.Warn("skip font rejected by document engine", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		loaded[fontKey{family: strings.ToLower(family), bold: bold, italic: italic}] = &FontData{
			Family: family, Bold: bold, Italic: italic, Bytes: data, Parsed: parsed,
		}
	}
	fl.mu.Lock()
	fl.fonts = loaded
	fl.gen++
	fl.mu.Unlock()
	l.Info("fonts loaded", slog.Int("count", len(loaded)))
	return len(loaded), nil
}

func describe(f *sfnt.Font, fileName string) (family string, bold, italic bool) {
	var buf sfnt.Buffer
	family, err := f.Name(&buf, sfnt.NameIDFamily)
	if err != nil || strings.TrimSpace(family) == "" {
		family = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}
	sub, _ := f.Name(&buf, sfnt.NameIDSubfamily)
	sub = strings.ToLower(sub)
	return family, strings.Contains(sub, "bold"), strings.Contains(sub, "italic") || strings.Contains(sub, "oblique")
}

// Resolve picks the face for font: exact match, then the same family in any
// style, then the Go family in the requested style.
func (fl *FontLibrary) Resolve(font Font) *FontData {
	fam := strings.ToLower(strings.TrimSpace(font.Family))
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if fd, ok := fl.fonts[fontKey{family: fam, bold: font.Bold, italic: font.Italic}]; ok {
		return fd
	}
	for _, k := range []fontKey{{fam, font.Bold, false}, {fam, false, font.Italic}, {fam, false, false}} {
		if fd, ok := fl.fonts[k]; ok {
			return fd
		}
	}
	return fl.fallback[fontKey{family: strings.ToLower(FallbackFamily), bold: font.Bold, italic: font.Italic}]
}

// Families lists installed families plus the fallback, sorted.
func (fl *FontLibrary) Families() []string {
	fl.mu.RLock()
	seen := map[string]string{strings.ToLower(FallbackFamily): FallbackFamily}
	for k, fd := range fl.fonts {
		seen[k.family] = fd.Family
	}
	fl.mu.RUnlock()
	out := make([]string, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Generation changes on every Add or LoadDir.
func (fl *FontLibrary) Generation() uint64 {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return fl.gen
}
