/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"lyricpresenter/internal/app"
	"lyricpresenter/internal/domain"
)

func TestLibraryTree(t *testing.T) {
	tree := newLibraryTree([]domain.Songbook{
		{ID: 1, Name: "Hymns", Songs: []domain.Song{
			{ID: 10, SongbookID: 1, Title: "Abide", Number: domain.IntPtr(3), Page: domain.IntPtr(41)},
			{ID: 11, SongbookID: 1, Title: "Be Still"},
		}},
		{ID: 2, Name: "Empty"},
	})

	if got := tree.Children(""); !slices.Equal(got, []string{"b:1", "b:2"}) {
		t.Fatalf("roots = %v", got)
	}
	if got := tree.Children("b:1"); !slices.Equal(got, []string{"s:10", "s:11"}) {
		t.Fatalf("children = %v", got)
	}
	if !tree.IsBranch("b:2") || tree.IsBranch("s:10") || !tree.IsBranch("") {
		t.Fatalf("branch detection")
	}
	if got := tree.Label("b:1"); got != "Hymns (2)" {
		t.Fatalf("book label = %q", got)
	}
	if got := tree.Label("s:10"); got != "3. Abide (p. 41)" {
		t.Fatalf("song label = %q", got)
	}

	song, id, ok := parseNode("s:11")
	if !song || id != 11 || !ok {
		t.Fatalf("parseNode song = %v %d %v", song, id, ok)
	}
	if song, id, ok := parseNode("b:2"); song || id != 2 || !ok {
		t.Fatalf("parseNode book = %v %d %v", song, id, ok)
	}
	if _, _, ok := parseNode("x:1"); ok {
		t.Fatalf("unknown prefix must fail")
	}
}

func TestOptionalInt(t *testing.T) {
	if p, err := optionalInt("  "); p != nil || err != nil {
		t.Fatalf("blank = %v, %v", p, err)
	}
	if p, err := optionalInt(" 12 "); err != nil || *p != 12 || formatOptional(p) != "12" {
		t.Fatalf("12 = %v, %v", p, err)
	}
	for _, bad := range []string{"x", "-1", "1.5"} {
		if _, err := optionalInt(bad); err == nil {
			t.Fatalf("%q should fail", bad)
		}
	}
	if formatOptional(nil) != "" {
		t.Fatalf("nil formats as blank")
	}
}

func TestStatusText(t *testing.T) {
	cases := []struct {
		ev      app.Event
		contain string
		isErr   bool
		ok      bool
	}{
		{app.Warning{Message: "dup"}, "dup", true, true},
		{app.Info{Message: "saved"}, "saved", false, true},
		{app.ExportStarted{Songs: 2, Path: "/x.pptx"}, "Exporting 2 songs", false, true},
		{app.ExportFinished{Slides: 5, Path: "/x.pptx", Elapsed: 1500 * time.Millisecond}, "5 slides", false, true},
		{app.ExportFailed{Err: errors.New("disk full")}, "disk full", true, true},
		{app.FontsChanged{Families: []string{"Go"}}, "1 families", false, true},
		{app.PlaylistChanged{}, "", false, false},
	}
	for _, tc := range cases {
		text, isErr, ok := statusText(tc.ev)
		if ok != tc.ok || isErr != tc.isErr || !strings.Contains(text, tc.contain) {
			t.Fatalf("%T: got %q err=%v ok=%v", tc.ev, text, isErr, ok)
		}
	}
}

func TestSlideNavigationHelpers(t *testing.T) {
	if slideCounter(0, 0) != "No slides" || slideCounter(1, 3) != "Slide 2 / 3" {
		t.Fatalf("slideCounter")
	}
	if clampIndex(5, 3) != 2 || clampIndex(-1, 3) != 0 || clampIndex(0, 0) != 0 {
		t.Fatalf("clampIndex")
	}
}

func TestSplitMarkers(t *testing.T) {
	got := splitMarkers(" ĐK., 1 ,, Chorus ")
	want := []string{"ĐK.", "1", "Chorus"}
	if !slices.Equal(got, want) {
		t.Fatalf("splitMarkers = %q, want %q", got, want)
	}
	if got := splitMarkers("  "); got != nil {
		t.Fatalf("blank input = %q, want nil", got)
	}
}

func TestResolveSavePath(t *testing.T) {
	dir := t.TempDir()
	path, exists, err := resolveSavePath(dir, " Sunday ", ".pptx")
	if err != nil || exists || path != filepath.Join(dir, "Sunday.pptx") {
		t.Fatalf("got %q exists=%v err=%v", path, exists, err)
	}
	if path, _, _ = resolveSavePath(dir, "Sunday.PPTX", ".pptx"); path != filepath.Join(dir, "Sunday.PPTX") {
		t.Fatalf("extension must not be doubled: %q", path)
	}
	for _, bad := range []string{"", "  ", "..", "a/b", `a\b`} {
		if _, _, err := resolveSavePath(dir, bad, ".pptx"); !errors.Is(err, ErrFileName) {
			t.Fatalf("%q: expected ErrFileName, got %v", bad, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "deck.pptx"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, _, err := resolveSavePath(dir, "deck", ".pptx"); !errors.Is(err, ErrFileName) {
		t.Fatalf("directory target: expected ErrFileName, got %v", err)
	}
}

func TestResolveSavePath_LeavesExistingFileIntact(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "library.zip")
	if err := os.WriteFile(target, []byte("previous backup"), 0o644); err != nil {
		t.Fatal(err)
	}
	path, exists, err := resolveSavePath(dir, "library", ".zip")
	if err != nil || !exists || path != target {
		t.Fatalf("got %q exists=%v err=%v", path, exists, err)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "previous backup" {
		t.Fatalf("existing file changed: %q, %v", data, err)
	}

	empty := filepath.Join(dir, "empty.pptx")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, exists, _ := resolveSavePath(dir, "empty", ".pptx"); !exists {
		t.Fatalf("empty existing file must be reported")
	}
	if _, err := os.Stat(empty); err != nil {
		t.Fatalf("empty existing file removed: %v", err)
	}
}
