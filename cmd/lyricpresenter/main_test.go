/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"lyricpresenter/internal/config"
	"lyricpresenter/internal/domain"
	"lyricpresenter/internal/storage"
)

// setupLibrary points the config at a temp sqlite library seeded with two songs.
func setupLibrary(t *testing.T) (dir string, ids []int64) {
	t.Helper()
	dir = t.TempDir()
	db := filepath.Join(dir, "library.db")
	t.Setenv(config.EnvConfigFile, filepath.Join(dir, "config.yaml"))
	t.Setenv(config.EnvLibraryDriver, config.DriverSQLite)
	t.Setenv(config.EnvLibraryPath, db)
	t.Setenv(config.EnvTelemetryOptIn, "false")
	t.Setenv(config.EnvFontsDir, "")

	ctx := context.Background()
	st, err := storage.Open(ctx, storage.Options{Driver: storage.SQLite, Path: db})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	book, err := st.AddSongbook(ctx, "Hymns")
	if err != nil {
		t.Fatalf("add songbook: %v", err)
	}
	for _, s := range []domain.Song{
		{SongbookID: book, Title: "Amazing Grace", Number: domain.IntPtr(12), Lyrics: "Amazing grace how sweet the sound\nThat saved a wretch like me"},
		{SongbookID: book, Title: "Abide", Page: domain.IntPtr(41), Lyrics: "Abide with me\nfast falls the eventide\n\nĐK.\nSwift to its close"},
	} {
		id, err := st.AddSong(ctx, s)
		if err != nil {
			t.Fatalf("add song: %v", err)
		}
		ids = append(ids, id)
	}
	return dir, ids
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	r := &Runner{}
	defer r.Close()
	var out bytes.Buffer
	root := newRootCommand(r)
	root.Writer = &out
	err := root.Run(context.Background(), append([]string{"lyricpresenter"}, args...))
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "Lyric Presenter ") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestListCommand(t *testing.T) {
	setupLibrary(t)
	out, err := run(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Hymns", "Amazing Grace", "Abide", "41"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "list", "-q", "eventide", "-f", "lyrics")
	if err != nil {
		t.Fatalf("list lyrics: %v", err)
	}
	if strings.Contains(out, "Amazing Grace") || !strings.Contains(out, "Abide") {
		t.Fatalf("lyrics search output:\n%s", out)
	}

	if _, err := run(t, "list", "-f", "composer"); !errors.Is(err, errUsage) {
		t.Fatalf("bad field err = %v, want usage error", err)
	}
}

func TestExportCommand(t *testing.T) {
	dir, ids := setupLibrary(t)
	out := filepath.Join(dir, "sunday")
	stdout, err := run(t, "export", "-o", out, itoa(ids[1]), itoa(ids[0]))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	fi, err := os.Stat(out + ".pptx")
	if err != nil {
		t.Fatalf("deck not written: %v", err)
	}
	if fi.Size() == 0 {
		t.Fatal("deck is empty")
	}
	if !strings.Contains(stdout, "sunday.pptx") {
		t.Fatalf("unexpected output %q", stdout)
	}

	flagged := filepath.Join(dir, "flagged.pptx")
	if _, err := run(t, "export", "--out", flagged, "--song", itoa(ids[0]), "--song", itoa(ids[1])); err != nil {
		t.Fatalf("export with --song: %v", err)
	}
	if _, err := os.Stat(flagged); err != nil {
		t.Fatalf("deck not written: %v", err)
	}

	if _, err := run(t, "export", "-o", out); !errors.Is(err, errUsage) {
		t.Fatalf("no ids err = %v, want usage error", err)
	}
	if _, err := run(t, "export", "-o", out, "x1"); !errors.Is(err, errUsage) {
		t.Fatalf("bad id err = %v, want usage error", err)
	}
	if _, err := run(t, "export", "-o", out, "9999"); err == nil {
		t.Fatal("want error for a missing song")
	}
}

func TestPreviewCommand(t *testing.T) {
	dir, ids := setupLibrary(t)
	png := filepath.Join(dir, "slide.png")
	if _, err := run(t, "preview", "--song", itoa(ids[0]), "--width", "320", "-o", png); err != nil {
		t.Fatalf("preview: %v", err)
	}
	data, err := os.ReadFile(png)
	if err != nil {
		t.Fatalf("png not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("output is not a PNG")
	}
	if _, err := run(t, "preview", "--song", itoa(ids[0]), "--slide", "99", "-o", png); !errors.Is(err, errUsage) {
		t.Fatalf("out of range err = %v, want usage error", err)
	}
}

func TestBundleCommands(t *testing.T) {
	dir, _ := setupLibrary(t)
	zip := filepath.Join(dir, "backup.zip")
	out, err := run(t, "bundle", "export", zip)
	if err != nil {
		t.Fatalf("bundle export: %v", err)
	}
	if !strings.Contains(out, "1 songbooks and 2 songs") {
		t.Fatalf("unexpected output %q", out)
	}

	// the same library already holds every song
	out, err = run(t, "bundle", "import", zip)
	if err != nil {
		t.Fatalf("bundle import: %v", err)
	}
	if !strings.Contains(out, "(2 skipped)") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := run(t, "bundle", "import"); !errors.Is(err, errUsage) {
		t.Fatalf("missing path err = %v, want usage error", err)
	}
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	setupLibrary(t)
	if _, err := run(t, "frobnicate"); !errors.Is(err, errUsage) {
		t.Fatalf("err = %v, want usage error", err)
	}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
