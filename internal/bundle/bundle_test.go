/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bundle

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lyricpresenter/internal/domain"
	"lyricpresenter/internal/storage"
)

func openStore(t *testing.T, name string) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), storage.Options{Path: filepath.Join(t.TempDir(), name)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openStore(t, "src.db")
	hymns, _ := src.AddSongbook(ctx, "Hymns")
	_, _ = src.AddSongbook(ctx, "Empty")
	if _, err := src.AddSong(ctx, domain.Song{SongbookID: hymns, Title: "Amazing Grace", Lyrics: "how sweet", Number: domain.IntPtr(5)}); err != nil {
		t.Fatal(err)
	}
	if _, err := src.AddSong(ctx, domain.Song{SongbookID: hymns, Title: "Abide", Lyrics: "with me"}); err != nil {
		t.Fatal(err)
	}
	th := domain.DefaultTheme()
	th.Background = domain.MustHex("#112233")
	if err := src.SaveTheme(ctx, th); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "library.lpbundle")
	st, err := Export(ctx, src, path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Songbooks != 2 || st.Songs != 2 {
		t.Fatalf("export stats %+v", st)
	}

	dst := openStore(t, "dst.db")
	existing, _ := dst.AddSongbook(ctx, "Hymns")
	if _, err := dst.AddSong(ctx, domain.Song{SongbookID: existing, Title: "Abide", Lyrics: "local"}); err != nil {
		t.Fatal(err)
	}
	st, err = Import(ctx, dst, path, ImportOptions{Theme: true})
	if err != nil {
		t.Fatal(err)
	}
	if st.Songbooks != 1 || st.Songs != 1 || st.Skipped != 1 || !st.Theme {
		t.Fatalf("import stats %+v", st)
	}
	books, _ := dst.SongbooksWithSongs(ctx)
	if len(books) != 2 {
		t.Fatalf("expected Hymns and Empty, got %+v", books)
	}
	for _, s := range books[1].Songs {
		if s.Title == "Abide" && s.Lyrics != "local" {
			t.Fatalf("existing song overwritten")
		}
		if s.Title == "Amazing Grace" && (s.Number == nil || *s.Number != 5) {
			t.Fatalf("number lost: %+v", s)
		}
	}
	got, _ := dst.Theme(ctx)
	if got.Background != th.Background {
		t.Fatalf("theme not imported: %+v", got)
	}

	st, err = Import(ctx, dst, path, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if st.Songs != 0 || st.Skipped != 2 || st.Theme {
		t.Fatalf("second import must only skip: %+v", st)
	}
}

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "b.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, _ := zw.Create(name)
		_, _ = w.Write([]byte(body))
	}
	_ = zw.Close()
	_ = f.Close()
	return path
}

func TestRead_RejectsInvalidBundles(t *testing.T) {
	cases := map[string]map[string]string{
		"missing library": {ManifestName: "x"},
		"wrong format":    {LibraryName: `{"format": 2, "songbooks": []}`},
		"empty title":     {LibraryName: `{"format": 1, "songbooks": [{"name": "A", "songs": [{"title": "", "lyrics": ""}]}]}`},
		"bad color":       {LibraryName: `{"format": 1, "songbooks": [], "theme": {"slideWidth": 1, "slideHeight": 1, "background": "red", "title": {"name": "A", "size": 1, "color": "#000000"}, "lyric": {"name": "A", "size": 1, "color": "#000000"}, "lyricAlignment": "CENTER"}}`},
		"not json":        {LibraryName: `{`},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Read(writeZip(t, files)); !errors.Is(err, ErrInvalidBundle) {
				t.Fatalf("expected ErrInvalidBundle, got %v", err)
			}
		})
	}
	if _, err := Read(filepath.Join(t.TempDir(), "nope.zip")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDecode_AcceptsMinimalDocument(t *testing.T) {
	lib, err := Decode([]byte(`{"format": 1, "songbooks": [{"name": "A", "songs": [{"title": "T", "lyrics": "L", "number": null, "page": 3}]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(lib.Songbooks) != 1 || lib.Songbooks[0].Songs[0].Page == nil || *lib.Songbooks[0].Songs[0].Page != 3 {
		t.Fatalf("decoded %+v", lib)
	}
}
