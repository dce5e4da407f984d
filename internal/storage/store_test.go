/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lyricpresenter/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{Driver: SQLite, Path: filepath.Join(t.TempDir(), "library.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustSongbook(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.AddSongbook(context.Background(), name)
	if err != nil {
		t.Fatalf("add songbook %q: %v", name, err)
	}
	return id
}

func mustSong(t *testing.T, s *Store, song domain.Song) int64 {
	t.Helper()
	id, err := s.AddSong(context.Background(), song)
	if err != nil {
		t.Fatalf("add song %q: %v", song.Title, err)
	}
	return id
}

func TestOpen_SeedsDefaultThemeAndIsReopenable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lib", "library.db")
	s, err := Open(ctx, Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	th, err := s.Theme(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if th != domain.DefaultTheme() {
		t.Fatalf("unexpected seeded theme: %+v", th)
	}
	th.Background = domain.MustHex("#102030")
	th.LyricAlignment = domain.AlignJustify
	th.Title.Underline = true
	th = th.WithPreset(domain.PresetStandard)
	if err := s.SaveTheme(ctx, th); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = Open(ctx, Options{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Theme(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != th {
		t.Fatalf("theme not persisted:\n got %+v\nwant %+v", got, th)
	}
	v, err := s.SchemaVersion(ctx)
	if err != nil || v != 1 {
		t.Fatalf("schema version=%d err=%v", v, err)
	}
}

func TestOpen_RejectsBadOptions(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, Options{Driver: SQLite}); err == nil {
		t.Fatalf("expected error for empty sqlite path")
	}
	if _, err := Open(ctx, Options{Driver: "oracle", Path: "x"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	if _, err := Open(ctx, Options{Driver: Postgres}); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestSongbooks_UniqueNames(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	id := mustSongbook(t, s, "Hymns")
	if _, err := s.AddSongbook(ctx, "Hymns"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := s.AddSongbook(ctx, "  "); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	other := mustSongbook(t, s, "Psalms")
	if err := s.RenameSongbook(ctx, other, "Hymns"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("rename conflict: expected ErrDuplicate, got %v", err)
	}
	if err := s.RenameSongbook(ctx, 999, "New"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.RenameSongbook(ctx, id, "Old Hymns"); err != nil {
		t.Fatal(err)
	}
	books, err := s.SongbooksWithSongs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 2 || books[0].Name != "Old Hymns" || books[1].Name != "Psalms" {
		t.Fatalf("expected both songbooks (empty included) by name: %+v", books)
	}
}

func TestAddSong_DuplicateTitlePerSongbook(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := mustSongbook(t, s, "A")
	b := mustSongbook(t, s, "B")
	mustSong(t, s, domain.Song{SongbookID: a, Title: "Amazing Grace", Lyrics: "x"})
	if _, err := s.AddSong(ctx, domain.Song{SongbookID: a, Title: "Amazing Grace", Lyrics: "y"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	mustSong(t, s, domain.Song{SongbookID: b, Title: "Amazing Grace", Lyrics: "z"})
	books, _ := s.SongbooksWithSongs(ctx)
	if len(books[0].Songs) != 1 || books[0].Songs[0].Lyrics != "x" || len(books[1].Songs) != 1 {
		t.Fatalf("duplicate insert must not create a row: %+v", books)
	}
	if _, err := s.AddSong(ctx, domain.Song{SongbookID: a, Title: " "}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestSongCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := mustSongbook(t, s, "A")
	b := mustSongbook(t, s, "B")
	id := mustSong(t, s, domain.Song{SongbookID: a, Title: "One", Lyrics: "la", Number: domain.IntPtr(12)})
	mustSong(t, s, domain.Song{SongbookID: b, Title: "Two", Lyrics: "la"})

	got, err := s.SongByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Number == nil || *got.Number != 12 || got.Page != nil {
		t.Fatalf("nullable ints not round-tripped: %+v", got)
	}
	got.SongbookID = b
	got.Title = "Two"
	if err := s.UpdateSong(ctx, got); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate when moving onto an existing title, got %v", err)
	}
	got.Title = "Uno"
	got.Page = domain.IntPtr(7)
	got.Number = nil
	if err := s.UpdateSong(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, _ := s.SongByID(ctx, id)
	if again.SongbookID != b || again.Title != "Uno" || again.Number != nil || *again.Page != 7 {
		t.Fatalf("update not applied: %+v", again)
	}
	if err := s.UpdateSong(ctx, domain.Song{ID: 999, SongbookID: a, Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteSong(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SongByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteSong(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSongbookCascades(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := mustSongbook(t, s, "A")
	id := mustSong(t, s, domain.Song{SongbookID: a, Title: "One", Lyrics: "la"})
	if err := s.DeleteSongbook(ctx, a); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SongByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("song must be gone with its songbook, got %v", err)
	}
	if err := s.DeleteSongbook(ctx, a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSongExists(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := mustSongbook(t, s, "A")
	b := mustSongbook(t, s, "B")
	id := mustSong(t, s, domain.Song{SongbookID: a, Title: "One", Lyrics: "la"})
	cases := []struct {
		title   string
		book    int64
		exclude int64
		want    bool
	}{
		{"One", a, 0, true},
		{"One", a, id, false},
		{"One", b, 0, false},
		{"one", a, 0, false},
	}
	for _, c := range cases {
		got, err := s.SongExists(ctx, c.title, c.book, c.exclude)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Fatalf("SongExists(%q,%d,%d)=%v want %v", c.title, c.book, c.exclude, got, c.want)
		}
	}
}
