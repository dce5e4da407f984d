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
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"lyricpresenter/internal/domain"
)

func TestWriteFileAtomic_LeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	if err := WriteFile(path, []byte("v1")); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error, got %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "v1" {
		t.Fatalf("original clobbered: %q", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestMigrations_BackupOnUpgrade(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "library.db")
	s, err := Open(ctx, Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	// pretend an older binary created the file with a fake extra migration missing
	if _, err := s.db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES(0, 'baseline')`); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()
	s, err = Open(ctx, Options{Path: path})
	if err != nil {
		t.Fatalf("reopen must re-apply idempotent migration: %v", err)
	}
	defer s.Close()
	entries, err := os.ReadDir(filepath.Join(filepath.Dir(path), "backups"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one backup, got %v (%v)", entries, err)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := parseVersion("migrations/sqlite/0002_fonts.sql"); err != nil || v != 2 {
		t.Fatalf("v=%d err=%v", v, err)
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Fatalf("expected error for missing prefix")
	}
}

func TestRebind(t *testing.T) {
	s := &Store{dialect: Postgres}
	if got := s.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("got %q", got)
	}
	s.dialect = SQLite
	if got := s.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("got %q", got)
	}
}

func openPGForTest(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LP_PG_DSN")
	if dsn == "" {
		t.Skip("LP_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, Options{Driver: Postgres, DSN: dsn})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgres_Parity(t *testing.T) {
	s := openPGForTest(t)
	ctx := context.Background()
	name := "test-" + uuid.New().String()
	id, err := s.AddSongbook(ctx, name)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.DeleteSongbook(context.Background(), id) })
	if _, err := s.AddSongbook(ctx, name); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	song := domain.Song{SongbookID: id, Title: "Amazing Grace", Lyrics: "how sweet", Page: domain.IntPtr(3)}
	if _, err := s.AddSong(ctx, song); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSong(ctx, song); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	books, err := s.SearchSongs(ctx, SearchQuery{Keyword: "GRACE", SongbookID: id})
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 1 || len(books[0].Songs) != 1 || *books[0].Songs[0].Page != 3 {
		t.Fatalf("unexpected search result: %+v", books)
	}
	if _, err := s.Theme(ctx); err != nil {
		t.Fatalf("theme: %v", err)
	}
}
