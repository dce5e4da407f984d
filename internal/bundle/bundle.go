/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bundle moves a whole song library between installations as a zip
// file holding a JSON document validated against an embedded schema.
package bundle

import (
	"archive/zip"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"lyricpresenter/internal/domain"
	applog "lyricpresenter/internal/log"
	"lyricpresenter/internal/storage"
	"lyricpresenter/internal/version"
)

const (
	ManifestName  = "bundle.manifest.txt"
	LibraryName   = "library.json"
	FormatVersion = 1

	maxLibrarySize = 64 << 20
)

//go:embed library.schema.json
var schemaJSON []byte

// Library is the JSON document inside a bundle.
type Library struct {
	Format    int           `json:"format"`
	Exported  time.Time     `json:"exported"`
	App       string        `json:"app,omitempty"`
	Theme     *domain.Theme `json:"theme,omitempty"`
	Songbooks []Songbook    `json:"songbooks"`
}

type Songbook struct {
	Name  string `json:"name"`
	Songs []Song `json:"songs"`
}

type Song struct {
	Title  string `json:"title"`
	Lyrics string `json:"lyrics"`
	Number *int   `json:"number"`
	Page   *int   `json:"page"`
}

// Repository is the part of the library store a bundle reads and writes.
type Repository interface {
	SongbooksWithSongs(ctx context.Context) ([]domain.Songbook, error)
	Theme(ctx context.Context) (domain.Theme, error)
	AddSongbook(ctx context.Context, name string) (int64, error)
	AddSong(ctx context.Context, s domain.Song) (int64, error)
	SaveTheme(ctx context.Context, t domain.Theme) error
}

// Stats counts what an export wrote or an import created.
type Stats struct {
	Songbooks int
	Songs     int
	Skipped   int
	Theme     bool
}

// ErrInvalidBundle reports a missing or schema-violating library document.
var ErrInvalidBundle = errors.New("invalid bundle")

// Export writes every songbook, song and the theme to a zip at path.
func Export(ctx context.Context, repo Repository, path string) (Stats, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "export").With(slog.String("zip", path))
	if strings.TrimSpace(path) == "" {
		return Stats{}, errors.New("bundle path is required")
	}
	books, err := repo.SongbooksWithSongs(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("read library: %w", err)
	}
	th, err := repo.Theme(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("read theme: %w", err)
	}
	lib := Library{Format: FormatVersion, Exported: time.Now().UTC(), App: version.Version, Theme: &th}
	var st Stats
	for _, b := range books {
		sb := Songbook{Name: b.Name, Songs: []Song{}}
		for _, s := range b.Songs {
			sb.Songs = append(sb.Songs, Song{Title: s.Title, Lyrics: s.Lyrics, Number: s.Number, Page: s.Page})
		}
		st.Songbooks++
		st.Songs += len(sb.Songs)
		lib.Songbooks = append(lib.Songbooks, sb)
	}
	if lib.Songbooks == nil {
		lib.Songbooks = []Songbook{}
	}
	st.Theme = true
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return Stats{}, fmt.Errorf("encode library: %w", err)
	}
	manifest := fmt.Sprintf("LyricPresenter Library Bundle\nCreated: %s\nSongbooks: %d\nSongs: %d\n\n%s holds the songbooks, songs and theme.\n",
		lib.Exported.Format(time.RFC3339), st.Songbooks, st.Songs, LibraryName)

	err = storage.WriteFileAtomic(path, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, f := range []struct {
			name string
			data []byte
		}{{ManifestName, []byte(manifest)}, {LibraryName, data}} {
			fw, err := zw.Create(f.name)
			if err != nil {
				return fmt.Errorf("add %s: %w", f.name, err)
			}
			if _, err := fw.Write(f.data); err != nil {
				return fmt.Errorf("write %s: %w", f.name, err)
			}
		}
		return zw.Close()
	})
	if err != nil {
		l.Error("bundle export failed", slog.Any("err", err))
		return Stats{}, err
	}
	l.Info("bundle exported", slog.Int("songbooks", st.Songbooks), slog.Int("songs", st.Songs))
	return st, nil
}

// ImportOptions controls what Import applies besides songs.
type ImportOptions struct {
	// Theme replaces the current theme with the bundle's.
	Theme bool
}

// Import reads a bundle and adds its content to repo. Songbooks are matched
// by name and created when missing; songs whose title already exists in the
// target songbook are skipped.
func Import(ctx context.Context, repo Repository, path string, opt ImportOptions) (Stats, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "import").With(slog.String("zip", path))
	lib, err := Read(path)
	if err != nil {
		l.Error("bundle rejected", slog.Any("err", err))
		return Stats{}, err
	}
	existing, err := repo.SongbooksWithSongs(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("read library: %w", err)
	}
	ids := make(map[string]int64, len(existing))
	for _, b := range existing {
		ids[b.Name] = b.ID
	}

	var st Stats
	for _, b := range lib.Songbooks {
		name := strings.TrimSpace(b.Name)
		id, ok := ids[name]
		if !ok {
			if id, err = repo.AddSongbook(ctx, name); err != nil {
				return st, fmt.Errorf("create songbook %q: %w", name, err)
			}
			ids[name] = id
			st.Songbooks++
		}
		for _, s := range b.Songs {
			_, err := repo.AddSong(ctx, domain.Song{SongbookID: id, Title: s.Title, Lyrics: s.Lyrics, Number: s.Number, Page: s.Page})
			switch {
			case errors.Is(err, storage.ErrDuplicate):
				st.Skipped++
			case err != nil:
				return st, fmt.Errorf("import song %q: %w", s.Title, err)
			default:
				st.Songs++
			}
		}
	}
	if opt.Theme && lib.Theme != nil {
		th := *lib.Theme
		th.ID = domain.DefaultThemeID
		if strings.TrimSpace(th.Name) == "" {
			th.Name = "Imported"
		}
		if err := repo.SaveTheme(ctx, th); err != nil {
			return st, fmt.Errorf("import theme: %w", err)
		}
		st.Theme = true
	}
	l.Info("bundle imported", slog.Int("songbooks", st.Songbooks), slog.Int("songs", st.Songs), slog.Int("skipped", st.Skipped))
	return st, nil
}

// Read opens a bundle and returns its validated library document.
func Read(path string) (Library, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Library{}, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()
	var data []byte
	for _, f := range r.File {
		if f.Name != LibraryName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Library{}, fmt.Errorf("open %s: %w", LibraryName, err)
		}
		data, err = io.ReadAll(io.LimitReader(rc, maxLibrarySize+1))
		_ = rc.Close()
		if err != nil {
			return Library{}, fmt.Errorf("read %s: %w", LibraryName, err)
		}
		if len(data) > maxLibrarySize {
			return Library{}, fmt.Errorf("%w: %s too large", ErrInvalidBundle, LibraryName)
		}
	}
	if data == nil {
		return Library{}, fmt.Errorf("%w: no %s", ErrInvalidBundle, LibraryName)
	}
	return Decode(data)
}

// Decode validates data against the bundle schema and decodes it.
func Decode(data []byte) (Library, error) {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Library{}, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return Library{}, fmt.Errorf("%w: %s", ErrInvalidBundle, strings.Join(msgs, "; "))
	}
	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return Library{}, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	return lib, nil
}
