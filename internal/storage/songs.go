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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lyricpresenter/internal/domain"
)

const songColumns = `id, songbook_id, title, lyrics, number, page`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(r rowScanner) (domain.Song, error) {
	var (
		s            domain.Song
		number, page sql.NullInt64
	)
	if err := r.Scan(&s.ID, &s.SongbookID, &s.Title, &s.Lyrics, &number, &page); err != nil {
		return domain.Song{}, err
	}
	if number.Valid {
		s.Number = domain.IntPtr(int(number.Int64))
	}
	if page.Valid {
		s.Page = domain.IntPtr(int(page.Int64))
	}
	return s, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func (s *Store) querySongs(ctx context.Context, q string, args ...any) ([]domain.Song, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, song)
	}
	return out, rows.Err()
}

func (s *Store) songbooks(ctx context.Context) ([]domain.Songbook, error) {
	rows, err := s.query(ctx, `SELECT id, name FROM songbooks ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list songbooks: %w", err)
	}
	defer rows.Close()
	var out []domain.Songbook
	for rows.Next() {
		var sb domain.Songbook
		if err := rows.Scan(&sb.ID, &sb.Name); err != nil {
			return nil, err
		}
		out = append(out, sb)
	}
	return out, rows.Err()
}

// group attaches songs to their songbooks, keeping the song order.
func group(books []domain.Songbook, songs []domain.Song, dropEmpty bool) []domain.Songbook {
	idx := make(map[int64]int, len(books))
	for i, b := range books {
		idx[b.ID] = i
	}
	for _, song := range songs {
		if i, ok := idx[song.SongbookID]; ok {
			books[i].Songs = append(books[i].Songs, song)
		}
	}
	if !dropEmpty {
		return books
	}
	out := books[:0]
	for _, b := range books {
		if len(b.Songs) > 0 {
			out = append(out, b)
		}
	}
	return out
}

// SongbooksWithSongs returns every songbook, including empty ones, ordered by
// name, each with its songs ordered by title.
func (s *Store) SongbooksWithSongs(ctx context.Context) ([]domain.Songbook, error) {
	books, err := s.songbooks(ctx)
	if err != nil {
		return nil, err
	}
	songs, err := s.querySongs(ctx, `SELECT `+songColumns+` FROM songs ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	return group(books, songs, false), nil
}

// AddSongbook creates a songbook and returns its id.
func (s *Store) AddSongbook(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty songbook name", ErrInvalid)
	}
	var id int64
	err := s.queryRow(ctx, `INSERT INTO songbooks(name) VALUES(?) RETURNING id`, name).Scan(&id)
	if err != nil {
		err = classify(err)
		s.l.Warn("add songbook failed", slog.String("name", name), slog.Any("err", err))
		return 0, fmt.Errorf("add songbook %q: %w", name, err)
	}
	return id, nil
}

// RenameSongbook changes a songbook's name.
func (s *Store) RenameSongbook(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty songbook name", ErrInvalid)
	}
	res, err := s.exec(ctx, `UPDATE songbooks SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("rename songbook %d: %w", id, classify(err))
	}
	return affected(res, "songbook", id)
}

// DeleteSongbook removes a songbook and, by cascade, its songs.
func (s *Store) DeleteSongbook(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM songbooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete songbook %d: %w", id, err)
	}
	return affected(res, "songbook", id)
}

func validSong(song domain.Song) error {
	if strings.TrimSpace(song.Title) == "" {
		return fmt.Errorf("%w: empty song title", ErrInvalid)
	}
	return nil
}

// AddSong inserts a song and returns its id.
func (s *Store) AddSong(ctx context.Context, song domain.Song) (int64, error) {
	if err := validSong(song); err != nil {
		return 0, err
	}
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO songs(songbook_id, title, lyrics, number, page) VALUES(?, ?, ?, ?, ?) RETURNING id`,
		song.SongbookID, song.Title, song.Lyrics, nullInt(song.Number), nullInt(song.Page),
	).Scan(&id)
	if err != nil {
		err = classify(err)
		s.l.Warn("add song failed", slog.String("title", song.Title), slog.Int64("songbook_id", song.SongbookID), slog.Any("err", err))
		return 0, fmt.Errorf("add song %q: %w", song.Title, err)
	}
	return id, nil
}

// UpdateSong rewrites every field of an existing song, including its songbook.
func (s *Store) UpdateSong(ctx context.Context, song domain.Song) error {
	if err := validSong(song); err != nil {
		return err
	}
	res, err := s.exec(ctx,
		`UPDATE songs SET songbook_id = ?, title = ?, lyrics = ?, number = ?, page = ? WHERE id = ?`,
		song.SongbookID, song.Title, song.Lyrics, nullInt(song.Number), nullInt(song.Page), song.ID,
	)
	if err != nil {
		return fmt.Errorf("update song %d: %w", song.ID, classify(err))
	}
	return affected(res, "song", song.ID)
}

// DeleteSong removes a song.
func (s *Store) DeleteSong(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete song %d: %w", id, err)
	}
	return affected(res, "song", id)
}

// SongByID loads one song.
func (s *Store) SongByID(ctx context.Context, id int64) (domain.Song, error) {
	song, err := scanSong(s.queryRow(ctx, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Song{}, fmt.Errorf("song %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Song{}, fmt.Errorf("get song %d: %w", id, err)
	}
	return song, nil
}

// SongExists reports whether songbookID already holds a song titled title,
// ignoring the song excludeID (0 excludes nothing).
func (s *Store) SongExists(ctx context.Context, title string, songbookID, excludeID int64) (bool, error) {
	var n int
	err := s.queryRow(ctx,
		`SELECT COUNT(*) FROM songs WHERE title = ? AND songbook_id = ? AND id <> ?`,
		title, songbookID, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("song exists: %w", err)
	}
	return n > 0, nil
}

func affected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
