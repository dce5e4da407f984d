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
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"lyricpresenter/internal/domain"
)

// Field selects the column a search keyword is matched against.
type Field string

const (
	FieldTitle  Field = "title"
	FieldLyrics Field = "lyrics"
	FieldNumber Field = "number"
	FieldPage   Field = "page"
)

// Fields lists the searchable fields in menu order.
var Fields = []Field{FieldTitle, FieldLyrics, FieldNumber, FieldPage}

// ParseField accepts a field name in any case; empty means title.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FieldTitle, nil
	}
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: search field %q", ErrInvalid, s)
}

// SearchQuery describes a library search.
// Title and lyrics match case-insensitively anywhere in the text; number and
// page require an integer keyword and match exactly. SongbookID 0 searches
// every songbook. An empty keyword lists everything in scope.
type SearchQuery struct {
	Keyword    string
	SongbookID int64
	Field      Field
}

// SearchSongs returns the songbooks (by name) that hold matching songs (by
// title). Songbooks without matches are left out.
func (s *Store) SearchSongs(ctx context.Context, q SearchQuery) ([]domain.Songbook, error) {
	l := s.l.With(slog.String("op", "search"), slog.String("field", string(q.Field)))
	field := q.Field
	if field == "" {
		field = FieldTitle
	}
	var (
		args []any
		sb   strings.Builder
	)
	sb.WriteString("SELECT " + songColumns + " FROM songs WHERE 1=1")
	if q.SongbookID != 0 {
		sb.WriteString(" AND songbook_id = ?")
		args = append(args, q.SongbookID)
	}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		switch field {
		case FieldTitle, FieldLyrics:
			sb.WriteString(" AND lower(" + string(field) + `) LIKE ? ESCAPE '\'`)
			args = append(args, likeContains(strings.ToLower(kw)))
		case FieldNumber, FieldPage:
			n, err := strconv.Atoi(kw)
			if err != nil {
				l.Debug("non-numeric keyword for numeric field", slog.String("keyword", kw))
				return nil, nil
			}
			sb.WriteString(" AND " + string(field) + " = ?")
			args = append(args, n)
		default:
			return nil, fmt.Errorf("%w: search field %q", ErrInvalid, field)
		}
	}
	sb.WriteString(" ORDER BY title, id")

	songs, err := s.querySongs(ctx, sb.String(), args...)
	if err != nil {
		l.Error("search failed", slog.Any("err", err))
		return nil, fmt.Errorf("search songs: %w", err)
	}
	books, err := s.songbooks(ctx)
	if err != nil {
		return nil, err
	}
	return group(books, songs, true), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeContains(s string) string { return "%" + likeEscaper.Replace(s) + "%" }
