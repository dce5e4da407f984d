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

	"lyricpresenter/internal/domain"
)

const themeColumns = `id, name, slide_width, slide_height, bg_color,
	title_font_name, title_font_size, title_font_color, title_font_bold, title_font_italic, title_font_underline,
	lyric_font_name, lyric_font_size, lyric_font_color, lyric_font_bold, lyric_font_italic, lyric_font_underline,
	lyric_alignment`

func (s *Store) ensureDefaultTheme(ctx context.Context) error {
	_, err := s.Theme(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.SaveTheme(ctx, domain.DefaultTheme())
}

// Theme loads the global theme.
func (s *Store) Theme(ctx context.Context) (domain.Theme, error) {
	var (
		t                      domain.Theme
		bg, titleCol, lyricCol string
		align                  string
	)
	err := s.queryRow(ctx, `SELECT `+themeColumns+` FROM themes WHERE id = ?`, domain.DefaultThemeID).Scan(
		&t.ID, &t.Name, &t.SlideWidth, &t.SlideHeight, &bg,
		&t.Title.Name, &t.Title.Size, &titleCol, &t.Title.Bold, &t.Title.Italic, &t.Title.Underline,
		&t.Lyric.Name, &t.Lyric.Size, &lyricCol, &t.Lyric.Bold, &t.Lyric.Italic, &t.Lyric.Underline,
		&align,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Theme{}, fmt.Errorf("theme: %w", ErrNotFound)
	}
	if err != nil {
		return domain.Theme{}, fmt.Errorf("load theme: %w", err)
	}
	for _, c := range []struct {
		dst *domain.Color
		src string
	}{{&t.Background, bg}, {&t.Title.Color, titleCol}, {&t.Lyric.Color, lyricCol}} {
		if *c.dst, err = domain.ParseHex(c.src); err != nil {
			return domain.Theme{}, fmt.Errorf("load theme: %w", err)
		}
	}
	if t.LyricAlignment, err = domain.ParseAlignment(align); err != nil {
		return domain.Theme{}, fmt.Errorf("load theme: %w", err)
	}
	return t, nil
}

// SaveTheme replaces the global theme. The id is always the default theme id.
func (s *Store) SaveTheme(ctx context.Context, t domain.Theme) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.ID = domain.DefaultThemeID
	_, err := s.exec(ctx, `INSERT INTO themes (`+themeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, slide_width = excluded.slide_width, slide_height = excluded.slide_height,
			bg_color = excluded.bg_color,
			title_font_name = excluded.title_font_name, title_font_size = excluded.title_font_size,
			title_font_color = excluded.title_font_color, title_font_bold = excluded.title_font_bold,
			title_font_italic = excluded.title_font_italic, title_font_underline = excluded.title_font_underline,
			lyric_font_name = excluded.lyric_font_name, lyric_font_size = excluded.lyric_font_size,
			lyric_font_color = excluded.lyric_font_color, lyric_font_bold = excluded.lyric_font_bold,
			lyric_font_italic = excluded.lyric_font_italic, lyric_font_underline = excluded.lyric_font_underline,
			lyric_alignment = excluded.lyric_alignment`,
		t.ID, t.Name, t.SlideWidth, t.SlideHeight, t.Background.Hex(),
		t.Title.Name, t.Title.Size, t.Title.Color.Hex(), t.Title.Bold, t.Title.Italic, t.Title.Underline,
		t.Lyric.Name, t.Lyric.Size, t.Lyric.Color.Hex(), t.Lyric.Bold, t.Lyric.Italic, t.Lyric.Underline,
		string(t.LyricAlignment),
	)
	if err != nil {
		return fmt.Errorf("save theme: %w", classify(err))
	}
	return nil
}
