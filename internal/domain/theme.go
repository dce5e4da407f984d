/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Slide geometry is expressed in EMU (English Metric Units), the native unit
// of the slide-deck format: 914400 per inch, 12700 per point.
const (
	EMUPerInch  int64 = 914400
	EMUPerPoint int64 = 12700
)

// DefaultThemeID is the sentinel id of the single global theme record.
const DefaultThemeID int64 = 1

// Font size bounds accepted for per-song overrides.
const (
	MinFontSize = 10
	MaxFontSize = 100
)

// ErrInvalidTheme is returned by Theme.Validate.
var ErrInvalidTheme = errors.New("invalid theme")

// Color is an opaque RGB color. It marshals as "#RRGGBB".
type Color struct {
	R, G, B uint8
}

// Black is used for transition slides regardless of theme.
var Black = Color{}

// ParseHex parses "#RRGGBB" (the leading # is optional).
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustHex is ParseHex for literals.
func MustHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex renders "#RRGGBB".
func (c Color) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseHex(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Alignment of lyric paragraphs.
type Alignment string

const (
	AlignLeft    Alignment = "LEFT"
	AlignCenter  Alignment = "CENTER"
	AlignRight   Alignment = "RIGHT"
	AlignJustify Alignment = "JUSTIFY"
)

// Alignments lists the accepted values in display order.
var Alignments = []Alignment{AlignLeft, AlignCenter, AlignRight, AlignJustify}

// ParseAlignment accepts any case; unknown values are an error.
func ParseAlignment(s string) (Alignment, error) {
	a := Alignment(strings.ToUpper(strings.TrimSpace(s)))
	switch a {
	case AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return a, nil
	}
	return "", fmt.Errorf("unknown alignment %q", s)
}

// FontStyle is one of the two independent font specs of a theme.
type FontStyle struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Color     Color  `json:"color"`
	Bold      bool   `json:"bold"`
	Italic    bool   `json:"italic"`
	Underline bool   `json:"underline"`
}

// SlidePreset names one of the two supported aspect ratios.
type SlidePreset string

const (
	PresetWidescreen SlidePreset = "16:9"
	PresetStandard   SlidePreset = "4:3"
)

// Size returns the slide dimensions in EMU for the preset.
func (p SlidePreset) Size() (w, h int64) {
	switch p {
	case PresetStandard:
		return 9144000, 6858000
	default:
		return 12192000, 6858000
	}
}

// Theme is the global styling profile applied to generated slides.
type Theme struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	SlideWidth     int64     `json:"slideWidth"`
	SlideHeight    int64     `json:"slideHeight"`
	Background     Color     `json:"background"`
	Title          FontStyle `json:"title"`
	Lyric          FontStyle `json:"lyric"`
	LyricAlignment Alignment `json:"lyricAlignment"`
}

// DefaultTheme is seeded into a fresh repository.
func DefaultTheme() Theme {
	w, h := PresetWidescreen.Size()
	return Theme{
		ID:          DefaultThemeID,
		Name:        "Default",
		SlideWidth:  w,
		SlideHeight: h,
		Background:  MustHex("#000000"),
		Title: FontStyle{
			Name:  "Arial",
			Size:  44,
			Color: MustHex("#FFFF00"),
			Bold:  true,
		},
		Lyric: FontStyle{
			Name:  "Arial",
			Size:  32,
			Color: MustHex("#FFFFFF"),
		},
		LyricAlignment: AlignCenter,
	}
}

// Preset reports the aspect preset; anything wider than 10,000,000 EMU is widescreen.
func (t Theme) Preset() SlidePreset {
	if t.SlideWidth > 10000000 {
		return PresetWidescreen
	}
	return PresetStandard
}

// WithPreset returns a copy of t resized to the preset.
func (t Theme) WithPreset(p SlidePreset) Theme {
	t.SlideWidth, t.SlideHeight = p.Size()
	return t
}

// Validate checks the theme is usable for layout.
func (t Theme) Validate() error {
	switch {
	case t.SlideWidth <= 0 || t.SlideHeight <= 0:
		return fmt.Errorf("%w: slide size %dx%d", ErrInvalidTheme, t.SlideWidth, t.SlideHeight)
	case strings.TrimSpace(t.Title.Name) == "" || t.Title.Size <= 0:
		return fmt.Errorf("%w: title font %q %d", ErrInvalidTheme, t.Title.Name, t.Title.Size)
	case strings.TrimSpace(t.Lyric.Name) == "" || t.Lyric.Size <= 0:
		return fmt.Errorf("%w: lyric font %q %d", ErrInvalidTheme, t.Lyric.Name, t.Lyric.Size)
	}
	if _, err := ParseAlignment(string(t.LyricAlignment)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTheme, err)
	}
	return nil
}

// Override is a session-only per-song font size customization. Zero means unset.
type Override struct {
	Title int `json:"title,omitempty"`
	Lyric int `json:"lyric,omitempty"`
}

// Resolve returns the effective title and lyric sizes for a theme.
func (o Override) Resolve(t Theme) (title, lyric int) {
	title, lyric = t.Title.Size, t.Lyric.Size
	if o.Title > 0 {
		title = o.Title
	}
	if o.Lyric > 0 {
		lyric = o.Lyric
	}
	return title, lyric
}

// ClampFontSize limits v to MinFontSize..MaxFontSize.
func ClampFontSize(v int) int {
	if v < MinFontSize {
		return MinFontSize
	}
	if v > MaxFontSize {
		return MaxFontSize
	}
	return v
}
