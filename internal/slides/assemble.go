/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package slides

import (
	"fmt"
	"log/slog"
	"strings"

	"lyricpresenter/internal/domain"
	applog "lyricpresenter/internal/log"
	"lyricpresenter/internal/textlayout"
)

// TitleBand is the height of the title region on a title slide (1 inch).
const TitleBand = domain.EMUPerInch

// boxFactor leaves a margin between the pagination box and the text region,
// since the rendering engine adds its own insets.
const boxFactor = 0.9

// Kind tells title, lyric and transition slides apart.
type Kind int

const (
	KindTitle Kind = iota
	KindLyrics
	KindTransition
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindLyrics:
		return "lyrics"
	case KindTransition:
		return "transition"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Rect is an absolute position in EMU.
type Rect struct {
	X, Y, W, H int64
}

// Region is a positioned text box.
type Region struct {
	Rect  Rect
	Align domain.Alignment
	Runs  []Run
}

// Slide is one page of the deck.
type Slide struct {
	Kind       Kind
	SongID     int64
	Background domain.Color
	Regions    []Region
}

// Deck is the assembled presentation, sized in EMU.
type Deck struct {
	Width  int64
	Height int64
	Slides []Slide
}

// Assembler lays songs out on slides. The Measurer decides the unit the
// pagination boxes are expressed in, so the same Assembler code serves the
// preview (pixels) and the export (points).
type Assembler struct {
	Measurer  textlayout.Measurer
	Formatter *Formatter
}

// NewAssembler returns an assembler; a nil formatter uses DefaultMarkers.
func NewAssembler(m textlayout.Measurer, f *Formatter) *Assembler {
	if f == nil {
		f = NewFormatter(nil)
	}
	return &Assembler{Measurer: m, Formatter: f}
}

// Boxes returns the title-slide and full-slide pagination boxes for theme in
// the measurer's unit.
func (a *Assembler) Boxes(t domain.Theme) (first, full Box) {
	toUnits := func(emu int64) float64 {
		return float64(emu) / float64(domain.EMUPerPoint) * a.Measurer.UnitsPerPoint()
	}
	w := toUnits(t.SlideWidth) * boxFactor
	first = Box{Width: w, Height: toUnits(t.SlideHeight-TitleBand) * boxFactor}
	full = Box{Width: w, Height: toUnits(t.SlideHeight) * boxFactor}
	return first, full
}

// Assemble builds the deck for songs in order, with a black transition slide
// between consecutive songs.
func (a *Assembler) Assemble(songs []domain.Song, t domain.Theme, overrides map[int64]domain.Override) (Deck, error) {
	l := applog.WithOperation(applog.WithComponent("slides"), "assemble").With(slog.Int("songs", len(songs)))
	if err := t.Validate(); err != nil {
		return Deck{}, err
	}
	deck := Deck{Width: t.SlideWidth, Height: t.SlideHeight}
	for i, s := range songs {
		ss, err := a.SongSlides(s, t, overrides[s.ID])
		if err != nil {
			l.Error("song layout failed", slog.Int64("song_id", s.ID), slog.Any("err", err))
			return Deck{}, fmt.Errorf("song %q: %w", s.Title, err)
		}
		deck.Slides = append(deck.Slides, ss...)
		if i < len(songs)-1 {
			deck.Slides = append(deck.Slides, Slide{Kind: KindTransition, SongID: s.ID, Background: domain.Black})
		}
	}
	l.Debug("deck assembled", slog.Int("slides", len(deck.Slides)))
	return deck, nil
}

// SongSlides lays out one song: a title slide carrying the first lyric chunk,
// then one slide per remaining non-blank chunk.
func (a *Assembler) SongSlides(s domain.Song, t domain.Theme, ov domain.Override) ([]Slide, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	titleSize, lyricSize := ov.Resolve(t)
	font := textlayout.Font{Family: t.Lyric.Name, SizePt: float64(lyricSize), Bold: t.Lyric.Bold, Italic: t.Lyric.Italic}
	firstBox, fullBox := a.Boxes(t)
	first, rest, err := SplitForTitle(a.Measurer, s.Lyrics, font, firstBox, fullBox)
	if err != nil {
		return nil, err
	}

	st := StyleFor(t, lyricSize)
	titleStyle := t.Title
	titleStyle.Size = titleSize

	title := Slide{Kind: KindTitle, SongID: s.ID, Background: t.Background}
	title.Regions = append(title.Regions, Region{
		Rect:  Rect{W: t.SlideWidth, H: TitleBand},
		Align: domain.AlignCenter,
		Runs:  []Run{styled(s.Title, titleStyle)},
	})
	if strings.TrimSpace(first) != "" {
		title.Regions = append(title.Regions, Region{
			Rect:  Rect{Y: TitleBand, W: t.SlideWidth, H: t.SlideHeight - TitleBand},
			Align: t.LyricAlignment,
			Runs:  a.Formatter.FormatChunk(first, st),
		})
	}
	out := []Slide{title}
	for _, chunk := range rest {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		out = append(out, Slide{
			Kind:       KindLyrics,
			SongID:     s.ID,
			Background: t.Background,
			Regions: []Region{{
				Rect:  Rect{W: t.SlideWidth, H: t.SlideHeight},
				Align: t.LyricAlignment,
				Runs:  a.Formatter.FormatChunk(chunk, st),
			}},
		})
	}
	return out, nil
}
