/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package slides

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"lyricpresenter/internal/domain"
	"lyricpresenter/internal/textlayout"
)

func sixLines(prefix string) string {
	var lines []string
	for i := 1; i <= 6; i++ {
		lines = append(lines, prefix+" line")
	}
	return strings.Join(lines, "\n")
}

func TestAssemble_TwoSongsYieldFiveSlides(t *testing.T) {
	th := domain.DefaultTheme()
	th.Background = domain.MustHex("#203040")
	songs := []domain.Song{
		{ID: 1, Title: "First", Lyrics: sixLines("a")},
		{ID: 2, Title: "Second", Lyrics: sixLines("b")},
	}
	a := NewAssembler(&lineMeasurer{}, nil)
	deck, err := a.Assemble(songs, th, nil)
	if err != nil {
		t.Fatal(err)
	}
	if deck.Width != th.SlideWidth || deck.Height != th.SlideHeight {
		t.Fatalf("deck size %dx%d", deck.Width, deck.Height)
	}
	var kinds []Kind
	for _, s := range deck.Slides {
		kinds = append(kinds, s.Kind)
	}
	want := []Kind{KindTitle, KindLyrics, KindTransition, KindTitle, KindLyrics}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("kinds=%v want %v", kinds, want)
	}
	tr := deck.Slides[2]
	if tr.Background != domain.Black || len(tr.Regions) != 0 {
		t.Fatalf("transition slide must be black and empty: %+v", tr)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if deck.Slides[i].Background != th.Background {
			t.Fatalf("slide %d background %v", i, deck.Slides[i].Background)
		}
	}
}

func TestAssemble_RegionsAndOverrides(t *testing.T) {
	th := domain.DefaultTheme()
	th.LyricAlignment = domain.AlignLeft
	song := domain.Song{ID: 7, Title: "Amazing Grace", Lyrics: "ĐK. Amazing grace\nhow sweet"}
	a := NewAssembler(&lineMeasurer{}, nil)
	deck, err := a.Assemble([]domain.Song{song}, th, map[int64]domain.Override{7: {Title: 60, Lyric: 20}})
	if err != nil {
		t.Fatal(err)
	}
	if len(deck.Slides) != 1 {
		t.Fatalf("expected a single title slide, got %d", len(deck.Slides))
	}
	s := deck.Slides[0]
	if len(s.Regions) != 2 {
		t.Fatalf("expected title and lyric regions, got %d", len(s.Regions))
	}
	title, lyric := s.Regions[0], s.Regions[1]
	if title.Rect != (Rect{W: th.SlideWidth, H: TitleBand}) || title.Align != domain.AlignCenter {
		t.Fatalf("title region %+v", title)
	}
	if len(title.Runs) != 1 || title.Runs[0].Text != "Amazing Grace" || title.Runs[0].Size != 60 || !title.Runs[0].Bold {
		t.Fatalf("title runs %+v", title.Runs)
	}
	if lyric.Rect != (Rect{Y: TitleBand, W: th.SlideWidth, H: th.SlideHeight - TitleBand}) || lyric.Align != domain.AlignLeft {
		t.Fatalf("lyric region %+v", lyric)
	}
	if lyric.Runs[0].Text != "ĐK." || lyric.Runs[0].Color != th.Title.Color || lyric.Runs[0].Size != 20 {
		t.Fatalf("marker run %+v", lyric.Runs[0])
	}
	if PlainText(lyric.Runs) != song.Lyrics {
		t.Fatalf("lyric text %q", PlainText(lyric.Runs))
	}
}

func TestSongSlides_EmptyLyricsOnlyTitle(t *testing.T) {
	a := NewAssembler(&lineMeasurer{}, nil)
	ss, err := a.SongSlides(domain.Song{ID: 1, Title: "Silence"}, domain.DefaultTheme(), domain.Override{})
	if err != nil {
		t.Fatal(err)
	}
	if len(ss) != 1 || len(ss[0].Regions) != 1 {
		t.Fatalf("expected one slide with only the title region: %+v", ss)
	}
}

func TestSongSlides_SkipsBlankChunks(t *testing.T) {
	// every line fills a slide, so the blank stanza line becomes its own chunk
	th := domain.DefaultTheme()
	a := NewAssembler(&bigMeasurer{}, nil)
	ss, err := a.SongSlides(domain.Song{ID: 1, Title: "T", Lyrics: "one\ntwo\n\nthree"}, th, domain.Override{})
	if err != nil {
		t.Fatal(err)
	}
	var texts []string
	for _, s := range ss[1:] {
		texts = append(texts, PlainText(s.Regions[0].Runs))
	}
	if !reflect.DeepEqual(texts, []string{"two", "three"}) {
		t.Fatalf("texts=%q", texts)
	}
}

// bigMeasurer makes every line exactly one box tall.
type bigMeasurer struct{}

func (bigMeasurer) Measure(text string, f textlayout.Font, w float64) (textlayout.Size, error) {
	return textlayout.Size{Width: 1, Height: float64(strings.Count(text, "\n")+1) * 400}, nil
}
func (bigMeasurer) UnitsPerPoint() float64 { return 1 }

func TestAssemble_InvalidThemeFails(t *testing.T) {
	th := domain.DefaultTheme()
	th.Lyric.Size = 0
	_, err := NewAssembler(&lineMeasurer{}, nil).Assemble([]domain.Song{{ID: 1, Title: "x", Lyrics: "y"}}, th, nil)
	if !errors.Is(err, domain.ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
}

func TestBoxes_ScaleWithMeasurerUnits(t *testing.T) {
	th := domain.DefaultTheme()
	first, full := NewAssembler(&lineMeasurer{}, nil).Boxes(th)
	if math.Abs(first.Height-421.2) > 1e-9 || math.Abs(full.Height-486) > 1e-9 || math.Abs(full.Width-864) > 1e-9 {
		t.Fatalf("point boxes first=%+v full=%+v", first, full)
	}
	screen := textlayout.NewScreenMeasurer(nil)
	sf, _ := NewAssembler(screen, nil).Boxes(th)
	if math.Abs(sf.Height-first.Height*screen.UnitsPerPoint()) > 1e-9 {
		t.Fatalf("screen box %+v", sf)
	}
}

func TestPreviewAndExportAgreeOnSlideBoundaries(t *testing.T) {
	lib := textlayout.NewFontLibrary()
	th := domain.DefaultTheme()
	var lines []string
	for i := 0; i < 30; i++ {
		if i%5 == 4 {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, "Sing to the Lord")
	}
	song := domain.Song{ID: 3, Title: "Psalm", Lyrics: strings.Join(lines, "\n")}
	for _, size := range []int{24, 32, 48, 72} {
		ov := domain.Override{Lyric: size}
		screen, err := NewAssembler(textlayout.NewScreenMeasurer(lib), nil).SongSlides(song, th, ov)
		if err != nil {
			t.Fatal(err)
		}
		doc, err := NewAssembler(textlayout.NewDocumentMeasurer(lib), nil).SongSlides(song, th, ov)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(screen, doc) {
			t.Fatalf("size %d: preview and export slides differ (%d vs %d slides)", size, len(screen), len(doc))
		}
	}
}

func assertSameSlides(t *testing.T, lib *textlayout.FontLibrary, song domain.Song, th domain.Theme, ov domain.Override) {
	t.Helper()
	screen, err := NewAssembler(textlayout.NewScreenMeasurer(lib), nil).SongSlides(song, th, ov)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := NewAssembler(textlayout.NewDocumentMeasurer(lib), nil).SongSlides(song, th, ov)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(screen, doc) {
		t.Fatalf("song %d size %d: preview has %d slides, export has %d", song.ID, ov.Lyric, len(screen), len(doc))
	}
}

// nearLimitLine builds a line from words whose width at size lands just under
// the pagination box width.
func nearLimitLine(lib *textlayout.FontLibrary, th domain.Theme, size int, words []string, start int) string {
	f := textlayout.Font{Family: th.Lyric.Name, SizePt: float64(size), Bold: th.Lyric.Bold, Italic: th.Lyric.Italic}
	fd := lib.Resolve(f)
	_, full := NewAssembler(textlayout.NewDocumentMeasurer(lib), nil).Boxes(th)
	line := words[start%len(words)]
	for i := start + 1; ; i++ {
		next := line + " " + words[i%len(words)]
		if fd.Width(next, f.SizePt) > full.Width {
			return line
		}
		line = next
	}
}

func TestPreviewAndExportAgreeOnNearLimitLines(t *testing.T) {
	lib := textlayout.NewFontLibrary()
	th := domain.DefaultTheme()
	repeated := strings.Repeat("yêu tình AVAST tình dâng bao amen lên của la người amen\n", 12)
	assertSameSlides(t, lib, domain.Song{ID: 1, Title: "Tình yêu", Lyrics: repeated}, th, domain.Override{})

	words := strings.Fields("yêu tình AVAST dâng bao amen lên của la người Wave AWAY Tỷ fly ffi WAVE")
	for _, size := range []int{18, 24, 36, 40, 54, 72} {
		var lines []string
		for i := 0; i < 24; i++ {
			lines = append(lines, nearLimitLine(lib, th, size, words, i))
		}
		song := domain.Song{ID: int64(size), Title: "Near", Lyrics: strings.Join(lines, "\n")}
		assertSameSlides(t, lib, song, th, domain.Override{Lyric: size})
	}
}

func TestPreviewAndExportAgreeOnRandomCorpus(t *testing.T) {
	if testing.Short() {
		t.Skip("long corpus")
	}
	lib := textlayout.NewFontLibrary()
	th := domain.DefaultTheme()
	vocab := strings.Fields("amazing grace how sweet the sound that saved a wretch like me " +
		"yêu tình dâng bao amen lên của la người Chúa ơi AVAST WAVE Tỷ ffi - « » 1. 2. Chorus: Bridge:")
	rng := rand.New(rand.NewPCG(7, 11))
	sizes := []int{20, 28, 32, 40, 48, 60}
	for n := 0; n < 400; n++ {
		var lines []string
		for i := 0; i < 30; i++ {
			if rng.IntN(8) == 0 {
				lines = append(lines, "")
				continue
			}
			words := make([]string, 2+rng.IntN(14))
			for j := range words {
				words[j] = vocab[rng.IntN(len(vocab))]
			}
			lines = append(lines, strings.Join(words, " "))
		}
		song := domain.Song{ID: int64(n), Title: fmt.Sprintf("Song %d", n), Lyrics: strings.Join(lines, "\n")}
		assertSameSlides(t, lib, song, th, domain.Override{Lyric: sizes[n%len(sizes)]})
	}
}
