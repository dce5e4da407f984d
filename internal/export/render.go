/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"lyricpresenter/internal/domain"
	"lyricpresenter/internal/slides"
	"lyricpresenter/internal/storage"
	"lyricpresenter/internal/textlayout"
)

// fragment is a piece of a word in one style. Words are sequences of
// fragments with no space between them, which keeps "1." together even when
// the marker and the body are separate runs.
type fragment struct {
	text  string
	run   slides.Run
	face  font.Face
	width fixed.Int26_6
}

type word []fragment

func (w word) width() fixed.Int26_6 {
	var t fixed.Int26_6
	for _, f := range w {
		t += f.width
	}
	return t
}

type line struct {
	words  []word
	width  fixed.Int26_6
	height int // pixels
	ascent int
	last   bool // ends its paragraph
}

// Renderer rasterises slides for the preview pane using the screen measurer's
// fonts.
type Renderer struct {
	Fonts *textlayout.ScreenMeasurer
}

// RenderSlide draws s at pixelWidth wide, keeping the deck's aspect ratio.
func (r Renderer) RenderSlide(s slides.Slide, deckW, deckH int64, pixelWidth int) (*image.RGBA, error) {
	if deckW <= 0 || deckH <= 0 || pixelWidth <= 0 {
		return nil, fmt.Errorf("invalid render size %dx%d at %dpx", deckW, deckH, pixelWidth)
	}
	scale := float64(pixelWidth) / float64(deckW) // pixels per EMU
	pixH := int(math.Round(float64(deckH) * scale))
	img := image.NewRGBA(image.Rect(0, 0, pixelWidth, pixH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: toRGBA(s.Background)}, image.Point{}, draw.Src)

	for _, reg := range s.Regions {
		if err := r.drawRegion(img, reg, scale); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func (r Renderer) face(run slides.Run, scale float64) (font.Face, error) {
	// the measurer's faces are sized for its DPI; pick a point size that
	// lands on the requested size in deck pixels
	px := float64(run.Size) * float64(domain.EMUPerPoint) * scale
	pt := px / r.Fonts.UnitsPerPoint()
	return r.Fonts.Face(textlayout.Font{Family: run.Font, SizePt: pt, Bold: run.Bold, Italic: run.Italic})
}

func (r Renderer) drawRegion(img *image.RGBA, reg slides.Region, scale float64) error {
	x0 := int(math.Round(float64(reg.Rect.X+insetX) * scale))
	y0 := int(math.Round(float64(reg.Rect.Y+insetY) * scale))
	maxW := fixed.I(int(math.Round(float64(reg.Rect.W-2*insetX) * scale)))

	lines, err := r.layout(reg.Runs, maxW, scale)
	if err != nil {
		return err
	}
	y := y0
	for _, ln := range lines {
		x := fixed.I(x0)
		var stretch, rem fixed.Int26_6
		switch reg.Align {
		case domain.AlignCenter:
			x += (maxW - ln.width) / 2
		case domain.AlignRight:
			x += maxW - ln.width
		case domain.AlignJustify:
			stretch, rem = justifyGaps(ln, maxW)
		}
		baseline := y + ln.ascent
		for wi, w := range ln.words {
			if wi > 0 {
				x += spaceWidth(ln.words[wi-1]) + stretch
				if rem > 0 {
					x++
					rem--
				}
			}
			for _, f := range w {
				d := font.Drawer{Dst: img, Src: image.NewUniform(toRGBA(f.run.Color)), Face: f.face, Dot: fixed.Point26_6{X: x, Y: fixed.I(baseline)}}
				d.DrawString(f.text)
				if f.run.Underline {
					thick := max(1, ln.height/20)
					fillRect(img, x.Round(), baseline+thick, (x + f.width).Round(), baseline+2*thick, toRGBA(f.run.Color))
				}
				x += f.width
			}
		}
		y += ln.height
	}
	return nil
}

// justifyGaps spreads the free width of ln over its word gaps. The last line
// of a paragraph and single-word lines stay left aligned. rem is the number
// of 1/64px units left over for the leading gaps.
func justifyGaps(ln line, maxW fixed.Int26_6) (gap, rem fixed.Int26_6) {
	gaps := fixed.Int26_6(len(ln.words) - 1)
	free := maxW - ln.width
	if ln.last || gaps <= 0 || free <= 0 {
		return 0, 0
	}
	return free / gaps, free % gaps
}

func spaceWidth(prev word) fixed.Int26_6 {
	last := prev[len(prev)-1]
	return font.MeasureString(last.face, " ")
}

// layout splits runs into wrapped lines.
func (r Renderer) layout(runs []slides.Run, maxW fixed.Int26_6, scale float64) ([]line, error) {
	var (
		lines   []line
		words   []word
		cur     word
		blankFS slides.Run
	)
	flushWord := func() {
		if len(cur) > 0 {
			words = append(words, cur)
			cur = nil
		}
	}
	flushPara := func() error {
		flushWord()
		if len(words) == 0 {
			face, err := r.face(blankFS, scale)
			if err != nil {
				return err
			}
			lines = append(lines, emptyLine(face))
			return nil
		}
		lines = append(lines, wrap(words, maxW)...)
		words = nil
		return nil
	}
	for _, run := range runs {
		blankFS = run
		if run.Break {
			if err := flushPara(); err != nil {
				return nil, err
			}
			continue
		}
		face, err := r.face(run, scale)
		if err != nil {
			return nil, err
		}
		for _, tok := range splitKeepSpaces(run.Text) {
			if strings.TrimFunc(tok, unicode.IsSpace) == "" {
				flushWord()
				continue
			}
			cur = append(cur, fragment{text: tok, run: run, face: face, width: font.MeasureString(face, tok)})
		}
	}
	if len(runs) > 0 {
		if err := flushPara(); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

func emptyLine(face font.Face) line {
	m := face.Metrics()
	return line{height: lineHeight(m), ascent: m.Ascent.Ceil(), last: true}
}

func lineHeight(m font.Metrics) int {
	return int(math.Ceil(float64(m.Height) / 64 * 1.2))
}

func wrap(words []word, maxW fixed.Int26_6) []line {
	var (
		out []line
		cur line
	)
	add := func(w word) {
		if len(cur.words) > 0 {
			cur.width += spaceWidth(cur.words[len(cur.words)-1])
		}
		cur.words = append(cur.words, w)
		cur.width += w.width()
		for _, f := range w {
			m := f.face.Metrics()
			cur.height = max(cur.height, lineHeight(m))
			cur.ascent = max(cur.ascent, m.Ascent.Ceil())
		}
	}
	for _, w := range words {
		if len(cur.words) > 0 {
			next := cur.width + spaceWidth(cur.words[len(cur.words)-1]) + w.width()
			if next > maxW {
				out = append(out, cur)
				cur = line{}
			}
		}
		add(w)
	}
	if len(cur.words) > 0 {
		cur.last = true
		out = append(out, cur)
	}
	return out
}

// splitKeepSpaces cuts s into alternating runs of space and non-space text.
func splitKeepSpaces(s string) []string {
	var (
		out   []string
		start int
	)
	var prevSpace bool
	for i, r := range s {
		sp := unicode.IsSpace(r)
		if i > 0 && sp != prevSpace {
			out = append(out, s[start:i])
			start = i
		}
		prevSpace = sp
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func toRGBA(c domain.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	draw.Draw(img, image.Rect(x0, y0, x1, y1), &image.Uniform{C: col}, image.Point{}, draw.Src)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WritePNG writes img to path atomically.
func WritePNG(path string, img image.Image) error {
	return storage.WriteFileAtomic(path, func(w io.Writer) error { return EncodePNG(w, img) })
}
