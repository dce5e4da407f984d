/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// widthGrid is the resolution, in points, that wrap widths are snapped to
// before comparison. Unit conversion noise between back-ends stays far below it.
const widthGrid = 1.0 / 1024

// Width returns the advance width of s in points at sizePt, summed from
// unhinted glyph advances without kerning. Every measurer derives its widths
// from this value, so wrapping never depends on the back-end.
func (fd *FontData) Width(s string, sizePt float64) float64 {
	upem := float64(fd.Parsed.UnitsPerEm())
	if upem <= 0 {
		upem = 1000
	}
	return float64(fd.widthUnits(s)) / 64 * sizePt / upem
}

func (fd *FontData) widthUnits(s string) fixed.Int26_6 {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if fd.glyphs == nil {
		fd.glyphs = map[rune]fixed.Int26_6{}
	}
	ppem := fixed.I(int(fd.Parsed.UnitsPerEm()))
	var total fixed.Int26_6
	for _, r := range s {
		adv, ok := fd.glyphs[r]
		if !ok {
			adv = fd.advance(r, ppem)
			fd.glyphs[r] = adv
		}
		total += adv
	}
	return total
}

// advance returns the advance of r in font units. Missing runes use glyph 0,
// like the rasteriser.
func (fd *FontData) advance(r rune, ppem fixed.Int26_6) fixed.Int26_6 {
	idx, err := fd.Parsed.GlyphIndex(&fd.buf, r)
	if err != nil {
		idx = 0
	}
	adv, err := fd.Parsed.GlyphAdvance(&fd.buf, idx, ppem, font.HintingNone)
	if err != nil {
		return 0
	}
	return adv
}

func snapPoints(v float64) float64 {
	return math.Round(v/widthGrid) * widthGrid
}

// measure is the Measure body shared by both back-ends. Wrapping runs in
// points against the snapped box width; only the result is scaled by upp.
func measure(lib *FontLibrary, text string, f Font, maxWidth, upp float64) (Size, error) {
	if err := f.Validate(); err != nil {
		return Size{}, err
	}
	if err := checkWidth(maxWidth); err != nil {
		return Size{}, err
	}
	fd := lib.Resolve(f)
	if fd == nil {
		return Size{}, fmt.Errorf("%w: no face for %q", ErrInvalidFont, f.Family)
	}
	lines := Wrap(text, snapPoints(maxWidth/upp), func(s string) float64 { return fd.Width(s, f.SizePt) })
	var w float64
	for _, l := range lines {
		w = math.Max(w, l.Width)
	}
	return Size{Width: w * upp, Height: float64(len(lines)) * LineHeight(f, upp)}, nil
}
