/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout isolates text measurement behind a small interface with
// two back-ends: screen pixels and document points. Both wrap in points from
// the same glyph advances of the same FontData, so they only differ in the
// unit of the numbers they return.
package textlayout

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// LineSpacing is the line height as a multiple of the font size.
const LineSpacing = 1.2

var (
	// ErrInvalidFont reports an empty family or a non-positive size.
	ErrInvalidFont = errors.New("invalid font spec")
	// ErrInvalidBox reports a non-finite or non-positive measurement width or height.
	ErrInvalidBox = errors.New("invalid bounding box")
)

// Font describes a requested font.
type Font struct {
	Family string
	SizePt float64
	Bold   bool
	Italic bool
}

// Validate rejects fonts the measurers cannot lay out.
func (f Font) Validate() error {
	if strings.TrimSpace(f.Family) == "" {
		return fmt.Errorf("%w: empty family", ErrInvalidFont)
	}
	if math.IsNaN(f.SizePt) || math.IsInf(f.SizePt, 0) || f.SizePt <= 0 {
		return fmt.Errorf("%w: size %v", ErrInvalidFont, f.SizePt)
	}
	return nil
}

// Size is a measured bounding size in the measurer's unit.
type Size struct {
	Width  float64
	Height float64
}

// Measurer answers how much room word-wrapped text occupies.
// Implementations are deterministic and monotonic: adding lines or characters
// never decreases the measured height.
type Measurer interface {
	Measure(text string, font Font, maxWidth float64) (Size, error)
	// UnitsPerPoint converts typographic points into the measurer's unit.
	UnitsPerPoint() float64
}

// Line is one wrapped line.
type Line struct {
	Text  string
	Width float64
}

// Wrap breaks text on explicit newlines and then greedily on spaces so that
// no line exceeds maxWidth. A single word wider than maxWidth stays on its own
// line. Every paragraph, including an empty one, yields at least one line.
func Wrap(text string, maxWidth float64, advance func(string) float64) []Line {
	paras := strings.Split(text, "\n")
	lines := make([]Line, 0, len(paras))
	for _, p := range paras {
		words := strings.Fields(p)
		if len(words) == 0 {
			lines = append(lines, Line{})
			continue
		}
		cur := words[0]
		curW := advance(cur)
		for _, w := range words[1:] {
			cand := cur + " " + w
			cw := advance(cand)
			if cw > maxWidth {
				lines = append(lines, Line{Text: cur, Width: curW})
				cur, curW = w, advance(w)
				continue
			}
			cur, curW = cand, cw
		}
		lines = append(lines, Line{Text: cur, Width: curW})
	}
	return lines
}

// LineHeight returns the height of one line for font in a unit with upp units per point.
func LineHeight(font Font, upp float64) float64 {
	return font.SizePt * LineSpacing * upp
}

func checkWidth(maxWidth float64) error {
	if math.IsNaN(maxWidth) || math.IsInf(maxWidth, 0) || maxWidth <= 0 {
		return fmt.Errorf("%w: width %v", ErrInvalidBox, maxWidth)
	}
	return nil
}
