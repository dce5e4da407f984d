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
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// ScreenDPI is the logical resolution of the preview pane.
const ScreenDPI = 96.0

type faceKey struct {
	fd   *FontData
	size float64
}

// ScreenMeasurer measures in device pixels. It also hands out x/image
// opentype faces for rasterising. Hinting is disabled so advances scale
// linearly with size.
type ScreenMeasurer struct {
	Lib *FontLibrary
	DPI float64

	mu    sync.Mutex
	gen   uint64
	faces map[faceKey]font.Face
}

// NewScreenMeasurer returns a pixel measurer at ScreenDPI.
func NewScreenMeasurer(lib *FontLibrary) *ScreenMeasurer {
	if lib == nil {
		lib = NewFontLibrary()
	}
	return &ScreenMeasurer{Lib: lib, DPI: ScreenDPI}
}

func (s *ScreenMeasurer) dpi() float64 {
	if s.DPI <= 0 {
		return ScreenDPI
	}
	return s.DPI
}

// UnitsPerPoint is DPI/72.
func (s *ScreenMeasurer) UnitsPerPoint() float64 { return s.dpi() / 72 }

// Face returns a cached face for font. The face must only be used while
// holding no other reference across a library reload.
func (s *ScreenMeasurer) Face(f Font) (font.Face, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.Lib.Generation(); s.faces == nil || g != s.gen {
		for _, fc := range s.faces {
			_ = fc.Close()
		}
		s.faces = map[faceKey]font.Face{}
		s.gen = g
	}
	fd := s.Lib.Resolve(f)
	if fd == nil {
		return nil, fmt.Errorf("%w: no face for %q", ErrInvalidFont, f.Family)
	}
	k := faceKey{fd: fd, size: f.SizePt}
	if fc, ok := s.faces[k]; ok {
		return fc, nil
	}
	fc, err := opentype.NewFace(fd.Parsed, &opentype.FaceOptions{Size: f.SizePt, DPI: s.dpi(), Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}
	s.faces[k] = fc
	return fc, nil
}

// Measure implements Measurer. Widths come from the shared font-unit
// advances and are scaled to pixels, so line breaks match the document
// measurer exactly.
func (s *ScreenMeasurer) Measure(text string, f Font, maxWidth float64) (Size, error) {
	return measure(s.Lib, text, f, maxWidth, s.UnitsPerPoint())
}
