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

	"github.com/jung-kurt/gofpdf"
)

// documentFontCheck decides whether a face may enter the library. It is a
// variable so tests can stand in for fonts the engine refuses.
var documentFontCheck = checkDocumentFont

// checkDocumentFont loads data into a scratch gofpdf engine. gofpdf reports a
// failed parse only by leaving the family undefined, so the check selects the
// family afterwards and reads the sticky error.
func checkDocumentFont(family string, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s rejected by document engine: %v", ErrInvalidFont, family, r)
		}
	}()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 960, Ht: 540}})
	pdf.AddUTF8FontFromBytes("lpcheck", "", data)
	pdf.SetFont("lpcheck", "", 12)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("%w: %s rejected by document engine: %v", ErrInvalidFont, family, err)
	}
	return nil
}

// DocumentMeasurer measures in typographic points, the unit the slide deck
// is laid out in.
type DocumentMeasurer struct {
	Lib *FontLibrary
}

// NewDocumentMeasurer returns a point-unit measurer.
func NewDocumentMeasurer(lib *FontLibrary) *DocumentMeasurer {
	if lib == nil {
		lib = NewFontLibrary()
	}
	return &DocumentMeasurer{Lib: lib}
}

// UnitsPerPoint is 1.
func (d *DocumentMeasurer) UnitsPerPoint() float64 { return 1 }

// Measure implements Measurer.
func (d *DocumentMeasurer) Measure(text string, f Font, maxWidth float64) (Size, error) {
	return measure(d.Lib, text, f, maxWidth, 1)
}
