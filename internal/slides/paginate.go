/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package slides turns songs into slide decks: it paginates lyrics against a
// measurement back-end, styles marker prefixes as separate runs, and lays the
// result out on title and lyric slides.
package slides

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"lyricpresenter/internal/textlayout"
)

// Box is a pagination bounding box in the measurer's unit.
type Box struct {
	Width  float64
	Height float64
}

func (b Box) validate() error {
	for _, v := range []float64{b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: %vx%v", textlayout.ErrInvalidBox, b.Width, b.Height)
		}
	}
	return nil
}

// heightEpsilon is a relative tolerance that absorbs float noise from unit
// conversion, so a buffer exactly as tall as the box fits in both back-ends.
const heightEpsilon = 1e-9

// normalize turns CRLF and lone CR into LF.
func normalize(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Paginate splits lyrics into chunks that each fit box when measured with m.
// Lines are never broken: a line taller than the box gets a chunk of its own.
// Blank lines are kept as stanza boundaries. Empty input yields [""].
func Paginate(m textlayout.Measurer, lyrics string, font textlayout.Font, box Box) ([]string, error) {
	if err := font.Validate(); err != nil {
		return nil, err
	}
	if err := box.validate(); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(normalize(lyrics))
	if text == "" {
		return []string{""}, nil
	}

	var (
		chunks []string
		buf    []string
	)
	for _, line := range strings.Split(text, "\n") {
		candidate := append(buf[:len(buf):len(buf)], line)
		size, err := m.Measure(strings.Join(candidate, "\n"), font, box.Width)
		if err != nil {
			return nil, fmt.Errorf("measure: %w", err)
		}
		if size.Height > box.Height*(1+heightEpsilon) && len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, "\n"))
			buf = []string{line}
			continue
		}
		buf = candidate
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, "\n"))
	}
	if len(chunks) == 0 {
		return []string{""}, nil
	}
	return chunks, nil
}

// SplitForTitle paginates for a title slide: first is the chunk that fits the
// reduced firstBox, rest is the remainder paginated against fullBox. The
// remainder is the text after exactly the characters of first, with leading
// whitespace removed. rest is empty when first consumed everything.
func SplitForTitle(m textlayout.Measurer, lyrics string, font textlayout.Font, firstBox, fullBox Box) (first string, rest []string, err error) {
	if err := fullBox.validate(); err != nil {
		return "", nil, err
	}
	text := strings.TrimSpace(normalize(lyrics))
	pages, err := Paginate(m, text, font, firstBox)
	if err != nil {
		return "", nil, err
	}
	first = pages[0]
	if !strings.HasPrefix(text, first) {
		return "", nil, fmt.Errorf("pagination: first chunk is not a prefix of the lyrics")
	}
	remainder := strings.TrimLeftFunc(text[len(first):], unicode.IsSpace)
	if remainder == "" {
		return first, nil, nil
	}
	rest, err = Paginate(m, remainder, font, fullBox)
	if err != nil {
		return "", nil, err
	}
	return first, rest, nil
}
