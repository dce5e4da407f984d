/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package slides

import (
	"sort"
	"strings"
	"unicode"

	"lyricpresenter/internal/domain"
)

// DefaultMarkers are the stanza prefixes highlighted when none are configured:
// the chorus marker and the first verse number.
var DefaultMarkers = []string{"ĐK.", "1"}

// Run is a span of text sharing one style. A Break run carries no text and
// stands for a line break inside the same paragraph.
type Run struct {
	Text      string
	Font      string
	Size      int
	Color     domain.Color
	Bold      bool
	Italic    bool
	Underline bool
	Break     bool
}

// Style holds the two looks a formatted line can use.
type Style struct {
	Lyric  domain.FontStyle
	Marker domain.FontStyle
}

// StyleFor derives the lyric style at the effective lyric size. Markers take
// the title font name and color but keep the lyric size and emphasis.
func StyleFor(t domain.Theme, lyricSize int) Style {
	lyric := t.Lyric
	lyric.Size = lyricSize
	marker := lyric
	marker.Name = t.Title.Name
	marker.Color = t.Title.Color
	return Style{Lyric: lyric, Marker: marker}
}

// Formatter splits lines into marker and body runs.
type Formatter struct {
	markers []string
}

// NewFormatter returns a formatter for markers, longest first. Blank markers
// are ignored; nil selects DefaultMarkers.
func NewFormatter(markers []string) *Formatter {
	if markers == nil {
		markers = DefaultMarkers
	}
	ms := make([]string, 0, len(markers))
	for _, m := range markers {
		if strings.TrimSpace(m) != "" {
			ms = append(ms, m)
		}
	}
	sort.SliceStable(ms, func(i, j int) bool { return len(ms[i]) > len(ms[j]) })
	return &Formatter{markers: ms}
}

// Markers returns the recognised markers in match order.
func (f *Formatter) Markers() []string { return append([]string(nil), f.markers...) }

// Match reports the marker the left-trimmed line starts with.
func (f *Formatter) Match(line string) (string, bool) {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	for _, m := range f.markers {
		if strings.HasPrefix(trimmed, m) {
			return m, true
		}
	}
	return "", false
}

// FormatLine returns [marker, remainder] when the line starts with a marker
// (leading whitespace before the marker is dropped), otherwise a single run
// with the line unchanged.
func (f *Formatter) FormatLine(line string, st Style) []Run {
	if m, ok := f.Match(line); ok {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		return []Run{
			styled(m, st.Marker),
			styled(trimmed[len(m):], st.Lyric),
		}
	}
	return []Run{styled(line, st.Lyric)}
}

// FormatChunk formats each line of chunk and joins them with Break runs.
func (f *Formatter) FormatChunk(chunk string, st Style) []Run {
	lines := strings.Split(chunk, "\n")
	runs := make([]Run, 0, len(lines)*2)
	for i, line := range lines {
		if i > 0 {
			runs = append(runs, Run{Break: true, Font: st.Lyric.Name, Size: st.Lyric.Size, Color: st.Lyric.Color})
		}
		runs = append(runs, f.FormatLine(line, st)...)
	}
	return runs
}

func styled(text string, fs domain.FontStyle) Run {
	return Run{
		Text: text, Font: fs.Name, Size: fs.Size, Color: fs.Color,
		Bold: fs.Bold, Italic: fs.Italic, Underline: fs.Underline,
	}
}

// PlainText reassembles runs into text, turning breaks back into newlines.
func PlainText(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		if r.Break {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(r.Text)
	}
	return b.String()
}
