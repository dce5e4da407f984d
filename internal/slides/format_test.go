/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package slides

import (
	"reflect"
	"testing"

	"lyricpresenter/internal/domain"
)

func testStyle() Style {
	return StyleFor(domain.DefaultTheme(), 30)
}

func TestFormatLine_MarkerSplitsIntoTwoRuns(t *testing.T) {
	f := NewFormatter(nil)
	st := testStyle()
	runs := f.FormatLine("ĐK. Hallelujah", st)
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d: %+v", len(runs), runs)
	}
	if runs[0].Text != "ĐK." || runs[1].Text != " Hallelujah" {
		t.Fatalf("unexpected texts %q %q", runs[0].Text, runs[1].Text)
	}
	th := domain.DefaultTheme()
	if runs[0].Font != th.Title.Name || runs[0].Color != th.Title.Color {
		t.Fatalf("marker must use title font and color: %+v", runs[0])
	}
	if runs[0].Size != 30 || runs[0].Bold != th.Lyric.Bold {
		t.Fatalf("marker must keep lyric size and weight: %+v", runs[0])
	}
	if runs[1].Color != th.Lyric.Color || runs[1].Size != 30 {
		t.Fatalf("body must use lyric style: %+v", runs[1])
	}
}

func TestFormatLine_NoMarkerKeepsText(t *testing.T) {
	f := NewFormatter(nil)
	for _, line := range []string{"  Amazing grace", "", "Verse 1"} {
		runs := f.FormatLine(line, testStyle())
		if len(runs) != 1 || runs[0].Text != line {
			t.Fatalf("%q: expected single unchanged run, got %+v", line, runs)
		}
	}
}

func TestFormatLine_LeadingWhitespaceAndLongestFirst(t *testing.T) {
	f := NewFormatter([]string{"1", "10", "  "})
	if got := f.Markers(); !reflect.DeepEqual(got, []string{"10", "1"}) {
		t.Fatalf("markers=%q", got)
	}
	runs := f.FormatLine("   10. Ten", testStyle())
	if len(runs) != 2 || runs[0].Text != "10" || runs[1].Text != ". Ten" {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestFormatChunk_JoinsWithBreaks(t *testing.T) {
	f := NewFormatter(nil)
	chunk := "1. Amazing grace\nhow sweet\n\nĐK. sing"
	runs := f.FormatChunk(chunk, testStyle())
	breaks := 0
	for _, r := range runs {
		if r.Break {
			breaks++
			if r.Text != "" {
				t.Fatalf("break run carries text %q", r.Text)
			}
		}
	}
	if breaks != 3 {
		t.Fatalf("expected 3 breaks, got %d", breaks)
	}
	if got := PlainText(runs); got != chunk {
		t.Fatalf("plain text %q != %q", got, chunk)
	}
}
