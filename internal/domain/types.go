/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the library data model: songbooks and the songs they own.
// Values are copied out of the repository; callers never share mutable state
// with the store.

// Song is a single song with its lyric text.
// Number and Page are optional references into a printed songbook.
type Song struct {
	ID         int64  `json:"id"`
	SongbookID int64  `json:"songbookId"`
	Title      string `json:"title"`
	Lyrics     string `json:"lyrics"`
	Number     *int   `json:"number,omitempty"`
	Page       *int   `json:"page,omitempty"`
}

// Songbook is a named collection of songs. Songs is a read-only view
// populated on load, ordered by title.
type Songbook struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Songs []Song `json:"songs,omitempty"`
}

// IntPtr is a small helper for optional song fields.
func IntPtr(v int) *int { return &v }

// SongIDs returns the ids of songs in order.
func SongIDs(songs []Song) []int64 {
	out := make([]int64, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}

// Equal compares songs by value, following the optional fields.
func (s Song) Equal(o Song) bool {
	return s.ID == o.ID && s.SongbookID == o.SongbookID && s.Title == o.Title &&
		s.Lyrics == o.Lyrics && optEqual(s.Number, o.Number) && optEqual(s.Page, o.Page)
}

func optEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
