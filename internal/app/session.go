/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package app

import (
	"maps"

	"lyricpresenter/internal/domain"
	"lyricpresenter/internal/playlist"
	"lyricpresenter/internal/storage"
)

// Session is the state of one application run. Only the Controller mutates it;
// the assemblers read snapshots.
type Session struct {
	Playlist  *playlist.Playlist
	Overrides map[int64]domain.Override
	Selected  int64 // 0 when no song is selected
	Theme     domain.Theme
	Query     storage.SearchQuery
}

// NewSession returns an empty session using the default theme.
func NewSession() *Session {
	return &Session{
		Playlist:  playlist.New(),
		Overrides: make(map[int64]domain.Override),
		Theme:     domain.DefaultTheme(),
	}
}

// snapshot is the immutable input of one export.
type snapshot struct {
	songs     []domain.Song
	theme     domain.Theme
	overrides map[int64]domain.Override
}

func (s *Session) snapshot() snapshot {
	return snapshot{
		songs:     s.Playlist.Songs(),
		theme:     s.Theme,
		overrides: maps.Clone(s.Overrides),
	}
}

// forget drops per-song session state for songs that no longer exist.
// It reports whether the selected song was among them.
func (s *Session) forget(ids []int64) (selectionLost bool) {
	for _, id := range ids {
		delete(s.Overrides, id)
		if s.Selected == id {
			s.Selected = 0
			selectionLost = true
		}
	}
	return selectionLost
}
