/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package playlist holds the session's ordered song selection.
package playlist

import "lyricpresenter/internal/domain"

// Playlist is an ordered set of songs keyed by id. It is not safe for
// concurrent use; the session owns it and hands out snapshots.
type Playlist struct {
	songs []domain.Song
	index map[int64]int
}

// New returns an empty playlist.
func New() *Playlist {
	return &Playlist{index: map[int64]int{}}
}

func (p *Playlist) reindex() {
	p.index = make(map[int64]int, len(p.songs))
	for i, s := range p.songs {
		p.index[s.ID] = i
	}
}

// Add appends s unless a song with the same id is already present.
func (p *Playlist) Add(s domain.Song) bool {
	if _, ok := p.index[s.ID]; ok {
		return false
	}
	p.index[s.ID] = len(p.songs)
	p.songs = append(p.songs, s)
	return true
}

// RemoveByID drops the song with id and reports whether it was present.
func (p *Playlist) RemoveByID(id int64) bool {
	i, ok := p.index[id]
	if !ok {
		return false
	}
	p.songs = append(p.songs[:i], p.songs[i+1:]...)
	p.reindex()
	return true
}

// UpdateOrder makes the playlist exactly the known ids in the given order.
// Unknown and repeated ids are ignored; songs not listed are dropped.
func (p *Playlist) UpdateOrder(ids []int64) {
	next := make([]domain.Song, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		i, ok := p.index[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, p.songs[i])
	}
	p.songs = next
	p.reindex()
}

// Move shifts the song with id by delta positions, clamped to the ends.
func (p *Playlist) Move(id int64, delta int) bool {
	i, ok := p.index[id]
	if !ok {
		return false
	}
	j := min(max(i+delta, 0), len(p.songs)-1)
	if i == j {
		return false
	}
	s := p.songs[i]
	p.songs = append(p.songs[:i], p.songs[i+1:]...)
	p.songs = append(p.songs[:j], append([]domain.Song{s}, p.songs[j:]...)...)
	p.reindex()
	return true
}

// Replace swaps in a fresh copy of a song already in the playlist.
func (p *Playlist) Replace(s domain.Song) bool {
	i, ok := p.index[s.ID]
	if ok {
		p.songs[i] = s
	}
	return ok
}

// Retain keeps only songs for which keep returns true and returns the ids
// that were removed.
func (p *Playlist) Retain(keep func(domain.Song) bool) []int64 {
	var removed []int64
	next := p.songs[:0]
	for _, s := range p.songs {
		if keep(s) {
			next = append(next, s)
			continue
		}
		removed = append(removed, s.ID)
	}
	clear(p.songs[len(next):])
	p.songs = next
	p.reindex()
	return removed
}

// Clear empties the playlist.
func (p *Playlist) Clear() {
	p.songs = nil
	p.index = map[int64]int{}
}

func (p *Playlist) Contains(id int64) bool {
	_, ok := p.index[id]
	return ok
}

func (p *Playlist) Len() int { return len(p.songs) }

// IDs returns the song ids in order.
func (p *Playlist) IDs() []int64 {
	return domain.SongIDs(p.songs)
}

// Songs returns a copy of the ordered songs.
func (p *Playlist) Songs() []domain.Song {
	return append([]domain.Song(nil), p.songs...)
}

// Snapshot returns an independent copy of the playlist.
func (p *Playlist) Snapshot() *Playlist {
	c := &Playlist{songs: p.Songs()}
	c.reindex()
	return c
}
