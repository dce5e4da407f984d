/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package playlist

import (
	"reflect"
	"testing"

	"lyricpresenter/internal/domain"
)

func abc() *Playlist {
	p := New()
	for _, s := range []domain.Song{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}} {
		p.Add(s)
	}
	return p
}

func TestAddIsIdempotent(t *testing.T) {
	p := abc()
	if p.Add(domain.Song{ID: 2, Title: "B again"}) {
		t.Fatalf("duplicate add must report false")
	}
	if p.Len() != 3 || p.Songs()[1].Title != "B" {
		t.Fatalf("playlist changed on duplicate add: %+v", p.Songs())
	}
}

func TestUpdateOrder(t *testing.T) {
	p := abc()
	p.UpdateOrder([]int64{3, 1})
	if got := p.IDs(); !reflect.DeepEqual(got, []int64{3, 1}) {
		t.Fatalf("got %v", got)
	}
	p = abc()
	p.UpdateOrder([]int64{99, 2, 2, 1, 3})
	if got := p.IDs(); !reflect.DeepEqual(got, []int64{2, 1, 3}) {
		t.Fatalf("unknown and repeated ids must be ignored: %v", got)
	}
	if !p.Contains(3) || p.Contains(99) {
		t.Fatalf("index out of sync")
	}
}

func TestRemoveAndMove(t *testing.T) {
	p := abc()
	if !p.RemoveByID(2) || p.RemoveByID(2) {
		t.Fatalf("remove must succeed once")
	}
	if got := p.IDs(); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("got %v", got)
	}
	p = abc()
	if !p.Move(3, -1) {
		t.Fatalf("move up failed")
	}
	if got := p.IDs(); !reflect.DeepEqual(got, []int64{1, 3, 2}) {
		t.Fatalf("got %v", got)
	}
	if p.Move(1, -5) {
		t.Fatalf("moving the first song up must be a no-op")
	}
	p.Move(1, 10)
	if got := p.IDs(); !reflect.DeepEqual(got, []int64{3, 2, 1}) {
		t.Fatalf("got %v", got)
	}
}

func TestRetainAndSnapshot(t *testing.T) {
	p := abc()
	snap := p.Snapshot()
	removed := p.Retain(func(s domain.Song) bool { return s.ID != 1 })
	if !reflect.DeepEqual(removed, []int64{1}) {
		t.Fatalf("removed=%v", removed)
	}
	if p.Contains(1) || !p.Contains(3) {
		t.Fatalf("index out of sync after retain")
	}
	if got := snap.IDs(); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("snapshot changed: %v", got)
	}
	p.Clear()
	if p.Len() != 0 || p.Contains(2) {
		t.Fatalf("clear left entries")
	}
	if !p.Add(domain.Song{ID: 2}) {
		t.Fatalf("add after clear failed")
	}
}

func TestReplace(t *testing.T) {
	p := abc()
	if !p.Replace(domain.Song{ID: 2, Title: "B2"}) || p.Songs()[1].Title != "B2" {
		t.Fatalf("replace failed: %+v", p.Songs())
	}
	if p.Replace(domain.Song{ID: 9}) {
		t.Fatalf("replace of unknown id must fail")
	}
}
