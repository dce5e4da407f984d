//go:build !fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"testing"

	"lyricpresenter/internal/ui"
)

func TestNoArgsLaunchesUI(t *testing.T) {
	setupLibrary(t)
	if _, err := run(t); !errors.Is(err, ui.ErrNotBuilt) {
		t.Fatalf("err = %v, want ui.ErrNotBuilt from the headless build", err)
	}
}
