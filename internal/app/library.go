/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lyricpresenter/internal/bundle"
	"lyricpresenter/internal/domain"
	"lyricpresenter/internal/telemetry"
)

// Songbooks returns the whole library regardless of the active search.
func (c *Controller) Songbooks(ctx context.Context) ([]domain.Songbook, error) {
	return c.repo.SongbooksWithSongs(ctx)
}

// SongByID returns the stored version of song id.
func (c *Controller) SongByID(ctx context.Context, id int64) (domain.Song, error) {
	return c.repo.SongByID(ctx, id)
}

// ExportLibrary writes a library bundle to path.
func (c *Controller) ExportLibrary(ctx context.Context, path string) (bundle.Stats, error) {
	st, err := bundle.Export(ctx, c.repo, path)
	if err != nil {
		return st, c.fail("export_library", err)
	}
	c.bus.Publish(Info{
		Op:      "export_library",
		Message: fmt.Sprintf("Saved %d songbooks with %d songs to %s.", st.Songbooks, st.Songs, path),
	})
	return st, nil
}

// ImportLibrary merges a library bundle into the library and reloads.
// Songs whose title already exists in the target songbook are skipped.
func (c *Controller) ImportLibrary(ctx context.Context, path string, withTheme bool) (bundle.Stats, error) {
	st, err := bundle.Import(ctx, c.repo, path, bundle.ImportOptions{Theme: withTheme})
	if err != nil {
		if errors.Is(err, bundle.ErrInvalidBundle) {
			return st, c.warn("import_library", "The file is not a valid library bundle.", err)
		}
		return st, c.fail("import_library", err)
	}
	c.log.Info("library imported", slog.Int("songbooks", st.Songbooks), slog.Int("songs", st.Songs), slog.Int("skipped", st.Skipped))
	c.tel.Event(telemetry.EventBundleImported, map[string]any{"songs": st.Songs, "skipped": st.Skipped})
	if err := c.Reload(ctx); err != nil {
		return st, err
	}
	c.bus.Publish(Info{
		Op:      "import_library",
		Message: fmt.Sprintf("Imported %d songs into %d new songbooks, skipped %d existing.", st.Songs, st.Songbooks, st.Skipped),
	})
	return st, nil
}
