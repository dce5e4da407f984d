/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package app is the controller between the views and the library: it owns
// the session, turns user actions into repository calls and announces every
// resulting state change on a Bus.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"lyricpresenter/internal/domain"
	applog "lyricpresenter/internal/log"
	"lyricpresenter/internal/slides"
	"lyricpresenter/internal/storage"
	"lyricpresenter/internal/telemetry"
)

// Repository is the library storage the controller works against.
type Repository interface {
	SongbooksWithSongs(ctx context.Context) ([]domain.Songbook, error)
	SearchSongs(ctx context.Context, q storage.SearchQuery) ([]domain.Songbook, error)
	AddSongbook(ctx context.Context, name string) (int64, error)
	RenameSongbook(ctx context.Context, id int64, name string) error
	DeleteSongbook(ctx context.Context, id int64) error
	AddSong(ctx context.Context, song domain.Song) (int64, error)
	UpdateSong(ctx context.Context, song domain.Song) error
	DeleteSong(ctx context.Context, id int64) error
	SongByID(ctx context.Context, id int64) (domain.Song, error)
	SongExists(ctx context.Context, title string, songbookID, excludeID int64) (bool, error)
	Theme(ctx context.Context) (domain.Theme, error)
	SaveTheme(ctx context.Context, t domain.Theme) error
}

// DeckWriter persists an assembled deck. Write must not leave a partial file
// at path when it fails.
type DeckWriter interface {
	Write(path string, deck slides.Deck) error
}

var (
	// ErrInvalidInput reports user input rejected before reaching the repository.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyPlaylist is returned when exporting an empty playlist.
	ErrEmptyPlaylist = errors.New("playlist is empty")
	// ErrExportRunning is returned by ExportAsync while another export is in progress.
	ErrExportRunning = errors.New("an export is already running")
)

// FontTarget selects which font size SetFontSize changes.
type FontTarget int

const (
	TitleFont FontTarget = iota
	LyricFont
)

// Options wires a Controller. Preview and Export share one slides.Assembler
// implementation and differ only in the measurer behind them.
type Options struct {
	Repo      Repository
	Writer    DeckWriter
	Preview   *slides.Assembler
	Export    *slides.Assembler
	Bus       *Bus
	Telemetry *telemetry.Client
}

// Controller serialises user actions against the session. All methods are
// safe for concurrent use; export work runs on its own goroutine.
type Controller struct {
	repo    Repository
	writer  DeckWriter
	preview *slides.Assembler
	export  *slides.Assembler
	bus     *Bus
	tel     *telemetry.Client
	log     *slog.Logger

	mu   sync.Mutex
	sess *Session

	jobs exportGuard
}

// New returns a controller with an empty session.
func New(opt Options) *Controller {
	bus := opt.Bus
	if bus == nil {
		bus = NewBus()
	}
	return &Controller{
		repo:    opt.Repo,
		writer:  opt.Writer,
		preview: opt.Preview,
		export:  opt.Export,
		bus:     bus,
		tel:     opt.Telemetry,
		log:     applog.WithComponent("app"),
		sess:    NewSession(),
	}
}

// Bus returns the bus events are published on.
func (c *Controller) Bus() *Bus { return c.bus }

// warn publishes a Warning for recoverable errors and returns err unchanged.
func (c *Controller) warn(op, msg string, err error) error {
	c.log.Warn(msg, slog.String("op", op), slog.Any("err", err))
	c.bus.Publish(Warning{Op: op, Message: msg, Err: err})
	return err
}

// fail logs and publishes an unexpected error.
func (c *Controller) fail(op string, err error) error {
	c.log.Error(op+" failed", slog.Any("err", err))
	c.bus.Publish(Warning{Op: op, Message: err.Error(), Err: err})
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Theme returns a copy of the active theme.
func (c *Controller) Theme() domain.Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Theme
}

// Playlist returns the playlist songs in order.
func (c *Controller) Playlist() []domain.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Playlist.Songs()
}

// InPlaylist reports whether song id is queued.
func (c *Controller) InPlaylist(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Playlist.Contains(id)
}

// Override returns the font size override of song id.
func (c *Controller) Override(id int64) domain.Override {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Overrides[id]
}

// Selected returns the selected song id, 0 when none.
func (c *Controller) Selected() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Selected
}

// Query returns the active library search.
func (c *Controller) Query() storage.SearchQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.Query
}

// Reload loads the theme and the library, drops playlist entries whose songs
// vanished and refreshes the ones that changed.
func (c *Controller) Reload(ctx context.Context) error {
	t, err := c.repo.Theme(ctx)
	if err != nil {
		return c.fail("reload", fmt.Errorf("load theme: %w", err))
	}
	books, err := c.repo.SongbooksWithSongs(ctx)
	if err != nil {
		return c.fail("reload", fmt.Errorf("load library: %w", err))
	}
	c.mu.Lock()
	c.sess.Theme = t
	c.mu.Unlock()
	c.syncPlaylist(books)
	c.bus.Publish(ThemeChanged{Theme: t})
	if err := c.refreshLibrary(ctx); err != nil {
		return err
	}
	c.publishPreview()
	return nil
}

// Search runs q and makes it the active library view. A zero query shows the
// whole library, including empty songbooks.
func (c *Controller) Search(ctx context.Context, q storage.SearchQuery) error {
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.Field == "" {
		q.Field = storage.FieldTitle
	}
	c.mu.Lock()
	c.sess.Query = q
	c.mu.Unlock()
	return c.refreshLibrary(ctx)
}

func (c *Controller) refreshLibrary(ctx context.Context) error {
	q := c.Query()
	var (
		books []domain.Songbook
		err   error
	)
	if q.Keyword == "" && q.SongbookID == 0 {
		books, err = c.repo.SongbooksWithSongs(ctx)
	} else {
		books, err = c.repo.SearchSongs(ctx, q)
	}
	if err != nil {
		return c.fail("search", err)
	}
	c.bus.Publish(LibraryChanged{Songbooks: books, Query: q})
	return nil
}

// syncPlaylist makes the playlist consistent with books: songs that no longer
// exist are removed along with their overrides, edited songs are replaced.
func (c *Controller) syncPlaylist(books []domain.Songbook) {
	current := make(map[int64]domain.Song)
	for _, b := range books {
		for _, s := range b.Songs {
			current[s.ID] = s
		}
	}
	c.mu.Lock()
	changed := false
	for _, s := range c.sess.Playlist.Songs() {
		if cur, ok := current[s.ID]; ok && !cur.Equal(s) {
			c.sess.Playlist.Replace(cur)
			changed = true
		}
	}
	removed := c.sess.Playlist.Retain(func(s domain.Song) bool {
		_, ok := current[s.ID]
		return ok
	})
	if len(removed) > 0 {
		changed = true
	}
	selectionLost := c.sess.forget(removed)
	if _, ok := current[c.sess.Selected]; !ok && c.sess.Selected != 0 {
		c.sess.Selected = 0
		selectionLost = true
	}
	songs := c.sess.Playlist.Songs()
	c.mu.Unlock()

	if len(removed) > 0 {
		c.log.Info("playlist pruned", slog.Int("removed", len(removed)))
	}
	if changed {
		c.bus.Publish(PlaylistChanged{Songs: songs})
	}
	if selectionLost {
		c.publishPreview()
	}
}

// afterMutation reloads the library and keeps the session consistent with it.
func (c *Controller) afterMutation(ctx context.Context) error {
	books, err := c.repo.SongbooksWithSongs(ctx)
	if err != nil {
		return c.fail("reload", fmt.Errorf("load library: %w", err))
	}
	c.syncPlaylist(books)
	return c.refreshLibrary(ctx)
}

// AddSongbook creates a songbook. A duplicate name is reported as a Warning.
func (c *Controller) AddSongbook(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, c.warn("add_songbook", "The songbook name must not be empty.", invalid("empty songbook name"))
	}
	id, err := c.repo.AddSongbook(ctx, name)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return 0, c.warn("add_songbook", fmt.Sprintf("A songbook named %q already exists.", name), err)
	case err != nil:
		return 0, c.fail("add_songbook", err)
	}
	c.log.Info("songbook added", slog.Int64("songbook_id", id), slog.String("name", name))
	c.bus.Publish(Info{Op: "add_songbook", Message: fmt.Sprintf("Songbook %q created.", name)})
	return id, c.afterMutation(ctx)
}

// RenameSongbook renames songbook id.
func (c *Controller) RenameSongbook(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return c.warn("rename_songbook", "The songbook name must not be empty.", invalid("empty songbook name"))
	}
	err := c.repo.RenameSongbook(ctx, id, name)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return c.warn("rename_songbook", fmt.Sprintf("A songbook named %q already exists.", name), err)
	case errors.Is(err, storage.ErrNotFound):
		return c.warn("rename_songbook", "The songbook no longer exists.", err)
	case err != nil:
		return c.fail("rename_songbook", err)
	}
	return c.afterMutation(ctx)
}

// DeleteSongbook deletes songbook id with its songs. The songs are removed
// from the playlist as well.
func (c *Controller) DeleteSongbook(ctx context.Context, id int64) error {
	err := c.repo.DeleteSongbook(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.warn("delete_songbook", "The songbook no longer exists.", err)
	case err != nil:
		return c.fail("delete_songbook", err)
	}
	c.log.Info("songbook deleted", slog.Int64("songbook_id", id))
	return c.afterMutation(ctx)
}

// validateSong checks the fields the song dialog requires and that the title
// is free within its songbook.
func (c *Controller) validateSong(ctx context.Context, op string, s *domain.Song) error {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" || strings.TrimSpace(s.Lyrics) == "" {
		return c.warn(op, "Title and lyrics must not be empty.", invalid("empty title or lyrics"))
	}
	if s.SongbookID == 0 {
		return c.warn(op, "Create a songbook first.", invalid("no songbook"))
	}
	exists, err := c.repo.SongExists(ctx, s.Title, s.SongbookID, s.ID)
	if err != nil {
		return c.fail(op, err)
	}
	if exists {
		return c.warn(op, fmt.Sprintf("A song titled %q already exists in this songbook.", s.Title),
			fmt.Errorf("%w: song %q", storage.ErrDuplicate, s.Title))
	}
	return nil
}

// AddSong validates and stores a new song.
func (c *Controller) AddSong(ctx context.Context, s domain.Song) (int64, error) {
	s.ID = 0
	if err := c.validateSong(ctx, "add_song", &s); err != nil {
		return 0, err
	}
	id, err := c.repo.AddSong(ctx, s)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return 0, c.warn("add_song", fmt.Sprintf("A song titled %q already exists in this songbook.", s.Title), err)
	case err != nil:
		return 0, c.fail("add_song", err)
	}
	c.log.Info("song added", slog.Int64("song_id", id), slog.Int64("songbook_id", s.SongbookID))
	c.bus.Publish(Info{Op: "add_song", Message: fmt.Sprintf("Song %q added.", s.Title)})
	return id, c.afterMutation(ctx)
}

// UpdateSong validates and stores an edited song. A queued copy is refreshed
// and the preview follows when the song is selected.
func (c *Controller) UpdateSong(ctx context.Context, s domain.Song) error {
	if err := c.validateSong(ctx, "update_song", &s); err != nil {
		return err
	}
	err := c.repo.UpdateSong(ctx, s)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return c.warn("update_song", fmt.Sprintf("A song titled %q already exists in this songbook.", s.Title), err)
	case errors.Is(err, storage.ErrNotFound):
		return c.warn("update_song", "The song no longer exists.", err)
	case err != nil:
		return c.fail("update_song", err)
	}
	c.bus.Publish(Info{Op: "update_song", Message: fmt.Sprintf("Song %q updated.", s.Title)})
	if err := c.afterMutation(ctx); err != nil {
		return err
	}
	if c.Selected() == s.ID {
		c.publishPreview()
	}
	return nil
}

// DeleteSong deletes song id and removes it from the playlist.
func (c *Controller) DeleteSong(ctx context.Context, id int64) error {
	err := c.repo.DeleteSong(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.warn("delete_song", "The song no longer exists.", err)
	case err != nil:
		return c.fail("delete_song", err)
	}
	return c.afterMutation(ctx)
}

func (c *Controller) publishPlaylist() {
	c.bus.Publish(PlaylistChanged{Songs: c.Playlist()})
}

// AddToPlaylist queues song id. Adding a queued song changes nothing.
func (c *Controller) AddToPlaylist(ctx context.Context, id int64) error {
	s, err := c.repo.SongByID(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return c.warn("add_to_playlist", "The song no longer exists.", err)
	case err != nil:
		return c.fail("add_to_playlist", err)
	}
	c.mu.Lock()
	added := c.sess.Playlist.Add(s)
	c.mu.Unlock()
	if added {
		c.publishPlaylist()
	}
	return nil
}

// RemoveFromPlaylist drops song id from the playlist.
func (c *Controller) RemoveFromPlaylist(id int64) {
	c.mu.Lock()
	removed := c.sess.Playlist.RemoveByID(id)
	c.mu.Unlock()
	if removed {
		c.publishPlaylist()
	}
}

// ReorderPlaylist applies the order of ids; queued songs not named are dropped.
func (c *Controller) ReorderPlaylist(ids []int64) {
	c.mu.Lock()
	c.sess.Playlist.UpdateOrder(ids)
	c.mu.Unlock()
	c.publishPlaylist()
}

// MoveInPlaylist moves song id by delta positions.
func (c *Controller) MoveInPlaylist(id int64, delta int) {
	c.mu.Lock()
	moved := c.sess.Playlist.Move(id, delta)
	c.mu.Unlock()
	if moved {
		c.publishPlaylist()
	}
}

// ClearPlaylist empties the playlist.
func (c *Controller) ClearPlaylist() {
	c.mu.Lock()
	c.sess.Playlist.Clear()
	c.mu.Unlock()
	c.publishPlaylist()
}

// SelectSong makes song id the previewed song; 0 clears the selection.
func (c *Controller) SelectSong(ctx context.Context, id int64) error {
	if id != 0 {
		if _, err := c.repo.SongByID(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.warn("select_song", "The song no longer exists.", err)
			}
			return c.fail("select_song", err)
		}
	}
	c.mu.Lock()
	c.sess.Selected = id
	c.mu.Unlock()
	c.publishPreview()
	return nil
}

// SetFontSize overrides the title or lyric size of the selected song for this
// session. Values are clamped to domain.MinFontSize..domain.MaxFontSize.
func (c *Controller) SetFontSize(target FontTarget, size int) error {
	size = domain.ClampFontSize(size)
	c.mu.Lock()
	id := c.sess.Selected
	if id == 0 {
		c.mu.Unlock()
		return c.warn("set_font_size", "Select a song first.", invalid("no song selected"))
	}
	ov := c.sess.Overrides[id]
	switch target {
	case TitleFont:
		ov.Title = size
	case LyricFont:
		ov.Lyric = size
	default:
		c.mu.Unlock()
		return invalid("font target %d", target)
	}
	c.sess.Overrides[id] = ov
	c.mu.Unlock()
	c.publishPreview()
	return nil
}

// ResetFontSizes drops the override of song id.
func (c *Controller) ResetFontSizes(id int64) {
	c.mu.Lock()
	delete(c.sess.Overrides, id)
	selected := c.sess.Selected == id
	c.mu.Unlock()
	if selected {
		c.publishPreview()
	}
}

// EditTheme returns a working copy of the active theme. Changes take effect
// only through CommitTheme.
func (c *Controller) EditTheme() domain.Theme { return c.Theme() }

// CommitTheme validates and saves t as the active theme.
func (c *Controller) CommitTheme(ctx context.Context, t domain.Theme) error {
	t.ID = domain.DefaultThemeID
	if err := t.Validate(); err != nil {
		return c.warn("commit_theme", err.Error(), err)
	}
	if err := c.repo.SaveTheme(ctx, t); err != nil {
		return c.fail("commit_theme", err)
	}
	c.mu.Lock()
	c.sess.Theme = t
	c.mu.Unlock()
	c.log.Info("theme saved", slog.String("preset", string(t.Preset())))
	c.bus.Publish(ThemeChanged{Theme: t})
	c.bus.Publish(Info{Op: "commit_theme", Message: "Theme saved."})
	c.publishPreview()
	return nil
}

// FontsReloaded announces a new set of font families and re-renders the preview.
func (c *Controller) FontsReloaded(families []string) {
	c.bus.Publish(FontsChanged{Families: families})
	c.publishPreview()
}

// Preview lays out the selected song with the preview measurer.
func (c *Controller) Preview(ctx context.Context) (PreviewChanged, error) {
	c.mu.Lock()
	id := c.sess.Selected
	t := c.sess.Theme
	ov := c.sess.Overrides[id]
	c.mu.Unlock()

	ev := PreviewChanged{Override: ov, Width: t.SlideWidth, Height: t.SlideHeight}
	if id == 0 {
		return ev, nil
	}
	s, err := c.repo.SongByID(ctx, id)
	if err != nil {
		return ev, err
	}
	ss, err := c.preview.SongSlides(s, t, ov)
	if err != nil {
		return ev, err
	}
	ev.Song = &s
	ev.Slides = ss
	return ev, nil
}

func (c *Controller) publishPreview() {
	ev, err := c.Preview(context.Background())
	if err != nil {
		_ = c.fail("preview", err)
		return
	}
	c.bus.Publish(ev)
}
