//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"lyricpresenter/internal/app"
	"lyricpresenter/internal/config"
	"lyricpresenter/internal/crash"
	"lyricpresenter/internal/domain"
	applog "lyricpresenter/internal/log"
	"lyricpresenter/internal/storage"
	"lyricpresenter/internal/version"
)

const allSongbooks = "All songbooks"

// Run opens the main window and blocks until it is closed.
func Run(d Deps) error {
	l := applog.WithComponent("ui")
	defer crash.Recover(config.CrashDir())
	if d.Controller == nil {
		return errors.New("ui: no controller")
	}
	l.Info("starting UI")
	ctrl := d.Controller
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// fyne reads FYNE_THEME when the app starts
	if t := d.Config.General.UITheme; t == "dark" || t == "light" {
		_ = os.Setenv("FYNE_THEME", t)
	}
	fyneApp := fyneapp.NewWithID("io.lyricpresenter")
	w := fyneApp.NewWindow("Lyric Presenter")
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1280), 900)
	winH := max(prefs.IntWithFallback("window.height", 760), 600)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	setStatus := func(text string, isError bool) {
		status.SetText(text)
		if isError {
			status.Importance = widget.DangerImportance
		} else {
			status.Importance = widget.MediumImportance
		}
		status.Refresh()
	}

	// Songbook browser (left)
	tree := newLibraryTree(nil)
	var selectedBook, selectedSong int64
	libTree := widget.NewTree(
		func(id widget.TreeNodeID) []widget.TreeNodeID { return tree.Children(id) },
		func(id widget.TreeNodeID) bool { return tree.IsBranch(id) },
		func(bool) fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TreeNodeID, _ bool, o fyne.CanvasObject) { o.(*widget.Label).SetText(tree.Label(id)) },
	)
	libTree.OnSelected = func(id widget.TreeNodeID) {
		song, n, ok := parseNode(id)
		if !ok {
			return
		}
		if !song {
			selectedBook, selectedSong = n, 0
			return
		}
		selectedSong = n
		if s, ok := tree.songs[n]; ok {
			selectedBook = s.SongbookID
		}
		_ = ctrl.SelectSong(ctx, n)
	}

	keyword := widget.NewEntry()
	keyword.SetPlaceHolder("Search…")
	fieldNames := make([]string, len(storage.Fields))
	for i, f := range storage.Fields {
		fieldNames[i] = string(f)
	}
	fieldSel := widget.NewSelect(fieldNames, nil)
	fieldSel.SetSelected(string(storage.FieldTitle))
	bookFilter := widget.NewSelect([]string{allSongbooks}, nil)
	bookFilter.SetSelected(allSongbooks)
	var filterIDs []int64 // parallel to bookFilter.Options[1:]

	runSearch := func() {
		q := storage.SearchQuery{Keyword: keyword.Text, Field: storage.Field(fieldSel.Selected)}
		if i := bookFilter.SelectedIndex(); i > 0 && i-1 < len(filterIDs) {
			q.SongbookID = filterIDs[i-1]
		}
		_ = ctrl.Search(ctx, q)
	}
	keyword.OnChanged = func(string) { runSearch() }
	fieldSel.OnChanged = func(string) { runSearch() }
	bookFilter.OnChanged = func(string) { runSearch() }

	refreshBookFilter := func() {
		books, err := ctrl.Songbooks(ctx)
		if err != nil {
			l.Error("load songbooks failed", slog.Any("err", err))
			return
		}
		current := bookFilter.Selected
		opts := []string{allSongbooks}
		filterIDs = filterIDs[:0]
		for _, b := range books {
			opts = append(opts, b.Name)
			filterIDs = append(filterIDs, b.ID)
		}
		bookFilter.Options = opts
		if !containsString(opts, current) {
			current = allSongbooks
		}
		// SetSelected would fire OnChanged and search again
		bookFilter.Selected = current
		bookFilter.Refresh()
	}

	newBookBtn := widget.NewButtonWithIcon("Songbook", theme.ContentAddIcon(), func() {
		showNameDialog(w, "New Songbook", "", func(name string) {
			if id, err := ctrl.AddSongbook(ctx, name); err == nil {
				selectedBook = id
			}
		})
	})
	renameBookBtn := widget.NewButtonWithIcon("Rename", theme.DocumentCreateIcon(), func() {
		b, ok := tree.books[selectedBook]
		if !ok {
			setStatus("Select a songbook first.", true)
			return
		}
		showNameDialog(w, "Rename Songbook", b.Name, func(name string) {
			_ = ctrl.RenameSongbook(ctx, b.ID, name)
		})
	})
	deleteBookBtn := widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), func() {
		b, ok := tree.books[selectedBook]
		if !ok {
			setStatus("Select a songbook first.", true)
			return
		}
		msg := fmt.Sprintf("Delete songbook %q and its %d songs?", b.Name, len(b.Songs))
		dialog.ShowConfirm("Delete Songbook", msg, func(yes bool) {
			if yes && ctrl.DeleteSongbook(ctx, b.ID) == nil {
				selectedBook, selectedSong = 0, 0
			}
		}, w)
	})

	var openSongDialog func(song domain.Song)
	openSongDialog = func(song domain.Song) {
		books, err := ctrl.Songbooks(ctx)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if len(books) == 0 {
			dialog.ShowInformation("No Songbook", "Create a songbook first.", w)
			return
		}
		showSongDialog(w, books, song, func(edited domain.Song) {
			var err error
			if edited.ID == 0 {
				_, err = ctrl.AddSong(ctx, edited)
			} else {
				err = ctrl.UpdateSong(ctx, edited)
			}
			// keep the user's text when the input was rejected
			if errors.Is(err, app.ErrInvalidInput) || errors.Is(err, storage.ErrDuplicate) {
				openSongDialog(edited)
			}
		})
	}
	newSongBtn := widget.NewButtonWithIcon("Song", theme.ContentAddIcon(), func() {
		openSongDialog(domain.Song{SongbookID: selectedBook})
	})
	editSongBtn := widget.NewButtonWithIcon("Edit", theme.DocumentCreateIcon(), func() {
		if selectedSong == 0 {
			setStatus("Select a song first.", true)
			return
		}
		s, err := ctrl.SongByID(ctx, selectedSong)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		openSongDialog(s)
	})
	deleteSongBtn := widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), func() {
		s, ok := tree.songs[selectedSong]
		if !ok {
			setStatus("Select a song first.", true)
			return
		}
		dialog.ShowConfirm("Delete Song", fmt.Sprintf("Delete %q?", s.Title), func(yes bool) {
			if yes && ctrl.DeleteSong(ctx, s.ID) == nil {
				selectedSong = 0
			}
		}, w)
	})
	queueBtn := widget.NewButtonWithIcon("Add to Playlist", theme.NavigateNextIcon(), func() {
		if selectedSong == 0 {
			setStatus("Select a song first.", true)
			return
		}
		_ = ctrl.AddToPlaylist(ctx, selectedSong)
	})

	searchBar := container.NewBorder(nil, nil, nil, container.NewHBox(fieldSel, bookFilter), keyword)
	libButtons := container.NewVBox(
		container.NewGridWithColumns(3, newBookBtn, renameBookBtn, deleteBookBtn),
		container.NewGridWithColumns(3, newSongBtn, editSongBtn, deleteSongBtn),
		queueBtn,
	)
	left := container.NewBorder(container.NewVBox(widget.NewLabel("Songbooks"), searchBar), libButtons, nil, nil, libTree)

	// Playlist (middle)
	var queued []domain.Song
	plSelected := -1
	plList := widget.NewList(
		func() int { return len(queued) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && i < len(queued) {
				o.(*widget.Label).SetText(fmt.Sprintf("%d. %s", i+1, queued[i].Title))
			}
		},
	)
	plList.OnSelected = func(i widget.ListItemID) {
		plSelected = i
		if i >= 0 && i < len(queued) {
			_ = ctrl.SelectSong(ctx, queued[i].ID)
		}
	}
	plList.OnUnselected = func(widget.ListItemID) { plSelected = -1 }
	moveSelected := func(delta int) {
		if plSelected < 0 || plSelected >= len(queued) {
			return
		}
		target := plSelected + delta
		ctrl.MoveInPlaylist(queued[plSelected].ID, delta)
		if target >= 0 && target < len(queued) {
			plList.Select(target)
		}
	}
	upBtn := widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() { moveSelected(-1) })
	downBtn := widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() { moveSelected(1) })
	removeBtn := widget.NewButtonWithIcon("Remove", theme.DeleteIcon(), func() {
		if plSelected >= 0 && plSelected < len(queued) {
			ctrl.RemoveFromPlaylist(queued[plSelected].ID)
			plList.UnselectAll()
		}
	})
	clearBtn := widget.NewButtonWithIcon("Clear", theme.ContentClearIcon(), func() {
		dialog.ShowConfirm("Clear Playlist", "Remove all songs from the playlist?", func(yes bool) {
			if yes {
				ctrl.ClearPlaylist()
				plList.UnselectAll()
			}
		}, w)
	})
	exportBtn := widget.NewButtonWithIcon("Export to PowerPoint (.pptx)", theme.DocumentSaveIcon(), nil)
	exportBtn.Importance = widget.HighImportance
	exportBtn.OnTapped = func() { showExportDialog(ctx, w, ctrl, d.Config.Presentation.ExportDir) }
	middle := container.NewBorder(
		widget.NewLabel("Playlist"),
		container.NewVBox(container.NewHBox(upBtn, downBtn, removeBtn, clearBtn), exportBtn),
		nil, nil, plList,
	)

	// Preview (right)
	preview := NewSlidePreview(d.Renderer)
	counter := widget.NewLabel(slideCounter(0, 0))
	preview.OnChanged = func(i, n int) { counter.SetText(slideCounter(i, n)) }
	prevBtn := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), preview.Prev)
	nextBtn := widget.NewButtonWithIcon("", theme.NavigateNextIcon(), preview.Next)

	titleSize := widget.NewLabel("")
	lyricSize := widget.NewLabel("")
	titleSlider := widget.NewSlider(domain.MinFontSize, domain.MaxFontSize)
	lyricSlider := widget.NewSlider(domain.MinFontSize, domain.MaxFontSize)
	for _, s := range []*widget.Slider{titleSlider, lyricSlider} {
		s.Step = 1
	}
	titleSlider.OnChanged = func(v float64) { titleSize.SetText("Title " + strconv.Itoa(int(v))) }
	lyricSlider.OnChanged = func(v float64) { lyricSize.SetText("Lyrics " + strconv.Itoa(int(v))) }
	titleSlider.OnChangeEnded = func(v float64) { _ = ctrl.SetFontSize(app.TitleFont, int(v)) }
	lyricSlider.OnChangeEnded = func(v float64) { _ = ctrl.SetFontSize(app.LyricFont, int(v)) }
	resetBtn := widget.NewButton("Reset sizes", func() {
		if id := ctrl.Selected(); id != 0 {
			ctrl.ResetFontSizes(id)
		}
	})
	sizes := container.NewVBox(
		container.NewBorder(nil, nil, titleSize, nil, titleSlider),
		container.NewBorder(nil, nil, lyricSize, nil, lyricSlider),
		resetBtn,
	)
	previewTitle := widget.NewLabel("Preview")
	right := container.NewBorder(
		previewTitle,
		container.NewVBox(container.NewHBox(prevBtn, counter, nextBtn), sizes),
		nil, nil, preview,
	)

	// Controller events are published on the caller's goroutine; exports and
	// the font watcher publish from workers, so every update goes through fyne.Do.
	bus := ctrl.Bus()
	bus.Subscribe(app.KindLibraryChanged, func(ev app.Event) {
		e := ev.(app.LibraryChanged)
		fyne.Do(func() {
			tree = newLibraryTree(e.Songbooks)
			libTree.Refresh()
			if e.Query.Keyword != "" || e.Query.SongbookID != 0 {
				libTree.OpenAllBranches()
			}
			refreshBookFilter()
		})
	})
	bus.Subscribe(app.KindPlaylistChanged, func(ev app.Event) {
		e := ev.(app.PlaylistChanged)
		fyne.Do(func() {
			queued = e.Songs
			if plSelected >= len(queued) {
				plList.UnselectAll()
			}
			plList.Refresh()
		})
	})
	bus.Subscribe(app.KindPreviewChanged, func(ev app.Event) {
		e := ev.(app.PreviewChanged)
		fyne.Do(func() {
			preview.SetSlides(e.Slides, e.Width, e.Height)
			if err := preview.Err(); err != nil {
				setStatus("Preview failed: "+err.Error(), true)
			}
			if e.Song == nil {
				previewTitle.SetText("Preview")
				return
			}
			previewTitle.SetText("Preview: " + e.Song.Title)
			ts, ls := e.Override.Resolve(ctrl.Theme())
			titleSlider.SetValue(float64(ts))
			lyricSlider.SetValue(float64(ls))
		})
	})
	for _, k := range []app.Kind{app.KindWarning, app.KindInfo, app.KindExportStarted, app.KindFontsChanged} {
		bus.Subscribe(k, func(ev app.Event) {
			text, isErr, _ := statusText(ev)
			fyne.Do(func() { setStatus(text, isErr) })
		})
	}
	bus.Subscribe(app.KindExportStarted, func(app.Event) { fyne.Do(exportBtn.Disable) })
	bus.Subscribe(app.KindExportFinished, func(ev app.Event) {
		text, _, _ := statusText(ev)
		fyne.Do(func() {
			exportBtn.Enable()
			setStatus(text, false)
			dialog.ShowInformation("Export Finished", text, w)
		})
	})
	bus.Subscribe(app.KindExportFailed, func(ev app.Event) {
		e := ev.(app.ExportFailed)
		text, _, _ := statusText(ev)
		fyne.Do(func() {
			exportBtn.Enable()
			setStatus(text, true)
			dialog.ShowError(fmt.Errorf("could not write %s: %w", e.Path, e.Err), w)
		})
	})
	bus.Subscribe(app.KindWarning, func(ev app.Event) {
		e := ev.(app.Warning)
		fyne.Do(func() { dialog.ShowInformation("Warning", e.Message, w) })
	})

	// Menus
	exportItem := fyne.NewMenuItem("Export Playlist…", exportBtn.OnTapped)
	exportLibItem := fyne.NewMenuItem("Back Up Library…", func() {
		chooseSavePath(w, "Back Up Library", "library.zip", ".zip", "", func(path string) {
			_, _ = ctrl.ExportLibrary(ctx, path)
		})
	})
	importLibItem := fyne.NewMenuItem("Import Library…", func() {
		open := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			dialog.ShowConfirm("Import Library", "Also replace the current theme with the one in the bundle?", func(withTheme bool) {
				_, _ = ctrl.ImportLibrary(ctx, path, withTheme)
			}, w)
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
		open.Show()
	})
	fileMenu := fyne.NewMenu("File", exportItem, fyne.NewMenuItemSeparator(), exportLibItem, importLibItem)
	themeItem := fyne.NewMenuItem("Theme…", func() {
		families := []string{"Go"}
		if d.Families != nil {
			families = d.Families()
		}
		showThemeDialog(ctx, w, ctrl, families)
	})
	settingsItem := fyne.NewMenuItem("Settings…", func() { showSettingsDialog(w, d.Config) })
	editMenu := fyne.NewMenu("Edit", themeItem, settingsItem)
	aboutItem := fyne.NewMenuItem("About", func() {
		dialog.ShowInformation("About", "Lyric Presenter "+version.String(), w)
	})
	helpMenu := fyne.NewMenu("Help", aboutItem)
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, helpMenu))

	split := container.NewHSplit(left, container.NewHSplit(middle, right))
	split.Offset = 0.3
	w.SetContent(container.NewBorder(nil, status, nil, nil, split))

	if d.WatchFonts != nil && d.Config.Fonts.Watch {
		go func() {
			if err := d.WatchFonts(ctx); err != nil {
				l.Warn("font watcher stopped", slog.Any("err", err))
			}
		}()
	}

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if job, running := ctrl.Running(); running {
			l.Info("waiting for export", slog.String("job_id", job))
			wctx, wcancel := context.WithTimeout(context.Background(), 30*time.Second)
			ctrl.Wait(wctx)
			wcancel()
		}
		cancel()
	})

	if err := ctrl.Reload(ctx); err != nil {
		setStatus("Could not load the library: "+err.Error(), true)
	}
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// chooseSavePath asks for a folder and a file name, confirms replacing an
// existing file and hands the path to onPath. The dialogs never open the
// target; the export replaces it atomically once the new file is complete.
func chooseSavePath(w fyne.Window, title, defaultName, ext, startDir string, onPath func(string)) {
	folder := dialog.NewFolderOpen(func(lu fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if lu == nil {
			return
		}
		showNameDialog(w, title, defaultName, func(name string) {
			path, exists, err := resolveSavePath(lu.Path(), name, ext)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if !exists {
				onPath(path)
				return
			}
			dialog.ShowConfirm("Replace File", filepath.Base(path)+" already exists. Replace it?", func(ok bool) {
				if ok {
					onPath(path)
				}
			}, w)
		})
	}, w)
	if startDir != "" {
		if lister, err := fstorage.ListerForURI(fstorage.NewFileURI(startDir)); err == nil {
			folder.SetLocation(lister)
		}
	}
	folder.Show()
}

func showExportDialog(ctx context.Context, w fyne.Window, ctrl *app.Controller, dir string) {
	if len(ctrl.Playlist()) == 0 {
		dialog.ShowInformation("Empty Playlist", "Add songs to the playlist before exporting.", w)
		return
	}
	chooseSavePath(w, "Export Playlist", "playlist"+app.DeckExt, app.DeckExt, dir, func(path string) {
		_, _ = ctrl.ExportAsync(ctx, path)
	})
}

func showNameDialog(w fyne.Window, title, current string, onOK func(string)) {
	entry := widget.NewEntry()
	entry.SetText(current)
	items := []*widget.FormItem{widget.NewFormItem("Name", entry)}
	dlg := dialog.NewForm(title, "OK", "Cancel", items, func(ok bool) {
		if ok {
			onOK(entry.Text)
		}
	}, w)
	dlg.Resize(fyne.NewSize(380, 160))
	dlg.Show()
}

func showSongDialog(w fyne.Window, books []domain.Songbook, song domain.Song, onSave func(domain.Song)) {
	names := make([]string, len(books))
	sel := 0
	for i, b := range books {
		names[i] = b.Name
		if b.ID == song.SongbookID {
			sel = i
		}
	}
	bookSel := widget.NewSelect(names, nil)
	bookSel.SetSelectedIndex(sel)
	title := widget.NewEntry()
	title.SetText(song.Title)
	number := widget.NewEntry()
	number.SetText(formatOptional(song.Number))
	page := widget.NewEntry()
	page.SetText(formatOptional(song.Page))
	lyrics := widget.NewMultiLineEntry()
	lyrics.SetText(song.Lyrics)
	lyrics.Wrapping = fyne.TextWrapWord
	lyrics.SetMinRowsVisible(14)

	heading := "Add Song"
	if song.ID != 0 {
		heading = "Edit Song"
	}
	items := []*widget.FormItem{
		widget.NewFormItem("Songbook", bookSel),
		widget.NewFormItem("Title", title),
		widget.NewFormItem("Number", number),
		widget.NewFormItem("Page", page),
		widget.NewFormItem("Lyrics", lyrics),
	}
	dlg := dialog.NewForm(heading, "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		edited := song
		edited.Title = title.Text
		edited.Lyrics = lyrics.Text
		if i := bookSel.SelectedIndex(); i >= 0 {
			edited.SongbookID = books[i].ID
		}
		var err error
		if edited.Number, err = optionalInt(number.Text); err != nil {
			dialog.ShowError(fmt.Errorf("number: %w", err), w)
			return
		}
		if edited.Page, err = optionalInt(page.Text); err != nil {
			dialog.ShowError(fmt.Errorf("page: %w", err), w)
			return
		}
		onSave(edited)
	}, w)
	dlg.Resize(fyne.NewSize(560, 620))
	dlg.Show()
}

func toColor(c domain.Color) color.Color { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255} }

func fromColor(c color.Color) domain.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return domain.Color{R: n.R, G: n.G, B: n.B}
}

// colorButton shows a swatch and opens a picker that writes into *dst.
func colorButton(w fyne.Window, title string, dst *domain.Color) fyne.CanvasObject {
	swatch := canvas.NewRectangle(toColor(*dst))
	swatch.SetMinSize(fyne.NewSize(28, 20))
	hex := widget.NewLabel(dst.Hex())
	btn := widget.NewButton("Choose…", func() {
		picker := dialog.NewColorPicker(title, "", func(c color.Color) {
			*dst = fromColor(c)
			swatch.FillColor = toColor(*dst)
			swatch.Refresh()
			hex.SetText(dst.Hex())
		}, w)
		picker.Advanced = true
		picker.SetColor(toColor(*dst))
		picker.Show()
	})
	return container.NewHBox(swatch, hex, btn)
}

// fontItems edits fs in place; apply copies the entry values back.
func fontItems(w fyne.Window, label string, fs *domain.FontStyle, families []string) (items []*widget.FormItem, apply func() error) {
	if !containsString(families, fs.Name) {
		families = append([]string{fs.Name}, families...)
	}
	family := widget.NewSelect(families, nil)
	family.SetSelected(fs.Name)
	size := widget.NewEntry()
	size.SetText(strconv.Itoa(fs.Size))
	bold := widget.NewCheck("Bold", nil)
	bold.SetChecked(fs.Bold)
	italic := widget.NewCheck("Italic", nil)
	italic.SetChecked(fs.Italic)
	underline := widget.NewCheck("Underline", nil)
	underline.SetChecked(fs.Underline)

	items = []*widget.FormItem{
		widget.NewFormItem(label+" font", container.NewBorder(nil, nil, nil, size, family)),
		widget.NewFormItem(label+" colour", colorButton(w, label+" colour", &fs.Color)),
		widget.NewFormItem(label+" style", container.NewHBox(bold, italic, underline)),
	}
	apply = func() error {
		n, err := strconv.Atoi(strings.TrimSpace(size.Text))
		if err != nil || n <= 0 {
			return fmt.Errorf("%s size %q is not a positive number", strings.ToLower(label), size.Text)
		}
		fs.Name = family.Selected
		fs.Size = domain.ClampFontSize(n)
		fs.Bold, fs.Italic, fs.Underline = bold.Checked, italic.Checked, underline.Checked
		return nil
	}
	return items, apply
}

func showThemeDialog(ctx context.Context, w fyne.Window, ctrl *app.Controller, families []string) {
	work := ctrl.EditTheme()

	presets := []string{string(domain.PresetWidescreen), string(domain.PresetStandard)}
	preset := widget.NewRadioGroup(presets, nil)
	preset.Horizontal = true
	preset.SetSelected(string(work.Preset()))

	aligns := []string{string(domain.AlignLeft), string(domain.AlignCenter), string(domain.AlignRight), string(domain.AlignJustify)}
	align := widget.NewSelect(aligns, nil)
	align.SetSelected(string(work.LyricAlignment))

	name := widget.NewEntry()
	name.SetText(work.Name)

	items := []*widget.FormItem{
		widget.NewFormItem("Name", name),
		widget.NewFormItem("Slide size", preset),
		widget.NewFormItem("Background", colorButton(w, "Background", &work.Background)),
	}
	titleItems, applyTitle := fontItems(w, "Title", &work.Title, families)
	lyricItems, applyLyric := fontItems(w, "Lyric", &work.Lyric, families)
	items = append(items, titleItems...)
	items = append(items, lyricItems...)
	items = append(items, widget.NewFormItem("Lyric alignment", align))

	dlg := dialog.NewForm("Theme", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		for _, apply := range []func() error{applyTitle, applyLyric} {
			if err := apply(); err != nil {
				dialog.ShowError(err, w)
				return
			}
		}
		work.Name = strings.TrimSpace(name.Text)
		work = work.WithPreset(domain.SlidePreset(preset.Selected))
		if a, err := domain.ParseAlignment(align.Selected); err == nil {
			work.LyricAlignment = a
		}
		_ = ctrl.CommitTheme(ctx, work)
	}, w)
	dlg.Resize(fyne.NewSize(560, 600))
	dlg.Show()
}

// showSettingsDialog edits the config file. Fields overridden by the
// environment are shown read-only. Changes apply on the next start.
func showSettingsDialog(w fyne.Window, cfg config.AppConfig) {
	lockIfEnv := func(key string, wid fyne.Disableable) {
		if _, ok := config.EnvOverrideFor(key); ok {
			wid.Disable()
		}
	}
	driver := widget.NewSelect([]string{config.DriverSQLite, config.DriverPostgres}, nil)
	driver.SetSelected(cfg.Library.Driver)
	lockIfEnv("library.driver", driver)
	path := widget.NewEntry()
	path.SetText(cfg.Library.Path)
	path.SetPlaceHolder("default location")
	lockIfEnv("library.path", path)
	dsn := widget.NewEntry()
	dsn.SetText(cfg.Library.DSN)
	dsn.SetPlaceHolder("postgres://user@host/db")
	lockIfEnv("library.dsn", dsn)
	password := widget.NewPasswordEntry()
	password.SetPlaceHolder("unchanged")
	fontsDir := widget.NewEntry()
	fontsDir.SetText(cfg.Fonts.Dir)
	lockIfEnv("fonts.dir", fontsDir)
	watch := widget.NewCheck("Reload fonts when the folder changes", nil)
	watch.SetChecked(cfg.Fonts.Watch)
	lockIfEnv("fonts.watch", watch)
	markers := widget.NewEntry()
	markers.SetText(strings.Join(cfg.Presentation.Markers, ", "))
	exportDir := widget.NewEntry()
	exportDir.SetText(cfg.Presentation.ExportDir)
	lockIfEnv("presentation.export_dir", exportDir)
	telemetryOpt := widget.NewCheck("Send anonymous usage statistics", nil)
	telemetryOpt.SetChecked(cfg.General.TelemetryOptIn)
	lockIfEnv("general.telemetry_opt_in", telemetryOpt)

	items := []*widget.FormItem{
		widget.NewFormItem("Library", driver),
		widget.NewFormItem("SQLite file", path),
		widget.NewFormItem("Postgres DSN", dsn),
		widget.NewFormItem("Postgres password", password),
		widget.NewFormItem("Fonts folder", fontsDir),
		widget.NewFormItem("", watch),
		widget.NewFormItem("Highlight markers", markers),
		widget.NewFormItem("Export folder", exportDir),
		widget.NewFormItem("", telemetryOpt),
	}
	dlg := dialog.NewForm("Settings", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		next := cfg
		next.Library = config.LibraryConfig{Driver: driver.Selected, Path: strings.TrimSpace(path.Text), DSN: strings.TrimSpace(dsn.Text)}
		next.Fonts = config.FontsConfig{Dir: strings.TrimSpace(fontsDir.Text), Watch: watch.Checked}
		next.Presentation.Markers = splitMarkers(markers.Text)
		next.Presentation.ExportDir = strings.TrimSpace(exportDir.Text)
		next.General.TelemetryOptIn = telemetryOpt.Checked
		if err := next.Validate(); err != nil {
			dialog.ShowError(err, w)
			return
		}
		if err := config.Save(next, password.Text); err != nil {
			dialog.ShowError(err, w)
			return
		}
		dialog.ShowInformation("Settings", "Settings saved. Restart Lyric Presenter to apply them.", w)
	}, w)
	dlg.Resize(fyne.NewSize(560, 520))
	dlg.Show()
}
