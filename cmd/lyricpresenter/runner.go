/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"lyricpresenter/internal/app"
	"lyricpresenter/internal/config"
	"lyricpresenter/internal/export"
	applog "lyricpresenter/internal/log"
	"lyricpresenter/internal/slides"
	"lyricpresenter/internal/storage"
	"lyricpresenter/internal/telemetry"
	"lyricpresenter/internal/textlayout"
	"lyricpresenter/internal/ui"
)

var errUsage = errors.New("usage")

// Runner owns the services shared by all commands. They are built on first
// use so that version and help work without a library.
type Runner struct {
	cfg      config.AppConfig
	store    *storage.Store
	fonts    *textlayout.FontLibrary
	screen   *textlayout.ScreenMeasurer
	ctrl     *app.Controller
	tel      *telemetry.Client
	log      *slog.Logger
	closed   bool
	openedAt time.Time
}

func (r *Runner) open(ctx context.Context) error {
	if r.ctrl != nil {
		return nil
	}
	r.openedAt = time.Now()
	cfg, secret, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.cfg = cfg
	applog.Init(cfg.LogOptions())
	r.log = applog.WithComponent("cli")

	tcfg := telemetry.FromEnv()
	tcfg.OptIn = cfg.General.TelemetryOptIn
	r.tel = telemetry.New(tcfg)
	telemetry.SetDefault(r.tel)

	opt := storage.Options{Driver: storage.Dialect(cfg.Library.Driver), DSN: cfg.Library.DSN, Password: secret}
	if opt.Driver == storage.SQLite {
		if opt.Path, err = cfg.SQLitePath(); err != nil {
			return err
		}
	}
	store, err := storage.Open(ctx, opt)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	r.store = store

	r.fonts = textlayout.NewFontLibrary()
	if dir := cfg.Fonts.Dir; dir != "" {
		n, err := r.fonts.LoadDir(dir)
		if err != nil {
			r.log.Warn("fonts not loaded", slog.String("dir", dir), slog.Any("err", err))
		} else {
			r.log.Info("fonts loaded", slog.String("dir", dir), slog.Int("files", n))
		}
	}
	r.screen = textlayout.NewScreenMeasurer(r.fonts)
	formatter := slides.NewFormatter(cfg.Presentation.Markers)
	r.ctrl = app.New(app.Options{
		Repo:      store,
		Writer:    export.PPTXWriter{Title: "Lyric Presenter"},
		Preview:   slides.NewAssembler(r.screen, formatter),
		Export:    slides.NewAssembler(textlayout.NewDocumentMeasurer(r.fonts), formatter),
		Telemetry: r.tel,
	})
	if err := r.ctrl.Reload(ctx); err != nil {
		return err
	}
	r.tel.Event(telemetry.EventStarted, map[string]any{"driver": cfg.Library.Driver})
	return nil
}

// Close releases the library and flushes telemetry. It is safe to call twice.
func (r *Runner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	if r.ctrl != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		r.ctrl.Wait(ctx)
		cancel()
	}
	if r.tel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		r.tel.Flush(ctx)
		cancel()
		r.tel.Close()
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil && r.log != nil {
			r.log.Warn("close library failed", slog.Any("err", err))
		}
	}
	if r.log != nil {
		r.log.Debug("closed", slog.Duration("uptime", time.Since(r.openedAt)))
	}
}

func (r *Runner) renderer() export.Renderer { return export.Renderer{Fonts: r.screen} }

// UI launches the desktop window.
func (r *Runner) UI(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Present() {
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd.Args().First())
	}
	if err := r.open(ctx); err != nil {
		return err
	}
	deps := ui.Deps{
		Controller: r.ctrl,
		Renderer:   r.renderer(),
		Config:     r.cfg,
		Families:   r.fonts.Families,
	}
	if dir := r.cfg.Fonts.Dir; dir != "" {
		deps.WatchFonts = func(ctx context.Context) error {
			return textlayout.WatchFonts(ctx, dir, r.fonts, r.ctrl.FontsReloaded)
		}
	}
	return ui.Run(deps)
}
