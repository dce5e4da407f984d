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
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "lyricpresenter/internal/log"
	"lyricpresenter/internal/telemetry"
)

// DeckExt is appended to export paths that carry no extension.
const DeckExt = ".pptx"

// ExportResult describes a finished export.
type ExportResult struct {
	JobID   string
	Path    string
	Slides  int
	Elapsed time.Duration
}

// exportGuard admits one export at a time and lets callers wait for it.
type exportGuard struct {
	mu      sync.Mutex
	running string
	wg      sync.WaitGroup
}

func (g *exportGuard) tryStart(jobID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running != "" {
		return false
	}
	g.running = jobID
	g.wg.Add(1)
	return true
}

func (g *exportGuard) done() {
	g.mu.Lock()
	g.running = ""
	g.mu.Unlock()
	g.wg.Done()
}

// Running returns the id of the export in progress, if any.
func (c *Controller) Running() (jobID string, ok bool) {
	c.jobs.mu.Lock()
	defer c.jobs.mu.Unlock()
	return c.jobs.running, c.jobs.running != ""
}

// Wait blocks until the running export finished or ctx is done.
func (c *Controller) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		c.jobs.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// ExportPath normalises a user-chosen path: surrounding blanks are removed and
// DeckExt is added when the name has no extension.
func ExportPath(path string) string {
	path = strings.TrimSpace(path)
	if path != "" && filepath.Ext(path) == "" {
		path += DeckExt
	}
	return path
}

// prepare validates the request and snapshots the session.
func (c *Controller) prepare(path string) (string, snapshot, error) {
	path = ExportPath(path)
	if path == "" {
		return "", snapshot{}, c.warn("export", "Choose a file to export to.", invalid("empty export path"))
	}
	c.mu.Lock()
	snap := c.sess.snapshot()
	c.mu.Unlock()
	if len(snap.songs) == 0 {
		return "", snapshot{}, c.warn("export", "Add songs to the playlist before exporting.", ErrEmptyPlaylist)
	}
	return path, snap, nil
}

// Export assembles the playlist and writes it to path on the calling goroutine.
func (c *Controller) Export(ctx context.Context, path string) (ExportResult, error) {
	path, snap, err := c.prepare(path)
	if err != nil {
		return ExportResult{}, err
	}
	jobID := uuid.New().String()
	if !c.jobs.tryStart(jobID) {
		return ExportResult{}, c.warn("export", "An export is already running.", ErrExportRunning)
	}
	defer c.jobs.done()
	return c.runExport(ctx, jobID, path, snap)
}

// ExportAsync snapshots the playlist and theme, then assembles and writes the
// deck on a worker goroutine. Edits made after ExportAsync returns do not affect
// the output. Exactly one of ExportFinished or ExportFailed follows the
// ExportStarted event.
func (c *Controller) ExportAsync(ctx context.Context, path string) (jobID string, err error) {
	path, snap, err := c.prepare(path)
	if err != nil {
		return "", err
	}
	jobID = uuid.New().String()
	if !c.jobs.tryStart(jobID) {
		return "", c.warn("export", "An export is already running.", ErrExportRunning)
	}
	go func() {
		defer c.jobs.done()
		_, _ = c.runExport(context.WithoutCancel(ctx), jobID, path, snap)
	}()
	return jobID, nil
}

func (c *Controller) runExport(ctx context.Context, jobID, path string, snap snapshot) (res ExportResult, err error) {
	ctx = applog.ContextWith(ctx, slog.String("job_id", jobID))
	l := applog.WithOperation(c.log, "export")
	start := time.Now()
	res = ExportResult{JobID: jobID, Path: path}

	c.bus.Publish(ExportStarted{JobID: jobID, Path: path, Songs: len(snap.songs)})
	l.InfoContext(ctx, "export started", slog.String("path", path), slog.Int("songs", len(snap.songs)))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("export panicked: %v", r)
		}
		res.Elapsed = time.Since(start)
		if err != nil {
			l.ErrorContext(ctx, "export failed", slog.Any("err", err))
			c.bus.Publish(ExportFailed{JobID: jobID, Path: path, Err: err})
			c.tel.Event(telemetry.EventExportFailed, map[string]any{"songs": len(snap.songs), "reason": failureReason(err)})
			return
		}
		l.InfoContext(ctx, "export finished", slog.Int("slides", res.Slides), slog.Duration("elapsed", res.Elapsed))
		c.bus.Publish(ExportFinished{JobID: jobID, Path: path, Slides: res.Slides, Elapsed: res.Elapsed})
		c.tel.Event(telemetry.EventExportFinished, map[string]any{
			"songs":  len(snap.songs),
			"slides": res.Slides,
			"ms":     res.Elapsed.Milliseconds(),
		})
	}()

	deck, err := c.export.Assemble(snap.songs, snap.theme, snap.overrides)
	if err != nil {
		return res, fmt.Errorf("assemble: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := c.writer.Write(path, deck); err != nil {
		return res, err
	}
	res.Slides = len(deck.Slides)
	return res, nil
}

// failureReason is a coarse, path-free classification for telemetry.
func failureReason(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case strings.HasPrefix(err.Error(), "assemble:"):
		return "layout"
	default:
		return "write"
	}
}

