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
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"lyricpresenter/internal/export"
	"lyricpresenter/internal/storage"
	"lyricpresenter/internal/version"
)

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(cmd.Root().Writer, "Lyric Presenter", version.String())
			return err
		},
	}
}

func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List songs, optionally filtered",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Keyword to search for"},
			&cli.StringFlag{Name: "field", Aliases: []string{"f"}, Usage: "title, lyrics, number or page", Value: string(storage.FieldTitle)},
			&cli.IntFlag{Name: "songbook", Aliases: []string{"b"}, Usage: "Restrict to one songbook id"},
		},
		Action: r.List,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write songs to a PowerPoint deck in the given order",
		ArgsUsage: "[<song id>...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output .pptx path", Required: true},
			&cli.StringSliceFlag{Name: "song", Aliases: []string{"s"}, Usage: "Song id, repeatable"},
		},
		Action: r.Export,
	}
}

func previewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Render one slide of a song to PNG",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "song", Aliases: []string{"s"}, Usage: "Song id", Required: true},
			&cli.IntFlag{Name: "slide", Usage: "Slide number, starting at 1", Value: 1},
			&cli.IntFlag{Name: "width", Usage: "Image width in pixels", Value: 1280},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output .png path", Required: true},
		},
		Action: r.Preview,
	}
}

func fontsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "fonts",
		Usage:  "List the font families available for layout",
		Action: r.Fonts,
	}
}

func bundleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "bundle",
		Usage: "Back up or restore the library as a zip bundle",
		Commands: []*cli.Command{
			{
				Name:      "export",
				Usage:     "Write all songbooks and the theme to a bundle",
				ArgsUsage: "<file.zip>",
				Action:    r.BundleExport,
			},
			{
				Name:      "import",
				Usage:     "Merge a bundle into the library",
				ArgsUsage: "<file.zip>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "theme", Usage: "Also replace the theme"},
				},
				Action: r.BundleImport,
			},
		},
	}
}

// List prints songs grouped by songbook.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	field, err := storage.ParseField(cmd.String("field"))
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := r.open(ctx); err != nil {
		return err
	}
	q := storage.SearchQuery{Keyword: cmd.String("query"), Field: field, SongbookID: int64(cmd.Int("songbook"))}
	books, err := r.store.SearchSongs(ctx, q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSONGBOOK\tNO.\tTITLE\tPAGE")
	for _, b := range books {
		for _, s := range b.Songs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, b.Name, optional(s.Number), s.Title, optional(s.Page))
		}
	}
	return tw.Flush()
}

func optional(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// songIDs collects --song flags followed by positional ids, in order.
func songIDs(cmd *cli.Command) ([]int64, error) {
	var ids []int64
	raw := append(append([]string(nil), cmd.StringSlice("song")...), cmd.Args().Slice()...)
	for _, a := range raw {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid song id %q", errUsage, a)
		}
		if id <= 0 {
			return nil, fmt.Errorf("%w: invalid song id %q", errUsage, a)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one song id is required", errUsage)
	}
	return ids, nil
}

// Export queues the given songs and writes the deck synchronously.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	ids, err := songIDs(cmd)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.ctrl.AddToPlaylist(ctx, id); err != nil {
			return fmt.Errorf("song %d: %w", id, err)
		}
	}
	res, err := r.ctrl.Export(ctx, cmd.String("out"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "Wrote %d slides to %s\n", res.Slides, res.Path)
	return err
}

// Preview renders a single slide the way the window shows it.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	if err := r.ctrl.SelectSong(ctx, int64(cmd.Int("song"))); err != nil {
		return err
	}
	pv, err := r.ctrl.Preview(ctx)
	if err != nil {
		return err
	}
	n := cmd.Int("slide")
	if n < 1 || n > len(pv.Slides) {
		return fmt.Errorf("%w: slide %d out of range 1..%d", errUsage, n, len(pv.Slides))
	}
	img, err := r.renderer().RenderSlide(pv.Slides[n-1], pv.Width, pv.Height, cmd.Int("width"))
	if err != nil {
		return err
	}
	out := cmd.String("out")
	if err := export.WritePNG(out, img); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "Slide %d of %d written to %s\n", n, len(pv.Slides), out)
	return err
}

// Fonts lists installed families.
func (r *Runner) Fonts(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}
	for _, f := range r.fonts.Families() {
		if _, err := fmt.Fprintln(cmd.Root().Writer, f); err != nil {
			return err
		}
	}
	return nil
}

func bundlePath(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("%w: expected one bundle path", errUsage)
	}
	return cmd.Args().First(), nil
}

func (r *Runner) BundleExport(ctx context.Context, cmd *cli.Command) error {
	path, err := bundlePath(cmd)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}
	st, err := r.ctrl.ExportLibrary(ctx, path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "Backed up %d songbooks and %d songs to %s\n", st.Songbooks, st.Songs, path)
	return err
}

func (r *Runner) BundleImport(ctx context.Context, cmd *cli.Command) error {
	path, err := bundlePath(cmd)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}
	st, err := r.ctrl.ImportLibrary(ctx, path, cmd.Bool("theme"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.Root().Writer, "Imported %d songbooks and %d songs (%d skipped)\n", st.Songbooks, st.Songs, st.Skipped)
	return err
}
