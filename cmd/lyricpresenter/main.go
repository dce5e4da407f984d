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
	"os"

	"github.com/urfave/cli/v3"

	"lyricpresenter/internal/config"
	"lyricpresenter/internal/crash"
	applog "lyricpresenter/internal/log"
	"lyricpresenter/internal/version"
)

func main() {
	// logging from the environment until the config file is read
	applog.Init(applog.FromEnv())
	defer applog.Shutdown()
	defer crash.Recover(config.CrashDir())

	r := &Runner{}
	defer r.Close()
	if err := newRootCommand(r).Run(context.Background(), os.Args); err != nil {
		applog.WithComponent("cli").Error("command failed", slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := 1
		if errors.Is(err, errUsage) {
			code = 2
		}
		r.Close()
		applog.Shutdown()
		os.Exit(code)
	}
}

func newRootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "lyricpresenter",
		Usage:   "Manage songbooks and turn playlists into PowerPoint lyric decks",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file",
				Sources: cli.EnvVars(config.EnvConfigFile),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if p := cmd.String("config"); p != "" {
				if err := os.Setenv(config.EnvConfigFile, p); err != nil {
					return ctx, err
				}
			}
			return ctx, nil
		},
		Action: r.UI,
		Commands: []*cli.Command{
			versionCommand(),
			listCommand(r),
			exportCommand(r),
			previewCommand(r),
			fontsCommand(r),
			bundleCommand(r),
		},
	}
}
