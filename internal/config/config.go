/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration: a YAML file in the per-user
// config directory, read-only LP_* environment overrides and the database
// password held in the OS keychain.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	applog "lyricpresenter/internal/log"
)

// CurrentVersion is written to config_version on save.
const CurrentVersion = 1

// Library drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	UITheme        string `yaml:"ui_theme"` // "system" | "light" | "dark"
}

type LibraryConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"` // sqlite file; empty means <data dir>/library.db
	DSN    string `yaml:"dsn"`  // postgres; the password is kept in the keychain
}

type FontsConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

type PresentationConfig struct {
	Markers   []string `yaml:"markers"`
	ExportDir string   `yaml:"export_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int                `yaml:"config_version"`
	General       GeneralConfig      `yaml:"general"`
	Library       LibraryConfig      `yaml:"library"`
	Fonts         FontsConfig        `yaml:"fonts"`
	Presentation  PresentationConfig `yaml:"presentation"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: CurrentVersion,
		General:       GeneralConfig{UITheme: "system"},
		Library:       LibraryConfig{Driver: DriverSQLite},
		Fonts:         FontsConfig{Watch: true},
		Presentation:  PresentationConfig{Markers: []string{"ĐK.", "1"}},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile     = "LP_CONFIG"
	EnvTelemetryOptIn = "LP_TELEMETRY_OPT_IN"
	EnvLibraryDriver  = "LP_LIBRARY_DRIVER"
	EnvLibraryPath    = "LP_LIBRARY_PATH"
	EnvLibraryDSN     = "LP_LIBRARY_DSN"
	EnvPGPassword     = "LP_PG_PASSWORD"
	EnvFontsDir       = "LP_FONTS_DIR"
	EnvFontsWatch     = "LP_FONTS_WATCH"
	EnvExportDir      = "LP_EXPORT_DIR"
	EnvLogLevel       = applog.EnvLevel
	EnvLogFormat      = applog.EnvFormat
	EnvLogSource      = applog.EnvSource
	EnvLogFile        = applog.EnvFile
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// baseDir returns the per-user directory for the given kind ("config" or "data").
func baseDir(kind string) (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "LyricPresenter")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "LyricPresenter")
	default:
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve home directory")
		}
		if kind == "data" {
			if x := os.Getenv("XDG_DATA_HOME"); x != "" {
				return filepath.Join(x, "lyricpresenter"), nil
			}
			return filepath.Join(home, ".local", "share", "lyricpresenter"), nil
		}
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			return filepath.Join(x, "lyricpresenter"), nil
		}
		base = filepath.Join(home, ".config", "lyricpresenter")
	}
	return base, nil
}

// ConfigPath returns the config file path. LP_CONFIG takes precedence.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := baseDir("config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DataDir returns the directory holding the default library and crash reports.
func DataDir() (string, error) { return baseDir("data") }

// SQLitePath returns the configured sqlite file or the default under DataDir.
func (c AppConfig) SQLitePath() (string, error) {
	if c.Library.Path != "" {
		return c.Library.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "library.db"), nil
}

// CrashDir returns where crash reports are written; empty when unresolved.
func CrashDir() string {
	dir, err := DataDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "crash")
}

// LogOptions converts the logging section for log.Init.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

// Validate reports settings that would prevent the library from opening.
func (c AppConfig) Validate() error {
	switch c.Library.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(c.Library.DSN) == "" {
			return fmt.Errorf("%w: library.dsn is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown library.driver %q", ErrInvalidConfig, c.Library.Driver)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: unknown logging.format %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// Load reads the config file (if present), applies defaults and environment
// overrides, and returns the postgres password from the keychain separately.
// A missing keychain entry yields an empty password; LP_PG_PASSWORD wins over it.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)

	secret := os.Getenv(EnvPGPassword)
	if secret == "" && cfg.Library.Driver == DriverPostgres {
		if s, err := secretStore.Get(keyringService, keyringPGPassword); err == nil {
			secret = s
		} else if !errors.Is(err, ErrSecretNotFound) {
			applog.WithComponent("config").Warn("keychain read failed", slog.Any("err", err))
		}
	}
	return cfg, secret, nil
}

// Save writes the YAML file and stores secret in the keychain when non-empty.
func Save(cfg AppConfig, secret string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cfg.ConfigVersion = CurrentVersion
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if secret != "" {
		if err := secretStore.Set(keyringService, keyringPGPassword, secret); err != nil {
			return fmt.Errorf("store password in keychain: %w", err)
		}
	}
	return nil
}

// ForgetSecret removes the stored postgres password.
func ForgetSecret() error {
	err := secretStore.Delete(keyringService, keyringPGPassword)
	if errors.Is(err, ErrSecretNotFound) {
		return nil
	}
	return err
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if v := strings.TrimSpace(src.General.UITheme); v != "" {
		dst.General.UITheme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Library.Driver); v != "" {
		dst.Library.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Library.Path); v != "" {
		dst.Library.Path = v
	}
	if v := strings.TrimSpace(src.Library.DSN); v != "" {
		dst.Library.DSN = v
	}
	if v := strings.TrimSpace(src.Fonts.Dir); v != "" {
		dst.Fonts.Dir = v
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Fonts.Watch = src.Fonts.Watch
	if src.Presentation.Markers != nil {
		dst.Presentation.Markers = append([]string(nil), src.Presentation.Markers...)
	}
	if v := strings.TrimSpace(src.Presentation.ExportDir); v != "" {
		dst.Presentation.ExportDir = v
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	str := func(env string, dst *string, lower bool) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			if lower {
				v = strings.ToLower(v)
			}
			*dst = v
		}
	}
	boolean := func(env string, dst *bool) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = parseBool(v)
		}
	}
	boolean(EnvTelemetryOptIn, &cfg.General.TelemetryOptIn)
	str(EnvLibraryDriver, &cfg.Library.Driver, true)
	str(EnvLibraryPath, &cfg.Library.Path, false)
	str(EnvLibraryDSN, &cfg.Library.DSN, false)
	str(EnvFontsDir, &cfg.Fonts.Dir, false)
	boolean(EnvFontsWatch, &cfg.Fonts.Watch)
	str(EnvExportDir, &cfg.Presentation.ExportDir, false)
	str(EnvLogLevel, &cfg.Logging.Level, true)
	str(EnvLogFormat, &cfg.Logging.Format, true)
	boolean(EnvLogSource, &cfg.Logging.Source)
	str(EnvLogFile, &cfg.Logging.File, false)
}

var envKeys = map[string]string{
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"library.driver":           EnvLibraryDriver,
	"library.path":             EnvLibraryPath,
	"library.dsn":              EnvLibraryDSN,
	"fonts.dir":                EnvFontsDir,
	"fonts.watch":              EnvFontsWatch,
	"presentation.export_dir":  EnvExportDir,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
// The settings dialog uses it to show such fields as read-only.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || strings.TrimSpace(os.Getenv(env)) == "" {
		return "", false
	}
	return env, true
}
