/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads and saves the user configuration: a YAML file in the
// user scope, environment overrides on top of it, and the backend token kept
// in the OS keyring.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Pen           PenConfig     `yaml:"pen"`
	Marker        MarkerConfig  `yaml:"marker"`
	Editor        EditorConfig  `yaml:"editor"`
	History       HistoryConfig `yaml:"history"`
	Backend       BackendConfig `yaml:"backend"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

type CanvasConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Background string  `yaml:"background"` // #rrggbb
	Grid       float64 `yaml:"grid"`       // grid spacing, 0 = off
}

type PenConfig struct {
	Width float64 `yaml:"width"`
	Color string  `yaml:"color"` // #rrggbb
}

type MarkerConfig struct {
	Enabled bool    `yaml:"enabled"`
	Size    float64 `yaml:"size"`
}

type EditorConfig struct {
	DebounceMs int    `yaml:"debounce_ms"`
	Workspace  string `yaml:"workspace"`
}

type HistoryConfig struct {
	KeepLast int `yaml:"keep_last"`
}

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	DSN  string `yaml:"dsn"` // empty keeps programs in memory
	// Secret signs API tokens. Only read from TURTLE_SERVER_SECRET.
	Secret string `yaml:"-"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Canvas:        CanvasConfig{Width: 890, Height: 920, Background: "#ffffff"},
		Pen:           PenConfig{Width: 2, Color: "#000000"},
		Marker:        MarkerConfig{Enabled: true, Size: 40},
		Editor:        EditorConfig{DebounceMs: 500},
		History:       HistoryConfig{KeepLast: 200},
		Backend:       BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000},
		Server:        ServerConfig{Addr: ":8080"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "TURTLE_CONFIG"
	EnvCanvasWidth      = "TURTLE_CANVAS_WIDTH"
	EnvCanvasHeight     = "TURTLE_CANVAS_HEIGHT"
	EnvDebounceMs       = "TURTLE_DEBOUNCE_MS"
	EnvWorkspace        = "TURTLE_WORKSPACE"
	EnvBackendURL       = "TURTLE_BACKEND_URL"
	EnvBackendTimeoutMs = "TURTLE_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "TURTLE_TLS_INSECURE"
	EnvServerAddr       = "TURTLE_SERVER_ADDR"
	EnvServerDSN        = "TURTLE_DATABASE_URL"
	EnvServerSecret     = "TURTLE_SERVER_SECRET"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "TURTLE_LOG_LEVEL"
	EnvLogFormat = "TURTLE_LOG_FORMAT"
	EnvLogSource = "TURTLE_LOG_SOURCE"
	EnvLogFile   = "TURTLE_LOG_FILE"
)

// ConfigPath returns the per-user config file path. TURTLE_CONFIG wins.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoTurtle")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoTurtle")
	default: // linux and others
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "goturtle")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and merges
// environment overrides. The backend token comes from the keyring and is
// returned separately. A malformed file is reported but the defaults are
// still returned.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	var ferr error
	if data, err := os.ReadFile(path); err == nil {
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		} else {
			ferr = fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, ferr
}

// Save writes the user config YAML and persists the token into the OS
// keyring when non-empty.
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Canvas.Width > 0 {
		dst.Canvas.Width = src.Canvas.Width
	}
	if src.Canvas.Height > 0 {
		dst.Canvas.Height = src.Canvas.Height
	}
	if s := strings.TrimSpace(src.Canvas.Background); s != "" {
		dst.Canvas.Background = s
	}
	if src.Canvas.Grid >= 0 {
		dst.Canvas.Grid = src.Canvas.Grid
	}
	if src.Pen.Width > 0 {
		dst.Pen.Width = src.Pen.Width
	}
	if s := strings.TrimSpace(src.Pen.Color); s != "" {
		dst.Pen.Color = s
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Marker.Enabled = src.Marker.Enabled
	if src.Marker.Size > 0 {
		dst.Marker.Size = src.Marker.Size
	}
	if src.Editor.DebounceMs > 0 {
		dst.Editor.DebounceMs = src.Editor.DebounceMs
	}
	if s := strings.TrimSpace(src.Editor.Workspace); s != "" {
		dst.Editor.Workspace = s
	}
	if src.History.KeepLast != 0 {
		dst.History.KeepLast = src.History.KeepLast
	}
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	if s := strings.TrimSpace(src.Server.Addr); s != "" {
		dst.Server.Addr = s
	}
	if s := strings.TrimSpace(src.Server.DSN); s != "" {
		dst.Server.DSN = s
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func envInt(name string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	envInt(EnvCanvasWidth, &cfg.Canvas.Width)
	envInt(EnvCanvasHeight, &cfg.Canvas.Height)
	envInt(EnvDebounceMs, &cfg.Editor.DebounceMs)
	if v := strings.TrimSpace(os.Getenv(EnvWorkspace)); v != "" {
		cfg.Editor.Workspace = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	envInt(EnvBackendTimeoutMs, &cfg.Backend.TimeoutMs)
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerDSN)); v != "" {
		cfg.Server.DSN = v
	}
	cfg.Server.Secret = os.Getenv(EnvServerSecret)
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"canvas.width":         EnvCanvasWidth,
	"canvas.height":        EnvCanvasHeight,
	"editor.debounce_ms":   EnvDebounceMs,
	"editor.workspace":     EnvWorkspace,
	"backend.base_url":     EnvBackendURL,
	"backend.timeout_ms":   EnvBackendTimeoutMs,
	"backend.tls_insecure": EnvBackendTLSInsec,
	"server.addr":          EnvServerAddr,
	"server.dsn":           EnvServerDSN,
	"logging.level":        EnvLogLevel,
	"logging.format":       EnvLogFormat,
	"logging.source":       EnvLogSource,
	"logging.file":         EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by an
// environment variable.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envByKey[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the backend timeout, falling back to the default.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// Debounce returns the editor debounce delay, falling back to the default.
func (e EditorConfig) Debounce() time.Duration {
	if e.DebounceMs <= 0 {
		return time.Duration(Defaults().Editor.DebounceMs) * time.Millisecond
	}
	return time.Duration(e.DebounceMs) * time.Millisecond
}
