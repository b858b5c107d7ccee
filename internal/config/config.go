// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/huddle/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete huddle configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" json:"server"`
	Limits  LimitsConfig  `toml:"limits" json:"limits"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
	Archive ArchiveConfig `toml:"archive" json:"archive"`
}

// UnlimitedReconnects as server.reconnect_attempts redials forever.
const UnlimitedReconnects = -1

// ServerConfig describes the chat server endpoints and connection pacing.
type ServerConfig struct {
	// SocketURL is the WebSocket endpoint (ws:// or wss://)
	SocketURL string `toml:"socket_url" json:"socket_url"`
	// APIURL is the REST base URL used by status and history
	APIURL string `toml:"api_url" json:"api_url"`
	// Room is the room id attached to outgoing messages
	Room string `toml:"room" json:"room"`

	HandshakeTimeoutMs int `toml:"handshake_timeout_ms" json:"handshake_timeout_ms"`
	// ReconnectAttempts is the number of redials after a failure (0 disables,
	// -1 retries forever)
	ReconnectAttempts int `toml:"reconnect_attempts" json:"reconnect_attempts"`
	ReconnectDelayMs  int `toml:"reconnect_delay_ms" json:"reconnect_delay_ms"`
	PingIntervalMs    int `toml:"ping_interval_ms" json:"ping_interval_ms"`
}

// LimitsConfig holds client-side input limits.
type LimitsConfig struct {
	MaxMessageLength int `toml:"max_message_length" json:"max_message_length"`
	MaxNameLength    int `toml:"max_name_length" json:"max_name_length"`
}

// UIConfig holds presentation settings. This section is re-applied live when
// the config file changes.
type UIConfig struct {
	ShowTimestamps      bool `toml:"show_timestamps" json:"show_timestamps"`
	Hyperlinks          bool `toml:"hyperlinks" json:"hyperlinks"`
	NoticePreviewLength int  `toml:"notice_preview_length" json:"notice_preview_length"`
	ShowRoster          bool `toml:"show_roster" json:"show_roster"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error
	Level string `toml:"level" json:"level"`
	Path  string `toml:"path" json:"path"`
}

// ArchiveConfig controls the optional local message archive.
type ArchiveConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

// HandshakeTimeout returns the dial handshake timeout.
func (s ServerConfig) HandshakeTimeout() time.Duration {
	return time.Duration(s.HandshakeTimeoutMs) * time.Millisecond
}

// ReconnectDelay returns the minimum spacing between redials.
func (s ServerConfig) ReconnectDelay() time.Duration {
	return time.Duration(s.ReconnectDelayMs) * time.Millisecond
}

// PingInterval returns the keepalive ping period.
func (s ServerConfig) PingInterval() time.Duration {
	return time.Duration(s.PingIntervalMs) * time.Millisecond
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			SocketURL:          "ws://localhost:8000/ws",
			APIURL:             "http://localhost:8000/api",
			Room:               "general",
			HandshakeTimeoutMs: 20000,
			ReconnectAttempts:  5,
			ReconnectDelayMs:   1000,
			PingIntervalMs:     25000,
		},
		Limits: LimitsConfig{
			MaxMessageLength: util.DefaultMaxMessageLength,
			MaxNameLength:    util.DefaultMaxNameLength,
		},
		UI: UIConfig{
			ShowTimestamps:      true,
			Hyperlinks:          true,
			NoticePreviewLength: 50,
			ShowRoster:          true,
		},
		Log: LogConfig{
			Level: "info",
			Path:  "~/.huddle/huddle.log",
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Path:    "~/.huddle/archive.db",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the huddle configuration directory path.
// CONFIG: HUDDLE_HOME overrides ~/.huddle.
func ConfigDir() (string, error) {
	if dir := os.Getenv("HUDDLE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".huddle"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ActivePath returns the config file Load would read: the TOML file if it
// exists, else the JSON file if it exists, else the TOML path.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ExpandPath expands a leading "~/" to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
// CONFIG: A file that fails to parse is reported alongside the defaults.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err := LoadFromPath(tomlPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = err
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			cfg, err := LoadFromPath(jsonPath)
			if err == nil {
				return cfg, nil
			}
			if loadErr == nil {
				loadErr = err
			}
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, loadErr
}

// LoadTOML decodes a TOML file into cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg. Keys absent from the file keep
// their current values.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are decoded as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML saves the configuration to a TOML file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# huddle configuration file\n")
	b.WriteString("# Environment variables (HUDDLE_*) override these values.\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate validates the configuration and returns any errors.
// CONFIG: Every problem is collected so one run reports all of them.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Server
	// ==========================================================================

	if err := validateURL(c.Server.SocketURL, "ws", "wss"); err != nil {
		errs = append(errs, ValidationError{Field: "server.socket_url", Message: err.Error()})
	}
	if err := validateURL(c.Server.APIURL, "http", "https"); err != nil {
		errs = append(errs, ValidationError{Field: "server.api_url", Message: err.Error()})
	}
	if strings.TrimSpace(c.Server.Room) == "" {
		errs = append(errs, ValidationError{Field: "server.room", Message: "room cannot be empty"})
	}
	if c.Server.HandshakeTimeoutMs <= 0 {
		errs = append(errs, ValidationError{Field: "server.handshake_timeout_ms", Message: "must be positive"})
	}
	if c.Server.ReconnectAttempts < UnlimitedReconnects {
		errs = append(errs, ValidationError{Field: "server.reconnect_attempts", Message: "must be -1 (unlimited) or more"})
	}
	if c.Server.ReconnectDelayMs < 0 {
		errs = append(errs, ValidationError{Field: "server.reconnect_delay_ms", Message: "cannot be negative"})
	}
	if c.Server.PingIntervalMs <= 0 {
		errs = append(errs, ValidationError{Field: "server.ping_interval_ms", Message: "must be positive"})
	}

	// ==========================================================================
	// Limits
	// ==========================================================================

	if c.Limits.MaxMessageLength <= 0 {
		errs = append(errs, ValidationError{Field: "limits.max_message_length", Message: "must be positive"})
	}
	if c.Limits.MaxNameLength < util.MinNameLength {
		errs = append(errs, ValidationError{
			Field:   "limits.max_name_length",
			Message: fmt.Sprintf("must be at least %d", util.MinNameLength),
		})
	}

	// ==========================================================================
	// UI, log, archive
	// ==========================================================================

	if c.UI.NoticePreviewLength <= 0 {
		errs = append(errs, ValidationError{Field: "ui.notice_preview_length", Message: "must be positive"})
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: trace, debug, info, warn, error", c.Log.Level),
		})
	}
	if c.Archive.Enabled && strings.TrimSpace(c.Archive.Path) == "" {
		errs = append(errs, ValidationError{Field: "archive.path", Message: "required when archive is enabled"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	if raw == "" {
		return errors.New("URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) {
			if u.Host == "" {
				return errors.New("URL has no host")
			}
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme '%s', must be one of: %s", u.Scheme, strings.Join(schemes, ", "))
}

// SetDefaults fills zero values with defaults. Booleans are left alone since
// false is a meaningful setting.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Server.SocketURL == "" {
		c.Server.SocketURL = d.Server.SocketURL
	}
	if c.Server.APIURL == "" {
		c.Server.APIURL = d.Server.APIURL
	}
	if c.Server.Room == "" {
		c.Server.Room = d.Server.Room
	}
	if c.Server.HandshakeTimeoutMs == 0 {
		c.Server.HandshakeTimeoutMs = d.Server.HandshakeTimeoutMs
	}
	if c.Server.PingIntervalMs == 0 {
		c.Server.PingIntervalMs = d.Server.PingIntervalMs
	}

	if c.Limits.MaxMessageLength == 0 {
		c.Limits.MaxMessageLength = d.Limits.MaxMessageLength
	}
	if c.Limits.MaxNameLength == 0 {
		c.Limits.MaxNameLength = d.Limits.MaxNameLength
	}

	if c.UI.NoticePreviewLength == 0 {
		c.UI.NoticePreviewLength = d.UI.NoticePreviewLength
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Path == "" {
		c.Log.Path = d.Log.Path
	}
	if c.Archive.Path == "" {
		c.Archive.Path = d.Archive.Path
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - HUDDLE_SOCKET_URL: overrides server.socket_url
//   - HUDDLE_API_URL: overrides server.api_url
//   - HUDDLE_ROOM: overrides server.room
//   - HUDDLE_RECONNECT_ATTEMPTS: overrides server.reconnect_attempts
//   - HUDDLE_RECONNECT_DELAY_MS: overrides server.reconnect_delay_ms
//   - HUDDLE_LOG_LEVEL: overrides log.level
//   - HUDDLE_ARCHIVE: set to "1" or "true" to enable the archive
//
// Unparseable numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("HUDDLE_SOCKET_URL"); v != "" {
		c.Server.SocketURL = v
	}
	if v := os.Getenv("HUDDLE_API_URL"); v != "" {
		c.Server.APIURL = v
	}
	if v := os.Getenv("HUDDLE_ROOM"); v != "" {
		c.Server.Room = v
	}
	if v := os.Getenv("HUDDLE_RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.ReconnectAttempts = n
		}
	}
	if v := os.Getenv("HUDDLE_RECONNECT_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.ReconnectDelayMs = n
		}
	}
	if v := os.Getenv("HUDDLE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HUDDLE_ARCHIVE"); v != "" {
		c.Archive.Enabled = v == "1" || strings.ToLower(v) == "true"
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.room").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup resolves a dotted key against the toml tags of Config.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i], "."))
		}
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
	}
	return v, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if strings.EqualFold(t.Field(i).Tag.Get("toml"), name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := prefix + f.Tag.Get("toml")
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, name+".", keys)
			continue
		}
		*keys = append(*keys, name)
	}
}

// String returns the configuration as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
