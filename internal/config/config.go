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
	"github.com/hashicorp/go-multierror"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete kvterm configuration.
type Config struct {
	// Remote interpreter connection
	Remote RemoteConfig `toml:"remote" json:"remote"`

	// Command history persistence
	History HistoryConfig `toml:"history" json:"history"`

	// Terminal UI
	UI UIConfig `toml:"ui" json:"ui"`

	// Diagnostic log
	Log LogConfig `toml:"log" json:"log"`
}

// RemoteConfig describes how to reach the command interpreter.
type RemoteConfig struct {
	// URL is the interpreter's site root
	URL string `toml:"url" json:"url"`
	// CommandPath is the command endpoint below URL
	CommandPath string `toml:"command_path" json:"command_path"`
	// CSRFCookie names the cookie holding the anti-forgery token
	CSRFCookie string `toml:"csrf_cookie" json:"csrf_cookie"`
	// CSRFHeader is the request header carrying the token
	CSRFHeader string `toml:"csrf_header" json:"csrf_header"`
	// CookieFile is a Netscape cookies.txt exported from a browser session.
	// Empty disables it.
	CookieFile string `toml:"cookie_file" json:"cookie_file"`
	// Token is a fixed anti-forgery token. Takes precedence over cookies.
	Token string `toml:"token" json:"token"`
	// Timeout bounds each request, e.g. "10s". Empty or "0" means none.
	Timeout string `toml:"timeout" json:"timeout"`
	// RequestsPerSecond paces requests. 0 means unlimited.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
	// PrimeCSRF fetches the console page on startup to obtain the cookie.
	PrimeCSRF bool `toml:"prime_csrf" json:"prime_csrf"`
}

// HistoryConfig controls the persisted command history.
type HistoryConfig struct {
	// Persist keeps history across sessions
	Persist bool `toml:"persist" json:"persist"`
	// Path is the history database (empty = ~/.kvterm/history.db)
	Path string `toml:"path" json:"path"`
	// MaxEntries caps the stored history
	MaxEntries int `toml:"max_entries" json:"max_entries"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	// Prompt is shown before the input field
	Prompt string `toml:"prompt" json:"prompt"`
	// Sound rings the terminal bell when a suggestion is picked
	Sound bool `toml:"sound" json:"sound"`
	// Vocabulary overrides the autocomplete keywords
	Vocabulary []string `toml:"vocabulary" json:"vocabulary"`
	// MaxSuggestions limits how many suggestions are drawn
	MaxSuggestions int `toml:"max_suggestions" json:"max_suggestions"`
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
}

// LogConfig controls the diagnostic log file.
type LogConfig struct {
	// Path is the log file (empty = ~/.kvterm/kvterm.log)
	Path string `toml:"path" json:"path"`
	// Level is debug, info, warn or error
	Level string `toml:"level" json:"level"`
}

// DefaultVocabulary is the interpreter's command set.
var DefaultVocabulary = []string{"SET", "GET", "UNSET", "COUNTS", "FIND", "BEGIN", "ROLLBACK", "COMMIT", "END"}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{
			URL:         "http://127.0.0.1:8000",
			CommandPath: "/command/",
			CSRFCookie:  "csrftoken",
			CSRFHeader:  "X-CSRFToken",
			Timeout:     "30s",
			PrimeCSRF:   true,
		},
		History: HistoryConfig{
			Persist:    true,
			MaxEntries: 1000,
		},
		UI: UIConfig{
			Prompt:         "> ",
			Sound:          true,
			Vocabulary:     append([]string(nil), DefaultVocabulary...),
			MaxSuggestions: 9,
			Theme:          "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the kvterm configuration directory (~/.kvterm).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".kvterm"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions tightens a config file to 0600, since it may
// hold a session token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads ~/.kvterm/config.toml if present, falling back to defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config at path. A missing file yields defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes the file at path over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Save writes cfg to ~/.kvterm/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// The file may have existed with looser permissions.
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# kvterm configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// DEFAULTS / OVERRIDES / VALIDATION
// =============================================================================

// SetDefaults fills empty fields with defaults and derived paths.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Remote.URL == "" {
		c.Remote.URL = d.Remote.URL
	}
	if c.Remote.CommandPath == "" {
		c.Remote.CommandPath = d.Remote.CommandPath
	}
	if c.Remote.CSRFCookie == "" {
		c.Remote.CSRFCookie = d.Remote.CSRFCookie
	}
	if c.Remote.CSRFHeader == "" {
		c.Remote.CSRFHeader = d.Remote.CSRFHeader
	}
	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = d.History.MaxEntries
	}
	if len(c.UI.Vocabulary) == 0 {
		c.UI.Vocabulary = d.UI.Vocabulary
	}
	if c.UI.MaxSuggestions == 0 {
		c.UI.MaxSuggestions = d.UI.MaxSuggestions
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}

	if dir, err := ConfigDir(); err == nil {
		if c.History.Path == "" {
			c.History.Path = filepath.Join(dir, "history.db")
		}
		if c.Log.Path == "" {
			c.Log.Path = filepath.Join(dir, "kvterm.log")
		}
	}
}

// ApplyEnvOverrides applies KVTERM_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	// KVTERM_URL
	if u := os.Getenv("KVTERM_URL"); u != "" {
		c.Remote.URL = u
	}

	// KVTERM_TOKEN
	if token := os.Getenv("KVTERM_TOKEN"); token != "" {
		c.Remote.Token = token
	}

	// KVTERM_COOKIE_FILE
	if path := os.Getenv("KVTERM_COOKIE_FILE"); path != "" {
		c.Remote.CookieFile = path
	}

	// KVTERM_NO_SOUND
	if v := os.Getenv("KVTERM_NO_SOUND"); v == "1" || strings.EqualFold(v, "true") {
		c.UI.Sound = false
	}

	// KVTERM_LOG_LEVEL
	if level := os.Getenv("KVTERM_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// TimeoutDuration parses Remote.Timeout. Invalid values yield zero; Validate
// reports them.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Remote.Timeout == "" || c.Remote.Timeout == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(field, format string, args ...any) {
		result = multierror.Append(result, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.Remote.URL); err != nil {
		add("remote.url", "invalid URL: %v", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("remote.url", "scheme must be http or https, got %q", u.Scheme)
	} else if u.Host == "" {
		add("remote.url", "missing host")
	}

	if !strings.HasPrefix(c.Remote.CommandPath, "/") {
		add("remote.command_path", "must start with /")
	}
	if strings.ContainsAny(c.Remote.CSRFHeader, " :\t") {
		add("remote.csrf_header", "invalid header name %q", c.Remote.CSRFHeader)
	}
	if c.Remote.Timeout != "" && c.Remote.Timeout != "0" {
		if d, err := time.ParseDuration(c.Remote.Timeout); err != nil {
			add("remote.timeout", "invalid duration %q", c.Remote.Timeout)
		} else if d < 0 {
			add("remote.timeout", "must not be negative")
		}
	}
	if c.Remote.RequestsPerSecond < 0 {
		add("remote.requests_per_second", "must not be negative")
	}

	if c.History.MaxEntries < 0 {
		add("history.max_entries", "must not be negative")
	}

	for i, kw := range c.UI.Vocabulary {
		if strings.TrimSpace(kw) == "" {
			add(fmt.Sprintf("ui.vocabulary[%d]", i), "keyword is empty")
		} else if strings.ContainsAny(kw, " \t") {
			add(fmt.Sprintf("ui.vocabulary[%d]", i), "keyword %q contains whitespace", kw)
		}
	}
	if c.UI.MaxSuggestions < 0 {
		add("ui.max_suggestions", "must not be negative")
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "must be auto, dark or light, got %q", c.UI.Theme)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level", "unknown level %q", c.Log.Level)
	}

	return result.ErrorOrNil()
}

// =============================================================================
// KEY ACCESS
// =============================================================================

// Get returns the value at a dotted key such as "remote.url".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value at a dotted key. String values are converted to the
// field's type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup resolves a dotted key against the toml tags.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from value with type conversion.
func setFieldValue(field reflect.Value, value any) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(b)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(strings.Fields(strings.ReplaceAll(s, ",", " "))))
				return nil
			}
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

// =============================================================================
// HELPERS
// =============================================================================

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	clone.UI.Vocabulary = append([]string(nil), c.UI.Vocabulary...)
	return &clone
}

// String renders the config as TOML with the token redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Remote.Token != "" {
		safe.Remote.Token = "[REDACTED]"
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(safe); err != nil {
		data, _ := json.MarshalIndent(safe, "", "  ")
		return string(data)
	}
	return b.String()
}
