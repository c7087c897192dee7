// Package config handles application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"

	"go.aimuz.me/dictator/hotkey"
)

const (
	appName        = "dictator"
	configFileName = "config.json"
	logFileName    = "dictator.log"
)

// AutoLanguage asks the transcriber to detect the language.
const AutoLanguage = "auto"

// ErrInvalid is returned when the persisted configuration is malformed or
// holds invalid values. The returned Config is still usable: the bad parts
// have been replaced with defaults.
var ErrInvalid = errors.New("config: invalid configuration")

// Config represents the application configuration.
type Config struct {
	Hotkey          string   `json:"hotkey"`
	MinDurationSecs float64  `json:"min_duration_seconds"`
	Model           string   `json:"model"`
	Device          string   `json:"device"`
	Language        string   `json:"language"`
	LanguagePresets []string `json:"language_presets"`
	BeepEnabled     bool     `json:"beep_enabled"`

	// Logging
	LogToFile    bool   `json:"log_to_file"`
	LogToConsole bool   `json:"log_to_console"`
	LogLevel     string `json:"log_level"`

	// Transcription backend
	Backend string `json:"backend"`
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`

	mu   sync.Mutex
	path string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Hotkey:          hotkey.DefaultSpec,
		MinDurationSecs: 0.5,
		Model:           "tiny",
		Device:          "cpu",
		Language:        "en",
		LanguagePresets: []string{"en"},
		BeepEnabled:     true,
		LogToFile:       true,
		LogToConsole:    true,
		LogLevel:        "info",
		Backend:         "whisper-local",
	}
}

// Load loads configuration from the user config directory.
// A missing file is created with defaults.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	if err := migrateLegacyConfig(path); err != nil {
		slog.Warn("failed to import legacy config", "error", err)
	}

	return LoadFrom(path)
}

// LoadFrom loads configuration from path. Keys present in the file override
// the defaults. A malformed file or invalid values yield ErrInvalid together
// with a usable config; only I/O failures other than a missing file return
// a nil config.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.Save(); err != nil {
			slog.Warn("failed to write default config", "path", path, "error", err)
		}
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		cfg.path = path
		return cfg, fmt.Errorf("%w: unmarshal %s: %w", ErrInvalid, path, err)
	}

	if err := cfg.sanitize(); err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	return cfg, nil
}

// sanitize replaces invalid values with their defaults and reports what it
// replaced.
func (c *Config) sanitize() error {
	def := Default()
	var errs []error

	c.Hotkey = strings.TrimSpace(c.Hotkey)
	if _, err := hotkey.Parse(c.Hotkey); err != nil {
		errs = append(errs, fmt.Errorf("hotkey: %w", err))
		c.Hotkey = def.Hotkey
	}

	if c.MinDurationSecs < 0 {
		errs = append(errs, fmt.Errorf("min_duration_seconds: %v is negative", c.MinDurationSecs))
		c.MinDurationSecs = def.MinDurationSecs
	}

	if err := ValidateLanguage(c.Language); err != nil {
		errs = append(errs, fmt.Errorf("language: %w", err))
		c.Language = def.Language
	}
	c.Language = normalizeLanguage(c.Language)

	presets := make([]string, 0, len(c.LanguagePresets)+1)
	for _, p := range c.LanguagePresets {
		if err := ValidateLanguage(p); err != nil {
			errs = append(errs, fmt.Errorf("language_presets: %w", err))
			continue
		}
		p = normalizeLanguage(p)
		if !slices.Contains(presets, p) {
			presets = append(presets, p)
		}
	}
	if !slices.Contains(presets, c.Language) {
		presets = append([]string{c.Language}, presets...)
	}
	c.LanguagePresets = presets

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
		c.LogLevel = def.LogLevel
	}

	return errors.Join(errs...)
}

// ValidateLanguage checks that code is "auto" or a BCP 47 language tag.
func ValidateLanguage(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("empty language code")
	}
	if strings.EqualFold(code, AutoLanguage) {
		return nil
	}
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("unknown language %q: %w", code, err)
	}
	return nil
}

func normalizeLanguage(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ParseLevel converts a log_level value into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *Config) saveLocked() error {
	path := c.path
	if path == "" {
		var err error
		if path, err = configPath(); err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		c.path = path
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// SetLanguage switches the transcription language and persists it.
func (c *Config) SetLanguage(code string) error {
	if err := ValidateLanguage(code); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Language = normalizeLanguage(code)
	if !slices.Contains(c.LanguagePresets, c.Language) {
		c.LanguagePresets = append(c.LanguagePresets, c.Language)
	}
	return c.saveLocked()
}

// SetBeepEnabled toggles the audible cues and persists the choice.
func (c *Config) SetBeepEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.BeepEnabled = enabled
	return c.saveLocked()
}

// IsBeepEnabled reports the beep setting under the config lock.
func (c *Config) IsBeepEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.BeepEnabled
}

// CurrentLanguage returns the language under the config lock.
func (c *Config) CurrentLanguage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Language
}

// MinDuration returns the minimum recording length to transcribe.
func (c *Config) MinDuration() time.Duration {
	return time.Duration(c.MinDurationSecs * float64(time.Second))
}

// Path returns the file the config is persisted to.
func (c *Config) Path() string {
	return c.path
}

// LogPath returns the log file location next to the config file.
func (c *Config) LogPath() string {
	return filepath.Join(filepath.Dir(c.path), logFileName)
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// migrateLegacyConfig imports a config.json kept next to the executable,
// where earlier releases stored it, if the user config does not exist yet.
func migrateLegacyConfig(path string) error {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	legacy := filepath.Join(filepath.Dir(exe), configFileName)

	return copyFile(legacy, path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing to migrate
			return nil
		}
		return fmt.Errorf("open legacy config: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy legacy config: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}

	slog.Info("imported legacy config", "from", src, "to", dst)
	return nil
}
