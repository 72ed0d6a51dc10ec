// Package config loads depview settings from a TOML file and the environment.
//
// Precedence, lowest first: built-in defaults, the config file, DEPVIEW_*
// environment variables, command-line flags (applied by the CLI).
//
//	# ~/.config/depview/config.toml
//	service_url = "https://deps.example.com"
//	language    = "de"
//	timeout     = "45s"
//	locales_dir = "~/.config/depview/locales"
//	log_level   = "debug"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/depview/pkg/errors"
	"github.com/matzehuels/depview/pkg/i18n"
)

const (
	appName  = "depview"
	fileName = "config.toml"

	// DefaultServiceURL is where the analysis service listens in a local setup.
	DefaultServiceURL = "http://localhost:5000"
)

// Environment variables that override file settings.
const (
	EnvServiceURL = "DEPVIEW_SERVICE_URL"
	EnvLanguage   = "DEPVIEW_LANG"
	EnvTimeout    = "DEPVIEW_TIMEOUT"
	EnvLogLevel   = "DEPVIEW_LOG_LEVEL"
)

// Config holds all depview settings.
type Config struct {
	ServiceURL string        `toml:"service_url"`
	Language   string        `toml:"language"`
	Timeout    time.Duration `toml:"timeout"` // zero: no client-side timeout
	LocalesDir string        `toml:"locales_dir"`
	LogLevel   string        `toml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ServiceURL: DefaultServiceURL,
		Language:   i18n.DefaultLanguage,
		LogLevel:   "info",
	}
}

// Path returns the default config file location, following the XDG base
// directory convention (~/.config/depview/config.toml).
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the config file at path on top of the defaults, then applies
// environment overrides and validates the result. An empty path means the
// default location, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return cfg, cfg.applyEnvAndValidate()
		}
		path = p
	}

	if err := cfg.decodeFile(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, cfg.applyEnvAndValidate()
		}
		return cfg, err
	}
	return cfg, cfg.applyEnvAndValidate()
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	c.LocalesDir = expandHome(c.LocalesDir)
	return nil
}

func (c *Config) applyEnvAndValidate() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) applyEnv() error {
	c.ServiceURL = getEnv(EnvServiceURL, c.ServiceURL)
	c.Language = getEnv(EnvLanguage, c.Language)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	if s := os.Getenv(EnvTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvTimeout)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	if err := errors.ValidateURL(c.ServiceURL); err != nil {
		return fmt.Errorf("service_url: %w", err)
	}
	if err := errors.ValidateLanguageCode(c.Language); err != nil {
		return fmt.Errorf("language: %w", err)
	}
	if c.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "timeout must not be negative, got %s", c.Timeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c Config) Level() (log.Level, error) {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel, errors.Wrap(errors.ErrCodeInvalidConfig, err, "log_level %q", c.LogLevel)
	}
	return lvl, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
