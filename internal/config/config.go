// Package config loads the constellation settings: defaults, then
// ~/.config/constellation/config.yml (or an explicit YAML or .toml file),
// then CONSTELLATION_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the merged configuration.
type Config struct {
	APIURL       string  `yaml:"api_url,omitempty" toml:"api_url,omitempty"`
	APIToken     string  `yaml:"api_token,omitempty" toml:"api_token,omitempty"`
	DBPath       string  `yaml:"db_path,omitempty" toml:"db_path,omitempty"`
	ListenAddr   string  `yaml:"listen_addr,omitempty" toml:"listen_addr,omitempty"`
	MaxVisible   int     `yaml:"max_visible,omitempty" toml:"max_visible,omitempty"`
	SnapshotPath string  `yaml:"snapshot_path,omitempty" toml:"snapshot_path,omitempty"`
	Width        float64 `yaml:"width,omitempty" toml:"width,omitempty"`
	Height       float64 `yaml:"height,omitempty" toml:"height,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "constellation"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// Environment overrides.
const (
	EnvAPIURL     = "CONSTELLATION_API_URL"
	EnvAPIToken   = "CONSTELLATION_API_TOKEN"
	EnvDB         = "CONSTELLATION_DB"
	EnvListen     = "CONSTELLATION_LISTEN"
	EnvMaxVisible = "CONSTELLATION_MAX_VISIBLE"
)

// ErrInvalid marks a config value out of range.
var ErrInvalid = errors.New("invalid config")

// Default returns the built-in settings. MaxVisible 0 shows every node.
func Default() *Config {
	return &Config{
		APIURL:       "http://localhost:8000/api/v1",
		DBPath:       "constellation.db",
		ListenAddr:   "localhost:8000",
		SnapshotPath: "layout.json",
		Width:        1200,
		Height:       800,
	}
}

// Path returns the default config file location.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/constellation/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load merges defaults, the file at path (Path() when empty) and the
// environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = Path()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func decode(path string, data []byte, cfg *Config) error {
	if isTOML(path) {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(EnvMaxVisible); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, EnvMaxVisible, v)
		}
		c.MaxVisible = n
	}
	return nil
}

// Validate checks ranges.
func (c *Config) Validate() error {
	if c.MaxVisible < 0 {
		return fmt.Errorf("%w: max_visible must be >= 0, got %d", ErrInvalid, c.MaxVisible)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: viewport %gx%g", ErrInvalid, c.Width, c.Height)
	}
	if c.APIURL == "" {
		return fmt.Errorf("%w: api_url is empty", ErrInvalid)
	}
	return nil
}

// Save writes c as YAML, or TOML for a .toml path, creating the parent
// directory.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
