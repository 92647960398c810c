// Package config handles global ifcq configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/ifcq/internal/atomicfile"
)

// Defaults applied when a key is absent.
const (
	DefaultServerAddr    = "127.0.0.1:8740"
	DefaultServerTimeout = 30 * time.Second
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "text"
)

// Config represents the global ifcq configuration.
type Config struct {
	// DefaultModel is the model id used when a command is not given one.
	DefaultModel string `toml:"default_model"`

	// Workers bounds concurrent element extraction. 0 or 1 extracts serially.
	Workers int `toml:"workers"`

	// Strict makes malformed query text an error instead of an empty result.
	Strict bool `toml:"strict"`

	// Models maps model ids to property dump paths.
	Models map[string]string `toml:"models"`

	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// ServerConfig configures `ifcq serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// Timeout is a Go duration string, e.g. "30s".
	Timeout string `toml:"timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Format is text or json.
	Format string `toml:"format"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	CodeTheme string `toml:"code_theme"`
}

// ModelPath returns the dump path of a model. An empty id selects the
// default model.
func (c *Config) ModelPath(id string) (string, error) {
	if id == "" {
		id = c.DefaultModel
	}
	if id == "" {
		return "", fmt.Errorf("no default model configured")
	}
	if path, ok := c.Models[id]; ok {
		return path, nil
	}
	return "", fmt.Errorf("model '%s' not found in config", id)
}

// ModelIDs returns the configured model ids, sorted.
func (c *Config) ModelIDs() []string {
	ids := make([]string, 0, len(c.Models))
	for id := range c.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ServerAddr returns the configured listen address or the default.
func (c *Config) ServerAddr() string {
	if c.Server.Addr != "" {
		return c.Server.Addr
	}
	return DefaultServerAddr
}

// ServerTimeout parses the configured request timeout.
func (c *Config) ServerTimeout() (time.Duration, error) {
	if c.Server.Timeout == "" {
		return DefaultServerTimeout, nil
	}
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid server.timeout %q: %w", c.Server.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid server.timeout %q: must be positive", c.Server.Timeout)
	}
	return d, nil
}

// LogLevel returns the configured log level or the default.
func (c *Config) LogLevel() string {
	if c.Log.Level != "" {
		return c.Log.Level
	}
	return DefaultLogLevel
}

// LogFormat returns the configured log format or the default.
func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	return DefaultLogFormat
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in config %s", undecoded[0].String(), path)
	}
	if config.Workers < 0 {
		return nil, fmt.Errorf("invalid workers %d in config %s", config.Workers, path)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/ifcq/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "ifcq", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "ifcq", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

const defaultConfig = `# ifcq configuration

# Model used when a command is not given --model
# default_model = "house"

# Property dumps by model id
# [models]
# house = "/path/to/house.ifc.json"

# Parallel element extraction (0 or 1 = serial)
# workers = 4

# Report malformed queries as errors instead of empty results
# strict = false

# [server]
# addr = "127.0.0.1:8740"
# timeout = "30s"

# [log]
# level = "warn"   # debug, info, warn, error
# format = "text"  # text, json

# Optional UI accent color for headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefault creates a default config file at path if it doesn't exist.
// An empty path selects DefaultPath.
func CreateDefault(path string) (string, error) {
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := atomicfile.WriteFile(path, []byte(defaultConfig)); err != nil {
		return "", fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return path, nil
}
