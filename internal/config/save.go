package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/ifcq/internal/atomicfile"
)

type persistedConfig struct {
	DefaultModel *string              `toml:"default_model,omitempty"`
	Workers      *int                 `toml:"workers,omitempty"`
	Strict       *bool                `toml:"strict,omitempty"`
	Models       map[string]string    `toml:"models,omitempty"`
	Server       *ServerConfig        `toml:"server,omitempty"`
	Log          *LogConfig           `toml:"log,omitempty"`
	UI           *persistedUISettings `toml:"ui,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the config to path atomically. Zero-valued keys are omitted.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{DefaultModel: nonEmptyPtr(cfg.DefaultModel)}
	if cfg.Workers != 0 {
		out.Workers = &cfg.Workers
	}
	if cfg.Strict {
		out.Strict = &cfg.Strict
	}
	if len(cfg.Models) > 0 {
		out.Models = cfg.Models
	}
	if cfg.Server != (ServerConfig{}) {
		out.Server = &cfg.Server
	}
	if cfg.Log != (LogConfig{}) {
		out.Log = &cfg.Log
	}

	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{
			Accent:    accent,
			CodeTheme: codeTheme,
		}
	}

	err := atomicfile.Write(path, func(w io.Writer) error {
		return toml.NewEncoder(w).Encode(out)
	})
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
